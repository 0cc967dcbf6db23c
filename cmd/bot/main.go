package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"max.ks1230/budget-bot/internal/clients/cache"
	"max.ks1230/budget-bot/internal/clients/kafka"
	"max.ks1230/budget-bot/internal/clients/tg"
	"max.ks1230/budget-bot/internal/config"
	"max.ks1230/budget-bot/internal/entity/alert"
	"max.ks1230/budget-bot/internal/logger"
	"max.ks1230/budget-bot/internal/model/messages"
	"max.ks1230/budget-bot/internal/model/storage"
)

type alertNotifier interface {
	NotifyLimitExceeded(ctx context.Context, a alert.LimitAlert) error
}

func main() {
	defer logger.Sync()
	logger.Info("Bot init - start")

	conf, err := config.New()
	if err != nil {
		logger.Fatal("failed to init config", zap.Error(err))
	}

	closeTracer := initTracing(conf.Tracing())
	defer closeTracer()
	serveMetrics(conf.Metrics())

	userStorage := initStorage(conf)

	var alerts alertNotifier
	if conf.Kafka().Enabled() {
		producer, err := kafka.NewProducer(conf.Kafka())
		if err != nil {
			logger.Fatal("failed to init kafka producer", zap.Error(err))
		}
		defer producer.Close()
		alerts = producer
	}

	client, err := tg.New(conf.Telegram())
	if err != nil {
		logger.Fatal("failed to init client", zap.Error(err))
	}

	msgService := messages.NewService(client, userStorage, alerts, conf.App())

	logger.Info("Bot init - end")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client.ListenUpdates(ctx, msgService)
}

func initStorage(conf *config.Service) storage.UserStorage {
	var userStorage storage.UserStorage

	switch conf.Storage().Driver() {
	case config.DriverPostgres:
		db, err := storage.NewPostgresStorage(conf.Postgres())
		if err != nil {
			logger.Fatal("failed to init postgres", zap.Error(err))
		}
		userStorage = db
	default:
		fs, err := storage.NewFileStorage(conf.Storage().File())
		if err != nil {
			logger.Fatal("failed to init file storage", zap.Error(err), zap.String("path", conf.Storage().File()))
		}
		userStorage = fs
	}
	logger.Info("storage ready", zap.String("driver", conf.Storage().Driver()))

	if conf.Memcached().Enabled() {
		mc, err := cache.NewMemcache(conf.Memcached())
		if err != nil {
			logger.Fatal("failed to init memcached", zap.Error(err))
		}
		userStorage = storage.NewCachedStorage(userStorage, mc)
	}
	return userStorage
}
