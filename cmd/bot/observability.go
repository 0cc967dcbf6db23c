package main

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uber/jaeger-client-go"
	jaegercfg "github.com/uber/jaeger-client-go/config"
	"go.uber.org/zap"
	"max.ks1230/budget-bot/internal/config"
	"max.ks1230/budget-bot/internal/logger"
)

func initTracing(conf *config.TracingConfig) func() {
	if !conf.Enabled {
		return func() {}
	}

	cfg, err := jaegercfg.FromEnv()
	if err != nil {
		logger.Fatal("failed to read jaeger env", zap.Error(err))
	}
	cfg.ServiceName = conf.ServiceName()
	if cfg.Sampler.Type == "" {
		cfg.Sampler.Type = jaeger.SamplerTypeConst
		cfg.Sampler.Param = 1
	}

	closer, err := cfg.InitGlobalTracer(conf.ServiceName())
	if err != nil {
		logger.Fatal("failed to init tracing", zap.Error(err))
	}
	logger.Info("tracing enabled", zap.String("service", conf.ServiceName()))

	return func() {
		if err := closer.Close(); err != nil {
			logger.Error("failed to close tracer", zap.Error(err))
		}
	}
}

func serveMetrics(conf *config.MetricsConfig) {
	if conf.Port() <= 0 {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf(":%d", conf.Port())

	go func() {
		logger.Info("metrics server listening", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
}
