package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	configFileEnvKey  = "CONFIG_FILE"
	defaultConfigFile = "data/config.yaml"
	dotEnvFile        = ".env"
)

type config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	App       AppConfig       `yaml:"app"`
	Storage   StorageConfig   `yaml:"storage"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Memcached MemcachedConfig `yaml:"memcached"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

type Service struct {
	config config
}

// New loads the config file named by CONFIG_FILE (data/config.yaml by default),
// a .env file if present, and environment overrides on top.
func New() (*Service, error) {
	if err := godotenv.Load(dotEnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrap(err, "loading .env")
	}

	path := os.Getenv(configFileEnvKey)
	if path == "" {
		path = defaultConfigFile
	}
	return Load(path)
}

// Load reads the YAML file at path and applies environment overrides.
// A missing file is allowed: everything can come from the environment.
func Load(path string) (*Service, error) {
	s := &Service{}

	rawYAML, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, errors.Wrap(err, "reading config file")
	default:
		if err = yaml.Unmarshal(rawYAML, &s.config); err != nil {
			return nil, errors.Wrap(err, "parsing yaml")
		}
	}

	if err = envconfig.Process("", &s.config); err != nil {
		return nil, errors.Wrap(err, "processing env")
	}

	if err = normalize(&s.config); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return s, nil
}

func normalize(cfg *config) error {
	if strings.TrimSpace(cfg.Telegram.ApiToken) == "" {
		return errors.New("telegram token is required")
	}
	if cfg.Telegram.PollTimeout <= 0 {
		cfg.Telegram.PollTimeout = defaultPollTimeout
	}
	if cfg.Telegram.HandleTimeout <= 0 {
		cfg.Telegram.HandleTimeout = defaultHandleTimeout
	}

	if cfg.App.CurrencyLabel == "" {
		cfg.App.CurrencyLabel = defaultCurrency
	}
	if cfg.App.TimeZone != "" {
		loc, err := time.LoadLocation(cfg.App.TimeZone)
		if err != nil {
			return errors.Wrap(err, "app.timezone")
		}
		cfg.App.location = loc
	}

	cfg.Storage.DriverName = strings.ToLower(strings.TrimSpace(cfg.Storage.DriverName))
	switch cfg.Storage.DriverName {
	case "":
		cfg.Storage.DriverName = DriverFile
	case DriverFile, DriverPostgres:
	default:
		return errors.Errorf("unknown storage.driver %q; allowed: %s, %s", cfg.Storage.DriverName, DriverFile, DriverPostgres)
	}
	if cfg.Storage.FilePath == "" {
		cfg.Storage.FilePath = defaultDataFile
	}

	if cfg.Kafka.Enabled() && cfg.Kafka.AlertTopic == "" {
		return errors.New("kafka.alerts-topic is required when brokers are set")
	}
	if cfg.Tracing.Enabled && cfg.Tracing.Service == "" {
		cfg.Tracing.Service = defaultServiceName
	}
	return nil
}

func (s *Service) Telegram() *TelegramConfig {
	return &s.config.Telegram
}

func (s *Service) App() *AppConfig {
	return &s.config.App
}

func (s *Service) Storage() *StorageConfig {
	return &s.config.Storage
}

func (s *Service) Postgres() *PostgresConfig {
	return &s.config.Postgres
}

func (s *Service) Memcached() *MemcachedConfig {
	return &s.config.Memcached
}

func (s *Service) Kafka() *KafkaConfig {
	return &s.config.Kafka
}

func (s *Service) Metrics() *MetricsConfig {
	return &s.config.Metrics
}

func (s *Service) Tracing() *TracingConfig {
	return &s.config.Tracing
}
