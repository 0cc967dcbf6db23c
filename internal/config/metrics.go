package config

const defaultServiceName = "budget-bot"

type MetricsConfig struct {
	ListenPort int `yaml:"port" envconfig:"METRICS_PORT"`
}

// Port of the /metrics endpoint; 0 disables it.
func (s *MetricsConfig) Port() int {
	return s.ListenPort
}

type TracingConfig struct {
	Enabled bool   `yaml:"enabled" envconfig:"TRACING_ENABLED"`
	Service string `yaml:"service-name" envconfig:"TRACING_SERVICE_NAME"`
}

func (s *TracingConfig) ServiceName() string {
	return s.Service
}
