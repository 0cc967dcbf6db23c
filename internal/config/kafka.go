package config

type KafkaConfig struct {
	BrokerList []string `yaml:"brokers" envconfig:"KAFKA_BROKERS"`
	AlertTopic string   `yaml:"alerts-topic" envconfig:"KAFKA_ALERTS_TOPIC"`
}

func (s *KafkaConfig) Brokers() []string {
	return s.BrokerList
}

func (s *KafkaConfig) AlertsTopic() string {
	return s.AlertTopic
}

func (s *KafkaConfig) Enabled() bool {
	return len(s.BrokerList) > 0
}
