package config

const defaultCacheTTL = 600

type MemcachedConfig struct {
	NodeHosts []string `yaml:"hosts" envconfig:"MEMCACHED_HOSTS"`
	TTL       int32    `yaml:"ttl-seconds" envconfig:"MEMCACHED_TTL"`
}

func (s *MemcachedConfig) Hosts() []string {
	return s.NodeHosts
}

func (s *MemcachedConfig) TTLSeconds() int32 {
	if s.TTL <= 0 {
		return defaultCacheTTL
	}
	return s.TTL
}

func (s *MemcachedConfig) Enabled() bool {
	return len(s.NodeHosts) > 0
}
