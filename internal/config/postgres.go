package config

type PostgresConfig struct {
	Hostname string `yaml:"host" envconfig:"POSTGRES_HOST"`
	Db       string `yaml:"db" envconfig:"POSTGRES_DB"`
	User     string `yaml:"username" envconfig:"POSTGRES_USER"`
	Pswd     string `yaml:"password" envconfig:"POSTGRES_PASSWORD"`
}

func (s *PostgresConfig) Host() string {
	return s.Hostname
}

func (s *PostgresConfig) Database() string {
	return s.Db
}

func (s *PostgresConfig) Username() string {
	return s.User
}

func (s *PostgresConfig) Password() string {
	return s.Pswd
}
