package config

const (
	DriverFile     = "file"
	DriverPostgres = "postgres"

	defaultDataFile = "user_data.json"
)

type StorageConfig struct {
	DriverName string `yaml:"driver" envconfig:"STORAGE_DRIVER"`
	FilePath   string `yaml:"file" envconfig:"STORAGE_FILE"`
}

func (s *StorageConfig) Driver() string {
	return s.DriverName
}

func (s *StorageConfig) File() string {
	return s.FilePath
}
