package config

import "time"

const defaultCurrency = "RUB"

type AppConfig struct {
	CurrencyLabel string `yaml:"currency" envconfig:"APP_CURRENCY"`
	TimeZone      string `yaml:"timezone" envconfig:"APP_TIMEZONE"`

	location *time.Location
}

func (s *AppConfig) Currency() string {
	return s.CurrencyLabel
}

// Location is the zone calendar days are counted in; server local time when unset.
func (s *AppConfig) Location() *time.Location {
	if s.location == nil {
		return time.Local
	}
	return s.location
}
