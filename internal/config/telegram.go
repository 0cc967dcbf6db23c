package config

import "time"

const (
	defaultPollTimeout   = 60
	defaultHandleTimeout = 5
)

type TelegramConfig struct {
	ApiToken      string `yaml:"token" envconfig:"TELEGRAM_TOKEN"`
	PollTimeout   int    `yaml:"poll-timeout-seconds" envconfig:"TELEGRAM_POLL_TIMEOUT"`
	HandleTimeout int    `yaml:"handle-timeout-seconds" envconfig:"TELEGRAM_HANDLE_TIMEOUT"`
}

func (t *TelegramConfig) Token() string {
	return t.ApiToken
}

func (t *TelegramConfig) PollTimeoutSeconds() int {
	return t.PollTimeout
}

// MessageTimeout bounds the handling of one incoming message.
func (t *TelegramConfig) MessageTimeout() time.Duration {
	return time.Duration(t.HandleTimeout) * time.Second
}
