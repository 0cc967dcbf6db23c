package alert

import "time"

// LimitAlert is published when a user's spending for a day goes over the daily limit.
// ResetAt is the last instant of that day in the bot's time zone.
type LimitAlert struct {
	UserID     int64     `json:"user_id"`
	DailyLimit float64   `json:"daily_limit"`
	Spent      float64   `json:"spent"`
	Date       string    `json:"date"`
	ResetAt    time.Time `json:"reset_at"`
}
