package messages

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	histogramResponseTime = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "budget_bot",
			Subsystem: "telegram",
			Name:      "histogram_response_time_seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"status"},
	)

	expensesSaved = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "budget_bot",
		Subsystem: "expenses",
		Name:      "saved_total",
	})

	limitsExceeded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "budget_bot",
		Subsystem: "expenses",
		Name:      "daily_limit_exceeded_total",
	})
)

func observeResponse(elapsed time.Duration, err bool) {
	histogramResponseTime.
		WithLabelValues(strconv.FormatBool(err)).
		Observe(elapsed.Seconds())
}

func observeExpenseSaved() {
	expensesSaved.Inc()
}

func observeLimitExceeded() {
	limitsExceeded.Inc()
}
