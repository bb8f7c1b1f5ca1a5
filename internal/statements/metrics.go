package statements

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var statementDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "statement_compute_duration_seconds",
		Help:    "Duration of statement computations",
		Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10, 30},
	},
	[]string{"statement", "status"},
)

func observeStatement(statement string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failed"
	}
	statementDuration.WithLabelValues(statement, status).Observe(d.Seconds())
}
