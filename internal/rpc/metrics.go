package rpc

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK        = "ok"
	outcomeTransport = "transport_error"
	outcomeRemote    = "remote_error"
	outcomeOther     = "error"
)

var (
	callsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_rpc_calls_total",
			Help: "Total number of ledger RPC calls by outcome",
		},
		[]string{"entity", "method", "outcome"},
	)

	callDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_rpc_call_duration_seconds",
			Help:    "Duration of ledger RPC calls including retries",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2, 5, 10, 30},
		},
		[]string{"entity", "method"},
	)
)

func observeCall(entity, method, outcome string, d time.Duration) {
	callsTotal.WithLabelValues(entity, method, outcome).Inc()
	callDuration.WithLabelValues(entity, method).Observe(d.Seconds())
}

func outcomeOf(err error) string {
	var te *TransportError
	var re *RemoteError
	switch {
	case errors.As(err, &re):
		return outcomeRemote
	case errors.As(err, &te):
		return outcomeTransport
	default:
		return outcomeOther
	}
}
