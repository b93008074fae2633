package softaculous

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	backendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "softaculous_backend_requests_total",
			Help: "Total number of HTTP exchanges with Softaculous backends",
		},
		[]string{"backend", "action", "outcome"},
	)

	backendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "softaculous_backend_request_duration_seconds",
			Help:    "Duration of HTTP exchanges with Softaculous backends",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"backend", "action"},
	)
)

func observeExchange(kind BackendKind, action string, start time.Time, err error) {
	outcome := "ok"
	if k := KindOf(err); k != "" {
		outcome = string(k)
	} else if err != nil {
		outcome = "error"
	}
	backendRequestsTotal.WithLabelValues(string(kind), action, outcome).Inc()
	backendRequestDuration.WithLabelValues(string(kind), action).Observe(time.Since(start).Seconds())
}
