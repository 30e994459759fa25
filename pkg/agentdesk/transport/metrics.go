package transport

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	apperrors "github.com/agentdesk/agentdesk-go/pkg/agentdesk/errors"
)

type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	if reg == nil {
		return nil, nil
	}

	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentdesk",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Number of API requests by method and status code.",
		}, []string{"method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "agentdesk",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "API request latency by method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}

	for _, c := range []prometheus.Collector{m.requests, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, apperrors.New(apperrors.ErrCodeConfig, "failed to register transport metrics", err)
		}
	}
	return m, nil
}

// observe records one request; status 0 means no response was received
func (m *metrics) observe(method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status != 0 {
		label = strconv.Itoa(status)
	}
	m.requests.WithLabelValues(method, label).Inc()
	m.duration.WithLabelValues(method).Observe(elapsed.Seconds())
}
