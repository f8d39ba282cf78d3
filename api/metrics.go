package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Request outcomes recorded by the metrics collector
const (
	OutcomeSuccess         = "success"
	OutcomeAuthentication  = "authentication_error"
	OutcomeValidation      = "validation_error"
	OutcomeAPIError        = "api_error"
	OutcomeInvalidResponse = "invalid_response"
	OutcomeTransport       = "transport_error"
)

type requestMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newRequestMetrics(reg prometheus.Registerer) (*requestMetrics, error) {
	m := &requestMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokenmgmt_api_requests_total",
				Help: "Total number of Token Management API requests",
			},
			[]string{"method", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tokenmgmt_api_request_duration_seconds",
				Help:    "Token Management API round trip duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
			},
			[]string{"method"},
		),
	}

	for _, c := range []prometheus.Collector{m.requests, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register api metrics: %w", err)
		}
	}
	return m, nil
}

func (m *requestMetrics) observe(method string, err error, started time.Time) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, outcomeOf(err)).Inc()
	m.duration.WithLabelValues(method).Observe(time.Since(started).Seconds())
}

// outcomeOf maps a gateway result to its metrics label
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case IsAuthentication(err):
		return OutcomeAuthentication
	case IsValidation(err):
		return OutcomeValidation
	case errors.Is(err, ErrTransport):
		return OutcomeTransport
	case errors.Is(err, ErrInvalidResponse):
		return OutcomeInvalidResponse
	default:
		return OutcomeAPIError
	}
}
