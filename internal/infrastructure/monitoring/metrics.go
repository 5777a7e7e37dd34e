package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/turtacn/authsvc/internal/domain/service"
	"github.com/turtacn/authsvc/pkg/constants"
)

var _ service.Metrics = (*Metrics)(nil)

// Metrics manages the Prometheus metrics.
type Metrics struct {
	SignInRequests      *prometheus.CounterVec
	SignUpRequests      *prometheus.CounterVec
	TokensIssued        prometheus.Counter
	TokensRevoked       prometheus.Counter
	LogoutRequests      *prometheus.CounterVec
	TokenDecodeFailures *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates the metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SignInRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: constants.MetricsNamespace,
				Name:      "signin_total",
				Help:      "Total number of sign-in attempts.",
			},
			[]string{"result"},
		),
		SignUpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: constants.MetricsNamespace,
				Name:      "signup_total",
				Help:      "Total number of sign-up attempts.",
			},
			[]string{"result"},
		),
		TokensIssued: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: constants.MetricsNamespace,
				Name:      "tokens_issued_total",
				Help:      "Total number of issued session tokens.",
			},
		),
		TokensRevoked: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: constants.MetricsNamespace,
				Name:      "tokens_revoked_total",
				Help:      "Total number of tokens invalidated by a newer issue.",
			},
		),
		LogoutRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: constants.MetricsNamespace,
				Name:      "logout_total",
				Help:      "Total number of logout requests.",
			},
			[]string{"result"},
		),
		TokenDecodeFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: constants.MetricsNamespace,
				Name:      "token_decode_failures_total",
				Help:      "Total number of token decode failures by kind.",
			},
			[]string{"kind"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: constants.MetricsNamespace,
				Name:      "http_request_duration_seconds",
				Help:      "Latency of HTTP requests.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
	}
}

func (m *Metrics) RecordSignIn(result string) {
	m.SignInRequests.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordSignUp(result string) {
	m.SignUpRequests.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordTokenIssued() {
	m.TokensIssued.Inc()
}

func (m *Metrics) RecordTokensRevoked(count int) {
	m.TokensRevoked.Add(float64(count))
}

func (m *Metrics) RecordLogout(result string) {
	m.LogoutRequests.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordDecodeFailure(kind string) {
	m.TokenDecodeFailures.WithLabelValues(kind).Inc()
}

// RecordHTTPRequest observes the latency of a finished request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestDuration.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}
