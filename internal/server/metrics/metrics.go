// Package metrics exposes Prometheus instruments for the HTTP layer and the
// identity and certificate flows.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels shared by the counters below.
const (
	ResultSuccess = "success"
	ResultInvalid = "invalid"
	ResultExpired = "expired"
	ResultClaimed = "already_claimed"
	ResultDenied  = "forbidden"
)

// Metrics bundles every instrument the service registers.
type Metrics struct {
	HTTPRequests          *prometheus.CounterVec
	HTTPDuration          *prometheus.HistogramVec
	OTPIssued             prometheus.Counter
	OTPVerifications      *prometheus.CounterVec
	OTPDispatchFailures   prometheus.Counter
	RateLimited           *prometheus.CounterVec
	CertificatesPublished prometheus.Counter
	CertificateIDRetries  prometheus.Counter
	CertificateClaims     *prometheus.CounterVec
}

// New registers all instruments on reg. Pass prometheus.DefaultRegisterer
// in production and prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sertifica_http_requests_total",
			Help: "HTTP requests by method, route pattern and status code",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sertifica_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route"}),
		OTPIssued: f.NewCounter(prometheus.CounterOpts{
			Name: "sertifica_otp_issued_total",
			Help: "One-time codes issued",
		}),
		OTPVerifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sertifica_otp_verifications_total",
			Help: "One-time code verification attempts by result",
		}, []string{"result"}),
		OTPDispatchFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "sertifica_otp_dispatch_failures_total",
			Help: "One-time codes that could not be delivered",
		}),
		RateLimited: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sertifica_rate_limited_total",
			Help: "Requests rejected by the rate limiter by endpoint",
		}, []string{"endpoint"}),
		CertificatesPublished: f.NewCounter(prometheus.CounterOpts{
			Name: "sertifica_certificates_published_total",
			Help: "Certificates issued",
		}),
		CertificateIDRetries: f.NewCounter(prometheus.CounterOpts{
			Name: "sertifica_certificate_id_retries_total",
			Help: "Certificate id collisions that forced regeneration",
		}),
		CertificateClaims: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sertifica_certificate_claims_total",
			Help: "Certificate claim attempts by result",
		}, []string{"result"}),
	}
}

// ObserveHTTP records one finished request. Call with time.Now() taken at
// the start of the request.
func (m *Metrics) ObserveHTTP(method, route string, status int, start time.Time) {
	m.HTTPRequests.WithLabelValues(method, route, statusClass(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncOTPIssued() { m.OTPIssued.Inc() }

func (m *Metrics) IncOTPVerification(result string) {
	m.OTPVerifications.WithLabelValues(result).Inc()
}

func (m *Metrics) IncOTPDispatchFailure() { m.OTPDispatchFailures.Inc() }

func (m *Metrics) IncRateLimited(endpoint string) {
	m.RateLimited.WithLabelValues(endpoint).Inc()
}

func (m *Metrics) IncCertificatePublished() { m.CertificatesPublished.Inc() }

func (m *Metrics) IncCertificateIDRetry() { m.CertificateIDRetries.Inc() }

func (m *Metrics) IncCertificateClaim(result string) {
	m.CertificateClaims.WithLabelValues(result).Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
