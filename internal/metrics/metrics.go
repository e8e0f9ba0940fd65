package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Workflow metrics

	OperationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "auth",
		Name:      "operations_total",
		Help:      "Auth workflow operations, by operation and outcome.",
	}, []string{"op", "outcome"})

	TokensIssuedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "auth",
		Name:      "tokens_issued_total",
		Help:      "One-time tokens issued, by kind (confirm, reset).",
	}, []string{"kind"})

	EmailsSentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "auth",
		Name:      "emails_sent_total",
		Help:      "Emails handed to the mailer, by template and outcome.",
	}, []string{"template", "outcome"})

	// Session metrics

	SessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "auth",
		Name:      "sessions_active",
		Help:      "Number of live server-side sessions.",
	})

	SessionsSweptTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "auth",
		Name:      "sessions_swept_total",
		Help:      "Expired sessions removed by the sweeper.",
	})

	// HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "auth",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "auth",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

func Register() {
	prometheus.MustRegister(
		OperationsTotal,
		TokensIssuedTotal,
		EmailsSentTotal,
		SessionsActive,
		SessionsSweptTotal,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

// Readinesser is satisfied by *health.Checker.
type Readinesser interface {
	LivenessHandler() http.HandlerFunc
	ReadinessHandler() http.HandlerFunc
}

func NewServer(addr string, checker Readinesser) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", checker.LivenessHandler())
	mux.HandleFunc("/readyz", checker.ReadinessHandler())
	return &http.Server{Addr: addr, Handler: mux}
}
