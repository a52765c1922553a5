package metrics

import (
	"net/http"

	"github.com/Rahima097/find-Roommate-server/internal/platform/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Like outcomes used as the "outcome" label of LikesTotal.
const (
	LikeOutcomeApplied      = "applied"
	LikeOutcomeAlreadyLiked = "already_liked"
	LikeOutcomeSelfLike     = "self_like"
	LikeOutcomeError        = "error"
)

// MetricsManager holds the service's Prometheus collectors on a private registry.
type MetricsManager struct {
	Registry             *prometheus.Registry
	LikesTotal           *prometheus.CounterVec
	ListingsCreatedTotal prometheus.Counter
	ContactMessagesTotal *prometheus.CounterVec
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
}

// NewMetricsManager initializes and registers the collectors. namespace is
// sanitized by the caller; it must be a valid metric name prefix.
func NewMetricsManager(namespace string) *MetricsManager {
	registry := prometheus.NewRegistry()

	likesTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "likes_total",
		Help:      "Tracked like attempts by outcome.",
	}, []string{"outcome"})
	listingsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "listings_created_total",
		Help:      "Total number of listings created.",
	})
	contactMessages := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "contact_messages_total",
		Help:      "Contact form submissions by result.",
	}, []string{"result"})
	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "route", "status"})
	httpDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"method", "route"})

	registry.MustRegister(
		likesTotal,
		listingsCreated,
		contactMessages,
		httpRequests,
		httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &MetricsManager{
		Registry:             registry,
		LikesTotal:           likesTotal,
		ListingsCreatedTotal: listingsCreated,
		ContactMessagesTotal: contactMessages,
		HTTPRequestsTotal:    httpRequests,
		HTTPRequestDuration:  httpDuration,
	}
}

// ObserveLike counts one tracked like attempt. Safe on a nil manager.
func (m *MetricsManager) ObserveLike(outcome string) {
	if m == nil {
		return
	}
	m.LikesTotal.WithLabelValues(outcome).Inc()
}

func (m *MetricsManager) ObserveListingCreated() {
	if m == nil {
		return
	}
	m.ListingsCreatedTotal.Inc()
}

func (m *MetricsManager) ObserveContact(result string) {
	if m == nil {
		return
	}
	m.ContactMessagesTotal.WithLabelValues(result).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *MetricsManager) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// NewMetricsServer returns the server exposing /metrics on port, or nil when
// no port is configured.
func NewMetricsServer(port string, log *logger.Logger, m *MetricsManager) *http.Server {
	if port == "" {
		log.Info("metrics server port not configured, server will not start")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	log.Info("metrics server configured", zap.String("port", port), zap.String("path", "/metrics"))
	return &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}
}
