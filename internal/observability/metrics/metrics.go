package metrics

import "github.com/prometheus/client_golang/prometheus"

// AtelierMetrics exposes counters/histograms for the booking flow and its upstream calls.
type AtelierMetrics struct {
	upstreamTotal      *prometheus.CounterVec
	upstreamLatency    *prometheus.HistogramVec
	cacheLookups       *prometheus.CounterVec
	bookingSubmissions *prometheus.CounterVec
	sessionTeardowns   *prometheus.CounterVec
}

func NewAtelierMetrics(reg prometheus.Registerer) *AtelierMetrics {
	m := &AtelierMetrics{
		upstreamTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "atelier",
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Total requests sent to the atelier backend",
		}, []string{"client", "method", "status"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "atelier",
			Subsystem: "upstream",
			Name:      "request_latency_seconds",
			Help:      "Latency of atelier backend requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"client", "method"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "atelier",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Availability cache lookups by result",
		}, []string{"resource", "result"}),
		bookingSubmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "atelier",
			Subsystem: "booking",
			Name:      "submissions_total",
			Help:      "Booking form submissions by outcome",
		}, []string{"outcome"}),
		sessionTeardowns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "atelier",
			Subsystem: "session",
			Name:      "teardowns_total",
			Help:      "Sessions cleared by domain and reason",
		}, []string{"domain", "reason"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.upstreamTotal, m.upstreamLatency, m.cacheLookups, m.bookingSubmissions, m.sessionTeardowns)
	return m
}

func (m *AtelierMetrics) ObserveUpstream(client, method, status string, seconds float64) {
	if m == nil {
		return
	}
	m.upstreamTotal.WithLabelValues(client, method, status).Inc()
	m.upstreamLatency.WithLabelValues(client, method).Observe(seconds)
}

// ObserveCache records a cache lookup; result is hit, stale or miss.
func (m *AtelierMetrics) ObserveCache(resource, result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(resource, result).Inc()
}

func (m *AtelierMetrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.bookingSubmissions.WithLabelValues(outcome).Inc()
}

func (m *AtelierMetrics) ObserveTeardown(domain, reason string) {
	if m == nil {
		return
	}
	m.sessionTeardowns.WithLabelValues(domain, reason).Inc()
}
