package obs

import "github.com/prometheus/client_golang/prometheus"

// QuoteMetrics groups the collectors describing quote computations.
type QuoteMetrics struct {
	// Computations counts quote outcomes by result (ok, invalid, integrity, not_found, error).
	Computations *prometheus.CounterVec
	// DiscountKind counts which pricing mechanism won.
	DiscountKind *prometheus.CounterVec
	// FreightLookups counts freight lookups by availability.
	FreightLookups *prometheus.CounterVec
	// TariffLookups counts tariff lookups by classification status.
	TariffLookups *prometheus.CounterVec
	// ReferenceCache counts cache reads per reference source.
	ReferenceCache *prometheus.CounterVec
	// Latency records quote computation latency in milliseconds, fetches included.
	Latency prometheus.Histogram
}

// NewQuoteMetrics creates and registers the quote collectors. Collectors that are already
// registered are reused.
func NewQuoteMetrics(namespace string, reg prometheus.Registerer) *QuoteMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &QuoteMetrics{
		Computations: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_computations_total",
			Help:      "Count of landed-cost quote computations by outcome.",
		}, []string{"result"})),
		DiscountKind: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_discount_kind_total",
			Help:      "Count of quotes by winning discount mechanism.",
		}, []string{"kind"})),
		FreightLookups: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "freight_lookup_total",
			Help:      "Count of freight reference lookups by availability.",
		}, []string{"result"})),
		TariffLookups: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tariff_lookup_total",
			Help:      "Count of tariff lookups by classification status.",
		}, []string{"result"})),
		ReferenceCache: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reference_cache_total",
			Help:      "Count of reference cache reads by source and outcome.",
		}, []string{"source", "result"})),
		Latency: register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quote_duration_ms",
			Help:      "Latency of quote computations in milliseconds.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		})),
	}
}

// CacheResult records a cache read. Safe on a nil receiver.
func (m *QuoteMetrics) CacheResult(source, result string) {
	if m == nil {
		return
	}
	m.ReferenceCache.WithLabelValues(source, result).Inc()
}
