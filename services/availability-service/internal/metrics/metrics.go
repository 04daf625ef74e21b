package metrics

import "github.com/prometheus/client_golang/prometheus"

// AvailabilityMetrics tracks slot queries and the store reads behind them.
// A nil *AvailabilityMetrics is valid and records nothing.
type AvailabilityMetrics struct {
	queriesTotal  *prometheus.CounterVec
	slotsReturned *prometheus.HistogramVec
	storeLatency  *prometheus.HistogramVec
	bookingsTotal *prometheus.CounterVec
}

func NewAvailabilityMetrics(reg prometheus.Registerer) *AvailabilityMetrics {
	m := &AvailabilityMetrics{
		queriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketplace",
			Subsystem: "availability",
			Name:      "queries_total",
			Help:      "Availability queries by kind and outcome",
		}, []string{"kind", "outcome"}),
		slotsReturned: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "marketplace",
			Subsystem: "availability",
			Name:      "slots_returned",
			Help:      "Number of slots returned per query",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 24, 32, 48},
		}, []string{"kind"}),
		storeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "marketplace",
			Subsystem: "availability",
			Name:      "store_read_seconds",
			Help:      "Latency of working hours and appointment reads",
			Buckets:   prometheus.DefBuckets,
		}, []string{"store"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketplace",
			Subsystem: "availability",
			Name:      "bookings_total",
			Help:      "Booking attempts by outcome",
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.queriesTotal, m.slotsReturned, m.storeLatency, m.bookingsTotal)
	return m
}

func (m *AvailabilityMetrics) ObserveQuery(kind, outcome string, results int) {
	if m == nil {
		return
	}
	m.queriesTotal.WithLabelValues(kind, outcome).Inc()
	if outcome == "ok" {
		m.slotsReturned.WithLabelValues(kind).Observe(float64(results))
	}
}

func (m *AvailabilityMetrics) ObserveStoreRead(store string, seconds float64) {
	if m == nil {
		return
	}
	m.storeLatency.WithLabelValues(store).Observe(seconds)
}

func (m *AvailabilityMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}
