package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	namespace = "marketplace"
	subsystem = "booking"
)

// BookingMetrics exposes counters/histograms for the booking flow and the
// upstream marketplace API.
type BookingMetrics struct {
	calendarFetchTotal *prometheus.CounterVec
	slotFetchTotal     *prometheus.CounterVec
	staleSlotTotal     prometheus.Counter
	submissionsTotal   *prometheus.CounterVec
	upstreamLatency    *prometheus.HistogramVec
	cacheTotal         *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		calendarFetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "calendar_fetch_total",
			Help:      "Service calendar fetches when opening a booking flow",
		}, []string{"outcome"}),
		slotFetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "slot_fetch_total",
			Help:      "Per-date slot fetches by outcome (ok or degraded)",
		}, []string{"outcome"}),
		staleSlotTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "stale_slot_responses_total",
			Help:      "Slot responses discarded because the selected date changed",
		}),
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "submissions_total",
			Help:      "Booking submissions by outcome (created, rejected, failed)",
		}, []string{"outcome"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "upstream_latency_seconds",
			Help:      "Latency of marketplace API calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "status"}),
		cacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "catalog_cache_total",
			Help:      "Catalog cache lookups by result (hit, miss, error)",
		}, []string{"result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.calendarFetchTotal, m.slotFetchTotal, m.staleSlotTotal, m.submissionsTotal, m.upstreamLatency, m.cacheTotal)
	return m
}

func (m *BookingMetrics) ObserveCalendarFetch(outcome string) {
	if m == nil {
		return
	}
	m.calendarFetchTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveSlotFetch(degraded bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if degraded {
		outcome = "degraded"
	}
	m.slotFetchTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveStaleSlots() {
	if m == nil {
		return
	}
	m.staleSlotTotal.Inc()
}

func (m *BookingMetrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveUpstream(operation, status string, seconds float64) {
	if m == nil {
		return
	}
	m.upstreamLatency.WithLabelValues(operation, status).Observe(seconds)
}

func (m *BookingMetrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.cacheTotal.WithLabelValues(result).Inc()
}
