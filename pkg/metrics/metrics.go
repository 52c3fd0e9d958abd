package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BookingMetrics records booking lifecycle activity.
type BookingMetrics struct {
	created     prometheus.Counter
	transitions *prometheus.CounterVec
	noCapacity  prometheus.Counter
}

// NewBookingMetrics registers the booking metrics on the provided registerer.
func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	if reg == nil {
		return &BookingMetrics{}
	}
	created := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bookings_created_total",
		Help: "Bookings accepted into the pending state.",
	})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_transitions_total",
		Help: "Booking status transitions by target status.",
	}, []string{"status"})
	noCapacity := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bookings_rejected_no_capacity_total",
		Help: "Booking attempts refused because no bed was available.",
	})
	reg.MustRegister(created, transitions, noCapacity)
	return &BookingMetrics{
		created:     created,
		transitions: transitions,
		noCapacity:  noCapacity,
	}
}

// IncCreated counts a successfully created booking.
func (b *BookingMetrics) IncCreated() {
	if b == nil || b.created == nil {
		return
	}
	b.created.Inc()
}

// IncTransition counts a status transition to the named status.
func (b *BookingMetrics) IncTransition(status string) {
	if b == nil || b.transitions == nil {
		return
	}
	b.transitions.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncNoCapacity counts a booking attempt refused for lack of beds.
func (b *BookingMetrics) IncNoCapacity() {
	if b == nil || b.noCapacity == nil {
		return
	}
	b.noCapacity.Inc()
}

// SyncMetrics records directory sync activity against the external feed.
type SyncMetrics struct {
	duration  *prometheus.HistogramVec
	hospitals prometheus.Counter
	failures  prometheus.Counter
}

// NewSyncMetrics registers the directory sync metrics on the provided registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "directory_sync_duration_seconds",
		Help:    "Duration of directory sync operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	hospitals := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "directory_sync_hospitals_total",
		Help: "Hospitals merged from the external feed.",
	})
	failures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "directory_sync_failures_total",
		Help: "Failed calls to the external feed during sync.",
	})
	reg.MustRegister(duration, hospitals, failures)
	return &SyncMetrics{
		duration:  duration,
		hospitals: hospitals,
		failures:  failures,
	}
}

// ObserveDuration records how long the named sync operation took.
func (s *SyncMetrics) ObserveDuration(operation string, duration time.Duration) {
	if s == nil || s.duration == nil {
		return
	}
	s.duration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncHospitals counts hospitals merged from the feed.
func (s *SyncMetrics) IncHospitals(n int) {
	if s == nil || s.hospitals == nil || n <= 0 {
		return
	}
	s.hospitals.Add(float64(n))
}

// IncFailure counts a failed feed call.
func (s *SyncMetrics) IncFailure() {
	if s == nil || s.failures == nil {
		return
	}
	s.failures.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
