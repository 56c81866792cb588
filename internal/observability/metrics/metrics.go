package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for scheduling flows.
type BookingMetrics struct {
	createdTotal   *prometheus.CounterVec
	cancelledTotal prometheus.Counter
	conflictsTotal prometheus.Counter
	roomFailures   *prometheus.CounterVec
	slotLatency    prometheus.Histogram
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		createdTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coachdesk",
			Subsystem: "booking",
			Name:      "created_total",
			Help:      "Total appointments created",
		}, []string{"meeting_type", "degraded"}),
		cancelledTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "coachdesk",
			Subsystem: "booking",
			Name:      "cancelled_total",
			Help:      "Total appointments cancelled",
		}),
		conflictsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "coachdesk",
			Subsystem: "booking",
			Name:      "slot_conflicts_total",
			Help:      "Total bookings rejected because the slot was taken",
		}),
		roomFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coachdesk",
			Subsystem: "rooms",
			Name:      "failures_total",
			Help:      "Total failed calls to the video room provider",
		}, []string{"op"}),
		slotLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "coachdesk",
			Subsystem: "booking",
			Name:      "slot_compute_seconds",
			Help:      "Latency of slot computation",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.createdTotal, m.cancelledTotal, m.conflictsTotal, m.roomFailures, m.slotLatency)
	return m
}

func (m *BookingMetrics) ObserveCreated(meetingType string, degraded bool) {
	if m == nil {
		return
	}
	label := "false"
	if degraded {
		label = "true"
	}
	m.createdTotal.WithLabelValues(meetingType, label).Inc()
}

func (m *BookingMetrics) ObserveCancelled() {
	if m == nil {
		return
	}
	m.cancelledTotal.Inc()
}

func (m *BookingMetrics) ObserveConflict() {
	if m == nil {
		return
	}
	m.conflictsTotal.Inc()
}

func (m *BookingMetrics) ObserveRoomFailure(op string) {
	if m == nil {
		return
	}
	m.roomFailures.WithLabelValues(op).Inc()
}

func (m *BookingMetrics) ObserveSlotLatency(seconds float64) {
	if m == nil {
		return
	}
	m.slotLatency.Observe(seconds)
}
