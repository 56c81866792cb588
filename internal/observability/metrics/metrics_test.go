package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestBookingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)
	m.ObserveCreated("video", false)
	m.ObserveCreated("video", true)
	m.ObserveCancelled()
	m.ObserveConflict()
	m.ObserveRoomFailure("create")
	m.ObserveSlotLatency(0.02)
}

func TestBookingMetricsNilSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveCreated("phone", false)
	m.ObserveCancelled()
	m.ObserveConflict()
	m.ObserveRoomFailure("delete")
	m.ObserveSlotLatency(0.1)
}
