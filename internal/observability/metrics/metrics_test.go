package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestBookingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)
	m.ObserveCalendarFetch("ok")
	m.ObserveSlotFetch(false)
	m.ObserveSlotFetch(true)
	m.ObserveSlotFetch(true)
	m.ObserveStaleSlots()
	m.ObserveSubmission("created")
	m.ObserveUpstream("get_calendar", "ok", 0.05)
	m.ObserveCache("hit")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.slotFetchTotal.WithLabelValues("degraded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.staleSlotTotal))
	assert.Equal(t, 1, testutil.CollectAndCount(m.upstreamLatency))
}

func TestBookingMetricsNilSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveCalendarFetch("error")
	m.ObserveSlotFetch(true)
	m.ObserveStaleSlots()
	m.ObserveSubmission("failed")
	m.ObserveUpstream("create_appointment", "error", 0.1)
	m.ObserveCache("miss")
}

func TestTakeSnapshot(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)
	m.ObserveCalendarFetch("error")
	m.ObserveSlotFetch(false)
	m.ObserveStaleSlots()
	m.ObserveStaleSlots()
	m.ObserveSubmission("rejected")
	m.ObserveSubmission("created")
	m.ObserveUpstream("get_availability", "ok", 0.2)
	m.ObserveUpstream("get_availability", "error", 0.3)
	m.ObserveCache("miss")

	snap := TakeSnapshot(reg)
	assert.Equal(t, int64(1), snap.CalendarFetches["error"])
	assert.Equal(t, int64(1), snap.SlotFetches["ok"])
	assert.Equal(t, int64(2), snap.StaleResponses)
	assert.Equal(t, int64(1), snap.Submissions["rejected"])
	assert.Equal(t, int64(1), snap.Submissions["created"])
	assert.Equal(t, int64(2), snap.UpstreamCalls["get_availability"])
	assert.Equal(t, int64(1), snap.CacheLookups["miss"])
}

func TestTakeSnapshotEmptyRegistry(t *testing.T) {
	snap := TakeSnapshot(prometheus.NewRegistry())
	assert.Empty(t, snap.Submissions)
	assert.Zero(t, snap.StaleResponses)
}
