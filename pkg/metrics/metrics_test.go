package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestBookingMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewBookingMetrics(reg)
	metrics.IncCreated()
	metrics.IncCreated()
	metrics.IncTransition("approved")
	metrics.IncNoCapacity()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got := counterValue(t, mfs, "bookings_created_total", "", ""); got != 2 {
		t.Fatalf("expected created=2, got %f", got)
	}
	if got := counterValue(t, mfs, "booking_transitions_total", "status", "approved"); got != 1 {
		t.Fatalf("expected approved transitions=1, got %f", got)
	}
	if got := counterValue(t, mfs, "bookings_rejected_no_capacity_total", "", ""); got != 1 {
		t.Fatalf("expected no-capacity=1, got %f", got)
	}
}

func TestSyncMetricsExportsHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewSyncMetrics(reg)
	metrics.ObserveDuration("search", 120*time.Millisecond)
	metrics.IncHospitals(3)
	metrics.IncFailure()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got := histogramSum(t, mfs, "directory_sync_duration_seconds", "operation", "search"); got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
	if got := counterValue(t, mfs, "directory_sync_hospitals_total", "", ""); got != 3 {
		t.Fatalf("expected hospitals=3, got %f", got)
	}
	if got := counterValue(t, mfs, "directory_sync_failures_total", "", ""); got != 1 {
		t.Fatalf("expected failures=1, got %f", got)
	}
}

func TestNilReceiversAreSafe(t *testing.T) {
	var booking *BookingMetrics
	booking.IncCreated()
	booking.IncTransition("canceled")
	booking.IncNoCapacity()

	var sync *SyncMetrics
	sync.ObserveDuration("search", time.Second)
	sync.IncHospitals(1)
	sync.IncFailure()
}

func counterValue(t *testing.T, mfs []*dto.MetricFamily, name, label, value string) float64 {
	t.Helper()
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		t.Fatalf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if label == "" || matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %q missing label %s=%s", name, label, value)
	return 0
}

func histogramSum(t *testing.T, mfs []*dto.MetricFamily, name, label, value string) float64 {
	t.Helper()
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		t.Fatalf("histogram %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum()
		}
	}
	t.Fatalf("histogram %q missing label %s=%s", name, label, value)
	return 0
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
