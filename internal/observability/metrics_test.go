package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/drivesense/internal/errors"
	"github.com/tphakala/drivesense/internal/observability/metrics"
)

func TestMetricsRecordAndServe(t *testing.T) {
	m, err := NewMetrics()
	require.NoError(t, err)

	m.Trigger.RecordSample(metrics.OutcomeProcessed)
	m.Trigger.RecordTransition("stationary", "vehicle")
	m.Location.RecordFix("too_old")
	m.Location.RecordEstimate(5, 4.8, 0.2)
	m.Location.SetPollInterval(20 * time.Second)
	m.Resolver.RecordRecompute(true, true, true, true)
	m.Runtime.BusDropHook("resolver")()

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		byName[f.GetName()] = f
	}

	require.Contains(t, byName, "drivesense_location_poll_interval_seconds")
	assert.InDelta(t, 20, byName["drivesense_location_poll_interval_seconds"].GetMetric()[0].GetGauge().GetValue(), 0)
	assert.InDelta(t, 1, byName["drivesense_resolver_vehicle_moving"].GetMetric()[0].GetGauge().GetValue(), 0)
	assert.InDelta(t, 1, byName["drivesense_events_dropped_total"].GetMetric()[0].GetCounter().GetValue(), 0)

	mux := http.NewServeMux()
	m.RegisterHandlers(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "drivesense_trigger_transitions_total")
}

func TestCountErrors(t *testing.T) {
	t.Cleanup(errors.ClearErrorHooks)

	m, err := NewMetrics()
	require.NoError(t, err)
	m.CountErrors()

	errors.Newf("no sampler").Component("trigger").Category(errors.CategorySensor).Build()

	count := testutil.CollectAndCount(m.Runtime, "drivesense_errors_total")
	assert.Equal(t, 1, count)
}

func TestNilRecordersAreNoops(t *testing.T) {
	var tm *metrics.TriggerMetrics
	var lm *metrics.LocationMetrics
	var rm *metrics.ResolverMetrics
	var rt *metrics.RuntimeMetrics

	assert.NotPanics(t, func() {
		tm.RecordSample(metrics.OutcomeDropped)
		tm.SetSamplerState(metrics.SamplerPaused)
		lm.RecordFix(metrics.OutcomeAccepted)
		rm.RecordRecompute(false, false, false, false)
		rt.RecordError("x", "y")
		assert.Nil(t, rt.BusDropHook("bus"))
	})
}
