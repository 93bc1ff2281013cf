package trend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openhealth/openhealth/internal/model"
	"github.com/openhealth/openhealth/internal/store"
)

// --- Fakes ---

type fakeStore struct {
	vitals []*model.VitalReading
}

func (f *fakeStore) Profiles() store.Profiles       { panic("unused") }
func (f *fakeStore) Vitals() store.Vitals           { return &fakeVitals{f} }
func (f *fakeStore) Symptoms() store.Symptoms       { panic("unused") }
func (f *fakeStore) Medications() store.Medications { panic("unused") }

type fakeVitals struct{ p *fakeStore }

func (f *fakeVitals) Append(context.Context, *model.VitalReading) (*model.VitalReading, error) {
	panic("unused")
}

// List applies the kind and window filters the way the real stores do,
// preserving ascending order.
func (f *fakeVitals) List(_ context.Context, req model.ListVitalsRequest) ([]*model.VitalReading, error) {
	var out []*model.VitalReading
	for _, r := range f.p.vitals {
		if r.UserID != req.UserID {
			continue
		}
		if req.Kind != nil && r.Kind != *req.Kind {
			continue
		}
		if req.After != nil && r.Timestamp.Before(*req.After) {
			continue
		}
		if req.Before != nil && !r.Timestamp.Before(*req.Before) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

var testNow = time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)

func reading(kind model.MetricKind, value float64, daysAgo int) *model.VitalReading {
	return &model.VitalReading{
		UserID:    "alice",
		Kind:      kind,
		Value:     value,
		Unit:      model.DefaultUnit(kind),
		Timestamp: testNow.AddDate(0, 0, -daysAgo),
	}
}

func series(kind model.MetricKind, values ...float64) []*model.VitalReading {
	out := make([]*model.VitalReading, 0, len(values))
	for i, v := range values {
		out = append(out, reading(kind, v, len(values)-i))
	}
	return out
}

func newTestEngine(vitals []*model.VitalReading) *Engine {
	st := &fakeStore{vitals: vitals}
	return NewEngine(st, DefaultThresholds(), 0.05).WithClock(func() time.Time { return testNow })
}

// --- Summarize ---

func TestSummarizeRising(t *testing.T) {
	e := newTestEngine(series(model.MetricHeartRate, 70, 72, 75, 78, 80, 85, 90))

	s, err := e.Summarize(context.Background(), "alice", model.MetricHeartRate, 14)
	require.NoError(t, err)
	assert.Equal(t, 7, s.Count)
	assert.Equal(t, model.TrendRising, s.Direction)
	assert.InDelta(t, 78.57, s.Mean, 0.01)
	assert.Equal(t, 70.0, s.Min)
	assert.Equal(t, 90.0, s.Max)
	assert.Len(t, s.Points, 7)
}

func TestSummarizeFalling(t *testing.T) {
	e := newTestEngine(series(model.MetricWeight, 90, 89, 88, 82, 81, 80))

	s, err := e.Summarize(context.Background(), "alice", model.MetricWeight, 14)
	require.NoError(t, err)
	assert.Equal(t, model.TrendFalling, s.Direction)
}

func TestSummarizeStableWithinThreshold(t *testing.T) {
	e := newTestEngine(series(model.MetricHeartRate, 70, 71, 70, 72, 71, 70))

	s, err := e.Summarize(context.Background(), "alice", model.MetricHeartRate, 14)
	require.NoError(t, err)
	assert.Equal(t, model.TrendStable, s.Direction)
}

func TestSummarizeNoReadingsIsNeutral(t *testing.T) {
	e := newTestEngine(nil)

	s, err := e.Summarize(context.Background(), "alice", model.MetricHeartRate, 7)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Count)
	assert.Equal(t, model.TrendStable, s.Direction)
	assert.Zero(t, s.Mean)
	assert.NotNil(t, s.Points)
	assert.Empty(t, s.Points)
}

func TestSummarizeSinglePointIsStable(t *testing.T) {
	e := newTestEngine(series(model.MetricTemperature, 36.8))

	s, err := e.Summarize(context.Background(), "alice", model.MetricTemperature, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Count)
	assert.Equal(t, model.TrendStable, s.Direction)
	assert.Equal(t, 36.8, s.Mean)
}

func TestSummarizeExcludesReadingsOutsideWindow(t *testing.T) {
	vitals := []*model.VitalReading{
		reading(model.MetricHeartRate, 150, 40), // outside the window
		reading(model.MetricHeartRate, 70, 2),
		reading(model.MetricHeartRate, 71, 1),
	}
	e := newTestEngine(vitals)

	s, err := e.Summarize(context.Background(), "alice", model.MetricHeartRate, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Count)
	assert.Equal(t, 71.0, s.Max)
}

func TestSummarizeIsIdempotent(t *testing.T) {
	e := newTestEngine(series(model.MetricHeartRate, 70, 75, 80, 85))

	a, err := e.Summarize(context.Background(), "alice", model.MetricHeartRate, 14)
	require.NoError(t, err)
	b, err := e.Summarize(context.Background(), "alice", model.MetricHeartRate, 14)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSummarizeValidation(t *testing.T) {
	e := newTestEngine(nil)

	_, err := e.Summarize(context.Background(), "", model.MetricHeartRate, 7)
	assert.True(t, errors.Is(err, model.ErrMalformedRequest))

	_, err = e.Summarize(context.Background(), "alice", "steps", 7)
	assert.True(t, errors.Is(err, model.ErrUnknownMetricKind))

	_, err = e.Summarize(context.Background(), "alice", model.MetricHeartRate, 0)
	assert.True(t, errors.Is(err, model.ErrMalformedRequest))
}

// --- CheckAlerts ---

func TestCheckAlertsCriticalSystolic(t *testing.T) {
	e := newTestEngine(series(model.MetricBloodPressureSystolic, 130, 185))

	alerts, err := e.CheckAlerts(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, model.SeverityCritical, alerts[0].Severity)
	assert.Equal(t, model.MetricBloodPressureSystolic, alerts[0].Kind)
	assert.Equal(t, 185.0, alerts[0].Value)
	assert.Equal(t, 180.0, alerts[0].Threshold)
}

func TestCheckAlertsLowHeartRateWarning(t *testing.T) {
	e := newTestEngine(series(model.MetricHeartRate, 45))

	alerts, err := e.CheckAlerts(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, model.SeverityWarning, alerts[0].Severity)
}

func TestCheckAlertsOnlyLatestReadingCounts(t *testing.T) {
	// An earlier breach followed by a normal reading raises nothing.
	e := newTestEngine(series(model.MetricHeartRate, 160, 70))

	alerts, err := e.CheckAlerts(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestCheckAlertsNormalReadingsRaiseNothing(t *testing.T) {
	vitals := append(
		series(model.MetricHeartRate, 68, 70),
		series(model.MetricBloodPressureSystolic, 118, 121)...,
	)
	e := newTestEngine(vitals)

	alerts, err := e.CheckAlerts(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestCheckAlertsOrderedBySeverityThenKind(t *testing.T) {
	vitals := append(
		series(model.MetricBloodPressureSystolic, 185), // critical
		append(
			series(model.MetricHeartRate, 45),      // warning
			series(model.MetricTemperature, 39)..., // warning
		)...,
	)
	e := newTestEngine(vitals)

	alerts, err := e.CheckAlerts(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, alerts, 3)
	assert.Equal(t, model.SeverityCritical, alerts[0].Severity)
	assert.Equal(t, model.MetricBloodPressureSystolic, alerts[0].Kind)
	assert.Equal(t, model.MetricHeartRate, alerts[1].Kind)
	assert.Equal(t, model.MetricTemperature, alerts[2].Kind)
}

func TestCheckAlertsWeightHasNoThresholds(t *testing.T) {
	e := newTestEngine(series(model.MetricWeight, 300))

	alerts, err := e.CheckAlerts(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestCheckAlertsValidation(t *testing.T) {
	e := newTestEngine(nil)

	_, err := e.CheckAlerts(context.Background(), "")
	assert.True(t, errors.Is(err, model.ErrMalformedRequest))
}
