// Package trend computes rolling-window metric summaries and threshold
// alerts. Everything here is a pure read over the metrics store: results
// are derived on demand and recomputing over unchanged data yields
// identical output.
package trend

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/openhealth/openhealth/internal/model"
	"github.com/openhealth/openhealth/internal/obs"
	"github.com/openhealth/openhealth/internal/store"
)

// Thresholds holds the clinical bounds for one metric kind. Nil bounds
// are not evaluated.
type Thresholds struct {
	WarnLow  *float64
	WarnHigh *float64
	CritLow  *float64
	CritHigh *float64
}

// ThresholdTable maps each metric kind to its bounds. The table is
// immutable after construction; pass a different one to override.
type ThresholdTable map[model.MetricKind]Thresholds

func f(v float64) *float64 { return &v }

// DefaultThresholds returns the built-in alert table. The exact clinical
// values are configuration, not hardwired truth; deployments tune them.
func DefaultThresholds() ThresholdTable {
	return ThresholdTable{
		model.MetricBloodPressureSystolic: {
			WarnLow:  f(90),
			WarnHigh: f(140),
			CritHigh: f(180),
		},
		model.MetricBloodPressureDiastolic: {
			WarnLow:  f(60),
			WarnHigh: f(90),
			CritHigh: f(120),
		},
		model.MetricHeartRate: {
			WarnLow:  f(50),
			WarnHigh: f(120),
			CritLow:  f(40),
			CritHigh: f(150),
		},
		model.MetricTemperature: {
			WarnLow:  f(35),
			WarnHigh: f(38.5),
			CritHigh: f(40),
		},
		model.MetricBloodGlucose: {
			WarnLow:  f(70),
			WarnHigh: f(180),
			CritLow:  f(54),
			CritHigh: f(250),
		},
		// Weight carries no universal bounds; trends only.
		model.MetricWeight: {},
	}
}

// Engine answers summarize and alert queries for one store.
type Engine struct {
	store        store.Store
	thresholds   ThresholdTable
	relThreshold float64
	clock        func() time.Time
}

// NewEngine wires the trend engine. relThreshold is the relative change
// between window halves that counts as a direction (0 selects 5%).
func NewEngine(st store.Store, table ThresholdTable, relThreshold float64) *Engine {
	if table == nil {
		table = DefaultThresholds()
	}
	if relThreshold <= 0 {
		relThreshold = 0.05
	}
	return &Engine{
		store:        st,
		thresholds:   table,
		relThreshold: relThreshold,
		clock:        time.Now,
	}
}

// WithClock overrides the time source; tests use it to pin windows.
func (e *Engine) WithClock(clock func() time.Time) *Engine {
	e.clock = clock
	return e
}

// Summarize computes the rolling statistics for one metric over the
// trailing window. Zero readings is not an error: the summary comes back
// neutral with a stable direction.
func (e *Engine) Summarize(ctx context.Context, userID string, kind model.MetricKind, windowDays int) (*model.TrendSummary, error) {
	if userID == "" {
		return nil, fmt.Errorf("userId is required: %w", model.ErrMalformedRequest)
	}
	if !model.KnownMetricKind(kind) {
		return nil, fmt.Errorf("%q: %w", kind, model.ErrUnknownMetricKind)
	}
	if windowDays <= 0 {
		return nil, fmt.Errorf("windowDays must be positive: %w", model.ErrMalformedRequest)
	}

	now := e.clock().UTC()
	after := now.AddDate(0, 0, -windowDays)
	readings, err := e.store.Vitals().List(ctx, model.ListVitalsRequest{
		UserID: userID,
		Kind:   &kind,
		After:  &after,
		Before: &now,
	})
	if err != nil {
		return nil, err
	}

	summary := &model.TrendSummary{
		UserID:     userID,
		Kind:       kind,
		WindowDays: windowDays,
		Points:     make([]model.TrendPoint, 0, len(readings)),
		Direction:  model.TrendStable,
	}
	for _, r := range readings {
		summary.Points = append(summary.Points, model.TrendPoint{Timestamp: r.Timestamp, Value: r.Value})
	}
	summary.Count = len(summary.Points)
	if summary.Count == 0 {
		return summary, nil
	}

	summary.Min = summary.Points[0].Value
	summary.Max = summary.Points[0].Value
	var sum float64
	for _, p := range summary.Points {
		sum += p.Value
		if p.Value < summary.Min {
			summary.Min = p.Value
		}
		if p.Value > summary.Max {
			summary.Max = p.Value
		}
	}
	summary.Mean = sum / float64(summary.Count)
	summary.Direction = e.direction(summary.Points)
	return summary, nil
}

// direction compares the first-half mean to the second-half mean. Fewer
// than two points is stable by definition.
func (e *Engine) direction(points []model.TrendPoint) model.TrendDirection {
	n := len(points)
	if n < 2 {
		return model.TrendStable
	}
	firstMean := meanOf(points[:n/2])
	secondMean := meanOf(points[n/2:])

	if firstMean == 0 {
		switch {
		case secondMean > 0:
			return model.TrendRising
		case secondMean < 0:
			return model.TrendFalling
		default:
			return model.TrendStable
		}
	}
	switch {
	case secondMean > firstMean*(1+e.relThreshold):
		return model.TrendRising
	case secondMean < firstMean*(1-e.relThreshold):
		return model.TrendFalling
	default:
		return model.TrendStable
	}
}

func meanOf(points []model.TrendPoint) float64 {
	var sum float64
	for _, p := range points {
		sum += p.Value
	}
	return sum / float64(len(points))
}

// CheckAlerts evaluates the most recent reading of every metric kind
// against the threshold table. The result is ordered by descending
// severity, then kind name, so repeated calls over unchanged data are
// identical.
func (e *Engine) CheckAlerts(ctx context.Context, userID string) ([]*model.Alert, error) {
	if userID == "" {
		return nil, fmt.Errorf("userId is required: %w", model.ErrMalformedRequest)
	}

	var alerts []*model.Alert
	for _, kind := range model.MetricKinds {
		k := kind
		readings, err := e.store.Vitals().List(ctx, model.ListVitalsRequest{UserID: userID, Kind: &k})
		if err != nil {
			return nil, err
		}
		if len(readings) == 0 {
			continue
		}
		latest := readings[len(readings)-1]
		if a := e.evaluate(latest); a != nil {
			alerts = append(alerts, a)
		}
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		if alerts[i].Severity.Rank() != alerts[j].Severity.Rank() {
			return alerts[i].Severity.Rank() > alerts[j].Severity.Rank()
		}
		return alerts[i].Kind < alerts[j].Kind
	})
	for _, a := range alerts {
		obs.ObserveAlert(string(a.Severity))
	}
	return alerts, nil
}

// evaluate returns at most one alert per reading: the most severe breach
// wins.
func (e *Engine) evaluate(r *model.VitalReading) *model.Alert {
	th, ok := e.thresholds[r.Kind]
	if !ok {
		return nil
	}
	mk := func(sev model.AlertSeverity, threshold float64, rel string) *model.Alert {
		return &model.Alert{
			UserID:    r.UserID,
			Kind:      r.Kind,
			Severity:  sev,
			Value:     r.Value,
			Threshold: threshold,
			Message:   fmt.Sprintf("%s %g %s threshold %g", r.Kind, r.Value, rel, threshold),
			Timestamp: r.Timestamp,
		}
	}
	switch {
	case th.CritHigh != nil && r.Value >= *th.CritHigh:
		return mk(model.SeverityCritical, *th.CritHigh, "at or above critical")
	case th.CritLow != nil && r.Value <= *th.CritLow:
		return mk(model.SeverityCritical, *th.CritLow, "at or below critical")
	case th.WarnHigh != nil && r.Value >= *th.WarnHigh:
		return mk(model.SeverityWarning, *th.WarnHigh, "at or above warning")
	case th.WarnLow != nil && r.Value <= *th.WarnLow:
		return mk(model.SeverityWarning, *th.WarnLow, "at or below warning")
	}
	return nil
}
