package model

import "time"

// MetricKind identifies a tracked vital-sign series.
type MetricKind string

const (
	MetricBloodPressureSystolic  MetricKind = "blood_pressure_systolic"
	MetricBloodPressureDiastolic MetricKind = "blood_pressure_diastolic"
	MetricHeartRate              MetricKind = "heart_rate"
	MetricTemperature            MetricKind = "temperature"
	MetricWeight                 MetricKind = "weight"
	MetricBloodGlucose           MetricKind = "blood_glucose"
)

// MetricKinds lists every known kind in lexical order. Callers that need
// deterministic iteration (alerts, prompt building) range over this slice
// instead of a map.
var MetricKinds = []MetricKind{
	MetricBloodGlucose,
	MetricBloodPressureDiastolic,
	MetricBloodPressureSystolic,
	MetricHeartRate,
	MetricTemperature,
	MetricWeight,
}

// KnownMetricKind reports whether k is one of the supported kinds.
func KnownMetricKind(k MetricKind) bool {
	for _, known := range MetricKinds {
		if k == known {
			return true
		}
	}
	return false
}

// DefaultUnit returns the unit recorded when a reading omits one.
func DefaultUnit(k MetricKind) string {
	switch k {
	case MetricBloodPressureSystolic, MetricBloodPressureDiastolic:
		return "mmHg"
	case MetricHeartRate:
		return "bpm"
	case MetricTemperature:
		return "C"
	case MetricWeight:
		return "kg"
	case MetricBloodGlucose:
		return "mg/dL"
	}
	return ""
}

// Category is the consultation type chosen by the caller; it drives model
// routing.
type Category string

const (
	CategoryGeneral         Category = "general"
	CategorySymptomAnalysis Category = "symptom_analysis"
	CategoryEmergency       Category = "emergency"
	CategoryPreventive      Category = "preventive"
)

// KnownCategory reports whether c is a routable category.
func KnownCategory(c Category) bool {
	switch c {
	case CategoryGeneral, CategorySymptomAnalysis, CategoryEmergency, CategoryPreventive:
		return true
	}
	return false
}

// TriageLevel is the emergency detector's verdict.
type TriageLevel string

const (
	TriageRoutine   TriageLevel = "routine"
	TriageUrgent    TriageLevel = "urgent"
	TriageEmergency TriageLevel = "emergency"
)

// AlertSeverity orders alerts; critical sorts first.
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// Rank returns a sortable weight, higher is more severe.
func (s AlertSeverity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	}
	return 0
}

// TrendDirection is the qualitative classification of a metric window.
type TrendDirection string

const (
	TrendRising  TrendDirection = "rising"
	TrendFalling TrendDirection = "falling"
	TrendStable  TrendDirection = "stable"
)

// UserProfile describes one household member. Profiles are created on
// first use and only change through explicit edits.
type UserProfile struct {
	UserID       string    `json:"userId"`
	Age          *int      `json:"age,omitempty"`
	Sex          *string   `json:"sex,omitempty"`
	Conditions   []string  `json:"conditions,omitempty"`
	CreationTime time.Time `json:"creationTime"`
}

// VitalReading is an immutable measurement. The store assigns Timestamp
// and Seq on append; Seq breaks same-timestamp ordering ties.
type VitalReading struct {
	ReadingID string     `json:"readingId"`
	UserID    string     `json:"userId"`
	Kind      MetricKind `json:"kind"`
	Value     float64    `json:"value"`
	Unit      string     `json:"unit"`
	Timestamp time.Time  `json:"timestamp"`
	Seq       int64      `json:"-"`
	Note      *string    `json:"note,omitempty"`
}

// SymptomEntry is an immutable symptom report on a 1-10 severity scale.
type SymptomEntry struct {
	EntryID   string    `json:"entryId"`
	UserID    string    `json:"userId"`
	Symptom   string    `json:"symptom"`
	Severity  int       `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
	Seq       int64     `json:"-"`
	Note      *string   `json:"note,omitempty"`
}

// MedicationEntry tracks a prescribed or self-reported medication. The
// end date is the only mutable field; setting it discontinues the course.
type MedicationEntry struct {
	MedicationID string     `json:"medicationId"`
	UserID       string     `json:"userId"`
	Name         string     `json:"name"`
	Dosage       string     `json:"dosage"`
	Frequency    string     `json:"frequency"`
	StartDate    time.Time  `json:"startDate"`
	EndDate      *time.Time `json:"endDate,omitempty"`
}

// Active reports whether the medication course is still running at t.
func (m *MedicationEntry) Active(t time.Time) bool {
	return m.EndDate == nil || m.EndDate.After(t)
}

// SymptomContext carries optional structured fields alongside a
// consultation question.
type SymptomContext struct {
	Age      *int    `json:"age,omitempty"`
	Sex      *string `json:"sex,omitempty"`
	Duration string  `json:"duration,omitempty"`
	Severity int     `json:"severity,omitempty"`
	Notes    string  `json:"notes,omitempty"`
}

// ConsultationRequest is the orchestrator's input.
type ConsultationRequest struct {
	UserID   string          `json:"userId"`
	Category Category        `json:"category"`
	Question string          `json:"question"`
	Context  *SymptomContext `json:"context,omitempty"`
}

// ConsultationResponse is returned to the caller. ModelID is empty when
// every configured backend failed; Emergency is still trustworthy then.
type ConsultationResponse struct {
	ModelID   string        `json:"modelId"`
	Text      string        `json:"text"`
	Emergency bool          `json:"emergency"`
	Triage    TriageLevel   `json:"triage"`
	Timestamp time.Time     `json:"timestamp"`
	Latency   time.Duration `json:"-"`
	LatencyMS int64         `json:"latencyMs"`
	Degraded  bool          `json:"degraded,omitempty"`
}

// TrendPoint is one (timestamp, value) sample inside a window.
type TrendPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// TrendSummary is derived at query time and never persisted; recomputing
// it over unchanged data yields an identical value.
type TrendSummary struct {
	UserID     string         `json:"userId"`
	Kind       MetricKind     `json:"kind"`
	WindowDays int            `json:"windowDays"`
	Points     []TrendPoint   `json:"points"`
	Count      int            `json:"count"`
	Mean       float64        `json:"mean"`
	Min        float64        `json:"min"`
	Max        float64        `json:"max"`
	Direction  TrendDirection `json:"direction"`
}

// Alert flags the latest reading of a metric crossing a configured
// clinical threshold. Derived on demand, never stored.
type Alert struct {
	UserID    string        `json:"userId"`
	Kind      MetricKind    `json:"kind"`
	Severity  AlertSeverity `json:"severity"`
	Value     float64       `json:"value"`
	Threshold float64       `json:"threshold"`
	Message   string        `json:"message"`
	Timestamp time.Time     `json:"timestamp"`
}

// ListVitalsRequest captures filters used when querying readings.
type ListVitalsRequest struct {
	UserID string
	Kind   *MetricKind
	After  *time.Time
	Before *time.Time
	Limit  int
}

// ListSymptomsRequest captures filters used when querying symptom entries.
type ListSymptomsRequest struct {
	UserID string
	After  *time.Time
	Before *time.Time
	Limit  int
}
