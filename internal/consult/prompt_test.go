package consult

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/openhealth/openhealth/internal/model"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func ts(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func samplePromptInput() PromptInput {
	return PromptInput{
		Category: model.CategorySymptomAnalysis,
		Question: "why does my head hurt",
		Context: &model.SymptomContext{
			Duration: "2 days",
			Severity: 6,
			Notes:    "worse in the morning",
		},
		Profile: &model.UserProfile{
			UserID:     "alice",
			Age:        intPtr(34),
			Sex:        strPtr("female"),
			Conditions: []string{"migraine"},
		},
		Vitals: []*model.VitalReading{
			{Kind: model.MetricHeartRate, Value: 72, Unit: "bpm", Timestamp: ts("2026-08-20T08:00:00Z")},
		},
		Symptoms: []*model.SymptomEntry{
			{Symptom: "headache", Severity: 6, Timestamp: ts("2026-08-21T09:00:00Z")},
		},
		Medications: []*model.MedicationEntry{
			{Name: "ibuprofen", Dosage: "400mg", Frequency: "as needed"},
		},
	}
}

func TestBuildPromptIsDeterministic(t *testing.T) {
	in := samplePromptInput()
	assert.Equal(t, BuildPrompt(in), BuildPrompt(in))
}

func TestBuildPromptContainsSections(t *testing.T) {
	out := BuildPrompt(samplePromptInput())

	assert.Contains(t, out, "Patient profile:")
	assert.Contains(t, out, "- age: 34")
	assert.Contains(t, out, "- known conditions: migraine")
	assert.Contains(t, out, "Reported context:")
	assert.Contains(t, out, "- duration: 2 days")
	assert.Contains(t, out, "Recent vital readings:")
	assert.Contains(t, out, "heart_rate: 72 bpm")
	assert.Contains(t, out, "Recent symptoms:")
	assert.Contains(t, out, "headache (severity 6/10)")
	assert.Contains(t, out, "Current medications:")
	assert.Contains(t, out, "ibuprofen 400mg, as needed")
	assert.Contains(t, out, "Question: why does my head hurt")
}

func TestBuildPromptOmitsEmptySections(t *testing.T) {
	out := BuildPrompt(PromptInput{
		Category: model.CategoryGeneral,
		Question: "is fasting healthy",
	})

	assert.NotContains(t, out, "Patient profile:")
	assert.NotContains(t, out, "Reported context:")
	assert.NotContains(t, out, "Recent vital readings:")
	assert.NotContains(t, out, "Current medications:")
	assert.Contains(t, out, "Question: is fasting healthy")
}

func TestBuildPromptUnknownCategoryFallsBackToGeneral(t *testing.T) {
	known := BuildPrompt(PromptInput{Category: model.CategoryGeneral, Question: "q"})
	unknown := BuildPrompt(PromptInput{Category: "mystery", Question: "q"})
	assert.Equal(t, known, unknown)
}

func TestBoundHistoryKeepsTail(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{3, 4, 5}, boundHistory(items, 3))
	assert.Equal(t, items, boundHistory(items, 10))
	assert.Equal(t, items, boundHistory(items, 0))
}

func TestActiveMedicationsFiltersEnded(t *testing.T) {
	now := ts("2026-08-21T00:00:00Z")
	past := ts("2026-08-01T00:00:00Z")
	future := ts("2026-09-01T00:00:00Z")

	meds := []*model.MedicationEntry{
		{Name: "finished", EndDate: &past},
		{Name: "running"},
		{Name: "ending-later", EndDate: &future},
	}
	got := activeMedications(meds, now, 10)
	assert.Len(t, got, 2)
	assert.Equal(t, "running", got[0].Name)
	assert.Equal(t, "ending-later", got[1].Name)
}
