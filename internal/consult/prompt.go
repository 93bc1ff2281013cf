package consult

import (
	"fmt"
	"strings"
	"time"

	"github.com/openhealth/openhealth/internal/model"
)

// systemPreamble is the instruction block shared by every category. It
// mirrors the assistant's standing safety posture.
const systemPreamble = `You are a health-information assistant. Follow these rules:
1. You are not a medical professional; never give a definitive diagnosis.
2. For serious symptoms, always recommend consulting a clinician.
3. Only provide evidence-based, general health information.
4. Use plain, friendly language.
5. In an emergency, tell the user to go to an emergency department immediately.`

// categoryInstructions select the task framing per consultation type.
var categoryInstructions = map[model.Category]string{
	model.CategoryGeneral: `Answer the user's health question with practical, helpful advice.`,
	model.CategorySymptomAnalysis: `The user is reporting symptoms. In order:
1. List possible causes, from common to serious.
2. Suggest self-care measures.
3. Say when a clinician should be seen.
4. Point out any warning signs of an emergency.`,
	model.CategoryEmergency: `The symptoms may indicate an emergency. Address immediately:
1. Whether the user must go to an emergency department now.
2. First-aid steps, if any apply.
3. Whether emergency services should be called.
4. Precautions while getting to care.`,
	model.CategoryPreventive: `Give preventive-medicine and lifestyle guidance relevant to the question.`,
}

// PromptInput carries everything the builder may embed. History slices
// arrive bounded and in ascending store order; the builder changes
// neither, so identical inputs always produce identical prompts.
type PromptInput struct {
	Category    model.Category
	Question    string
	Context     *model.SymptomContext
	Profile     *model.UserProfile
	Vitals      []*model.VitalReading
	Symptoms    []*model.SymptomEntry
	Medications []*model.MedicationEntry
}

// BuildPrompt renders the deterministic consultation prompt.
func BuildPrompt(in PromptInput) string {
	var b strings.Builder
	b.WriteString(systemPreamble)
	b.WriteString("\n\n")

	instr, ok := categoryInstructions[in.Category]
	if !ok {
		instr = categoryInstructions[model.CategoryGeneral]
	}
	b.WriteString(instr)
	b.WriteString("\n")

	if in.Profile != nil {
		b.WriteString("\nPatient profile:\n")
		if in.Profile.Age != nil {
			fmt.Fprintf(&b, "- age: %d\n", *in.Profile.Age)
		}
		if in.Profile.Sex != nil {
			fmt.Fprintf(&b, "- sex: %s\n", *in.Profile.Sex)
		}
		if len(in.Profile.Conditions) > 0 {
			fmt.Fprintf(&b, "- known conditions: %s\n", strings.Join(in.Profile.Conditions, ", "))
		}
	}

	if in.Context != nil {
		var lines []string
		if in.Context.Age != nil {
			lines = append(lines, fmt.Sprintf("- age: %d", *in.Context.Age))
		}
		if in.Context.Sex != nil {
			lines = append(lines, fmt.Sprintf("- sex: %s", *in.Context.Sex))
		}
		if in.Context.Duration != "" {
			lines = append(lines, "- duration: "+in.Context.Duration)
		}
		if in.Context.Severity > 0 {
			lines = append(lines, fmt.Sprintf("- severity (1-10): %d", in.Context.Severity))
		}
		if in.Context.Notes != "" {
			lines = append(lines, "- notes: "+in.Context.Notes)
		}
		if len(lines) > 0 {
			b.WriteString("\nReported context:\n")
			b.WriteString(strings.Join(lines, "\n"))
			b.WriteString("\n")
		}
	}

	if len(in.Vitals) > 0 {
		b.WriteString("\nRecent vital readings:\n")
		for _, v := range in.Vitals {
			fmt.Fprintf(&b, "- %s %s: %g %s\n", v.Timestamp.UTC().Format("2006-01-02 15:04"), v.Kind, v.Value, v.Unit)
		}
	}

	if len(in.Symptoms) > 0 {
		b.WriteString("\nRecent symptoms:\n")
		for _, s := range in.Symptoms {
			fmt.Fprintf(&b, "- %s %s (severity %d/10)\n", s.Timestamp.UTC().Format("2006-01-02 15:04"), s.Symptom, s.Severity)
		}
	}

	if len(in.Medications) > 0 {
		b.WriteString("\nCurrent medications:\n")
		for _, m := range in.Medications {
			fmt.Fprintf(&b, "- %s %s, %s\n", m.Name, m.Dosage, m.Frequency)
		}
	}

	b.WriteString("\nQuestion: ")
	b.WriteString(in.Question)
	b.WriteString("\n")
	return b.String()
}

// boundHistory keeps the most recent limit elements of an
// ascending-ordered slice, preserving order.
func boundHistory[T any](items []T, limit int) []T {
	if limit <= 0 || len(items) <= limit {
		return items
	}
	return items[len(items)-limit:]
}

// activeMedications filters to courses still running at now, capped to
// limit.
func activeMedications(meds []*model.MedicationEntry, now time.Time, limit int) []*model.MedicationEntry {
	var out []*model.MedicationEntry
	for _, m := range meds {
		if m.Active(now) {
			out = append(out, m)
		}
	}
	return boundHistory(out, limit)
}
