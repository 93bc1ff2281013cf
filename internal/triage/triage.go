// Package triage classifies a health question into routine, urgent or
// emergency. Classification is pure string matching over declarative
// pattern lists and runs before any model call, so an emergency verdict
// can never be lost to a backend failure.
//
// The matcher is deliberately permissive: a single emergency pattern hit
// decides the verdict, because a missed emergency is the unacceptable
// failure mode.
package triage

import (
	"strings"

	"github.com/openhealth/openhealth/internal/model"
)

// Rule is one indicator pattern. Every term must appear (case-insensitive
// substring) for the rule to match, so "chest pain"+"short of breath"
// expresses a symptom combination while a single-term rule is a plain
// keyword.
type Rule struct {
	Terms []string
}

// Matches reports whether every term occurs in the lowercased text.
func (r Rule) Matches(lower string) bool {
	if len(r.Terms) == 0 {
		return false
	}
	for _, t := range r.Terms {
		if !strings.Contains(lower, strings.ToLower(t)) {
			return false
		}
	}
	return true
}

// Rules is the detector's immutable configuration.
type Rules struct {
	Emergency []Rule
	Urgent    []Rule
	// UrgentSeverity is the context severity (1-10) at or above which a
	// question is at least urgent.
	UrgentSeverity int
}

// DefaultRules returns the built-in indicator lists. Exact clinical
// keyword sets are configuration, not guaranteed medicine; deployments
// override them through the config surface.
func DefaultRules() Rules {
	return Rules{
		Emergency: ParsePatterns([]string{
			"chest pain",
			"crushing chest",
			"can't breathe",
			"cannot breathe",
			"not breathing",
			"difficulty breathing",
			"shortness of breath+chest",
			"severe bleeding",
			"bleeding heavily",
			"loss of consciousness",
			"unconscious",
			"passed out+not waking",
			"stroke",
			"slurred speech",
			"face drooping",
			"numbness+one side",
			"seizure",
			"overdose",
			"anaphylaxis",
			"throat swelling",
			"choking",
			"heart attack",
			"suicidal",
		}),
		Urgent: ParsePatterns([]string{
			"high fever",
			"severe pain",
			"persistent vomiting",
			"vomiting blood",
			"blood in stool",
			"blood in urine",
			"fainted",
			"dehydrated",
			"dehydration",
			"getting worse",
			"worsening",
			"severe headache",
			"stiff neck+fever",
		}),
		UrgentSeverity: 8,
	}
}

// ParsePatterns turns configured pattern strings into rules. A '+' inside
// a pattern separates terms that must all be present.
func ParsePatterns(patterns []string) []Rule {
	out := make([]Rule, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		parts := strings.Split(p, "+")
		terms := make([]string, 0, len(parts))
		for _, t := range parts {
			t = strings.TrimSpace(t)
			if t != "" {
				terms = append(terms, t)
			}
		}
		if len(terms) > 0 {
			out = append(out, Rule{Terms: terms})
		}
	}
	return out
}

// Detector classifies questions. It holds no mutable state and is safe
// for concurrent use.
type Detector struct {
	rules Rules
}

// NewDetector builds a detector over the given rules. Zero-valued fields
// fall back to the defaults.
func NewDetector(rules Rules) *Detector {
	def := DefaultRules()
	if len(rules.Emergency) == 0 {
		rules.Emergency = def.Emergency
	}
	if len(rules.Urgent) == 0 {
		rules.Urgent = def.Urgent
	}
	if rules.UrgentSeverity <= 0 {
		rules.UrgentSeverity = def.UrgentSeverity
	}
	return &Detector{rules: rules}
}

// Classify returns the triage level for a question plus optional
// structured context. Emergency indicators win unconditionally.
func (d *Detector) Classify(question string, sctx *model.SymptomContext) model.TriageLevel {
	text := question
	if sctx != nil && sctx.Notes != "" {
		text += "\n" + sctx.Notes
	}
	lower := strings.ToLower(text)

	for _, r := range d.rules.Emergency {
		if r.Matches(lower) {
			return model.TriageEmergency
		}
	}
	for _, r := range d.rules.Urgent {
		if r.Matches(lower) {
			return model.TriageUrgent
		}
	}
	if sctx != nil && sctx.Severity >= d.rules.UrgentSeverity {
		return model.TriageUrgent
	}
	return model.TriageRoutine
}
