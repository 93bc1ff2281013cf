// Package consult implements the consultation orchestrator: triage,
// model routing, prompt construction, backend invocation with fallback
// and response post-processing.
package consult

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/openhealth/openhealth/internal/backend"
	"github.com/openhealth/openhealth/internal/model"
	"github.com/openhealth/openhealth/internal/obs"
	"github.com/openhealth/openhealth/internal/store"
	"github.com/openhealth/openhealth/internal/triage"
)

const (
	// emergencyDirective is prepended whenever triage says emergency,
	// before and independent of any model output.
	emergencyDirective = "SEEK IMMEDIATE CARE: your symptoms may indicate a medical emergency. " +
		"Call your local emergency number or go to the nearest emergency department now."

	// disclaimer closes every response.
	disclaimer = "This is general health information, not medical advice. " +
		"Consult a healthcare professional for diagnosis and treatment."

	// failureNotice replaces model output when no backend answered.
	failureNotice = "The assistant could not reach a language model to answer your question. " +
		"Please try again shortly. If your symptoms are serious, contact a healthcare provider directly."

	// historyWindowDays bounds how far back prompt context reaches.
	historyWindowDays = 30

	// maxAttempts is the initial call plus one retry against the next
	// model in the fallback order.
	maxAttempts = 2
)

// Service is the consultation orchestrator. The routing table and
// detector rules are fixed at construction; per-test overrides happen by
// constructing another Service.
type Service struct {
	store        store.Store
	registry     *backend.Registry
	detector     *triage.Detector
	routing      map[model.Category][]string
	timeout      time.Duration
	historyLimit int
	clock        func() time.Time
	log          zerolog.Logger
}

// NewService wires the orchestrator. routing maps each category to its
// ordered model candidates; the emergency route doubles as the
// "fastest available" rung of the fallback order.
func NewService(st store.Store, reg *backend.Registry, det *triage.Detector, routing map[model.Category][]string, timeout time.Duration, historyLimit int, log zerolog.Logger) *Service {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if historyLimit <= 0 {
		historyLimit = 10
	}
	return &Service{
		store:        st,
		registry:     reg,
		detector:     det,
		routing:      routing,
		timeout:      timeout,
		historyLimit: historyLimit,
		clock:        time.Now,
		log:          log,
	}
}

// WithClock overrides the time source; tests use it for reproducible
// timestamps.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// Consult answers one health question. Backend failures degrade the
// response but never surface as an error and never clear the emergency
// flag; only malformed input is rejected.
func (s *Service) Consult(ctx context.Context, req *model.ConsultationRequest) (*model.ConsultationResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	start := s.clock()

	// Triage first so the verdict survives whatever happens below.
	verdict := s.detector.Classify(req.Question, req.Context)
	isEmergency := verdict == model.TriageEmergency

	category := req.Category
	if category == "" {
		category = model.CategoryGeneral
	}
	if isEmergency {
		// The emergency route points at the fastest model; the original
		// behavior overrides the requested category in this case.
		category = model.CategoryEmergency
	}

	prompt := BuildPrompt(PromptInput{
		Category:    category,
		Question:    req.Question,
		Context:     req.Context,
		Profile:     s.loadProfile(ctx, req.UserID),
		Vitals:      s.loadVitals(ctx, req.UserID),
		Symptoms:    s.loadSymptoms(ctx, req.UserID),
		Medications: s.loadMedications(ctx, req.UserID),
	})

	modelID, text, ok := s.generateWithFallback(ctx, category, prompt)

	resp := &model.ConsultationResponse{
		ModelID:   modelID,
		Emergency: isEmergency,
		Triage:    verdict,
		Timestamp: s.clock().UTC(),
		Degraded:  !ok,
	}
	if !ok {
		text = failureNotice
	}
	resp.Text = assembleText(text, isEmergency)
	resp.Latency = s.clock().Sub(start)
	resp.LatencyMS = resp.Latency.Milliseconds()

	outcome := "ok"
	if resp.Degraded {
		outcome = "degraded"
	}
	obs.ObserveConsult(outcome, string(verdict), resp.Latency)
	s.log.Info().
		Str("user", req.UserID).
		Str("category", string(category)).
		Str("triage", string(verdict)).
		Str("model", modelID).
		Bool("degraded", resp.Degraded).
		Dur("latency", resp.Latency).
		Msg("consultation completed")
	return resp, nil
}

// assembleText applies the post-processing order: directive, body,
// disclaimer.
func assembleText(body string, emergency bool) string {
	var parts []string
	if emergency {
		parts = append(parts, emergencyDirective)
	}
	parts = append(parts, strings.TrimSpace(body), disclaimer)
	return strings.Join(parts, "\n\n")
}

// generateWithFallback walks the resolved candidate order and stops at
// the first model that answers. At most maxAttempts backends are tried.
func (s *Service) generateWithFallback(ctx context.Context, category model.Category, prompt string) (modelID, text string, ok bool) {
	candidates := s.resolveCandidates(ctx, category)
	if len(candidates) == 0 {
		s.log.Warn().Str("category", string(category)).Msg("no reachable model for category")
		return "", "", false
	}
	if len(candidates) > maxAttempts {
		candidates = candidates[:maxAttempts]
	}

	for _, id := range candidates {
		b, found := s.registry.BackendFor(id)
		if !found {
			continue
		}
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		out, err := b.Generate(callCtx, id, prompt)
		cancel()
		if err != nil {
			kind := backend.FailureKind(err)
			obs.ObserveBackendFailure(id, kind)
			s.log.Warn().
				Str("model", id).
				Str("backend", b.Name()).
				Str("failure_kind", kind).
				Err(err).
				Msg("backend call failed, trying next candidate")
			continue
		}
		return id, out, true
	}
	return "", "", false
}

// resolveCandidates implements the resolution order: preferred models for
// the category, then the fastest-response route, then any other
// configured model — keeping only models their backend currently serves,
// without duplicates.
func (s *Service) resolveCandidates(ctx context.Context, category model.Category) []string {
	ordered := append([]string(nil), s.routing[category]...)
	ordered = append(ordered, s.routing[model.CategoryEmergency]...)
	ordered = append(ordered, s.registry.Models()...)

	seen := make(map[string]bool, len(ordered))
	var out []string
	for _, id := range ordered {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if s.registry.Available(ctx, id) {
			out = append(out, id)
		}
	}
	return out
}

func validateRequest(req *model.ConsultationRequest) error {
	if req == nil {
		return fmt.Errorf("nil request: %w", model.ErrMalformedRequest)
	}
	if req.UserID == "" {
		return fmt.Errorf("userId is required: %w", model.ErrMalformedRequest)
	}
	if strings.TrimSpace(req.Question) == "" {
		return fmt.Errorf("question is required: %w", model.ErrMalformedRequest)
	}
	if req.Category != "" && !model.KnownCategory(req.Category) {
		return fmt.Errorf("unknown category %q: %w", req.Category, model.ErrMalformedRequest)
	}
	return nil
}

// loadProfile returns nil when the user has no stored profile; a
// consultation still proceeds.
func (s *Service) loadProfile(ctx context.Context, userID string) *model.UserProfile {
	p, err := s.store.Profiles().Get(ctx, userID)
	if err != nil {
		return nil
	}
	return p
}

func (s *Service) loadVitals(ctx context.Context, userID string) []*model.VitalReading {
	after := s.clock().UTC().AddDate(0, 0, -historyWindowDays)
	vitals, err := s.store.Vitals().List(ctx, model.ListVitalsRequest{UserID: userID, After: &after})
	if err != nil {
		s.log.Warn().Err(err).Str("user", userID).Msg("vital history unavailable for prompt")
		return nil
	}
	return boundHistory(vitals, s.historyLimit)
}

func (s *Service) loadSymptoms(ctx context.Context, userID string) []*model.SymptomEntry {
	after := s.clock().UTC().AddDate(0, 0, -historyWindowDays)
	symptoms, err := s.store.Symptoms().List(ctx, model.ListSymptomsRequest{UserID: userID, After: &after})
	if err != nil {
		s.log.Warn().Err(err).Str("user", userID).Msg("symptom history unavailable for prompt")
		return nil
	}
	return boundHistory(symptoms, s.historyLimit)
}

func (s *Service) loadMedications(ctx context.Context, userID string) []*model.MedicationEntry {
	meds, err := s.store.Medications().List(ctx, userID)
	if err != nil {
		s.log.Warn().Err(err).Str("user", userID).Msg("medication history unavailable for prompt")
		return nil
	}
	return activeMedications(meds, s.clock().UTC(), s.historyLimit)
}
