package consult

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openhealth/openhealth/internal/backend"
	"github.com/openhealth/openhealth/internal/model"
	"github.com/openhealth/openhealth/internal/store"
	"github.com/openhealth/openhealth/internal/triage"
)

// --- Fakes ---

type fakeStore struct {
	profile  *model.UserProfile
	vitals   []*model.VitalReading
	symptoms []*model.SymptomEntry
	meds     []*model.MedicationEntry
}

func (f *fakeStore) Profiles() store.Profiles       { return &fakeProfiles{f} }
func (f *fakeStore) Vitals() store.Vitals           { return &fakeVitals{f} }
func (f *fakeStore) Symptoms() store.Symptoms       { return &fakeSymptoms{f} }
func (f *fakeStore) Medications() store.Medications { return &fakeMedications{f} }

type fakeProfiles struct{ p *fakeStore }

func (f *fakeProfiles) Create(context.Context, *model.UserProfile) (*model.UserProfile, error) {
	panic("unused")
}
func (f *fakeProfiles) Get(context.Context, string) (*model.UserProfile, error) {
	if f.p.profile == nil {
		return nil, model.ErrNotFound
	}
	return f.p.profile, nil
}
func (f *fakeProfiles) Update(context.Context, *model.UserProfile) (*model.UserProfile, error) {
	panic("unused")
}

type fakeVitals struct{ p *fakeStore }

func (f *fakeVitals) Append(context.Context, *model.VitalReading) (*model.VitalReading, error) {
	panic("unused")
}
func (f *fakeVitals) List(context.Context, model.ListVitalsRequest) ([]*model.VitalReading, error) {
	return f.p.vitals, nil
}

type fakeSymptoms struct{ p *fakeStore }

func (f *fakeSymptoms) Append(context.Context, *model.SymptomEntry) (*model.SymptomEntry, error) {
	panic("unused")
}
func (f *fakeSymptoms) List(context.Context, model.ListSymptomsRequest) ([]*model.SymptomEntry, error) {
	return f.p.symptoms, nil
}

type fakeMedications struct{ p *fakeStore }

func (f *fakeMedications) Create(context.Context, *model.MedicationEntry) (*model.MedicationEntry, error) {
	panic("unused")
}
func (f *fakeMedications) List(context.Context, string) ([]*model.MedicationEntry, error) {
	return f.p.meds, nil
}
func (f *fakeMedications) Discontinue(context.Context, string, string, time.Time) (*model.MedicationEntry, error) {
	panic("unused")
}

// fakeBackend serves a fixed model list and scripted replies or failures.
type fakeBackend struct {
	name    string
	served  []string
	fail    map[string]error
	replies map[string]string
	calls   []string
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Generate(ctx context.Context, modelID, prompt string) (string, error) {
	f.calls = append(f.calls, modelID)
	if err := f.fail[modelID]; err != nil {
		return "", err
	}
	if r, ok := f.replies[modelID]; ok {
		return r, nil
	}
	return "generated answer", nil
}

func (f *fakeBackend) ListModels(ctx context.Context) ([]string, error) { return f.served, nil }
func (f *fakeBackend) HealthPing(ctx context.Context) error             { return nil }

func newTestService(t *testing.T, st store.Store, b *fakeBackend, routing map[model.Category][]string) *Service {
	t.Helper()
	reg := backend.NewRegistry(0)
	reg.Register(b, b.served...)
	det := triage.NewDetector(triage.Rules{})
	return NewService(st, reg, det, routing, time.Second, 10, zerolog.Nop())
}

func defaultRouting() map[model.Category][]string {
	return map[model.Category][]string{
		model.CategoryGeneral:         {"general-a", "general-b"},
		model.CategorySymptomAnalysis: {"symptoms-a", "general-a"},
		model.CategoryEmergency:       {"fast-a", "general-a"},
		model.CategoryPreventive:      {"prevent-a", "general-a"},
	}
}

func allModels() []string {
	return []string{"general-a", "general-b", "symptoms-a", "fast-a", "prevent-a"}
}

// --- Tests ---

func TestConsultRoutesPreferredModel(t *testing.T) {
	b := &fakeBackend{name: "ollama", served: allModels()}
	svc := newTestService(t, &fakeStore{}, b, defaultRouting())

	resp, err := svc.Consult(context.Background(), &model.ConsultationRequest{
		UserID:   "alice",
		Category: model.CategoryGeneral,
		Question: "how can I sleep better",
	})
	require.NoError(t, err)
	assert.Equal(t, "general-a", resp.ModelID)
	assert.False(t, resp.Emergency)
	assert.False(t, resp.Degraded)
	assert.Equal(t, model.TriageRoutine, resp.Triage)
	assert.Contains(t, resp.Text, "generated answer")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(resp.Text), disclaimer))
}

func TestConsultFallsBackToNextCandidate(t *testing.T) {
	b := &fakeBackend{
		name:   "ollama",
		served: allModels(),
		fail:   map[string]error{"general-a": backend.ErrUnavailable},
	}
	svc := newTestService(t, &fakeStore{}, b, defaultRouting())

	resp, err := svc.Consult(context.Background(), &model.ConsultationRequest{
		UserID:   "alice",
		Category: model.CategoryGeneral,
		Question: "is green tea good for me",
	})
	require.NoError(t, err)
	assert.Equal(t, "general-b", resp.ModelID)
	assert.False(t, resp.Degraded)
	assert.Equal(t, []string{"general-a", "general-b"}, b.calls)
}

func TestConsultSkipsUnavailableModels(t *testing.T) {
	// general-a is routed but the backend does not serve it right now.
	served := []string{"general-b", "symptoms-a", "fast-a", "prevent-a"}
	b := &fakeBackend{name: "ollama", served: served}
	svc := newTestService(t, &fakeStore{}, b, defaultRouting())

	resp, err := svc.Consult(context.Background(), &model.ConsultationRequest{
		UserID:   "alice",
		Category: model.CategoryGeneral,
		Question: "what is a healthy resting heart rate",
	})
	require.NoError(t, err)
	assert.Equal(t, "general-b", resp.ModelID)
	assert.Equal(t, []string{"general-b"}, b.calls)
}

func TestConsultEmergencyOverridesCategory(t *testing.T) {
	b := &fakeBackend{name: "ollama", served: allModels()}
	svc := newTestService(t, &fakeStore{}, b, defaultRouting())

	resp, err := svc.Consult(context.Background(), &model.ConsultationRequest{
		UserID:   "alice",
		Category: model.CategoryPreventive,
		Question: "I have crushing chest pain and can't breathe",
	})
	require.NoError(t, err)
	assert.Equal(t, model.TriageEmergency, resp.Triage)
	assert.True(t, resp.Emergency)
	// Emergency routing wins over the requested category.
	assert.Equal(t, "fast-a", resp.ModelID)
	assert.True(t, strings.HasPrefix(resp.Text, emergencyDirective))
}

func TestConsultTotalBackendFailureKeepsEmergencyFlag(t *testing.T) {
	fail := make(map[string]error)
	for _, id := range allModels() {
		fail[id] = backend.ErrUnavailable
	}
	b := &fakeBackend{name: "ollama", served: allModels(), fail: fail}
	svc := newTestService(t, &fakeStore{}, b, defaultRouting())

	resp, err := svc.Consult(context.Background(), &model.ConsultationRequest{
		UserID:   "alice",
		Question: "I have crushing chest pain and can't breathe",
	})
	require.NoError(t, err)
	assert.True(t, resp.Degraded)
	assert.True(t, resp.Emergency)
	assert.Equal(t, model.TriageEmergency, resp.Triage)
	assert.Empty(t, resp.ModelID)
	assert.True(t, strings.HasPrefix(resp.Text, emergencyDirective))
	assert.Contains(t, resp.Text, failureNotice)
	assert.Contains(t, resp.Text, disclaimer)
	// Fallback stops after the attempt cap.
	assert.Len(t, b.calls, maxAttempts)
}

func TestConsultNoModelsConfigured(t *testing.T) {
	b := &fakeBackend{name: "ollama"}
	svc := newTestService(t, &fakeStore{}, b, map[model.Category][]string{})

	resp, err := svc.Consult(context.Background(), &model.ConsultationRequest{
		UserID:   "alice",
		Question: "should I take vitamin D",
	})
	require.NoError(t, err)
	assert.True(t, resp.Degraded)
	assert.Contains(t, resp.Text, failureNotice)
}

func TestConsultValidation(t *testing.T) {
	b := &fakeBackend{name: "ollama", served: allModels()}
	svc := newTestService(t, &fakeStore{}, b, defaultRouting())

	_, err := svc.Consult(context.Background(), nil)
	assert.True(t, errors.Is(err, model.ErrMalformedRequest))

	_, err = svc.Consult(context.Background(), &model.ConsultationRequest{Question: "hi"})
	assert.True(t, errors.Is(err, model.ErrMalformedRequest))

	_, err = svc.Consult(context.Background(), &model.ConsultationRequest{UserID: "alice", Question: "   "})
	assert.True(t, errors.Is(err, model.ErrMalformedRequest))

	_, err = svc.Consult(context.Background(), &model.ConsultationRequest{
		UserID: "alice", Question: "hi", Category: "astrology",
	})
	assert.True(t, errors.Is(err, model.ErrMalformedRequest))

	assert.Empty(t, b.calls)
}

func TestConsultDefaultsToGeneralCategory(t *testing.T) {
	b := &fakeBackend{name: "ollama", served: allModels()}
	svc := newTestService(t, &fakeStore{}, b, defaultRouting())

	resp, err := svc.Consult(context.Background(), &model.ConsultationRequest{
		UserID:   "alice",
		Question: "how much coffee is too much",
	})
	require.NoError(t, err)
	assert.Equal(t, "general-a", resp.ModelID)
}
