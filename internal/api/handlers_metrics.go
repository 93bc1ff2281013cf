package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/openhealth/openhealth/internal/api/respond"
	"github.com/openhealth/openhealth/internal/api/validate"
	"github.com/openhealth/openhealth/internal/model"
	"github.com/openhealth/openhealth/internal/store"
)

// MetricsHandler serves the append-only metrics log: vital readings,
// symptom entries and medication courses.
type MetricsHandler struct {
	store store.Store
}

func NewMetricsHandler(st store.Store) *MetricsHandler { return &MetricsHandler{store: st} }

func (h *MetricsHandler) AppendVital(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	var in struct {
		Kind  string  `json:"kind"`
		Value float64 `json:"value"`
		Unit  string  `json:"unit,omitempty"`
		Note  *string `json:"note,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	kind, err := validate.MetricKind(in.Kind)
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := validate.MetricValue(in.Value); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	unit := in.Unit
	if unit == "" {
		unit = model.DefaultUnit(kind)
	}
	out, err := h.store.Vitals().Append(r.Context(), &model.VitalReading{
		UserID: userID,
		Kind:   kind,
		Value:  in.Value,
		Unit:   unit,
		Note:   in.Note,
	})
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

func (h *MetricsHandler) ListVitals(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	req := model.ListVitalsRequest{UserID: userID}

	q := r.URL.Query()
	if v := q.Get("kind"); v != "" {
		kind, err := validate.MetricKind(v)
		if err != nil {
			respond.WriteBadRequest(w, err.Error())
			return
		}
		req.Kind = &kind
	}
	var err error
	if req.After, err = parseTimeParam(q.Get("after")); err != nil {
		respond.WriteBadRequest(w, "after must be RFC 3339")
		return
	}
	if req.Before, err = parseTimeParam(q.Get("before")); err != nil {
		respond.WriteBadRequest(w, "before must be RFC 3339")
		return
	}
	if req.Limit, err = parseLimitParam(q.Get("limit")); err != nil {
		respond.WriteBadRequest(w, "limit must be a positive integer")
		return
	}

	out, err := h.store.Vitals().List(r.Context(), req)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"readings": emptyIfNilVitals(out),
		"count":    len(out),
	})
}

func (h *MetricsHandler) AppendSymptom(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	var in struct {
		Symptom  string  `json:"symptom"`
		Severity int     `json:"severity"`
		Note     *string `json:"note,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	if err := validate.NonEmpty("symptom", in.Symptom); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := validate.Severity(in.Severity); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	out, err := h.store.Symptoms().Append(r.Context(), &model.SymptomEntry{
		UserID:   userID,
		Symptom:  in.Symptom,
		Severity: in.Severity,
		Note:     in.Note,
	})
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

func (h *MetricsHandler) ListSymptoms(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	req := model.ListSymptomsRequest{UserID: userID}

	q := r.URL.Query()
	var err error
	if req.After, err = parseTimeParam(q.Get("after")); err != nil {
		respond.WriteBadRequest(w, "after must be RFC 3339")
		return
	}
	if req.Before, err = parseTimeParam(q.Get("before")); err != nil {
		respond.WriteBadRequest(w, "before must be RFC 3339")
		return
	}
	if req.Limit, err = parseLimitParam(q.Get("limit")); err != nil {
		respond.WriteBadRequest(w, "limit must be a positive integer")
		return
	}

	out, err := h.store.Symptoms().List(r.Context(), req)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"entries": emptyIfNilSymptoms(out),
		"count":   len(out),
	})
}

func (h *MetricsHandler) CreateMedication(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	var in struct {
		Name      string     `json:"name"`
		Dosage    string     `json:"dosage"`
		Frequency string     `json:"frequency"`
		StartDate *time.Time `json:"startDate,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	if err := validate.NonEmpty("name", in.Name); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	med := &model.MedicationEntry{
		UserID:    userID,
		Name:      in.Name,
		Dosage:    in.Dosage,
		Frequency: in.Frequency,
	}
	if in.StartDate != nil {
		med.StartDate = in.StartDate.UTC()
	}
	out, err := h.store.Medications().Create(r.Context(), med)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

func (h *MetricsHandler) ListMedications(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	out, err := h.store.Medications().List(r.Context(), userID)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	if r.URL.Query().Get("active") == "true" {
		now := time.Now().UTC()
		filtered := out[:0]
		for _, m := range out {
			if m.Active(now) {
				filtered = append(filtered, m)
			}
		}
		out = filtered
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"medications": emptyIfNilMedications(out),
		"count":       len(out),
	})
}

func (h *MetricsHandler) DiscontinueMedication(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var in struct {
		EndDate *time.Time `json:"endDate,omitempty"`
	}
	// Empty body means "discontinue now".
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil && !errors.Is(err, io.EOF) {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	end := time.Now().UTC()
	if in.EndDate != nil {
		end = in.EndDate.UTC()
	}
	out, err := h.store.Medications().Discontinue(r.Context(), vars["userId"], vars["medicationId"], end)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// ExportUser returns everything stored for one user in a single document.
func (h *MetricsHandler) ExportUser(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	ctx := r.Context()

	profile, err := h.store.Profiles().Get(ctx, userID)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	vitals, err := h.store.Vitals().List(ctx, model.ListVitalsRequest{UserID: userID})
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	symptoms, err := h.store.Symptoms().List(ctx, model.ListSymptomsRequest{UserID: userID})
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	medications, err := h.store.Medications().List(ctx, userID)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"profile":     profile,
		"vitals":      emptyIfNilVitals(vitals),
		"symptoms":    emptyIfNilSymptoms(symptoms),
		"medications": emptyIfNilMedications(medications),
		"exportedAt":  time.Now().UTC().Format(time.RFC3339),
	})
}

func parseTimeParam(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}

func parseLimitParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}

// JSON lists serialize as [] rather than null.

func emptyIfNilVitals(in []*model.VitalReading) []*model.VitalReading {
	if in == nil {
		return []*model.VitalReading{}
	}
	return in
}

func emptyIfNilSymptoms(in []*model.SymptomEntry) []*model.SymptomEntry {
	if in == nil {
		return []*model.SymptomEntry{}
	}
	return in
}

func emptyIfNilMedications(in []*model.MedicationEntry) []*model.MedicationEntry {
	if in == nil {
		return []*model.MedicationEntry{}
	}
	return in
}
