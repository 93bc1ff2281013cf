package api

import (
	"encoding/json"
	"net/http"

	"github.com/openhealth/openhealth/internal/api/respond"
	"github.com/openhealth/openhealth/internal/backend"
	"github.com/openhealth/openhealth/internal/consult"
	"github.com/openhealth/openhealth/internal/model"
)

// ConsultHandler serves the consultation endpoint plus the model
// inventory.
type ConsultHandler struct {
	svc      *consult.Service
	registry *backend.Registry
}

func NewConsultHandler(svc *consult.Service, reg *backend.Registry) *ConsultHandler {
	return &ConsultHandler{svc: svc, registry: reg}
}

func (h *ConsultHandler) CreateConsultation(w http.ResponseWriter, r *http.Request) {
	var in model.ConsultationRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	out, err := h.svc.Consult(r.Context(), &in)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// ListModels reports every configured model id and whether its backend
// currently serves it.
func (h *ConsultHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	type modelStatus struct {
		Model     string `json:"model"`
		Backend   string `json:"backend"`
		Available bool   `json:"available"`
	}
	ids := h.registry.Models()
	out := make([]modelStatus, 0, len(ids))
	for _, id := range ids {
		b, ok := h.registry.BackendFor(id)
		if !ok {
			continue
		}
		out = append(out, modelStatus{
			Model:     id,
			Backend:   b.Name(),
			Available: h.registry.Available(r.Context(), id),
		})
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"models": out,
		"count":  len(out),
	})
}
