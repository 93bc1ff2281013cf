package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/openhealth/openhealth/internal/api/respond"
	"github.com/openhealth/openhealth/internal/api/validate"
	"github.com/openhealth/openhealth/internal/model"
	"github.com/openhealth/openhealth/internal/store"
)

// ProfileHandler serves the household-member profile endpoints.
type ProfileHandler struct {
	store store.Store
}

func NewProfileHandler(st store.Store) *ProfileHandler { return &ProfileHandler{store: st} }

func (h *ProfileHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var in struct {
		UserID     string   `json:"userId"`
		Age        *int     `json:"age,omitempty"`
		Sex        *string  `json:"sex,omitempty"`
		Conditions []string `json:"conditions,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	if err := validate.UserID(in.UserID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	out, err := h.store.Profiles().Create(r.Context(), &model.UserProfile{
		UserID:     in.UserID,
		Age:        in.Age,
		Sex:        in.Sex,
		Conditions: in.Conditions,
	})
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	out, err := h.store.Profiles().Get(r.Context(), userID)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	var in struct {
		Age        *int     `json:"age,omitempty"`
		Sex        *string  `json:"sex,omitempty"`
		Conditions []string `json:"conditions,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	out, err := h.store.Profiles().Update(r.Context(), &model.UserProfile{
		UserID:     userID,
		Age:        in.Age,
		Sex:        in.Sex,
		Conditions: in.Conditions,
	})
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}
