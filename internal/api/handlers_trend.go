package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/openhealth/openhealth/internal/api/respond"
	"github.com/openhealth/openhealth/internal/api/validate"
	"github.com/openhealth/openhealth/internal/model"
	"github.com/openhealth/openhealth/internal/trend"
)

const defaultWindowDays = 7

// TrendHandler serves rolling-window summaries and threshold alerts.
type TrendHandler struct {
	engine *trend.Engine
}

func NewTrendHandler(engine *trend.Engine) *TrendHandler { return &TrendHandler{engine: engine} }

func (h *TrendHandler) GetTrend(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind, err := validate.MetricKind(vars["kind"])
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	windowDays := defaultWindowDays
	if v := r.URL.Query().Get("windowDays"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respond.WriteBadRequest(w, "windowDays must be a positive integer")
			return
		}
		windowDays = n
	}

	out, err := h.engine.Summarize(r.Context(), vars["userId"], kind, windowDays)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

func (h *TrendHandler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	alerts, err := h.engine.CheckAlerts(r.Context(), userID)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	if alerts == nil {
		alerts = []*model.Alert{}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": alerts,
		"count":  len(alerts),
	})
}
