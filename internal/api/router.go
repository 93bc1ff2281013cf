package api

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openhealth/openhealth/internal/api/recovery"
	"github.com/openhealth/openhealth/internal/backend"
	"github.com/openhealth/openhealth/internal/consult"
	"github.com/openhealth/openhealth/internal/store"
	"github.com/openhealth/openhealth/internal/trend"
)

// NewRouter wires every HTTP route. Construction order mirrors the
// dependency order: store-backed handlers first, then the orchestrator
// and trend engine surfaces.
func NewRouter(st store.Store, consultSvc *consult.Service, trendEngine *trend.Engine, registry *backend.Registry) *mux.Router {
	router := mux.NewRouter()
	router.Use(recovery.Middleware)

	healthHandler := NewHealthHandler()
	profileHandler := NewProfileHandler(st)
	metricsHandler := NewMetricsHandler(st)
	consultHandler := NewConsultHandler(consultSvc, registry)
	trendHandler := NewTrendHandler(trendEngine)

	// Health and observability
	router.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Profiles
	router.HandleFunc("/api/users", profileHandler.CreateProfile).Methods("POST")
	router.HandleFunc("/api/users/{userId}", profileHandler.GetProfile).Methods("GET")
	router.HandleFunc("/api/users/{userId}", profileHandler.UpdateProfile).Methods("PUT")

	// Metrics log
	router.HandleFunc("/api/users/{userId}/vitals", metricsHandler.AppendVital).Methods("POST")
	router.HandleFunc("/api/users/{userId}/vitals", metricsHandler.ListVitals).Methods("GET")
	router.HandleFunc("/api/users/{userId}/symptoms", metricsHandler.AppendSymptom).Methods("POST")
	router.HandleFunc("/api/users/{userId}/symptoms", metricsHandler.ListSymptoms).Methods("GET")
	router.HandleFunc("/api/users/{userId}/medications", metricsHandler.CreateMedication).Methods("POST")
	router.HandleFunc("/api/users/{userId}/medications", metricsHandler.ListMedications).Methods("GET")
	router.HandleFunc("/api/users/{userId}/medications/{medicationId}/discontinue", metricsHandler.DiscontinueMedication).Methods("POST")
	router.HandleFunc("/api/users/{userId}/export", metricsHandler.ExportUser).Methods("GET")

	// Consultations and model inventory
	router.HandleFunc("/api/consultations", consultHandler.CreateConsultation).Methods("POST")
	router.HandleFunc("/api/models", consultHandler.ListModels).Methods("GET")

	// Trends and alerts
	router.HandleFunc("/api/users/{userId}/trends/{kind}", trendHandler.GetTrend).Methods("GET")
	router.HandleFunc("/api/users/{userId}/alerts", trendHandler.GetAlerts).Methods("GET")

	return router
}
