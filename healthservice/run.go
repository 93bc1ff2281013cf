// Package healthservice boots the health-assistant HTTP server: config,
// store, model backends, orchestrator, trend engine and health
// monitoring.
package healthservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/openhealth/openhealth/internal/api"
	"github.com/openhealth/openhealth/internal/backend"
	"github.com/openhealth/openhealth/internal/backend/ollama"
	"github.com/openhealth/openhealth/internal/backend/openai"
	"github.com/openhealth/openhealth/internal/config"
	"github.com/openhealth/openhealth/internal/consult"
	"github.com/openhealth/openhealth/internal/health"
	"github.com/openhealth/openhealth/internal/logger"
	"github.com/openhealth/openhealth/internal/store"
	"github.com/openhealth/openhealth/internal/store/postgres"
	"github.com/openhealth/openhealth/internal/store/sqlite"
	"github.com/openhealth/openhealth/internal/trend"
	"github.com/openhealth/openhealth/internal/triage"
)

// availabilityCacheTTL bounds how stale the model-availability view used
// for routing may get.
const availabilityCacheTTL = 15 * time.Second

// Run starts the health-assistant HTTP server and blocks until shutdown
// or error.
func Run() error {
	log := logger.New("openhealth-server")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	ctx, stop := newServerContext()
	defer stop()

	st, err := newStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Metrics store unavailable")
		return err
	}

	registry, backends := buildBackends(cfg, log)
	router := buildRouter(cfg, log, st, registry)

	svcHealth := startHealthCheckers(ctx, cfg, log, st, backends)
	if err := waitUntilHealthy(ctx, cfg, svcHealth); err != nil {
		log.Error().Stack().Err(err).Msg("startup health check failed")
		return err
	}

	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

// newStore opens the configured driver and retries the first ping with
// exponential backoff so a slow database does not fail startup.
func newStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.Store, error) {
	var st store.Store
	var err error
	switch cfg.DBDriver {
	case "postgres":
		st, err = postgres.New(cfg.PostgresDSN)
	default:
		st, err = sqlite.New(cfg.SQLitePath)
	}
	if err != nil {
		return nil, err
	}

	pinger, ok := st.(health.HealthPinger)
	if !ok {
		return st, nil
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx)
	if err := backoff.Retry(func() error { return pinger.HealthPing(ctx) }, policy); err != nil {
		return nil, fmt.Errorf("store did not become reachable: %w", err)
	}
	log.Info().Str("driver", cfg.DBDriver).Msg("metrics store ready")
	return st, nil
}

// buildBackends constructs the backend clients and binds every routed
// model id to its serving family. Models named in OPENAI_MODELS go to the
// OpenAI-compatible client; everything else is served by Ollama.
func buildBackends(cfg *config.Config, log zerolog.Logger) (*backend.Registry, []backend.Backend) {
	registry := backend.NewRegistry(availabilityCacheTTL)

	openaiSet := make(map[string]bool, len(cfg.OpenAIModels))
	for _, id := range cfg.OpenAIModels {
		openaiSet[id] = true
	}

	var ollamaModels []string
	seen := make(map[string]bool)
	for _, route := range [][]string{cfg.RouteGeneral, cfg.RouteSymptomAnalysis, cfg.RouteEmergency, cfg.RoutePreventive} {
		for _, id := range route {
			if id == "" || seen[id] || openaiSet[id] {
				continue
			}
			seen[id] = true
			ollamaModels = append(ollamaModels, id)
		}
	}

	var backends []backend.Backend
	ob := ollama.New(cfg.OllamaURL)
	registry.Register(ob, ollamaModels...)
	backends = append(backends, ob)

	if cfg.OpenAIAPIKey != "" && len(cfg.OpenAIModels) > 0 {
		oa := openai.New(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModels)
		registry.Register(oa, cfg.OpenAIModels...)
		backends = append(backends, oa)
	}

	log.Info().
		Strs("ollama_models", ollamaModels).
		Strs("openai_models", cfg.OpenAIModels).
		Msg("model backends configured")
	return registry, backends
}

// buildRouter wires the domain services and HTTP routes.
func buildRouter(cfg *config.Config, log zerolog.Logger, st store.Store, registry *backend.Registry) http.Handler {
	detector := triage.NewDetector(triage.Rules{
		Emergency:      triage.ParsePatterns(cfg.EmergencyKeywords),
		Urgent:         triage.ParsePatterns(cfg.UrgentKeywords),
		UrgentSeverity: cfg.UrgentSeverity,
	})
	consultSvc := consult.NewService(st, registry, detector, cfg.RoutingTable(), cfg.RequestTimeout(), cfg.HistoryLimit, log)
	trendEngine := trend.NewEngine(st, trend.DefaultThresholds(), cfg.TrendRelativeThreshold)
	return api.NewRouter(st, consultSvc, trendEngine, registry)
}

// startHealthCheckers starts component checkers and the service-level
// aggregator, and binds the health endpoint to it. Backend checkers are
// monitored but do not gate startup: the service degrades without models,
// it does not refuse to boot.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, st store.Store, backends []backend.Backend) *health.ServiceHealthChecker {
	probeTimeout := time.Duration(cfg.HealthProbeTimeoutSeconds) * time.Second
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second

	storeChecker := store.NewStoreHealthChecker(st, log, probeTimeout)
	go storeChecker.Start(ctx, interval)

	for _, b := range backends {
		bc := backend.NewBackendHealthChecker(b, log, probeTimeout)
		go bc.Start(ctx, interval)
	}

	svcHealth := health.NewServiceHealthChecker(log, storeChecker)
	go svcHealth.Start(ctx, interval)
	api.BindServiceHealth(svcHealth.IsHealthy)
	return svcHealth
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * cfg.RequestTimeout(),
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// calculateStartupHealthTimeout returns the startup window in seconds,
// interval*2 with a minimum of 60.
func calculateStartupHealthTimeout(healthIntervalSeconds int) int {
	timeout := healthIntervalSeconds * 2
	if timeout < 60 {
		return 60
	}
	return timeout
}

// waitUntilHealthy blocks until service health reports healthy or the
// startup window expires. Checkers begin unhealthy and need one probe
// cycle to flip.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, svcHealth *health.ServiceHealthChecker) error {
	timeoutSeconds := calculateStartupHealthTimeout(cfg.HealthIntervalSeconds)
	deadline := time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if svcHealth.IsHealthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("startup aborted: dependencies not healthy within %d seconds", timeoutSeconds)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// newServerContext returns a cancellable context bound to SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
