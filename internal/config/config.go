package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"

	"github.com/openhealth/openhealth/internal/model"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the health-assistant service.
// Environment variables are parsed from the OPENHEALTH_ prefix.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Metrics store. Driver is sqlite (local file) or postgres.
	DBDriver    string `envconfig:"DB_DRIVER" default:"sqlite"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"data/openhealth.db"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// Model backends
	OllamaURL     string   `envconfig:"OLLAMA_URL" default:"http://localhost:11434"`
	OpenAIBaseURL string   `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	OpenAIAPIKey  string   `envconfig:"OPENAI_API_KEY" default:""`
	OpenAIModels  []string `envconfig:"OPENAI_MODELS" default:""`

	// Model routing: ordered candidates per consultation category. The
	// first reachable model wins; later entries are fallbacks.
	RouteGeneral         []string `envconfig:"ROUTE_GENERAL" default:"llama3.2:3b,qwen2.5:7b"`
	RouteSymptomAnalysis []string `envconfig:"ROUTE_SYMPTOM_ANALYSIS" default:"qwen2.5:7b,llama3.2:3b"`
	RouteEmergency       []string `envconfig:"ROUTE_EMERGENCY" default:"deepseek-r1:1.5b,llama3.2:3b"`
	RoutePreventive      []string `envconfig:"ROUTE_PREVENTIVE" default:"gemma2:9b,llama3.2:3b"`

	// Orchestrator tuning
	RequestTimeoutSeconds int `envconfig:"REQUEST_TIMEOUT_SECONDS" default:"30"`
	HistoryLimit          int `envconfig:"HISTORY_LIMIT" default:"10"`

	// Triage keyword overrides; empty means the built-in pattern lists.
	// Each entry is a pattern; use '+' to require several terms at once,
	// e.g. "chest pain+short of breath".
	EmergencyKeywords []string `envconfig:"EMERGENCY_KEYWORDS" default:""`
	UrgentKeywords    []string `envconfig:"URGENT_KEYWORDS" default:""`
	UrgentSeverity    int      `envconfig:"URGENT_SEVERITY" default:"8"`

	// Trend engine tuning
	TrendRelativeThreshold float64 `envconfig:"TREND_RELATIVE_THRESHOLD" default:"0.05"`

	// Health checking
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"5"`
}

// ResolveDefaults validates driver selection and derived values.
func (c *Config) ResolveDefaults() error {
	allowedDB := map[string]bool{"sqlite": true, "postgres": true}
	if !allowedDB[c.DBDriver] {
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.DBDriver == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("DB_DRIVER=postgres requires POSTGRES_DSN")
	}
	if c.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT_SECONDS must be positive")
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("HISTORY_LIMIT must be positive")
	}
	if c.TrendRelativeThreshold <= 0 {
		return fmt.Errorf("TREND_RELATIVE_THRESHOLD must be positive")
	}
	return nil
}

// New creates a new Config by parsing environment variables.
// Environment variables are prefixed with OPENHEALTH_
// Example: OPENHEALTH_HTTP_PORT, OPENHEALTH_OLLAMA_URL
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("OPENHEALTH", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Str("db_driver", cfg.DBDriver).
		Int("port", cfg.HTTPPort).
		Str("ollama_url", cfg.OllamaURL).
		Int("request_timeout_s", cfg.RequestTimeoutSeconds).
		Int("history_limit", cfg.HistoryLimit).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing.
func NewForTesting() *Config {
	return &Config{
		Environment:               EnvTesting,
		HTTPPort:                  8080,
		DBDriver:                  "sqlite",
		SQLitePath:                ":memory:",
		OllamaURL:                 "http://localhost:11434",
		OpenAIBaseURL:             "https://api.openai.com/v1",
		RouteGeneral:              []string{"llama3.2:3b", "qwen2.5:7b"},
		RouteSymptomAnalysis:      []string{"qwen2.5:7b", "llama3.2:3b"},
		RouteEmergency:            []string{"deepseek-r1:1.5b", "llama3.2:3b"},
		RoutePreventive:           []string{"gemma2:9b", "llama3.2:3b"},
		RequestTimeoutSeconds:     5,
		HistoryLimit:              10,
		UrgentSeverity:            8,
		TrendRelativeThreshold:    0.05,
		HealthIntervalSeconds:     30,
		HealthProbeTimeoutSeconds: 5,
	}
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// RequestTimeout returns the bounded wait applied to one backend call.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// RoutingTable builds the category -> ordered model-id table consumed by
// the orchestrator.
func (c *Config) RoutingTable() map[model.Category][]string {
	return map[model.Category][]string{
		model.CategoryGeneral:         append([]string(nil), c.RouteGeneral...),
		model.CategorySymptomAnalysis: append([]string(nil), c.RouteSymptomAnalysis...),
		model.CategoryEmergency:       append([]string(nil), c.RouteEmergency...),
		model.CategoryPreventive:      append([]string(nil), c.RoutePreventive...),
	}
}
