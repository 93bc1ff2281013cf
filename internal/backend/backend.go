// Package backend defines the uniform adapter contract for language-model
// serving endpoints. The orchestrator treats every failure kind the same
// way for fallback purposes but logs them distinctly.
package backend

import "context"

// Backend invokes a named model with a prompt under the caller's context
// deadline. Generate returns the generated text or one of the sentinel
// failure errors (ErrUnavailable, ErrTimeout, ErrInvalidResponse).
type Backend interface {
	// Name identifies the backend family ("ollama", "openai").
	Name() string
	// Generate produces text for the prompt using modelID.
	Generate(ctx context.Context, modelID, prompt string) (string, error)
	// ListModels reports the model ids the backend currently serves.
	ListModels(ctx context.Context) ([]string, error)
	// HealthPing returns nil when the backend is reachable.
	HealthPing(ctx context.Context) error
}
