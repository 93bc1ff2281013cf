// Package ollama adapts a local Ollama server to the backend contract.
package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/openhealth/openhealth/internal/backend"
)

// Client calls the Ollama generate API.
type Client struct {
	client *resty.Client
}

// New creates a Client for the given base URL; empty means the local
// default. The caller's context carries the per-request deadline, so no
// client-level timeout is set.
func New(baseURL string) *Client {
	base := baseURL
	if base == "" {
		base = "http://localhost:11434"
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	c := resty.New().
		SetBaseURL(base).
		SetHeader("Content-Type", "application/json")

	return &Client{client: c}
}

func (c *Client) Name() string { return "ollama" }

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

// Generate posts the prompt to /api/generate and returns the completion.
func (c *Client) Generate(ctx context.Context, modelID, prompt string) (string, error) {
	reqBody := generateRequest{Model: modelID, Prompt: prompt, Stream: false}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(&reqBody).
		Post("/api/generate")
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("ollama generate %s: %w", modelID, backend.ErrTimeout)
		}
		return "", fmt.Errorf("ollama generate %s: %v: %w", modelID, err, backend.ErrUnavailable)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("ollama status %d: %s: %w", resp.StatusCode(), resp.String(), backend.ErrUnavailable)
	}

	var gr generateResponse
	if err := json.Unmarshal(resp.Body(), &gr); err != nil {
		return "", fmt.Errorf("decode response: %v: %w", err, backend.ErrInvalidResponse)
	}
	if gr.Error != "" {
		return "", fmt.Errorf("ollama error: %s: %w", gr.Error, backend.ErrInvalidResponse)
	}
	if strings.TrimSpace(gr.Response) == "" {
		return "", fmt.Errorf("ollama empty completion: %w", backend.ErrInvalidResponse)
	}
	return gr.Response, nil
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// ListModels queries /api/tags for the models the server has pulled.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	resp, err := c.client.R().SetContext(ctx).Get("/api/tags")
	if err != nil {
		return nil, fmt.Errorf("ollama tags: %v: %w", err, backend.ErrUnavailable)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("ollama tags status %d: %w", resp.StatusCode(), backend.ErrUnavailable)
	}
	var tr tagsResponse
	if err := json.Unmarshal(resp.Body(), &tr); err != nil {
		return nil, fmt.Errorf("decode tags: %v: %w", err, backend.ErrInvalidResponse)
	}
	out := make([]string, 0, len(tr.Models))
	for _, m := range tr.Models {
		out = append(out, m.Name)
	}
	return out, nil
}

// HealthPing checks /api/tags reachability.
func (c *Client) HealthPing(ctx context.Context) error {
	resp, err := c.client.R().SetContext(ctx).Get("/api/tags")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("ollama status %d", resp.StatusCode())
	}
	return nil
}
