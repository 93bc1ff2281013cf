// Package openai adapts an OpenAI-compatible chat-completions endpoint to
// the backend contract.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/go-resty/resty/v2"

	"github.com/openhealth/openhealth/internal/backend"
)

// Client calls an OpenAI-style chat completions API.
type Client struct {
	client *resty.Client
	models []string
}

// New creates a Client. models enumerates the ids this deployment routes
// to the cloud API; ListModels reports exactly that set when the key is
// configured (the upstream catalog is not enumerated per call).
func New(baseURL, apiKey string, models []string) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		c.SetAuthToken(apiKey)
	}
	sorted := append([]string(nil), models...)
	sort.Strings(sorted)
	return &Client{client: c, models: sorted}
}

func (c *Client) Name() string { return "openai" }

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate posts the prompt as a single user message.
func (c *Client) Generate(ctx context.Context, modelID, prompt string) (string, error) {
	reqBody := chatRequest{
		Model:    modelID,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(&reqBody).
		Post("/chat/completions")
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("openai chat %s: %w", modelID, backend.ErrTimeout)
		}
		return "", fmt.Errorf("openai chat %s: %v: %w", modelID, err, backend.ErrUnavailable)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("openai status %d: %s: %w", resp.StatusCode(), resp.String(), backend.ErrUnavailable)
	}

	var cr chatResponse
	if err := json.Unmarshal(resp.Body(), &cr); err != nil {
		return "", fmt.Errorf("decode response: %v: %w", err, backend.ErrInvalidResponse)
	}
	if cr.Error != nil {
		return "", fmt.Errorf("openai error: %s: %w", cr.Error.Message, backend.ErrInvalidResponse)
	}
	if len(cr.Choices) == 0 || cr.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("openai empty completion: %w", backend.ErrInvalidResponse)
	}
	return cr.Choices[0].Message.Content, nil
}

// ListModels reports the configured cloud model ids. Without an API key
// nothing is served.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	if c.client.Token == "" {
		return nil, nil
	}
	return append([]string(nil), c.models...), nil
}

// HealthPing checks the models endpoint with a light GET.
func (c *Client) HealthPing(ctx context.Context) error {
	if c.client.Token == "" {
		return fmt.Errorf("openai api key not configured")
	}
	resp, err := c.client.R().SetContext(ctx).Get("/models")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("openai status %d", resp.StatusCode())
	}
	return nil
}
