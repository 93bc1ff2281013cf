package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openhealth/openhealth/internal/backend"
)

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)
		var in struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
			Stream bool   `json:"stream"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "llama3.2:3b", in.Model)
		assert.False(t, in.Stream)
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "drink more water"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	out, err := c.Generate(context.Background(), "llama3.2:3b", "hydration advice")
	require.NoError(t, err)
	assert.Equal(t, "drink more water", out)
}

func TestGenerateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Generate(context.Background(), "m", "p")
	assert.True(t, errors.Is(err, backend.ErrUnavailable))
}

func TestGenerateModelError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "model not found"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Generate(context.Background(), "m", "p")
	assert.True(t, errors.Is(err, backend.ErrInvalidResponse))
}

func TestGenerateEmptyCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "   "})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Generate(context.Background(), "m", "p")
	assert.True(t, errors.Is(err, backend.ErrInvalidResponse))
}

func TestGenerateTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "late"})
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := New(srv.URL)
	_, err := c.Generate(ctx, "m", "p")
	assert.True(t, errors.Is(err, backend.ErrTimeout))
}

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"models": []map[string]string{{"name": "llama3.2:3b"}, {"name": "gemma2:9b"}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	got, err := c.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"llama3.2:3b", "gemma2:9b"}, got)
}

func TestHealthPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"models": []string{}})
	}))
	defer srv.Close()

	c := New(srv.URL)
	assert.NoError(t, c.HealthPing(context.Background()))

	srv.Close()
	assert.Error(t, c.HealthPing(context.Background()))
}

func TestNewDefaultsAndScheme(t *testing.T) {
	assert.Equal(t, "http://localhost:11434", New("").client.BaseURL)
	assert.Equal(t, "http://ollama:11434", New("ollama:11434").client.BaseURL)
	assert.Equal(t, "https://ollama.example", New("https://ollama.example").client.BaseURL)
}
