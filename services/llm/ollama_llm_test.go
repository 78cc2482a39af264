package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewOllamaClientValidation verifies constructor argument handling.
func TestNewOllamaClientValidation(t *testing.T) {
	_, err := NewOllamaClient("", "gemma3:12b")
	assert.Error(t, err)

	client, err := NewOllamaClient("http://127.0.0.1:11434/", "gemma3:12b")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:11434", client.baseURL)

	// Missing model falls back to the default rather than failing.
	client, err = NewOllamaClient("http://127.0.0.1:11434", "")
	require.NoError(t, err)
	assert.Equal(t, "gemma3:12b", client.model)
}

// TestOllamaGenerateJSONMode verifies the wire request: model, prompt,
// non-streaming, zero temperature and format=json when requested.
func TestOllamaGenerateJSONMode(t *testing.T) {
	var captured ollamaGenerateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(ollamaGenerateResponse{
			Model:    captured.Model,
			Response: `{"cell_type_actual": "HEK293T"}`,
			Done:     true,
		})
	}))
	defer server.Close()

	client, err := NewOllamaClient(server.URL, "test-model")
	require.NoError(t, err)

	out, err := client.Generate(context.Background(), "pick one", GenerationParams{JSONOutput: true})
	require.NoError(t, err)
	assert.Equal(t, `{"cell_type_actual": "HEK293T"}`, out)

	assert.Equal(t, "test-model", captured.Model)
	assert.Equal(t, "pick one", captured.Prompt)
	assert.False(t, captured.Stream)
	assert.Equal(t, "json", captured.Format)
	assert.Equal(t, float64(0), captured.Options["temperature"])
}

// TestOllamaGenerateModelNotFound verifies the friendlier error for a
// missing model.
func TestOllamaGenerateModelNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "model 'missing' not found"})
	}))
	defer server.Close()

	client, err := NewOllamaClient(server.URL, "missing")
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "prompt", GenerationParams{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama pull missing")
}

// TestOllamaGenerateServerError verifies non-200 responses surface as
// errors with the status code.
func TestOllamaGenerateServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewOllamaClient(server.URL, "test-model")
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "prompt", GenerationParams{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}
