package ner

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-ports/piiscrub/internal/models"
)

// DefaultOllamaURL is the local Ollama endpoint used when none is configured.
const DefaultOllamaURL = "http://localhost:11434"

// Ollama asks a local generative model to list entities and locates each
// returned string in the input to recover offsets. Entities the model
// paraphrases, and therefore cannot be found verbatim, are dropped.
type Ollama struct {
	Model   string
	BaseURL string
	client  *http.Client
}

// NewOllama returns an Ollama provider.
func NewOllama(model, baseURL string, timeout time.Duration) *Ollama {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	return &Ollama{
		Model:   model,
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Detect calls POST /api/generate in JSON mode and maps the answer to
// byte-offset candidates.
func (o *Ollama) Detect(ctx context.Context, text string) ([]models.Candidate, error) {
	reqBody := map[string]any{
		"model":  o.Model,
		"prompt": entityPrompt + "\nText:\n" + text,
		"stream": false,
		"format": "json",
	}
	var resp struct {
		Response string `json:"response"`
	}
	if err := callRecognizer(ctx, o.client, http.MethodPost, o.BaseURL+"/api/generate", nil, reqBody, &resp); err != nil {
		return nil, fmt.Errorf("ollama generate: %w", err)
	}

	cands, err := locateEntities(text, resp.Response)
	if err != nil {
		return nil, fmt.Errorf("ollama generate: %w", err)
	}
	return cands, nil
}

// IsOllamaModelLoaded returns true if model is currently loaded in the Ollama server.
// Uses a 500 ms timeout; returns false on any error.
func IsOllamaModelLoaded(model, baseURL string) bool {
	client := &http.Client{Timeout: 500 * time.Millisecond}
	var resp struct {
		Models []struct {
			Name  string `json:"name"`
			Model string `json:"model"`
		} `json:"models"`
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	if err := callRecognizer(ctx, client, http.MethodGet, strings.TrimRight(baseURL, "/")+"/api/ps", nil, nil, &resp); err != nil {
		return false
	}

	target := normalizeModelName(model)
	for _, m := range resp.Models {
		n := m.Name
		if n == "" {
			n = m.Model
		}
		if normalizeModelName(n) == target {
			return true
		}
	}
	return false
}

// normalizeModelName strips the :tag suffix (e.g. "llama3.2:latest" → "llama3.2").
func normalizeModelName(name string) string {
	if idx := strings.IndexByte(name, ':'); idx >= 0 {
		return name[:idx]
	}
	return name
}
