package ner

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-ports/piiscrub/internal/models"
)

const defaultOpenAIBase = "https://api.openai.com/v1"

// OpenAI asks a chat-completions model (OpenAI or any compatible server such
// as vLLM, llama.cpp or OpenRouter) to list entities, then locates each
// returned string in the input like Ollama does.
type OpenAI struct {
	Model   string
	APIKey  string // #nosec G117 -- APIKey is an intentional field name for the bearer token
	BaseURL string
	client  *http.Client
}

// NewOpenAI returns an OpenAI provider. baseURL defaults to the OpenAI endpoint.
func NewOpenAI(model, apiKey, baseURL string, timeout time.Duration) *OpenAI {
	if baseURL == "" {
		baseURL = defaultOpenAIBase
	}
	return &OpenAI{
		Model:   model,
		APIKey:  apiKey,
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Detect calls POST /chat/completions in JSON mode and maps the answer to
// byte-offset candidates.
func (o *OpenAI) Detect(ctx context.Context, text string) ([]models.Candidate, error) {
	reqBody := map[string]any{
		"model": o.Model,
		"messages": []map[string]string{
			{"role": "system", "content": entityPrompt},
			{"role": "user", "content": text},
		},
		"temperature":     0,
		"response_format": map[string]string{"type": "json_object"},
	}
	var headers map[string]string
	if o.APIKey != "" {
		headers = map[string]string{"Authorization": "Bearer " + o.APIKey}
	}

	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
	}
	if err := callRecognizer(ctx, o.client, http.MethodPost, o.BaseURL+"/chat/completions", headers, reqBody, &resp); err != nil {
		return nil, fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai chat: empty choices in response")
	}
	choice := resp.Choices[0]
	if choice.FinishReason == "length" {
		return nil, errors.New("openai chat: answer truncated by token limit")
	}

	cands, err := locateEntities(text, choice.Message.Content)
	if err != nil {
		return nil, fmt.Errorf("openai chat: %w", err)
	}
	return cands, nil
}
