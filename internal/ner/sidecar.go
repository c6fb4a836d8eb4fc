package ner

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/yalp/jsonpath"

	"github.com/go-ports/piiscrub/internal/models"
)

// DefaultSidecarURL is the sidecar endpoint used when none is configured.
const DefaultSidecarURL = "http://localhost:8001"

// DefaultResponsePath selects the span list in a sidecar reply of the form
// {"spans": [{"label": ..., "start": ..., "end": ..., "text": ...}]}.
const DefaultResponsePath = "$.spans"

// Sidecar calls an NER HTTP sidecar (for example a spaCy service) at
// POST <BaseURL>/classify with {"text": ...}. The span list is located in the
// reply with a JSONPath expression so differently shaped services can be used
// without code changes.
type Sidecar struct {
	BaseURL      string
	ResponsePath string
	RuneOffsets  bool
	client       *http.Client
	selectSpans  jsonpath.FilterFunc
}

// NewSidecar returns a Sidecar provider. baseURL defaults to DefaultSidecarURL
// and responsePath to DefaultResponsePath; an unparsable path is a
// configuration error.
// runeOffsets reports whether the service counts offsets in code points.
func NewSidecar(baseURL, responsePath string, runeOffsets bool, timeout time.Duration) (*Sidecar, error) {
	if baseURL == "" {
		baseURL = DefaultSidecarURL
	}
	if responsePath == "" {
		responsePath = DefaultResponsePath
	}
	filter, err := jsonpath.Prepare(responsePath)
	if err != nil {
		return nil, fmt.Errorf("sidecar: response path %q: %w", responsePath, err)
	}
	return &Sidecar{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		ResponsePath: responsePath,
		RuneOffsets:  runeOffsets,
		client:       &http.Client{Timeout: timeout},
		selectSpans:  filter,
	}, nil
}

// Detect sends text to the sidecar and returns its entities with byte offsets.
// It is safe for concurrent use.
func (s *Sidecar) Detect(ctx context.Context, text string) ([]models.Candidate, error) {
	var reply any
	reqBody := map[string]any{"text": text}
	if err := callRecognizer(ctx, s.client, http.MethodPost, s.BaseURL+"/classify", nil, reqBody, &reply); err != nil {
		return nil, fmt.Errorf("sidecar classify: %w", err)
	}

	selected, err := s.selectSpans(reply)
	if err != nil {
		return nil, fmt.Errorf("sidecar: select %s: %w", s.ResponsePath, err)
	}
	if selected == nil {
		return nil, nil
	}

	// Round-trip the selected subtree to decode it into typed candidates.
	b, err := json.Marshal(selected)
	if err != nil {
		return nil, fmt.Errorf("sidecar: re-encode spans: %w", err)
	}
	var cands []models.Candidate
	if err := json.Unmarshal(b, &cands); err != nil {
		return nil, fmt.Errorf("sidecar: decode spans: %w", err)
	}

	if s.RuneOffsets {
		return RuneOffsetsToBytes(text, cands)
	}
	return cands, nil
}
