package ner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody caps how much of a failed reply ends up in StatusError.
const maxErrorBody = 256

// StatusError is returned when a recognizer endpoint answers with a non-2xx
// status. Body holds the start of the reply with whitespace collapsed.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("recognizer returned HTTP %d", e.Code)
	}
	return fmt.Sprintf("recognizer returned HTTP %d: %s", e.Code, e.Body)
}

// callRecognizer sends body as JSON to url and decodes the JSON reply into
// out. A nil body sends no payload; a nil out discards the reply.
func callRecognizer(ctx context.Context, client *http.Client, method, url string, headers map[string]string, body, out any) error {
	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, payload)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req) // #nosec G704 -- URL is the operator-configured NER endpoint
	if err != nil {
		return fmt.Errorf("recognizer unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		head, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Code: resp.StatusCode, Body: strings.Join(strings.Fields(string(head)), " ")}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode reply: %w", err)
	}
	return nil
}
