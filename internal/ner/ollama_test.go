package ner_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/go-ports/piiscrub/internal/entitymap"
	"github.com/go-ports/piiscrub/internal/models"
	"github.com/go-ports/piiscrub/internal/ner"
	"github.com/go-ports/piiscrub/internal/redaction"
)

// newOllamaGenerateServer starts a test server that answers /api/generate
// with answer as the model's response string.
func newOllamaGenerateServer(t *testing.T, answer string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if r.URL.Path != "/api/generate" || body["format"] != "json" || body["stream"] != false {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"response": answer})
	}))
}

func TestOllamaDetect_HappyPath(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	c.Run("entities are located in the text", func(c *qt.C) {
		srv := newOllamaGenerateServer(t, `{"entities":[{"label":"person","text":"Alice"},{"label":"GPE","text":"Paris"}]}`)
		defer srv.Close()

		o := ner.NewOllama("llama3.2", srv.URL, time.Second)
		got, err := o.Detect(ctx, "Alice flew to Paris")
		c.Assert(err, qt.IsNil)
		c.Assert(got, qt.DeepEquals, []models.Candidate{
			{Label: "PERSON", Start: 0, End: 5, Text: "Alice"},
			{Label: "GPE", Start: 14, End: 19, Text: "Paris"},
		})
	})

	c.Run("every occurrence is reported once", func(c *qt.C) {
		srv := newOllamaGenerateServer(t, `{"entities":[{"label":"PERSON","text":"Bob"},{"label":"PERSON","text":"Bob"}]}`)
		defer srv.Close()

		o := ner.NewOllama("llama3.2", srv.URL, time.Second)
		got, err := o.Detect(ctx, "Bob met Bob")
		c.Assert(err, qt.IsNil)
		c.Assert(got, qt.HasLen, 2)
		c.Assert(got[0].Start, qt.Equals, 0)
		c.Assert(got[1].Start, qt.Equals, 8)
	})

	c.Run("paraphrased and blank entities are dropped", func(c *qt.C) {
		srv := newOllamaGenerateServer(t, `{"entities":[{"label":"PERSON","text":"Robert"},{"label":"","text":"Bob"},{"label":"ORG","text":""}]}`)
		defer srv.Close()

		o := ner.NewOllama("llama3.2", srv.URL, time.Second)
		got, err := o.Detect(ctx, "Bob met Bob")
		c.Assert(err, qt.IsNil)
		c.Assert(got, qt.HasLen, 0)
	})

	c.Run("occurrences inside a longer word are skipped", func(c *qt.C) {
		srv := newOllamaGenerateServer(t, `{"entities":[{"label":"PERSON","text":"Ann"}]}`)
		defer srv.Close()

		o := ner.NewOllama("llama3.2", srv.URL, time.Second)
		got, err := o.Detect(ctx, "Ann sent the Annual report to Joann, Ann.")
		c.Assert(err, qt.IsNil)
		c.Assert(got, qt.DeepEquals, []models.Candidate{
			{Label: "PERSON", Start: 0, End: 3, Text: "Ann"},
			{Label: "PERSON", Start: 37, End: 40, Text: "Ann"},
		})
	})

	c.Run("entity text is trimmed and whitespace-only text is dropped", func(c *qt.C) {
		srv := newOllamaGenerateServer(t, `{"entities":[{"label":"PERSON","text":" Ann "},{"label":"ORG","text":" "},{"label":"DATE","text":"\t\n"}]}`)
		defer srv.Close()

		o := ner.NewOllama("llama3.2", srv.URL, time.Second)
		got, err := o.Detect(ctx, "Ann sent the Annual report")
		c.Assert(err, qt.IsNil)
		c.Assert(got, qt.DeepEquals, []models.Candidate{
			{Label: "PERSON", Start: 0, End: 3, Text: "Ann"},
		})
	})
}

func TestOllamaRedact_SkipsPartialWords(t *testing.T) {
	c := qt.New(t)

	srv := newOllamaGenerateServer(t, `{"entities":[{"label":"PERSON","text":"Ann"},{"label":"ORG","text":" "}]}`)
	defer srv.Close()

	adapter := ner.NewAdapter(ner.NewOllama("llama3.2", srv.URL, time.Second), entitymap.Default())
	text := "Ann sent the Annual report"
	spans, err := adapter.Detect(context.Background(), text, nil)
	c.Assert(err, qt.IsNil)

	out, err := redaction.Redact(text, spans, models.ModeMask, entitymap.Default())
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "[PERSON] sent the Annual report")
}

func TestOllamaDetect_FailurePath(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	c.Run("model answer is not json", func(c *qt.C) {
		srv := newOllamaGenerateServer(t, "Sure! Here are the entities:")
		defer srv.Close()

		o := ner.NewOllama("llama3.2", srv.URL, time.Second)
		_, err := o.Detect(ctx, "Alice")
		c.Assert(err, qt.ErrorMatches, `ollama generate: decode entities: .*`)
	})

	c.Run("non-2xx response", func(c *qt.C) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "model not found", http.StatusNotFound)
		}))
		defer srv.Close()

		o := ner.NewOllama("missing", srv.URL, time.Second)
		_, err := o.Detect(ctx, "Alice")
		c.Assert(err, qt.ErrorMatches, `ollama generate: recognizer returned HTTP 404: model not found`)
	})
}

func TestIsOllamaModelLoaded(t *testing.T) {
	c := qt.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/api/ps") {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"models": []map[string]string{{"name": "llama3.2:latest"}}})
	}))
	defer srv.Close()

	c.Assert(ner.IsOllamaModelLoaded("llama3.2", srv.URL), qt.IsTrue)
	c.Assert(ner.IsOllamaModelLoaded("qwen3:4b", srv.URL), qt.IsFalse)
	c.Assert(ner.IsOllamaModelLoaded("llama3.2", "http://127.0.0.1:1"), qt.IsFalse)
}
