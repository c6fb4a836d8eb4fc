// End-to-end tests that exercise the full piiscrub CLI by importing the root
// command and running it in-process. Output is captured via cobra's SetOut so
// tests do not touch os.Stdout.
package rootcmd_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"

	rootcmd "github.com/go-ports/piiscrub/cmd/piiscrub/root"
	"github.com/go-ports/piiscrub/internal/config"
	"github.com/go-ports/piiscrub/internal/models"
)

const contact = "Contact me at 555-123-4567 or john@example.com"

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// clearEnv blanks every PIISCRUB_* override for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		config.EnvConfig, config.EnvNERProvider, config.EnvNERURL,
		config.EnvNERModel, config.EnvLogLevel, config.EnvLogFormat,
	} {
		t.Setenv(k, "")
	}
}

// writeConfig writes a config file into a temp dir and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// patternOnlyConfig returns a config path with the statistical provider off.
func patternOnlyConfig(t *testing.T) string {
	t.Helper()
	return writeConfig(t, "ner:\n  provider: none\n")
}

// runCmd executes the root command with the provided args and stdin, and
// returns the captured stdout output along with any execution error.
func runCmd(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	root := rootcmd.New()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	execErr := root.ExecuteContext(context.Background())

	return out.String(), execErr
}

// ---------------------------------------------------------------------------
// Help / version
// ---------------------------------------------------------------------------

func TestHelp_HappyPath(t *testing.T) {
	clearEnv(t)
	c := qt.New(t)

	out, err := runCmd(t, "", "--help")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "piiscrub")
	c.Assert(out, qt.Contains, "redact")
	c.Assert(out, qt.Contains, "detect")
}

func TestVersion_HappyPath(t *testing.T) {
	clearEnv(t)
	c := qt.New(t)

	out, err := runCmd(t, "", "version")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "piiscrub dev")
}

// ---------------------------------------------------------------------------
// Redact
// ---------------------------------------------------------------------------

func TestRedact_HappyPath(t *testing.T) {
	clearEnv(t)
	c := qt.New(t)
	cfg := patternOnlyConfig(t)

	c.Run("mask from argument", func(c *qt.C) {
		out, err := runCmd(t, "", "--config", cfg, "redact", contact)
		c.Assert(err, qt.IsNil)
		c.Assert(out, qt.Equals, "Contact me at [PHONE_NUMBER] or [EMAIL]\n")
	})

	c.Run("redact mode", func(c *qt.C) {
		out, err := runCmd(t, "", "--config", cfg, "redact", "--mode", "redact", contact)
		c.Assert(err, qt.IsNil)
		c.Assert(out, qt.Equals, "Contact me at  or \n")
	})

	c.Run("stdin keeps its trailing newline", func(c *qt.C) {
		out, err := runCmd(t, contact+"\n", "--config", cfg, "redact")
		c.Assert(err, qt.IsNil)
		c.Assert(out, qt.Equals, "Contact me at [PHONE_NUMBER] or [EMAIL]\n")
	})

	c.Run("file input", func(c *qt.C) {
		path := filepath.Join(t.TempDir(), "input.txt")
		c.Assert(os.WriteFile(path, []byte("card 4111111111111111"), 0o600), qt.IsNil)
		out, err := runCmd(t, "", "--config", cfg, "redact", "--file", path)
		c.Assert(err, qt.IsNil)
		c.Assert(out, qt.Equals, "card [CREDIT_CARD]\n")
	})

	c.Run("json output", func(c *qt.C) {
		out, err := runCmd(t, "", "--config", cfg, "redact", "--json", contact)
		c.Assert(err, qt.IsNil)

		var got models.Result
		c.Assert(json.Unmarshal([]byte(out), &got), qt.IsNil)
		c.Assert(got.Text, qt.Equals, "Contact me at [PHONE_NUMBER] or [EMAIL]")
		c.Assert(got.Entities, qt.HasLen, 2)
		c.Assert(got.Entities[0].Start, qt.Equals, 14)
	})

	c.Run("entity table", func(c *qt.C) {
		out, err := runCmd(t, "", "--config", cfg, "redact", "--entities", contact)
		c.Assert(err, qt.IsNil)
		c.Assert(out, qt.Contains, "LABEL")
		c.Assert(out, qt.Contains, `"john@example.com"`)
	})

	c.Run("blank input is echoed", func(c *qt.C) {
		out, err := runCmd(t, "", "--config", cfg, "redact", "   ")
		c.Assert(err, qt.IsNil)
		c.Assert(out, qt.Equals, "   \n")
	})
}

func TestRedact_FailurePath(t *testing.T) {
	clearEnv(t)
	c := qt.New(t)
	cfg := patternOnlyConfig(t)

	c.Run("unknown mode", func(c *qt.C) {
		_, err := runCmd(t, "", "--config", cfg, "redact", "--mode", "blur", contact)
		c.Assert(err, qt.ErrorIs, models.ErrUnknownMode)
	})

	c.Run("argument and file together", func(c *qt.C) {
		_, err := runCmd(t, "", "--config", cfg, "redact", "--file", "x.txt", contact)
		c.Assert(err, qt.ErrorMatches, "pass text as an argument or with --file, not both")
	})

	c.Run("missing file", func(c *qt.C) {
		_, err := runCmd(t, "", "--config", cfg, "redact", "--file", filepath.Join(t.TempDir(), "nope.txt"))
		c.Assert(err, qt.ErrorMatches, "read .*nope.txt: .*")
	})

	c.Run("invalid config", func(c *qt.C) {
		bad := writeConfig(t, "ner:\n  provider: bert\n")
		_, err := runCmd(t, "", "--config", bad, "redact", contact)
		c.Assert(err, qt.ErrorMatches, `service.New: ner.provider: unknown provider "bert"`)
	})

	c.Run("provider failure", func(c *qt.C) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "down", http.StatusBadGateway)
		}))
		defer srv.Close()

		path := writeConfig(t, "ner:\n  provider: sidecar\n  base_url: "+srv.URL+"\n")
		_, err := runCmd(t, "", "--config", path, "redact", contact)
		c.Assert(err, qt.ErrorMatches, "ner provider failed: .*HTTP 502.*")
	})
}

func TestRedact_WithSidecar(t *testing.T) {
	clearEnv(t)
	c := qt.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Text string `json:"text"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		spans := []map[string]any{}
		if i := strings.Index(body.Text, "Alice"); i >= 0 {
			spans = append(spans, map[string]any{"label": "PERSON", "start": i, "end": i + 5, "text": "Alice"})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"spans": spans})
	}))
	defer srv.Close()

	path := writeConfig(t, "ner:\n  provider: sidecar\n  base_url: "+srv.URL+"\n")
	out, err := runCmd(t, "", "--config", path, "redact", "Alice: "+contact)
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "[PERSON]: Contact me at [PHONE_NUMBER] or [EMAIL]\n")
}

// ---------------------------------------------------------------------------
// Detect / rules
// ---------------------------------------------------------------------------

func TestDetect_HappyPath(t *testing.T) {
	clearEnv(t)
	c := qt.New(t)
	cfg := patternOnlyConfig(t)

	c.Run("table", func(c *qt.C) {
		out, err := runCmd(t, "", "--config", cfg, "detect", contact)
		c.Assert(err, qt.IsNil)
		c.Assert(out, qt.Contains, "PHONE_NUMBER")
		c.Assert(out, qt.Contains, "EMAIL")
	})

	c.Run("json", func(c *qt.C) {
		out, err := runCmd(t, "", "--config", cfg, "detect", "--json", contact)
		c.Assert(err, qt.IsNil)
		var spans []models.Span
		c.Assert(json.Unmarshal([]byte(out), &spans), qt.IsNil)
		c.Assert(spans, qt.HasLen, 2)
		c.Assert(spans[1].Text, qt.Equals, "john@example.com")
	})

	c.Run("nothing found", func(c *qt.C) {
		out, err := runCmd(t, "", "--config", cfg, "detect", "plain words")
		c.Assert(err, qt.IsNil)
		c.Assert(out, qt.Equals, "No entities found.\n")
	})
}

func TestRules_HappyPath(t *testing.T) {
	clearEnv(t)
	c := qt.New(t)
	cfg := patternOnlyConfig(t)

	c.Run("table", func(c *qt.C) {
		out, err := runCmd(t, "", "--config", cfg, "rules")
		c.Assert(err, qt.IsNil)
		c.Assert(out, qt.Contains, "Pattern rules (13")
		c.Assert(out, qt.Contains, "CREDIT_CARD")
		c.Assert(out, qt.Contains, "[ORGANIZATION]")
		c.Assert(out, qt.Contains, "Statistical provider: none")
	})

	c.Run("yaml round-trips as a rule file", func(c *qt.C) {
		out, err := runCmd(t, "", "--config", cfg, "rules", "--yaml")
		c.Assert(err, qt.IsNil)

		rulesPath := filepath.Join(t.TempDir(), "rules.yaml")
		c.Assert(os.WriteFile(rulesPath, []byte(out), 0o600), qt.IsNil)
		replaced := writeConfig(t, "ner:\n  provider: none\npatterns:\n  file: "+rulesPath+"\n  replace_defaults: true\n")

		got, err := runCmd(t, "", "--config", replaced, "redact", contact)
		c.Assert(err, qt.IsNil)
		c.Assert(got, qt.Equals, "Contact me at [PHONE_NUMBER] or [EMAIL]\n")
	})
}

// ---------------------------------------------------------------------------
// Config
// ---------------------------------------------------------------------------

func TestConfig_HappyPath(t *testing.T) {
	clearEnv(t)
	c := qt.New(t)

	c.Run("show reports the flag source", func(c *qt.C) {
		cfg := patternOnlyConfig(t)
		out, err := runCmd(t, "", "--config", cfg, "config")
		c.Assert(err, qt.IsNil)
		c.Assert(out, qt.Contains, "config_source: flag")
		c.Assert(out, qt.Contains, "config_exists: true")
		c.Assert(out, qt.Contains, "provider: none")
	})

	c.Run("init writes the template once", func(c *qt.C) {
		path := filepath.Join(t.TempDir(), "nested", "config.yaml")

		out, err := runCmd(t, "", "--config", path, "config", "init")
		c.Assert(err, qt.IsNil)
		c.Assert(out, qt.Contains, "Created "+path)
		data, err := os.ReadFile(path)
		c.Assert(err, qt.IsNil)
		c.Assert(string(data), qt.Equals, config.Template)

		out, err = runCmd(t, "", "--config", path, "config", "init")
		c.Assert(err, qt.IsNil)
		c.Assert(out, qt.Contains, "Config already exists")

		out, err = runCmd(t, "", "--config", path, "config", "init", "--force")
		c.Assert(err, qt.IsNil)
		c.Assert(out, qt.Contains, "Created")
	})
}
