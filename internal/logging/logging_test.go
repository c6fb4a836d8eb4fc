package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/go-ports/piiscrub/internal/logging"
)

func TestParseLevel(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		c.Run(tt.input, func(c *qt.C) {
			c.Assert(logging.ParseLevel(tt.input), qt.Equals, tt.want)
		})
	}
}

func TestNew_JSON(t *testing.T) {
	c := qt.New(t)

	var buf bytes.Buffer
	logger := logging.New(&buf, "json", slog.LevelInfo)
	logger.Info("test message", "key", "value")
	logger.Debug("filtered out")

	var m map[string]any
	c.Assert(json.Unmarshal(buf.Bytes(), &m), qt.IsNil)
	c.Assert(m["msg"], qt.Equals, "test message")
	c.Assert(m["key"], qt.Equals, "value")
}

func TestNew_Text(t *testing.T) {
	c := qt.New(t)

	var buf bytes.Buffer
	logger := logging.New(&buf, "text", slog.LevelDebug)
	logger.Debug("hello", "label", "PERSON")

	out := buf.String()
	c.Assert(out, qt.Contains, "msg=hello")
	c.Assert(out, qt.Contains, "label=PERSON")
	c.Assert(strings.HasPrefix(out, "{"), qt.IsFalse)
}

func TestInit_SetsDefault(t *testing.T) {
	c := qt.New(t)

	prev := slog.Default()
	c.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logging.Init(&buf, "json", slog.LevelWarn)
	slog.Info("dropped")
	slog.Warn("kept")

	c.Assert(buf.String(), qt.Not(qt.Contains), "dropped")
	c.Assert(buf.String(), qt.Contains, `"msg":"kept"`)
}
