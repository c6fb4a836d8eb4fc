// Package config handles configuration loading, environment overrides and
// config path resolution.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Config types
// ---------------------------------------------------------------------------

// NERConfig holds settings for the statistical entity-recognition provider.
type NERConfig struct {
	Provider      string        `yaml:"provider"` // "sidecar" | "ollama" | "openai" | "none"
	BaseURL       string        `yaml:"base_url"` // empty selects the provider's default
	Model         string        `yaml:"model"`
	APIKey        string        `yaml:"api_key"`       // #nosec G117 -- bearer token for the openai provider
	ResponsePath  string        `yaml:"response_path"` // JSONPath to the span array in sidecar responses
	Offsets       string        `yaml:"offsets"`       // "rune" | "byte"
	Timeout       time.Duration `yaml:"timeout"`
	ExcludeLabels []string      `yaml:"exclude_labels"`
}

// PatternsConfig controls the pattern detector rule list.
type PatternsConfig struct {
	File            string `yaml:"file"`
	ReplaceDefaults bool   `yaml:"replace_defaults"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `yaml:"format"` // "text" | "json"
}

// Config is the root configuration.
type Config struct {
	NER          NERConfig         `yaml:"ner"`
	Patterns     PatternsConfig    `yaml:"patterns"`
	Placeholders map[string]string `yaml:"placeholders"`
	Log          LogConfig         `yaml:"log"`
}

// Accepted values for the enumerated settings.
var (
	ValidProviders  = []string{"sidecar", "ollama", "openai", "none"}
	ValidOffsets    = []string{"rune", "byte"}
	ValidLogFormats = []string{"text", "json"}
)

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		NER: NERConfig{
			Provider:      "sidecar",
			ResponsePath:  "$.spans",
			Offsets:       "rune",
			Timeout:       10 * time.Second,
			ExcludeLabels: []string{"CARDINAL"},
		},
		Placeholders: map[string]string{},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a config.yaml from path.
// If the file does not exist it returns Default() with no error.
// Missing keys retain their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	// Unmarshal into a plain map so we can apply only the keys that are present.
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	if ner, ok := raw["ner"].(map[string]any); ok {
		if v, ok := ner["provider"].(string); ok && v != "" {
			cfg.NER.Provider = v
		}
		if v, ok := ner["base_url"].(string); ok {
			cfg.NER.BaseURL = v
		}
		if v, ok := ner["model"].(string); ok {
			cfg.NER.Model = v
		}
		if v, ok := ner["api_key"].(string); ok {
			cfg.NER.APIKey = v
		}
		if v, ok := ner["response_path"].(string); ok && v != "" {
			cfg.NER.ResponsePath = v
		}
		if v, ok := ner["offsets"].(string); ok && v != "" {
			cfg.NER.Offsets = v
		}
		if v, ok := ner["timeout"]; ok && v != nil && v != "" {
			d, err := parseTimeout(v)
			if err != nil {
				return nil, fmt.Errorf("ner.timeout: %w", err)
			}
			cfg.NER.Timeout = d
		}
		if v, ok := ner["exclude_labels"].([]any); ok {
			cfg.NER.ExcludeLabels = toStrings(v)
		}
	}

	if pat, ok := raw["patterns"].(map[string]any); ok {
		if v, ok := pat["file"].(string); ok {
			cfg.Patterns.File = v
		}
		if v, ok := pat["replace_defaults"].(bool); ok {
			cfg.Patterns.ReplaceDefaults = v
		}
	}

	if ph, ok := raw["placeholders"].(map[string]any); ok {
		for k, v := range ph {
			if s, ok := v.(string); ok {
				cfg.Placeholders[k] = s
			}
		}
	}

	if lg, ok := raw["log"].(map[string]any); ok {
		if v, ok := lg["level"].(string); ok && v != "" {
			cfg.Log.Level = v
		}
		if v, ok := lg["format"].(string); ok && v != "" {
			cfg.Log.Format = v
		}
	}

	return cfg, nil
}

// Validate reports the first setting that is out of range.
func (c *Config) Validate() error {
	if p := c.NER.Provider; p != "" && !slices.Contains(ValidProviders, p) {
		return fmt.Errorf("ner.provider: unknown provider %q", p)
	}
	if !slices.Contains(ValidOffsets, c.NER.Offsets) {
		return fmt.Errorf("ner.offsets: must be one of %s, got %q", strings.Join(ValidOffsets, ", "), c.NER.Offsets)
	}
	if c.NER.Timeout <= 0 {
		return fmt.Errorf("ner.timeout: must be positive, got %s", c.NER.Timeout)
	}
	if !slices.Contains(ValidLogFormats, c.Log.Format) {
		return fmt.Errorf("log.format: must be one of %s, got %q", strings.Join(ValidLogFormats, ", "), c.Log.Format)
	}
	return nil
}

// parseTimeout accepts a duration string ("2s", "500ms") or a bare integer
// number of seconds.
func parseTimeout(v any) (time.Duration, error) {
	switch t := v.(type) {
	case string:
		return time.ParseDuration(t)
	case int:
		return time.Duration(t) * time.Second, nil
	default:
		return 0, fmt.Errorf("want a duration such as \"10s\" or whole seconds, got %v", v)
	}
}

func toStrings(in []any) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Environment overrides
// ---------------------------------------------------------------------------

// Environment variables that override file settings.
const (
	EnvConfig      = "PIISCRUB_CONFIG"
	EnvNERProvider = "PIISCRUB_NER_PROVIDER"
	EnvNERURL      = "PIISCRUB_NER_URL"
	EnvNERModel    = "PIISCRUB_NER_MODEL"
	EnvNERAPIKey   = "PIISCRUB_NER_API_KEY"
	EnvLogLevel    = "PIISCRUB_LOG_LEVEL"
	EnvLogFormat   = "PIISCRUB_LOG_FORMAT"
)

// ApplyEnv loads envFiles (default ".env") into the process environment
// without overriding variables that are already set, then applies the
// PIISCRUB_* overrides to cfg. Missing env files are ignored.
func ApplyEnv(cfg *Config, envFiles ...string) {
	_ = godotenv.Load(envFiles...)

	if v := strings.TrimSpace(os.Getenv(EnvNERProvider)); v != "" {
		cfg.NER.Provider = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvNERURL)); v != "" {
		cfg.NER.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvNERModel)); v != "" {
		cfg.NER.Model = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvNERAPIKey)); v != "" {
		cfg.NER.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Log.Level = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Log.Format = v
	}
}

// ---------------------------------------------------------------------------
// Config path resolution
// ---------------------------------------------------------------------------

// ResolveConfigPath returns the config file path and the source of the
// resolution. Priority: flag → PIISCRUB_CONFIG env → ~/.config/piiscrub/config.yaml.
// source is one of "flag", "env", or "default".
func ResolveConfigPath(flag string) (path, source string) {
	if flag != "" {
		if p, err := normalizePath(flag); err == nil {
			return p, "flag"
		}
	}
	if env := os.Getenv(EnvConfig); env != "" {
		if p, err := normalizePath(env); err == nil {
			return p, "env"
		}
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "piiscrub", "config.yaml"), "default"
}

// normalizePath expands ~ and makes the path absolute.
func normalizePath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[2:])
	}
	return filepath.Abs(os.ExpandEnv(path))
}

// Template is the starter config written by `piiscrub config init`.
const Template = `# piiscrub configuration

# Statistical entity recognition. The pattern rules always run; this layer
# adds names, places, organizations, money, percentages.
ner:
  provider: sidecar             # sidecar | ollama | openai | none
  # base_url: http://localhost:8001   # default per provider: sidecar :8001, ollama :11434, openai api.openai.com
  # model: llama3.2             # required for ollama and openai
  # api_key: sk-...             # openai; or set PIISCRUB_NER_API_KEY
  response_path: $.spans        # JSONPath to the span list in sidecar replies
  offsets: rune                 # rune (code points) | byte
  timeout: 10s
  exclude_labels: [CARDINAL]

# Extra pattern rules, YAML list under "rules:" (label + pattern).
patterns:
  file: ""
  replace_defaults: false

# Mask-mode placeholder overrides.
placeholders: {}
#  PERSON: "[NAME]"

log:
  level: info                   # debug | info | warn | error
  format: text                  # text | json
`
