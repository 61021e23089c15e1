package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the root configuration for wagetrack, stored in
// ~/.wagetrack/config.json. The file supports single-line // comments for
// documentation purposes.
type Config struct {
	// DataDir is where per-user ledger records are stored. Empty = ~/.wagetrack.
	DataDir string `json:"data_dir"`
	// LogLevel is the zap log level: debug, info, warn, error.
	LogLevel string        `json:"log_level"`
	ClickUp  ClickUpConfig `json:"clickup"`
}

// ClickUpConfig holds the remote time-tracking service settings. Per-user
// tokens live in each user's ledger record, not here.
type ClickUpConfig struct {
	// BaseURL is the API root. Override for testing or a proxy.
	BaseURL string `json:"base_url"`
	// RequestTimeoutSeconds bounds every remote call; a timeout surfaces as
	// a retryable remote-unavailable error.
	RequestTimeoutSeconds int `json:"request_timeout_seconds"`
}

const (
	// DefaultBaseURL is the public ClickUp v2 API root.
	DefaultBaseURL = "https://api.clickup.com/api/v2"
	// DefaultRequestTimeoutSeconds is the remote call timeout.
	DefaultRequestTimeoutSeconds = 15
	// DefaultLogLevel is used when the config file names none.
	DefaultLogLevel = "info"
)

// DefaultDataDir returns the default data directory (~/.wagetrack).
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".wagetrack"), nil
}

// defaultConfig returns a Config pre-filled with built-in defaults.
func defaultConfig() Config {
	return Config{
		LogLevel: DefaultLogLevel,
		ClickUp: ClickUpConfig{
			BaseURL:               DefaultBaseURL,
			RequestTimeoutSeconds: DefaultRequestTimeoutSeconds,
		},
	}
}

// configTemplate is the annotated config written on first run.
// Lines whose trimmed content starts with // are stripped before JSON parsing,
// allowing human-readable documentation inside the file.
const configTemplate = `// wagetrack configuration – ~/.wagetrack/config.json
//
// All settings are optional; the built-in defaults shown below work out of
// the box. Edit this file to customise wagetrack behaviour.
{
  // Directory holding the per-user ledger records.
  // Leave empty to use ~/.wagetrack.
  "data_dir": "",

  // Log level: debug, info, warn, error.
  "log_level": "info",

  // ── ClickUp remote service ───────────────────────────────────────────────
  "clickup": {
    // API root URL. Only change this for a proxy or test server.
    "base_url": "https://api.clickup.com/api/v2",

    // Timeout in seconds applied to every remote request.
    "request_timeout_seconds": 15
  }
}
`

// configFilePath returns the path to ~/.wagetrack/config.json.
func configFilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".wagetrack", "config.json"), nil
}

// stripLineComments removes lines whose leading non-whitespace content starts
// with //. Only full-line comments are handled; inline comments are not stripped.
func stripLineComments(data []byte) []byte {
	var out []byte
	for _, line := range bytes.Split(data, []byte("\n")) {
		if bytes.HasPrefix(bytes.TrimLeft(line, " \t"), []byte("//")) {
			continue
		}
		out = append(out, line...)
		out = append(out, '\n')
	}
	return out
}

// Load reads ~/.wagetrack/config.json, creating it with annotated defaults
// on first run. Lines starting with // are treated as comments and stripped
// before JSON parsing.
func Load() (Config, error) {
	path, err := configFilePath()
	if err != nil {
		return defaultConfig(), err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		// First run: write the annotated template so users can discover options.
		if writeErr := writeDefault(path); writeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create config file %s: %v\n", path, writeErr)
		}
		return defaultConfig(), nil
	}
	if err != nil {
		return defaultConfig(), fmt.Errorf("reading config file %s: %w", path, err)
	}

	cleaned := stripLineComments(data)
	var cfg Config
	if err := json.Unmarshal(cleaned, &cfg); err != nil {
		return defaultConfig(), fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
	}

	// Fill zero-value fields with built-in defaults so callers always get
	// a usable Config even if the user only partially fills in the file.
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.ClickUp.BaseURL == "" {
		cfg.ClickUp.BaseURL = DefaultBaseURL
	}
	if cfg.ClickUp.RequestTimeoutSeconds <= 0 {
		cfg.ClickUp.RequestTimeoutSeconds = DefaultRequestTimeoutSeconds
	}

	return cfg, nil
}

// writeDefault creates the config directory and writes the annotated default
// config template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
