// Package config handles loading, validating, and resolving Parley configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jcadam/parley/pkg/privacy"
)

// DefaultEndpoint is the chat backend used when none is configured.
const DefaultEndpoint = "http://localhost:5000"

// Config is the top-level Parley configuration loaded from config.yaml.
type Config struct {
	Backend   BackendConfig   `yaml:"backend"`
	Apps      AppsConfig      `yaml:"apps"`
	Rendering RenderingConfig `yaml:"rendering"`
	Chat      ChatConfig      `yaml:"chat"`
}

// BackendConfig describes the remote chat endpoint.
type BackendConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Timeout   int    `yaml:"timeout,omitempty"` // Seconds; 0 means 30
	AuthToken string `yaml:"auth_token,omitempty"`
	Proxy     string `yaml:"proxy,omitempty"` // direct (default), tor, or an http/socks5 URL
}

// AppsConfig defines the system apps that receive link actions. "default"
// or empty means the platform opener (xdg-open / open).
type AppsConfig struct {
	Dialer  string `yaml:"dialer,omitempty"`
	Maps    string `yaml:"maps,omitempty"`
	MapsURL string `yaml:"maps_url,omitempty"` // web map template with a {query} placeholder
}

// RenderingConfig defines terminal rendering behavior.
type RenderingConfig struct {
	Hyperlinks string `yaml:"hyperlinks,omitempty"` // auto | on | off
}

// ChatConfig defines chat presentation and persistence.
type ChatConfig struct {
	UserPrefix   string `yaml:"user_prefix,omitempty"`
	AIPrefix     string `yaml:"ai_prefix,omitempty"`
	SaveSessions *bool  `yaml:"save_sessions,omitempty"`
}

// Default returns the configuration written by "pl init".
func Default() *Config {
	save := true
	return &Config{
		Backend:   BackendConfig{Endpoint: DefaultEndpoint, Timeout: 30},
		Apps:      AppsConfig{Dialer: "default", Maps: "default"},
		Rendering: RenderingConfig{Hyperlinks: "auto"},
		Chat:      ChatConfig{UserPrefix: "You: ", AIPrefix: "AI: ", SaveSessions: &save},
	}
}

// ShouldSaveSessions reports whether finished chats are written to disk.
// Sessions are saved unless explicitly disabled.
func (c ChatConfig) ShouldSaveSessions() bool {
	return c.SaveSessions == nil || *c.SaveSessions
}

// Prefixes returns the user and assistant prefixes, falling back to defaults.
func (c ChatConfig) Prefixes() (user, ai string) {
	user, ai = c.UserPrefix, c.AIPrefix
	if user == "" {
		user = "You: "
	}
	if ai == "" {
		ai = "AI: "
	}
	return user, ai
}

// DataDir returns the path to the Parley data directory (~/.parley/),
// creating it if it doesn't exist. Override with PARLEY_DIR env var.
func DataDir() (string, error) {
	dir := os.Getenv("PARLEY_DIR")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("determining home directory: %w", err)
		}
		dir = filepath.Join(home, ".parley")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating parley directory: %w", err)
	}
	return dir, nil
}

// Load reads and parses the config.yaml from the data directory.
func Load(dataDir string) (*Config, error) {
	path := filepath.Join(dataDir, "config.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads config.yaml, returning Default() when none exists yet.
// Any other read or parse error is returned.
func LoadOrDefault(dataDir string) (*Config, error) {
	cfg, err := Load(dataDir)
	if err == nil {
		return cfg, nil
	}
	if _, statErr := os.Stat(filepath.Join(dataDir, "config.yaml")); os.IsNotExist(statErr) {
		return Default(), nil
	}
	return nil, err
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ResolveEnvVars expands ${VAR} references in the backend token from the
// environment. The token is never written back expanded.
func ResolveEnvVars(cfg *Config) {
	cfg.Backend.AuthToken = expandEnv(cfg.Backend.AuthToken)
}

func expandEnv(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match // leave unresolved if env var not set
	})
}

// Save marshals the config to YAML and writes it to config.yaml in the data directory.
// Creates the parent directory if it doesn't exist.
func Save(dataDir string, cfg *Config) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating parley directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	header := "# Parley configuration\n# Edit this file directly or re-run: pl init --force\n\n"
	path := filepath.Join(dataDir, "config.yaml")
	return os.WriteFile(path, []byte(header+string(data)), 0o644)
}

// Validate checks internal consistency of the config.
func Validate(cfg *Config) error {
	if cfg.Backend.Endpoint != "" {
		u, err := url.Parse(cfg.Backend.Endpoint)
		if err != nil {
			return fmt.Errorf("backend endpoint %q: %w", cfg.Backend.Endpoint, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("backend endpoint %q must be an http or https URL", cfg.Backend.Endpoint)
		}
		if u.Host == "" {
			return fmt.Errorf("backend endpoint %q has no host", cfg.Backend.Endpoint)
		}
	}

	if err := privacy.ValidateProxyURL(cfg.Backend.Proxy); err != nil {
		return fmt.Errorf("backend proxy: %w", err)
	}

	if cfg.Backend.Timeout < 0 {
		return fmt.Errorf("backend timeout must not be negative, got %d", cfg.Backend.Timeout)
	}

	if cfg.Apps.MapsURL != "" && !strings.Contains(cfg.Apps.MapsURL, "{query}") {
		return fmt.Errorf("apps.maps_url %q must contain a {query} placeholder", cfg.Apps.MapsURL)
	}

	if cfg.Rendering.Hyperlinks != "" {
		switch strings.ToLower(cfg.Rendering.Hyperlinks) {
		case "auto", "on", "off":
			// valid
		default:
			return fmt.Errorf("invalid rendering.hyperlinks value %q", cfg.Rendering.Hyperlinks)
		}
	}

	return nil
}
