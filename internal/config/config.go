package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	kberrors "github.com/hpungsan/kb/internal/errors"
)

// Environment variables that override config.json values.
const (
	EnvAPIURL   = "KB_API_URL"
	EnvTimeout  = "KB_TIMEOUT"
	EnvLogLevel = "KB_LOG_LEVEL"
	EnvBind     = "KB_BIND"
	EnvPort     = "KB_PORT"
)

// Config holds application configuration.
type Config struct {
	// APIURL is the base URL of the topic store; /topics is appended to it
	APIURL string `json:"api_url"`

	// Timeout bounds each request to the topic store (Go duration, e.g. "10s")
	Timeout string `json:"timeout,omitempty"`

	// LogLevel is a zerolog level name: debug, info, warn, error
	LogLevel string `json:"log_level,omitempty"`

	// Bind and Port are the listen address of `kb serve`.
	// Binding to anything but loopback exposes the editor to the network.
	Bind string `json:"bind,omitempty"`
	Port int    `json:"port,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		APIURL:   "http://localhost:5000/api",
		Timeout:  "10s",
		LogLevel: "info",
		Bind:     "127.0.0.1",
		Port:     8420,
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.kb.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithEnv loads baseDir/config.json, then overlays envFile (if it exists) and the
// process environment. Variables already set in the environment win over envFile.
func LoadWithEnv(baseDir, envFile string) (*Config, error) {
	cfg, err := Load(baseDir)
	if err != nil {
		return nil, err
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, invalidFile(envFile, err)
		}
	}

	overlay, err := fromEnv()
	if err != nil {
		return nil, err
	}
	return Merge(cfg, overlay), nil
}

// fromEnv reads the KB_* variables into a zero-valued Config.
func fromEnv() (*Config, error) {
	cfg := &Config{
		APIURL:   strings.TrimSpace(os.Getenv(EnvAPIURL)),
		Timeout:  strings.TrimSpace(os.Getenv(EnvTimeout)),
		LogLevel: strings.TrimSpace(os.Getenv(EnvLogLevel)),
		Bind:     strings.TrimSpace(os.Getenv(EnvBind)),
	}
	if p := strings.TrimSpace(os.Getenv(EnvPort)); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, kberrors.NewInvalidRequest(fmt.Sprintf("%s must be an integer, got %q", EnvPort, p))
		}
		cfg.Port = port
	}
	return cfg, nil
}

func invalidFile(path string, err error) error {
	return kberrors.NewInvalidRequest(fmt.Sprintf("invalid config %s: %v", path, err))
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, invalidFile(configPath, err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, invalidFile(configPath, err)
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{
		APIURL:   pick(overlay.APIURL, base.APIURL),
		Timeout:  pick(overlay.Timeout, base.Timeout),
		LogLevel: pick(overlay.LogLevel, base.LogLevel),
		Bind:     pick(overlay.Bind, base.Bind),
	}

	result.Port = overlay.Port
	if result.Port == 0 {
		result.Port = base.Port
	}

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// Validate checks the values that would otherwise fail later at first use.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return kberrors.NewInvalidRequest(fmt.Sprintf("api_url must be an http(s) URL, got %q", c.APIURL))
	}
	if _, err := c.RequestTimeout(); err != nil {
		return err
	}
	if c.Port < 0 || c.Port > 65535 {
		return kberrors.NewInvalidRequest(fmt.Sprintf("port out of range: %d", c.Port))
	}
	return nil
}

// RequestTimeout parses Timeout. An empty value means no timeout.
func (c *Config) RequestTimeout() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d < 0 {
		return 0, kberrors.NewInvalidRequest(fmt.Sprintf("timeout must be a non-negative duration like \"10s\", got %q", c.Timeout))
	}
	return d, nil
}

// Addr returns the listen address for the web UI.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}

func pick(overlay, base string) string {
	if overlay = strings.TrimSpace(overlay); overlay != "" {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
