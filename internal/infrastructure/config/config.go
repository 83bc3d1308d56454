package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// DirList decodes the allow-list from the environment. It accepts either a
// single directory path or a JSON array of path strings, matching the two
// forms tool hosts conventionally pass. Decoding happens here, at the
// boundary: the sandbox engine only ever sees a typed []string.
type DirList []string

// Decode implements envconfig.Decoder.
func (d *DirList) Decode(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		*d = nil
		return nil
	}
	if strings.HasPrefix(value, "[") {
		var dirs []string
		if err := json.Unmarshal([]byte(value), &dirs); err != nil {
			return fmt.Errorf("ALLOWED_DIR is not a valid JSON array: %w", err)
		}
		*d = dirs
		return nil
	}
	*d = []string{value}
	return nil
}

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Sandbox   SandboxConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8090"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// SandboxConfig holds containment engine configuration.
type SandboxConfig struct {
	// AllowedDirs is the allow-list of accessible directories. A single
	// path or a JSON array of paths.
	AllowedDirs DirList `envconfig:"ALLOWED_DIR"`
	// SymlinkDepth bounds symlink traversals per path resolution.
	SymlinkDepth int `envconfig:"SYMLINK_DEPTH" default:"32"`
	// CaseInsensitive forces case-insensitive containment comparison.
	// Unset, the platform default applies.
	CaseInsensitive *bool `envconfig:"CASE_INSENSITIVE"`
	// MaxReadBytes caps a single file read. Zero means unlimited.
	MaxReadBytes int64 `envconfig:"MAX_READ_BYTES" default:"10485760"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8090",
			Host: "0.0.0.0",
		},
		Sandbox: SandboxConfig{
			SymlinkDepth: 32,
			MaxReadBytes: 10 << 20,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
