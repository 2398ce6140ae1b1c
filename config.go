package doctext

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the extraction service.
type Config struct {
	Server  ServerConfig  `json:"server" yaml:"server"`
	Extract ExtractConfig `json:"extract" yaml:"extract"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level" yaml:"log_level"`
}

// ServerConfig configures the HTTP boundary.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"`

	// CORSOrigins is a comma-separated list of allowed origins. "*" allows
	// any origin; empty disables CORS headers.
	CORSOrigins string `json:"cors_origins" yaml:"cors_origins"`

	MaxUploadBytes int64         `json:"max_upload_bytes" yaml:"max_upload_bytes"`
	MaxFiles       int           `json:"max_files" yaml:"max_files"`
	ReadTimeout    time.Duration `json:"read_timeout" yaml:"read_timeout"`

	// TempDir is where uploads are staged. Empty means os.TempDir().
	TempDir string `json:"temp_dir" yaml:"temp_dir"`
}

// ExtractConfig configures the extractors.
type ExtractConfig struct {
	// LegacyDOC enables the native Word 97-2003 reader. When off, .doc
	// files are read as plain text.
	LegacyDOC bool `json:"legacy_doc" yaml:"legacy_doc"`
}

// DefaultConfig returns a Config with the service defaults.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:           ":8000",
			CORSOrigins:    "*",
			MaxUploadBytes: 100 << 20,
			MaxFiles:       20,
			ReadTimeout:    30 * time.Second,
		},
		Extract: ExtractConfig{
			LegacyDOC: true,
		},
		LogLevel: "info",
	}
}

// LoadConfig reads a YAML (or JSON) file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from DOCTEXT_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("DOCTEXT_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v, ok := os.LookupEnv("DOCTEXT_CORS_ORIGINS"); ok {
		c.Server.CORSOrigins = v
	}
	if v := os.Getenv("DOCTEXT_TEMP_DIR"); v != "" {
		c.Server.TempDir = v
	}
	if v := os.Getenv("DOCTEXT_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("DOCTEXT_MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: DOCTEXT_MAX_UPLOAD_BYTES: %v", ErrInvalidConfig, err)
		}
		c.Server.MaxUploadBytes = n
	}
	if v := os.Getenv("DOCTEXT_MAX_FILES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: DOCTEXT_MAX_FILES: %v", ErrInvalidConfig, err)
		}
		c.Server.MaxFiles = n
	}
	if v := os.Getenv("DOCTEXT_LEGACY_DOC"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: DOCTEXT_LEGACY_DOC: %v", ErrInvalidConfig, err)
		}
		c.Extract.LegacyDOC = b
	}
	return nil
}

// Validate checks limits and the log level.
func (c *Config) Validate() error {
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("%w: max_upload_bytes must be positive", ErrInvalidConfig)
	}
	if c.Server.MaxFiles <= 0 {
		return fmt.Errorf("%w: max_files must be positive", ErrInvalidConfig)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a configured level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, s)
	}
}
