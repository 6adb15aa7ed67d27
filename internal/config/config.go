// Package config loads the dynform service configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-dynform/internal/logging"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config is the root configuration structure.
type Config struct {
	Log     logging.Config `yaml:"log"`
	Server  ServerConfig   `yaml:"server"`
	Schema  SchemaConfig   `yaml:"schema"`
	Submit  SubmitConfig   `yaml:"submit"`
	Store   StoreConfig    `yaml:"store"`
	Metrics MetricsConfig  `yaml:"metrics"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// MaxSessions caps live form sessions and SessionIdleTimeout drops
	// sessions without requests. Zero means the default; a negative value
	// disables the bound.
	MaxSessions        int           `yaml:"max_sessions"`
	SessionIdleTimeout time.Duration `yaml:"session_idle_timeout"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SchemaConfig points at the default form schema.
type SchemaConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// SubmitConfig configures where submitted payloads go. Without an endpoint
// payloads are only logged and stored.
type SubmitConfig struct {
	Endpoint string            `yaml:"endpoint"`
	Method   string            `yaml:"method"`
	Timeout  time.Duration     `yaml:"timeout"`
	Headers  map[string]string `yaml:"headers,omitempty"`
}

// StoreConfig selects the submission store.
type StoreConfig struct {
	Driver string `yaml:"driver"` // "memory" or "sqlite"
	Path   string `yaml:"path"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load reads configuration from a YAML file, expanding ${VAR} references and
// applying DYNFORM_* overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse is Load without the file read.
func Parse(data []byte) (*Config, error) {
	data = []byte(os.ExpandEnv(string(data)))

	cfg := Config{Metrics: MetricsConfig{Enabled: true}}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return finish(&cfg)
}

// LoadFromEnv builds configuration from DYNFORM_* variables only.
//
// Environment variables:
//
//	DYNFORM_LOG_LEVEL        - debug, info, warn, error (default: info)
//	DYNFORM_LOG_FORMAT       - json or console (default: json)
//	DYNFORM_SERVER_HOST      - listen host (default: 127.0.0.1)
//	DYNFORM_SERVER_PORT      - listen port (default: 8080)
//	DYNFORM_MAX_SESSIONS     - live session cap (default: 1000)
//	DYNFORM_SESSION_IDLE     - session idle expiry (default: 30m)
//	DYNFORM_SCHEMA_PATH      - default schema file
//	DYNFORM_SCHEMA_WATCH     - reload the schema file on change
//	DYNFORM_SUBMIT_ENDPOINT  - forward payloads to this URL
//	DYNFORM_SUBMIT_TIMEOUT   - submit request timeout (default: 10s)
//	DYNFORM_STORE_DRIVER     - memory or sqlite (default: memory)
//	DYNFORM_STORE_PATH       - sqlite database path (default: dynform.db)
//	DYNFORM_METRICS_ENABLED  - expose /metrics (default: true)
func LoadFromEnv() (*Config, error) {
	cfg := Config{Metrics: MetricsConfig{Enabled: true}}
	return finish(&cfg)
}

// LoadWithFallback loads path when it exists and falls back to the
// environment otherwise.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

func finish(cfg *Config) (*Config, error) {
	applyEnvOverrides(cfg)
	setDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DYNFORM_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("DYNFORM_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}

	if v := os.Getenv("DYNFORM_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("DYNFORM_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DYNFORM_MAX_SESSIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MaxSessions = n
		}
	}
	if v := os.Getenv("DYNFORM_SESSION_IDLE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.SessionIdleTimeout = d
		}
	}

	if v := os.Getenv("DYNFORM_SCHEMA_PATH"); v != "" {
		cfg.Schema.Path = v
	}
	if v := os.Getenv("DYNFORM_SCHEMA_WATCH"); v != "" {
		cfg.Schema.Watch = parseBool(v)
	}

	if v := os.Getenv("DYNFORM_SUBMIT_ENDPOINT"); v != "" {
		cfg.Submit.Endpoint = v
	}
	if v := os.Getenv("DYNFORM_SUBMIT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Submit.Timeout = d
		}
	}

	if v := os.Getenv("DYNFORM_STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("DYNFORM_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}

	if v := os.Getenv("DYNFORM_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
}

func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = logging.FormatJSON
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Server.MaxSessions == 0 {
		cfg.Server.MaxSessions = 1000
	}
	if cfg.Server.SessionIdleTimeout == 0 {
		cfg.Server.SessionIdleTimeout = 30 * time.Minute
	}

	if cfg.Submit.Method == "" {
		cfg.Submit.Method = "POST"
	}
	if cfg.Submit.Timeout == 0 {
		cfg.Submit.Timeout = 10 * time.Second
	}

	if cfg.Store.Driver == "" {
		cfg.Store.Driver = DriverMemory
	}
	if cfg.Store.Driver == DriverSQLite && cfg.Store.Path == "" {
		cfg.Store.Path = "dynform.db"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

// Validate checks a fully defaulted configuration.
func Validate(cfg *Config) error {
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535, got %d", cfg.Server.Port)
	}

	validDrivers := map[string]bool{DriverMemory: true, DriverSQLite: true}
	if !validDrivers[cfg.Store.Driver] {
		return fmt.Errorf("store.driver must be 'memory' or 'sqlite', got %q", cfg.Store.Driver)
	}

	validFormats := map[string]bool{logging.FormatJSON: true, logging.FormatConsole: true}
	if !validFormats[strings.ToLower(cfg.Log.Format)] {
		return fmt.Errorf("log.format must be 'json' or 'console', got %q", cfg.Log.Format)
	}

	if cfg.Schema.Watch && cfg.Schema.Path == "" {
		return fmt.Errorf("schema.path is required when schema.watch is enabled")
	}

	if cfg.Submit.Endpoint != "" &&
		!strings.HasPrefix(cfg.Submit.Endpoint, "http://") &&
		!strings.HasPrefix(cfg.Submit.Endpoint, "https://") {
		return fmt.Errorf("submit.endpoint must be an http(s) URL, got %q", cfg.Submit.Endpoint)
	}

	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/', got %q", cfg.Metrics.Path)
	}

	return nil
}
