package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-dynform/internal/logging"
)

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dynform.yaml")
	if err := os.WriteFile(path, []byte("schema:\n  path: form.json\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	want := &Config{
		Log: logging.Config{Level: "info", Format: "json"},
		Server: ServerConfig{
			Host:               "127.0.0.1",
			Port:               8080,
			ReadTimeout:        15 * time.Second,
			WriteTimeout:       30 * time.Second,
			ShutdownTimeout:    10 * time.Second,
			MaxSessions:        1000,
			SessionIdleTimeout: 30 * time.Minute,
		},
		Schema:  SchemaConfig{Path: "form.json"},
		Submit:  SubmitConfig{Method: "POST", Timeout: 10 * time.Second},
		Store:   StoreConfig{Driver: DriverMemory},
		Metrics: MetricsConfig{Enabled: true, Path: "/metrics"},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
	if cfg.Server.Addr() != "127.0.0.1:8080" {
		t.Fatalf("unexpected addr %q", cfg.Server.Addr())
	}
}

func TestParseExpandsEnvAndOverrides(t *testing.T) {
	t.Setenv("SUBMIT_TOKEN", "secret")
	t.Setenv("DYNFORM_SERVER_PORT", "9090")
	t.Setenv("DYNFORM_STORE_DRIVER", "sqlite")
	t.Setenv("DYNFORM_METRICS_ENABLED", "no")
	t.Setenv("DYNFORM_SESSION_IDLE", "5m")

	cfg, err := Parse([]byte(`
submit:
  endpoint: https://example.com/runs
  timeout: 3s
  headers:
    Authorization: Bearer ${SUBMIT_TOKEN}
server:
  port: 7000
  max_sessions: -1
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if got := cfg.Submit.Headers["Authorization"]; got != "Bearer secret" {
		t.Fatalf("env not expanded: %q", got)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("env override ignored, port %d", cfg.Server.Port)
	}
	if cfg.Submit.Timeout != 3*time.Second {
		t.Fatalf("unexpected timeout %v", cfg.Submit.Timeout)
	}
	if cfg.Store.Driver != DriverSQLite || cfg.Store.Path != "dynform.db" {
		t.Fatalf("unexpected store %+v", cfg.Store)
	}
	if cfg.Metrics.Enabled {
		t.Fatalf("metrics should be disabled")
	}
	if cfg.Server.SessionIdleTimeout != 5*time.Minute || cfg.Server.MaxSessions != -1 {
		t.Fatalf("unexpected session limits %d %v", cfg.Server.MaxSessions, cfg.Server.SessionIdleTimeout)
	}
}

func TestValidateRejects(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"store.driver":    "store:\n  driver: postgres\n",
		"log.format":      "log:\n  format: xml\n",
		"schema.path":     "schema:\n  watch: true\n",
		"submit.endpoint": "submit:\n  endpoint: ftp://nope\n",
		"metrics.path":    "metrics:\n  path: metrics\n",
		"server.port":     "server:\n  port: 70000\n",
	}
	for key, doc := range cases {
		key, doc := key, doc
		t.Run(key, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(doc))
			if err == nil || !strings.Contains(err.Error(), key) {
				t.Fatalf("expected %s error, got %v", key, err)
			}
		})
	}
}

func TestLoadWithFallbackUsesEnv(t *testing.T) {
	t.Setenv("DYNFORM_SCHEMA_PATH", "env.json")

	cfg, err := LoadWithFallback(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Schema.Path != "env.json" {
		t.Fatalf("expected env schema path, got %q", cfg.Schema.Path)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected read error")
	}
}
