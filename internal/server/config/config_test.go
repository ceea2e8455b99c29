package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"chessclock/internal/server/service"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chessclock.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.Host != "localhost" || cfg.API.Port != 8080 {
		t.Errorf("unexpected api defaults %+v", cfg.API)
	}
	if cfg.Clocks.Max != service.DefaultMaxClocks || cfg.Clocks.IdleTTL != service.IdleClockTTL {
		t.Errorf("unexpected clock defaults %+v", cfg.Clocks)
	}
	if cfg.Storage.Path != "" || cfg.Events.NATS.Enabled {
		t.Error("storage and events should be off by default")
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, `
api:
  host: 0.0.0.0
  port: 9000
storage:
  path: /var/lib/chessclock/clocks.db
clocks:
  max: 50
  idle_ttl: 30m
events:
  nats:
    enabled: true
    url: nats://broker:4222
log:
  level: debug
dev: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.Host != "0.0.0.0" || cfg.API.Port != 9000 {
		t.Errorf("api not applied: %+v", cfg.API)
	}
	if cfg.Clocks.Max != 50 || cfg.Clocks.IdleTTL != 30*time.Minute {
		t.Errorf("clocks not applied: %+v", cfg.Clocks)
	}
	if cfg.Clocks.CleanupInterval != service.CleanupJobInterval {
		t.Errorf("unset field lost its default: %v", cfg.Clocks.CleanupInterval)
	}
	if !cfg.Events.NATS.Enabled || cfg.Events.NATS.URL != "nats://broker:4222" {
		t.Errorf("nats not applied: %+v", cfg.Events.NATS)
	}
	if cfg.Events.NATS.SubjectPrefix != "chessclock.events" {
		t.Errorf("subject prefix default lost: %s", cfg.Events.NATS.SubjectPrefix)
	}
	if cfg.Log.Level != "debug" || !cfg.Dev {
		t.Errorf("log/dev not applied: %+v %v", cfg.Log, cfg.Dev)
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, "api:\n  port: 9000\n")
	t.Setenv("CHESSCLOCK_API_PORT", "9100")
	t.Setenv("CHESSCLOCK_MAX_CLOCKS", "7")
	t.Setenv("CHESSCLOCK_IDLE_TTL", "90s")
	t.Setenv("CHESSCLOCK_DEV", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.Port != 9100 || cfg.Clocks.Max != 7 || cfg.Clocks.IdleTTL != 90*time.Second || !cfg.Dev {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		env     map[string]string
		wantErr string
	}{
		{"bad yaml", "api: [", nil, "failed to parse config"},
		{"bad port", "api:\n  port: 70000\n", nil, "invalid api port"},
		{"bad env int", "", map[string]string{"CHESSCLOCK_MAX_CLOCKS": "lots"}, "CHESSCLOCK_MAX_CLOCKS"},
		{"bad env bool", "", map[string]string{"CHESSCLOCK_DEV": "maybe"}, "CHESSCLOCK_DEV"},
		{"negative max", "clocks:\n  max: -1\n", nil, "clocks.max"},
		{"lock without path", "pid:\n  lock: true\n", nil, "pid.lock"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.yaml != "" {
				path = writeConfig(t, tt.yaml)
			}
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
