package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chessclock/internal/server/config"
)

func TestRun_StartupFailureRemovesPIDFile(t *testing.T) {
	dir := t.TempDir()

	cfg := config.Default()
	cfg.PID.Path = filepath.Join(dir, "chessclock.pid")
	cfg.PID.Lock = true
	cfg.Storage.Path = filepath.Join(dir, "missing", "clocks.db")

	err := run(cfg, nil)
	if err == nil || !strings.Contains(err.Error(), "schema") {
		t.Fatalf("expected schema error, got %v", err)
	}

	if _, err := os.Stat(cfg.PID.Path); !os.IsNotExist(err) {
		t.Errorf("PID file left behind after failed startup: %v", err)
	}

	// A second start must not find a locked or stale file
	cleanup, err := managePIDFile(cfg.PID.Path, true)
	if err != nil {
		t.Fatalf("PID file still held: %v", err)
	}
	cleanup()
}
