package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"chessclock/internal/server/storage"
)

func TestRun_InitQueryDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clocks.db")
	var out bytes.Buffer

	if err := run(&out, []string{"init", "-path", path}); err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out.String(), "Database initialized") {
		t.Errorf("unexpected init output %q", out.String())
	}

	store, err := storage.NewStore(path, false)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	now := time.Now().UTC()
	store.RecordClock(storage.ClockRecord{ClockID: "11111111-1111-1111-1111-111111111111", TimeControl: "5+3", CreatedAt: now, UpdatedAt: now})
	store.RecordClock(storage.ClockRecord{ClockID: "22222222-2222-2222-2222-222222222222", TimeControl: "1+0", CreatedAt: now, UpdatedAt: now})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := store.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	store.Close()

	out.Reset()
	if err := run(&out, []string{"query", "-path", path, "-timeControl", "5+3"}); err != nil {
		t.Fatalf("query: %v", err)
	}
	if !strings.Contains(out.String(), "11111111-1111") || strings.Contains(out.String(), "22222222-2222") {
		t.Errorf("filter not applied:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "Found 1 clock(s)") {
		t.Errorf("missing summary:\n%s", out.String())
	}

	out.Reset()
	if err := run(&out, []string{"query", "-path", path, "-clockId", "nope"}); err != nil {
		t.Fatalf("query: %v", err)
	}
	if !strings.Contains(out.String(), "No clocks found") {
		t.Errorf("unexpected empty query output %q", out.String())
	}

	if err := run(&out, []string{"delete", "-path", path}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("database file still present: %v", err)
	}
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no subcommand", nil},
		{"unknown subcommand", []string{"vacuum"}},
		{"missing path", []string{"init"}},
		{"unknown flag", []string{"query", "-gameId", "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := run(&bytes.Buffer{}, tt.args); err == nil {
				t.Error("expected error")
			}
		})
	}
}
