package timecontrol

import (
	"errors"
	"testing"
)

func TestLookup_KnownIDs(t *testing.T) {
	c := New()

	tests := []struct {
		id        string
		start     int
		increment int
		category  Category
	}{
		{"1+0", 60, 0, CategoryBullet},
		{"3+2", 180, 2, CategoryBlitz},
		{"15+10", 900, 10, CategoryRapid},
		{"30+20", 1800, 20, CategoryClassical},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			e, err := c.Lookup(tt.id)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if e.StartSeconds != tt.start {
				t.Errorf("expected start %d, got %d", tt.start, e.StartSeconds)
			}
			if e.IncrementSeconds != tt.increment {
				t.Errorf("expected increment %d, got %d", tt.increment, e.IncrementSeconds)
			}
			if e.Category != tt.category {
				t.Errorf("expected category %s, got %s", tt.category, e.Category)
			}
		})
	}
}

func TestLookup_UnknownID(t *testing.T) {
	c := New()

	_, err := c.Lookup("4+4")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected *NotFoundError, got %v", err)
	}
	if nf.ID != "4+4" {
		t.Errorf("expected ID 4+4, got %q", nf.ID)
	}
}

func TestEnumerate_StableOrder(t *testing.T) {
	c := New()

	first := c.Enumerate()
	if len(first) != 11 {
		t.Fatalf("expected 11 entries, got %d", len(first))
	}
	if first[0].ID != "1+0" || first[len(first)-1].ID != "30+20" {
		t.Errorf("unexpected order: first %s, last %s", first[0].ID, first[len(first)-1].ID)
	}

	// Mutating a returned slice must not leak into later calls
	first[0].ID = "mutated"
	second := c.Enumerate()
	if second[0].ID != "1+0" {
		t.Errorf("enumerate is not restartable, got %s", second[0].ID)
	}

	for i, l := range second {
		e, err := c.Lookup(l.ID)
		if err != nil {
			t.Fatalf("enumerated id %s does not resolve: %v", l.ID, err)
		}
		if e.Category != l.Category {
			t.Errorf("entry %d: category mismatch %s vs %s", i, e.Category, l.Category)
		}
	}
}

func TestDefault(t *testing.T) {
	e := New().Default()
	if e.ID != DefaultID || e.StartSeconds != 180 || e.IncrementSeconds != 2 {
		t.Errorf("unexpected default entry: %+v", e)
	}
}
