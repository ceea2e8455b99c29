// Package timecontrol holds the fixed registry of selectable time controls.
package timecontrol

import "fmt"

// DefaultID is the time control a fresh clock starts with
const DefaultID = "3+2"

// Category groups time controls for display only
type Category string

const (
	CategoryBullet    Category = "Bullet"
	CategoryBlitz     Category = "Blitz"
	CategoryRapid     Category = "Rapid"
	CategoryClassical Category = "Classical"
)

// Entry is an immutable time control definition
type Entry struct {
	ID               string   `json:"id"`
	StartSeconds     int      `json:"startSeconds"`
	IncrementSeconds int      `json:"incrementSeconds"`
	Category         Category `json:"category"`
}

// Listing is the (id, category) pair used to populate a selection list
type Listing struct {
	ID       string   `json:"id"`
	Category Category `json:"category"`
}

// NotFoundError is returned when a time control id is not in the catalog
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("time control not found: %q", e.ID)
}

// table is the static registry in display order
var table = []Entry{
	{ID: "1+0", StartSeconds: 60, IncrementSeconds: 0, Category: CategoryBullet},
	{ID: "2+1", StartSeconds: 120, IncrementSeconds: 1, Category: CategoryBullet},
	{ID: "3+0", StartSeconds: 180, IncrementSeconds: 0, Category: CategoryBlitz},
	{ID: "3+2", StartSeconds: 180, IncrementSeconds: 2, Category: CategoryBlitz},
	{ID: "5+0", StartSeconds: 300, IncrementSeconds: 0, Category: CategoryBlitz},
	{ID: "5+3", StartSeconds: 300, IncrementSeconds: 3, Category: CategoryBlitz},
	{ID: "10+0", StartSeconds: 600, IncrementSeconds: 0, Category: CategoryRapid},
	{ID: "10+5", StartSeconds: 600, IncrementSeconds: 5, Category: CategoryRapid},
	{ID: "15+10", StartSeconds: 900, IncrementSeconds: 10, Category: CategoryRapid},
	{ID: "30+0", StartSeconds: 1800, IncrementSeconds: 0, Category: CategoryClassical},
	{ID: "30+20", StartSeconds: 1800, IncrementSeconds: 20, Category: CategoryClassical},
}

// Catalog is a read-only index over the static table, safe for concurrent use
type Catalog struct {
	entries []Entry
	index   map[string]int
}

// New builds the catalog from the static table
func New() *Catalog {
	c := &Catalog{
		entries: table,
		index:   make(map[string]int, len(table)),
	}
	for i, e := range table {
		c.index[e.ID] = i
	}
	return c
}

// Lookup returns the entry for id or a *NotFoundError
func (c *Catalog) Lookup(id string) (Entry, error) {
	i, ok := c.index[id]
	if !ok {
		return Entry{}, &NotFoundError{ID: id}
	}
	return c.entries[i], nil
}

// Enumerate lists ids and categories in table order.
// Each call returns a new slice.
func (c *Catalog) Enumerate() []Listing {
	out := make([]Listing, len(c.entries))
	for i, e := range c.entries {
		out[i] = Listing{ID: e.ID, Category: e.Category}
	}
	return out
}

// Entries returns a copy of all entries in table order
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Default returns the entry for DefaultID
func (c *Catalog) Default() Entry {
	e, _ := c.Lookup(DefaultID)
	return e
}
