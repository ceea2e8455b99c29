package storage

import "time"

// ClockRecord represents a row in the clocks table. Only configuration is
// stored; remaining time and move counts live in memory.
type ClockRecord struct {
	ClockID     string    `db:"clock_id"`
	TimeControl string    `db:"time_control"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Schema defines the SQLite database structure
const Schema = `
CREATE TABLE IF NOT EXISTS clocks (
	clock_id TEXT PRIMARY KEY,
	time_control TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_clocks_time_control ON clocks(time_control);
CREATE INDEX IF NOT EXISTS idx_clocks_updated_at ON clocks(updated_at);
`
