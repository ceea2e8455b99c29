package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// RecordClock asynchronously registers a new clock
func (s *Store) RecordClock(record ClockRecord) {
	s.enqueue("record clock", func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO clocks (clock_id, time_control, created_at, updated_at) VALUES (?, ?, ?, ?)`,
			record.ClockID, record.TimeControl, record.CreatedAt, record.UpdatedAt,
		)
		return err
	})
}

// UpdateTimeControl asynchronously records a time control reselection
func (s *Store) UpdateTimeControl(clockID, timeControl string, at time.Time) {
	s.enqueue("update time control", func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`UPDATE clocks SET time_control = ?, updated_at = ? WHERE clock_id = ?`,
			timeControl, at, clockID,
		)
		return err
	})
}

// TouchClock asynchronously bumps updated_at
func (s *Store) TouchClock(clockID string, at time.Time) {
	s.enqueue("touch clock", func(tx *sql.Tx) error {
		_, err := tx.Exec(`UPDATE clocks SET updated_at = ? WHERE clock_id = ?`, at, clockID)
		return err
	})
}

// DeleteClock asynchronously removes a clock registration
func (s *Store) DeleteClock(clockID string) {
	s.enqueue("delete clock", func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM clocks WHERE clock_id = ?`, clockID)
		return err
	})
}

// QueryClocks retrieves clocks with optional filtering, newest first
func (s *Store) QueryClocks(clockID, timeControl string) ([]ClockRecord, error) {
	query := `SELECT clock_id, time_control, created_at, updated_at FROM clocks WHERE 1=1`

	var args []interface{}

	if clockID != "" && clockID != "*" {
		query += " AND clock_id = ?"
		args = append(args, clockID)
	}

	if timeControl != "" && timeControl != "*" {
		query += " AND time_control = ?"
		args = append(args, timeControl)
	}

	query += " ORDER BY updated_at DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var clocks []ClockRecord
	for rows.Next() {
		var c ClockRecord
		if err := rows.Scan(&c.ClockID, &c.TimeControl, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		clocks = append(clocks, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return clocks, nil
}

// ListClocks returns every registered clock
func (s *Store) ListClocks() ([]ClockRecord, error) {
	return s.QueryClocks("", "")
}
