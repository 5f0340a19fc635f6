package store

import (
	"fmt"
	"time"
)

// MaxErrorLogEntries is how many error lines are kept
const MaxErrorLogEntries = 50

// AppendError adds a line to the error log and drops the oldest beyond
// MaxErrorLogEntries.
func (s *Store) AppendError(at time.Time, message string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO error_log (at, message) VALUES (?, ?)`,
		at.UTC().Format(time.RFC3339Nano), message); err != nil {
		return fmt.Errorf("failed to append error: %w", err)
	}
	if _, err := tx.Exec(`
		DELETE FROM error_log WHERE id NOT IN (
			SELECT id FROM error_log ORDER BY id DESC LIMIT ?
		)
	`, MaxErrorLogEntries); err != nil {
		return fmt.Errorf("failed to trim error log: %w", err)
	}
	return tx.Commit()
}

// RecentErrors returns the kept error lines, oldest first.
func (s *Store) RecentErrors() ([]ErrorEntry, error) {
	rows, err := s.db.Query(`SELECT at, message FROM error_log ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ErrorEntry
	for rows.Next() {
		var e ErrorEntry
		var at string
		if err := rows.Scan(&at, &e.Message); err != nil {
			return nil, err
		}
		e.At, _ = time.Parse(time.RFC3339Nano, at)
		out = append(out, e)
	}
	return out, rows.Err()
}

// ClearErrors empties the error log
func (s *Store) ClearErrors() error {
	_, err := s.db.Exec(`DELETE FROM error_log`)
	return err
}
