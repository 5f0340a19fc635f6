package store

import (
	"database/sql"
	"fmt"
	"time"
)

// SaveSession records a finished session and returns its id.
func (s *Store) SaveSession(r SessionRecord) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO sessions (started_at, ended_at, target, collected, state, error)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.StartedAt.UTC().Format(time.RFC3339Nano), r.EndedAt.UTC().Format(time.RFC3339Nano),
		r.Target, r.Collected, r.State, sql.NullString{String: r.Error, Valid: r.Error != ""})
	if err != nil {
		return 0, fmt.Errorf("failed to save session: %w", err)
	}
	return res.LastInsertId()
}

// RecentSessions returns up to limit sessions, newest first.
func (s *Store) RecentSessions(limit int) ([]SessionRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, started_at, ended_at, target, collected, state, error
		FROM sessions
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		var r SessionRecord
		var started, ended string
		var errText sql.NullString
		if err := rows.Scan(&r.ID, &started, &ended, &r.Target, &r.Collected, &r.State, &errText); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		r.EndedAt, _ = time.Parse(time.RFC3339Nano, ended)
		r.Error = errText.String
		out = append(out, r)
	}
	return out, rows.Err()
}
