package store

import "time"

// SessionRecord is the persisted summary of one extraction session
type SessionRecord struct {
	ID        int64     `json:"id"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Target    int       `json:"target"`
	Collected int       `json:"collected"`
	State     string    `json:"state"`
	Error     string    `json:"error,omitempty"`
}

// ErrorEntry is one line of the persisted error log
type ErrorEntry struct {
	At      time.Time `json:"at"`
	Message string    `json:"message"`
}
