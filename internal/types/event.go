package types

import "time"

// EventKind names an outbound notification
type EventKind string

const (
	EventProgress EventKind = "progress"
	EventComplete EventKind = "complete"
	EventError    EventKind = "error"
)

// Event is what the extraction engine tells its host about a session.
// Progress carries Current/Total/Posts, complete carries Posts and the
// terminal State, error carries Message plus whatever Posts were gathered.
type Event struct {
	Kind    EventKind `json:"kind"`
	Current int       `json:"current,omitempty"`
	Total   int       `json:"total,omitempty"`
	Posts   []Post    `json:"posts,omitempty"`
	State   string    `json:"state,omitempty"`
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at"`
}

// Final reports whether the event ends a session or is the last progress tick.
func (e Event) Final() bool {
	return e.Kind != EventProgress || e.Current >= e.Total
}
