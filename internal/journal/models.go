package journal

import "time"

// Event is one onboarding transition or failed attempt. A failed attempt
// has From equal to To and a non-empty Error.
type Event struct {
	ID        int64     `json:"id,omitempty"`
	SessionID string    `json:"session_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Event     string    `json:"event"`
	Error     string    `json:"error,omitempty"`
	At        time.Time `json:"at"`
}

// Failed reports whether the entry records a rejected attempt.
func (e Event) Failed() bool { return e.Error != "" }

// Query filters and paginates journal entries.
type Query struct {
	SessionID  string
	Event      string
	From       time.Time
	To         time.Time
	FailedOnly bool
	Cursor     string
	Limit      int
}
