// Package history holds the two kinds of conversational record the
// engine needs: a bounded ring of completed turns for inspection, and a
// per-session message log feeding model context.
package history

import (
	"sync"
	"time"
)

// Turn is one completed engine turn.
type Turn struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Input      string    `json:"input"`
	Capability string    `json:"capability,omitempty"`
	Emitted    []string  `json:"emitted"`
	State      string    `json:"state"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Ring is a fixed-capacity turn log. When full, the oldest turn is
// overwritten. The zero value is unusable; construct with NewRing.
type Ring struct {
	mu    sync.Mutex
	turns []Turn
	next  int
	full  bool
}

// NewRing creates a ring holding up to capacity turns. Capacity must be
// positive.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ring{turns: make([]Turn, capacity)}
}

// Append records a turn, evicting the oldest when full.
func (r *Ring) Append(t Turn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turns[r.next] = t
	r.next++
	if r.next == len(r.turns) {
		r.next = 0
		r.full = true
	}
}

// Snapshot returns the recorded turns, oldest first.
func (r *Ring) Snapshot() []Turn {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		out := make([]Turn, r.next)
		copy(out, r.turns[:r.next])
		return out
	}
	out := make([]Turn, 0, len(r.turns))
	out = append(out, r.turns[r.next:]...)
	out = append(out, r.turns[:r.next]...)
	return out
}

// Len reports how many turns are recorded.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		return len(r.turns)
	}
	return r.next
}
