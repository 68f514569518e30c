// Package notify implements the toast queue: short-lived status messages
// that expire on their own after a fixed time-to-live.
package notify

import (
	"time"

	"github.com/google/uuid"
)

// TTL is how long every toast stays visible.
const TTL = 4 * time.Second

// Severity of a toast.
type Severity int

const (
	SeveritySuccess Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "success"
}

// Toast is one status message.
type Toast struct {
	ID        uuid.UUID
	Message   string
	Severity  Severity
	CreatedAt time.Time
}

// ExpiresAt returns the instant the toast stops being visible.
func (t Toast) ExpiresAt() time.Time {
	return t.CreatedAt.Add(TTL)
}

// Queue is an append-only FIFO of toasts. Identical messages are not
// deduplicated. It is not safe for concurrent use; the TUI update loop owns it.
type Queue struct {
	now    func() time.Time
	toasts []Toast
}

// NewQueueWithClock creates a queue with an injectable clock.
func NewQueueWithClock(now func() time.Time) *Queue {
	return &Queue{now: now}
}

// Push appends a toast stamped with the current time.
func (q *Queue) Push(message string, severity Severity) Toast {
	t := Toast{
		ID:        uuid.New(),
		Message:   message,
		Severity:  severity,
		CreatedAt: q.now(),
	}
	q.toasts = append(q.toasts, t)
	return t
}

// Visible returns the toasts still alive at now, oldest first.
func (q *Queue) Visible(now time.Time) []Toast {
	visible := make([]Toast, 0, len(q.toasts))
	for _, t := range q.toasts {
		if now.Before(t.ExpiresAt()) {
			visible = append(visible, t)
		}
	}
	return visible
}

// Expire removes the toast with the given ID. It reports whether it was present.
func (q *Queue) Expire(id uuid.UUID) bool {
	for i, t := range q.toasts {
		if t.ID == id {
			q.toasts = append(q.toasts[:i], q.toasts[i+1:]...)
			return true
		}
	}
	return false
}

// Prune drops every toast whose TTL has elapsed at now and returns how many
// were removed.
func (q *Queue) Prune(now time.Time) int {
	kept := q.toasts[:0]
	for _, t := range q.toasts {
		if now.Before(t.ExpiresAt()) {
			kept = append(kept, t)
		}
	}
	removed := len(q.toasts) - len(kept)
	q.toasts = kept
	return removed
}

// Len returns the number of queued toasts, expired or not.
func (q *Queue) Len() int {
	return len(q.toasts)
}
