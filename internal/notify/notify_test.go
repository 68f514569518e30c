package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestQueue() (*Queue, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	return NewQueueWithClock(clock.Now), clock
}

func TestQueue_TwoToastsExpireIndependently(t *testing.T) {
	q, clock := newTestQueue()

	first := q.Push("Order executed", SeveritySuccess)
	clock.Advance(1500 * time.Millisecond)
	second := q.Push("Insufficient balance", SeverityError)

	visible := q.Visible(clock.Now())
	require.Len(t, visible, 2, "both toasts are visible at the same time")
	assert.Equal(t, first.ID, visible[0].ID)
	assert.Equal(t, second.ID, visible[1].ID)

	// First expires at exactly 4s after its creation.
	clock.t = first.CreatedAt.Add(TTL)
	visible = q.Visible(clock.Now())
	require.Len(t, visible, 1)
	assert.Equal(t, second.ID, visible[0].ID)

	clock.t = second.CreatedAt.Add(TTL - time.Millisecond)
	assert.Len(t, q.Visible(clock.Now()), 1)

	clock.t = second.CreatedAt.Add(TTL)
	assert.Empty(t, q.Visible(clock.Now()))
}

func TestQueue_NoDeduplication(t *testing.T) {
	q, clock := newTestQueue()

	a := q.Push("Connection error", SeverityError)
	b := q.Push("Connection error", SeverityError)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Len(t, q.Visible(clock.Now()), 2)
}

func TestQueue_Expire(t *testing.T) {
	q, clock := newTestQueue()

	a := q.Push("one", SeveritySuccess)
	b := q.Push("two", SeveritySuccess)

	assert.True(t, q.Expire(a.ID))
	assert.False(t, q.Expire(a.ID))

	visible := q.Visible(clock.Now())
	require.Len(t, visible, 1)
	assert.Equal(t, b.ID, visible[0].ID)
}

func TestQueue_Prune(t *testing.T) {
	q, clock := newTestQueue()

	q.Push("old", SeveritySuccess)
	clock.Advance(3 * time.Second)
	q.Push("new", SeveritySuccess)
	clock.Advance(2 * time.Second)

	assert.Equal(t, 1, q.Prune(clock.Now()))
	assert.Equal(t, 1, q.Len())
	assert.Equal(t, "new", q.Visible(clock.Now())[0].Message)
}

func TestSeverity_String(t *testing.T) {
	assert.Equal(t, "success", SeveritySuccess.String())
	assert.Equal(t, "error", SeverityError.String())
}
