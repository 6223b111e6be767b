package feedback

import (
	"sync"
	"time"
)

// DefaultTTL is how long an event stays on a Board.
const DefaultTTL = 4 * time.Second

// Board holds the most recent event until it expires.
type Board struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	current Event
	expires time.Time
}

// NewBoard returns a board that shows each event for ttl. A non-positive
// ttl uses DefaultTTL.
func NewBoard(ttl time.Duration) *Board {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Board{ttl: ttl, now: time.Now}
}

// Notify replaces whatever is showing.
func (b *Board) Notify(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = e
	b.expires = b.now().Add(b.ttl)
}

// Current returns the showing event, if it has not expired.
func (b *Board) Current() (Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current.Title == "" && b.current.Message == "" {
		return Event{}, false
	}
	if !b.now().Before(b.expires) {
		return Event{}, false
	}
	return b.current, true
}

// TTL is the display duration.
func (b *Board) TTL() time.Duration { return b.ttl }
