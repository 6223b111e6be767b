// Package progress tracks which tasks the user has checked off, one record
// per calendar day.
package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/stefanpenner/daybook/pkg/kv"
)

// KeyPrefix starts every progress record key.
const KeyPrefix = "daily-progress-"

// DateLayout is the calendar day format used in keys.
const DateLayout = "2006-01-02"

// DateKey is the record key for a day.
func DateKey(date string) string {
	return KeyPrefix + date
}

// Today formats now's local calendar day.
func Today(now time.Time) string {
	return now.Format(DateLayout)
}

// ParseDate validates a YYYY-MM-DD day.
func ParseDate(date string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, date, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", date, err)
	}
	return d, nil
}

// Tracker holds the live completion map for one day. Switching days swaps
// the whole map.
type Tracker struct {
	kv  kv.Store
	log zerolog.Logger

	mu   sync.Mutex
	date string
	live map[string]bool
}

// New returns a tracker with no day loaded.
func New(backend kv.Store, log zerolog.Logger) *Tracker {
	return &Tracker{kv: backend, log: log, live: map[string]bool{}}
}

// LoadForDate replaces the live map with the record for date. A day with no
// record starts empty.
func (t *Tracker) LoadForDate(ctx context.Context, date string) error {
	if _, err := ParseDate(date); err != nil {
		return err
	}
	raw, ok, err := t.kv.Get(ctx, DateKey(date))
	if err != nil {
		return fmt.Errorf("loading progress for %s: %w", date, err)
	}
	live := map[string]bool{}
	if ok {
		if err := json.Unmarshal([]byte(raw), &live); err != nil {
			return fmt.Errorf("decoding progress for %s: %w", date, err)
		}
	}

	t.mu.Lock()
	t.date, t.live = date, live
	t.mu.Unlock()
	t.log.Debug().Str("date", date).Int("entries", len(live)).Msg("loaded progress")
	return nil
}

// SaveForDate writes the live map as the record for date.
func (t *Tracker) SaveForDate(ctx context.Context, date string) error {
	if _, err := ParseDate(date); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.saveLocked(ctx, date, t.live)
}

func (t *Tracker) saveLocked(ctx context.Context, date string, live map[string]bool) error {
	data, err := json.Marshal(live)
	if err != nil {
		return fmt.Errorf("encoding progress: %w", err)
	}
	if err := t.kv.Put(ctx, DateKey(date), string(data)); err != nil {
		return fmt.Errorf("saving progress for %s: %w", date, err)
	}
	return nil
}

// Toggle flips key and saves the day. It returns the new value.
func (t *Tracker) Toggle(ctx context.Context, key string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.date == "" {
		return false, fmt.Errorf("no day loaded")
	}

	next := maps.Clone(t.live)
	next[key] = !next[key]
	if err := t.saveLocked(ctx, t.date, next); err != nil {
		return t.live[key], err
	}
	t.live = next
	return next[key], nil
}

// Get reports whether key is checked. Unknown keys are unchecked.
func (t *Tracker) Get(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.live[key]
}

// ResetAll clears the live map and saves the empty day. Other days are kept.
func (t *Tracker) ResetAll(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.date == "" {
		return fmt.Errorf("no day loaded")
	}
	empty := map[string]bool{}
	if err := t.saveLocked(ctx, t.date, empty); err != nil {
		return err
	}
	t.live = empty
	return nil
}

// Date is the loaded day, or "" before the first load.
func (t *Tracker) Date() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.date
}

// Snapshot copies the live map.
func (t *Tracker) Snapshot() map[string]bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return maps.Clone(t.live)
}

// Dates lists every day that has a record, oldest first.
func (t *Tracker) Dates(ctx context.Context) ([]string, error) {
	keys, err := t.kv.Keys(ctx, KeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("listing progress days: %w", err)
	}
	dates := make([]string, 0, len(keys))
	for _, k := range keys {
		dates = append(dates, strings.TrimPrefix(k, KeyPrefix))
	}
	return dates, nil
}
