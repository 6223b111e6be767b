package progress

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/stefanpenner/daybook/pkg/kv"
	"github.com/stefanpenner/daybook/pkg/store"
)

func setupTracker(t *testing.T, date string) (*Tracker, kv.Store) {
	t.Helper()
	backend, err := kv.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), kv.DBFileName))
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	tr := New(backend, zerolog.Nop())
	require.NoError(t, tr.LoadForDate(context.Background(), date))
	return tr, backend
}

func TestToggleAndPersist(t *testing.T) {
	ctx := context.Background()
	tr, backend := setupTracker(t, "2026-03-02")

	assert.False(t, tr.Get("1-0"))
	on, err := tr.Toggle(ctx, "1-0")
	require.NoError(t, err)
	assert.True(t, on)
	assert.True(t, tr.Get("1-0"))

	raw, ok, err := backend.Get(ctx, "daily-progress-2026-03-02")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"1-0":true}`, raw)

	on, err = tr.Toggle(ctx, "1-0")
	require.NoError(t, err)
	assert.False(t, on)
}

func TestDaysAreIndependent(t *testing.T) {
	ctx := context.Background()
	tr, _ := setupTracker(t, "2026-03-02")

	_, err := tr.Toggle(ctx, "1-a")
	require.NoError(t, err)

	require.NoError(t, tr.LoadForDate(ctx, "2026-03-03"))
	assert.Equal(t, "2026-03-03", tr.Date())
	assert.Empty(t, tr.Snapshot())

	_, err = tr.Toggle(ctx, "2-b")
	require.NoError(t, err)

	require.NoError(t, tr.LoadForDate(ctx, "2026-03-02"))
	assert.Equal(t, map[string]bool{"1-a": true}, tr.Snapshot())

	dates, err := tr.Dates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-03-02", "2026-03-03"}, dates)
}

func TestSaveForDateCopiesLiveMap(t *testing.T) {
	ctx := context.Background()
	tr, _ := setupTracker(t, "2026-03-02")
	_, err := tr.Toggle(ctx, "1-x")
	require.NoError(t, err)

	require.NoError(t, tr.SaveForDate(ctx, "2026-03-09"))
	require.NoError(t, tr.LoadForDate(ctx, "2026-03-09"))
	assert.True(t, tr.Get("1-x"))
}

func TestResetAllKeepsOtherDays(t *testing.T) {
	ctx := context.Background()
	tr, _ := setupTracker(t, "2026-03-02")
	_, err := tr.Toggle(ctx, "1-x")
	require.NoError(t, err)

	require.NoError(t, tr.LoadForDate(ctx, "2026-03-03"))
	_, err = tr.Toggle(ctx, "1-y")
	require.NoError(t, err)
	require.NoError(t, tr.ResetAll(ctx))
	assert.Empty(t, tr.Snapshot())

	// Reset is persisted.
	require.NoError(t, tr.LoadForDate(ctx, "2026-03-03"))
	assert.Empty(t, tr.Snapshot())

	require.NoError(t, tr.LoadForDate(ctx, "2026-03-02"))
	assert.True(t, tr.Get("1-x"))
}

func TestInvalidDate(t *testing.T) {
	tr := New(kv.NewMemory(), zerolog.Nop())
	assert.Error(t, tr.LoadForDate(context.Background(), "03/02/2026"))
	assert.Error(t, tr.SaveForDate(context.Background(), "yesterday"))

	_, err := tr.Toggle(context.Background(), "1-0")
	assert.ErrorContains(t, err, "no day loaded")
}

func TestToday(t *testing.T) {
	now := time.Date(2026, 10, 19, 23, 30, 0, 0, time.Local)
	assert.Equal(t, "2026-10-19", Today(now))
	assert.Equal(t, "daily-progress-2026-10-19", DateKey(Today(now)))
}

func TestDoubleToggleIsIdentityProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ctx := context.Background()
		tr := New(kv.NewMemory(), zerolog.Nop())
		if err := tr.LoadForDate(ctx, "2026-01-01"); err != nil {
			rt.Fatal(err)
		}
		for _, k := range rapid.SliceOf(rapid.StringMatching(`[1-3]-[0-4]`)).Draw(rt, "seed") {
			if _, err := tr.Toggle(ctx, k); err != nil {
				rt.Fatal(err)
			}
		}
		key := rapid.StringMatching(`[1-3]-[0-4]`).Draw(rt, "key")
		before := tr.Get(key)
		for range 2 {
			if _, err := tr.Toggle(ctx, key); err != nil {
				rt.Fatal(err)
			}
		}
		if tr.Get(key) != before {
			rt.Fatalf("double toggle of %s changed %v to %v", key, before, tr.Get(key))
		}
	})
}

func TestSchemes(t *testing.T) {
	task := store.Task{ID: "abc", Name: "Mail"}
	assert.Equal(t, "4-abc", SchemeTaskID.Key(4, 2, task))
	assert.Equal(t, "4-2", SchemePosition.Key(4, 2, task))
	assert.Equal(t, "4-2", SchemeTaskID.Key(4, 2, store.Task{}))

	s, err := ParseScheme("position")
	require.NoError(t, err)
	assert.Equal(t, SchemePosition, s)
	_, err = ParseScheme("by-name")
	assert.Error(t, err)
}

func TestReorderDoesNotTouchRecords(t *testing.T) {
	ctx := context.Background()
	a := store.Task{ID: "a", Name: "first"}
	b := store.Task{ID: "b", Name: "second"}

	tr, _ := setupTracker(t, "2026-03-02")
	_, err := tr.Toggle(ctx, SchemePosition.Key(1, 0, a))
	require.NoError(t, err)
	_, err = tr.Toggle(ctx, SchemeTaskID.Key(1, 0, a))
	require.NoError(t, err)
	before := tr.Snapshot()

	reordered := store.Workflow{ID: 1, Tasks: []store.Task{b, a}}
	assert.Equal(t, before, tr.Snapshot())

	// Positional keys stay with the slot, so the task now at 0 reads as done.
	posDone := tr.DoneFunc(SchemePosition)
	assert.True(t, posDone(1, 0, reordered.Tasks[0]))
	assert.False(t, posDone(1, 1, reordered.Tasks[1]))

	// Id keys follow the task.
	idDone := tr.DoneFunc(SchemeTaskID)
	assert.False(t, idDone(1, 0, reordered.Tasks[0]))
	assert.True(t, idDone(1, 1, reordered.Tasks[1]))
}
