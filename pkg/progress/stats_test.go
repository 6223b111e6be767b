package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stefanpenner/daybook/pkg/store"
)

func doneSet(keys ...string) DoneFunc {
	set := map[string]bool{}
	for _, k := range keys {
		set[k] = true
	}
	return func(workflowID, index int, t store.Task) bool {
		return set[SchemePosition.Key(workflowID, index, t)]
	}
}

func tasks(n int) []store.Task {
	return make([]store.Task, n)
}

func TestWorkflowPercent(t *testing.T) {
	w := store.Workflow{ID: 1, Tasks: tasks(3)}
	assert.Equal(t, 0, WorkflowPercent(w, doneSet()))
	assert.Equal(t, 33, WorkflowPercent(w, doneSet("1-0")))
	assert.Equal(t, 67, WorkflowPercent(w, doneSet("1-0", "1-2")))
	assert.Equal(t, 100, WorkflowPercent(w, doneSet("1-0", "1-1", "1-2")))
	assert.Equal(t, 0, WorkflowPercent(store.Workflow{ID: 2}, doneSet("2-0")))
}

func TestSummarize(t *testing.T) {
	ws := []store.Workflow{
		{ID: 1, Tasks: tasks(2)},
		{ID: 2, Tasks: tasks(2)},
		{ID: 3},
	}

	assert.Equal(t, Stats{Completed: 0, Total: 4, Percent: 0, Tier: TierLow}, Summarize(ws, doneSet()))
	assert.Equal(t, Stats{Completed: 2, Total: 4, Percent: 50, Tier: TierMedium}, Summarize(ws, doneSet("1-0", "2-1")))
	assert.Equal(t, Stats{Completed: 4, Total: 4, Percent: 100, Tier: TierHigh}, Summarize(ws, doneSet("1-0", "1-1", "2-0", "2-1")))
	assert.Equal(t, Stats{Tier: TierLow}, Summarize(nil, doneSet()))
}

func TestTierFor(t *testing.T) {
	assert.Equal(t, TierLow, TierFor(49))
	assert.Equal(t, TierMedium, TierFor(50))
	assert.Equal(t, TierMedium, TierFor(79))
	assert.Equal(t, TierHigh, TierFor(80))
}
