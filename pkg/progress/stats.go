package progress

import (
	"math"

	"github.com/stefanpenner/daybook/pkg/store"
)

// DoneFunc reports whether the task at index of a workflow is checked.
type DoneFunc func(workflowID, index int, t store.Task) bool

// DoneFunc reads the live map through scheme.
func (t *Tracker) DoneFunc(scheme Scheme) DoneFunc {
	return func(workflowID, index int, task store.Task) bool {
		return t.Get(scheme.Key(workflowID, index, task))
	}
}

// Tier buckets a completion percentage for display.
type Tier string

const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

// TierFor maps a percentage to its tier.
func TierFor(percent int) Tier {
	switch {
	case percent >= 80:
		return TierHigh
	case percent >= 50:
		return TierMedium
	default:
		return TierLow
	}
}

// Stats summarises completion across workflows.
type Stats struct {
	Completed int  `json:"completed"`
	Total     int  `json:"total"`
	Percent   int  `json:"percent"`
	Tier      Tier `json:"tier"`
}

func percent(done, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}

// WorkflowPercent is the rounded share of w's tasks that are done. Empty
// workflows are 0%.
func WorkflowPercent(w store.Workflow, done DoneFunc) int {
	n := 0
	for i, t := range w.Tasks {
		if done(w.ID, i, t) {
			n++
		}
	}
	return percent(n, len(w.Tasks))
}

// Summarize counts completion over every task of ws.
func Summarize(ws []store.Workflow, done DoneFunc) Stats {
	var s Stats
	for _, w := range ws {
		for i, t := range w.Tasks {
			s.Total++
			if done(w.ID, i, t) {
				s.Completed++
			}
		}
	}
	s.Percent = percent(s.Completed, s.Total)
	s.Tier = TierFor(s.Percent)
	return s
}
