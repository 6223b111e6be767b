package progress

import (
	"fmt"
	"strconv"

	"github.com/stefanpenner/daybook/pkg/store"
)

// Scheme decides how a task is named in a progress record.
type Scheme string

const (
	// SchemeTaskID keys by "{workflowId}-{taskId}"; checks follow a task
	// when it is reordered.
	SchemeTaskID Scheme = "task-id"
	// SchemePosition keys by "{workflowId}-{index}"; checks stay with the
	// slot. Records written by older versions use this.
	SchemePosition Scheme = "position"
)

// ParseScheme validates a scheme name.
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(s) {
	case SchemeTaskID, SchemePosition:
		return Scheme(s), nil
	default:
		return "", fmt.Errorf("unknown progress key scheme %q (use %s or %s)", s, SchemeTaskID, SchemePosition)
	}
}

// Key names the task at index of workflow workflowID. Tasks without an id
// fall back to their position.
func (s Scheme) Key(workflowID, index int, t store.Task) string {
	if s == SchemeTaskID && t.ID != "" {
		return strconv.Itoa(workflowID) + "-" + t.ID
	}
	return strconv.Itoa(workflowID) + "-" + strconv.Itoa(index)
}
