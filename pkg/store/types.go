package store

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// TaskKind selects what a task does when it is dispatched or run.
type TaskKind string

const (
	KindLink  TaskKind = "link"
	KindDelay TaskKind = "delay"
	KindKeys  TaskKind = "keys"
)

// ParseTaskKind maps user input to a TaskKind. Empty input is a link.
func ParseTaskKind(s string) (TaskKind, error) {
	switch TaskKind(strings.ToLower(strings.TrimSpace(s))) {
	case "", KindLink:
		return KindLink, nil
	case KindDelay:
		return KindDelay, nil
	case KindKeys:
		return KindKeys, nil
	default:
		return "", fmt.Errorf("%w: %q (use link, delay, or keys)", ErrInvalidKind, s)
	}
}

// Placement is a window geometry hint for link tasks. It is descriptive only.
type Placement struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// DefaultPlacement is the geometry a placement starts from when one of its
// fields is edited on a task that has none.
var DefaultPlacement = Placement{X: 0, Y: 0, Width: 800, Height: 600}

// String renders the placement as "WxH at X,Y".
func (p Placement) String() string {
	return fmt.Sprintf("%dx%d at %d,%d", p.Width, p.Height, p.X, p.Y)
}

// UnmarshalJSON accepts numbers or numeric strings for every field.
// Anything unparseable becomes 0.
func (p *Placement) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.X = looseInt(raw["x"])
	p.Y = looseInt(raw["y"])
	p.Width = looseInt(raw["width"])
	p.Height = looseInt(raw["height"])
	return nil
}

func looseInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		return LeadingInt(n, 0)
	default:
		return 0
	}
}

// LeadingInt parses the leading integer of s ("250ms" is 250). It returns
// fallback when s does not start with a number that fits in an int.
func LeadingInt(s string, fallback int) int {
	if n, ok := leadingInt(s); ok {
		return n
	}
	return fallback
}

func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// MaxDelay is the longest wait a delay task can ask for.
const MaxDelay = time.Duration(math.MaxInt64 / int64(time.Millisecond) * int64(time.Millisecond))

// DelayMillis is the wait a delay value asks for in milliseconds: its
// leading integer, or fallback when it has none. The result is clamped to
// [0, MaxDelay] so it always converts to a time.Duration.
func DelayMillis(value string, fallback int64) int64 {
	ms := fallback
	if n, ok := leadingInt(value); ok {
		ms = int64(n)
	}
	return min(max(ms, 0), MaxDelay.Milliseconds())
}

// HasDelayValue reports whether a delay value carries its own number.
// Values without one wait the configured fallback.
func HasDelayValue(value string) bool {
	_, ok := leadingInt(value)
	return ok
}

// Task is one automation step. Which of Target and Value is used depends on Kind.
type Task struct {
	ID        string     `json:"id,omitempty" yaml:"id,omitempty"`
	Name      string     `json:"name" yaml:"name"`
	Kind      TaskKind   `json:"type,omitempty" yaml:"kind,omitempty"`
	Target    string     `json:"link,omitempty" yaml:"target,omitempty"`
	Value     string     `json:"value,omitempty" yaml:"value,omitempty"`
	Placement *Placement `json:"windowConfig,omitempty" yaml:"window,omitempty"`
}

// ResolvedKind returns the task kind, treating an unset kind as a link.
func (t Task) ResolvedKind() TaskKind {
	if t.Kind == "" {
		return KindLink
	}
	return t.Kind
}

// HasTarget reports whether a link task points somewhere. "" and "#" do not.
func (t Task) HasTarget() bool {
	return t.Target != "" && t.Target != "#"
}

// Workflow is an ordered, titled list of tasks.
type Workflow struct {
	ID    int    `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
	Tasks []Task `json:"tasks" yaml:"tasks"`
}

// Clone returns a deep copy of the workflow.
func (w Workflow) Clone() Workflow {
	c := w
	c.Tasks = make([]Task, len(w.Tasks))
	for i, t := range w.Tasks {
		if t.Placement != nil {
			p := *t.Placement
			t.Placement = &p
		}
		c.Tasks[i] = t
	}
	return c
}

// Launcher is a sidebar entry: a named link with an icon.
// Shortcuts and tools share this shape.
type Launcher struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Link string `json:"link"`
	Icon string `json:"icon"`
}

// LauncherKind selects the shortcut or tool collection.
type LauncherKind string

const (
	Shortcuts LauncherKind = "shortcut"
	Tools     LauncherKind = "tool"
)

// WatchedFolder is a configured path for the simulated folder watcher.
type WatchedFolder struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Path string `json:"path"`
}

// Direction is a one-step move within an ordered list.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// ParseDirection maps "up"/"down" to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(s)) {
	case Up:
		return Up, nil
	case Down:
		return Down, nil
	default:
		return "", fmt.Errorf("invalid direction: %s (use up or down)", s)
	}
}

func (d Direction) delta() int {
	if d == Up {
		return -1
	}
	return 1
}

// Snapshot is the export document.
type Snapshot struct {
	Workflows      []Workflow      `json:"workflows"`
	Shortcuts      []Launcher      `json:"shortcuts"`
	Tools          []Launcher      `json:"tools"`
	WatchedFolders []WatchedFolder `json:"watchedFolders"`
}
