package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stefanpenner/daybook/pkg/kv"
)

// Keys under which each collection is persisted.
const (
	WorkflowsKey = "workflows-store"
	ShortcutsKey = "shortcuts-store"
	ToolsKey     = "tools-store"
	FoldersKey   = "watched-folders-store"
)

var (
	ErrWorkflowNotFound = errors.New("workflow not found")
	ErrTaskNotFound     = errors.New("task not found")
	ErrLauncherNotFound = errors.New("launcher not found")
	ErrFolderNotFound   = errors.New("watched folder not found")
	ErrUnknownIcon      = errors.New("unknown icon")
	ErrInvalidKind      = errors.New("invalid task kind")
	ErrInvalidField     = errors.New("invalid field")
)

// Store owns the workflow, shortcut, tool, and watched folder collections.
// Every mutation is written through to the key-value store before it becomes
// visible; a failed write leaves the in-memory state unchanged.
type Store struct {
	kv    kv.Store
	log   zerolog.Logger
	newID func() string

	mu        sync.RWMutex
	workflows []Workflow
	shortcuts []Launcher
	tools     []Launcher
	folders   []WatchedFolder
}

// Open loads every collection from backend, seeding defaults for the ones
// that were never saved.
func Open(ctx context.Context, backend kv.Store, logger zerolog.Logger) (*Store, error) {
	s := &Store{kv: backend, log: logger, newID: uuid.NewString}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads every collection from the key-value store.
func (s *Store) Reload(ctx context.Context) error {
	workflows, err := loadOrSeed(ctx, s, WorkflowsKey, DefaultWorkflows)
	if err != nil {
		return err
	}
	if s.mintTaskIDs(workflows) {
		if err := s.putJSON(ctx, WorkflowsKey, workflows); err != nil {
			return err
		}
	}
	shortcuts, err := loadOrSeed(ctx, s, ShortcutsKey, DefaultShortcuts)
	if err != nil {
		return err
	}
	tools, err := loadOrSeed(ctx, s, ToolsKey, DefaultTools)
	if err != nil {
		return err
	}
	folders, err := loadOrSeed(ctx, s, FoldersKey, DefaultFolders)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.workflows, s.shortcuts, s.tools, s.folders = workflows, shortcuts, tools, folders
	s.mu.Unlock()
	return nil
}

func loadOrSeed[T any](ctx context.Context, s *Store, key string, seed func() []T) ([]T, error) {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", key, err)
	}
	if !ok {
		items := seed()
		s.log.Debug().Str("key", key).Int("count", len(items)).Msg("seeding defaults")
		if err := s.putJSON(ctx, key, items); err != nil {
			return nil, err
		}
		return items, nil
	}
	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", key, err)
	}
	return items, nil
}

func (s *Store) putJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := s.kv.Put(ctx, key, string(data)); err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}

// mintTaskIDs gives every task without an id a fresh one. It reports whether
// anything changed.
func (s *Store) mintTaskIDs(workflows []Workflow) bool {
	changed := false
	for i := range workflows {
		for j := range workflows[i].Tasks {
			if workflows[i].Tasks[j].ID == "" {
				workflows[i].Tasks[j].ID = s.newID()
				changed = true
			}
		}
	}
	return changed
}

func cloneWorkflows(ws []Workflow) []Workflow {
	out := make([]Workflow, len(ws))
	for i, w := range ws {
		out[i] = w.Clone()
	}
	return out
}

// commit applies fn to a copy of *slot, persists the result under key, and
// only then swaps it in.
func commit[T any](ctx context.Context, s *Store, key string, slot *[]T, clone func([]T) []T, fn func([]T) ([]T, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(clone(*slot))
	if err != nil {
		return err
	}
	if err := s.putJSON(ctx, key, next); err != nil {
		return err
	}
	*slot = next
	return nil
}

func (s *Store) updateWorkflows(ctx context.Context, fn func([]Workflow) ([]Workflow, error)) error {
	return commit(ctx, s, WorkflowsKey, &s.workflows, cloneWorkflows, fn)
}

func nextID[T any](items []T, id func(T) int) int {
	highest := 0
	for _, it := range items {
		if v := id(it); v > highest {
			highest = v
		}
	}
	return highest + 1
}

func indexOfWorkflow(ws []Workflow, id int) int {
	return slices.IndexFunc(ws, func(w Workflow) bool { return w.ID == id })
}

// swap exchanges items i and i+delta. It reports false at the list boundary.
func swap[T any](items []T, i, delta int) bool {
	j := i + delta
	if i < 0 || i >= len(items) || j < 0 || j >= len(items) {
		return false
	}
	items[i], items[j] = items[j], items[i]
	return true
}

// Workflows returns a copy of all workflows in display order.
func (s *Store) Workflows() []Workflow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneWorkflows(s.workflows)
}

// Workflow returns a copy of the workflow with the given id.
func (s *Store) Workflow(id int) (Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := indexOfWorkflow(s.workflows, id)
	if idx == -1 {
		return Workflow{}, fmt.Errorf("%w: %d", ErrWorkflowNotFound, id)
	}
	return s.workflows[idx].Clone(), nil
}

// Search returns workflows whose title or any task name contains query,
// case-insensitively. An empty query returns every workflow.
func (s *Store) Search(query string) []Workflow {
	all := s.Workflows()
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return all
	}
	var matches []Workflow
	for _, w := range all {
		if MatchesQuery(w, q) {
			matches = append(matches, w)
		}
	}
	return matches
}

// MatchesQuery reports whether the lower-cased query matches the workflow
// title or one of its task names.
func MatchesQuery(w Workflow, q string) bool {
	if strings.Contains(strings.ToLower(w.Title), q) {
		return true
	}
	for _, t := range w.Tasks {
		if strings.Contains(strings.ToLower(t.Name), q) {
			return true
		}
	}
	return false
}

// AddWorkflow appends an empty workflow with id max(existing)+1.
func (s *Store) AddWorkflow(ctx context.Context, title string) (Workflow, error) {
	if strings.TrimSpace(title) == "" {
		title = NewWorkflowTitle
	}
	var created Workflow
	err := s.updateWorkflows(ctx, func(ws []Workflow) ([]Workflow, error) {
		created = Workflow{
			ID:    nextID(ws, func(w Workflow) int { return w.ID }),
			Title: title,
			Tasks: []Task{},
		}
		return append(ws, created), nil
	})
	return created, err
}

// RenameWorkflow sets a workflow's title.
func (s *Store) RenameWorkflow(ctx context.Context, id int, title string) error {
	return s.updateWorkflows(ctx, func(ws []Workflow) ([]Workflow, error) {
		idx := indexOfWorkflow(ws, id)
		if idx == -1 {
			return nil, fmt.Errorf("%w: %d", ErrWorkflowNotFound, id)
		}
		ws[idx].Title = title
		return ws, nil
	})
}

// DeleteWorkflow removes a workflow and its tasks. Progress records that
// reference it are left alone.
func (s *Store) DeleteWorkflow(ctx context.Context, id int) error {
	return s.updateWorkflows(ctx, func(ws []Workflow) ([]Workflow, error) {
		idx := indexOfWorkflow(ws, id)
		if idx == -1 {
			return nil, fmt.Errorf("%w: %d", ErrWorkflowNotFound, id)
		}
		return slices.Delete(ws, idx, idx+1), nil
	})
}

// MoveWorkflow swaps a workflow with its neighbour in the given direction.
// It reports false, and changes nothing, at the list boundary.
func (s *Store) MoveWorkflow(ctx context.Context, id int, dir Direction) (bool, error) {
	moved := false
	err := s.updateWorkflows(ctx, func(ws []Workflow) ([]Workflow, error) {
		idx := indexOfWorkflow(ws, id)
		if idx == -1 {
			return nil, fmt.Errorf("%w: %d", ErrWorkflowNotFound, id)
		}
		moved = swap(ws, idx, dir.delta())
		return ws, nil
	})
	if err != nil || !moved {
		return false, err
	}
	return true, nil
}

// PutWorkflow replaces the workflow with the same id, keeping its position.
// Tasks without an id get one.
func (s *Store) PutWorkflow(ctx context.Context, w Workflow) error {
	w = w.Clone()
	s.mintTaskIDs([]Workflow{w})
	return s.updateWorkflows(ctx, func(ws []Workflow) ([]Workflow, error) {
		idx := indexOfWorkflow(ws, w.ID)
		if idx == -1 {
			return nil, fmt.Errorf("%w: %d", ErrWorkflowNotFound, w.ID)
		}
		ws[idx] = w
		return ws, nil
	})
}

// updateTask runs fn on the workflow with the given id after checking that
// index addresses one of its tasks.
func (s *Store) updateTask(ctx context.Context, workflowID, index int, fn func(w *Workflow) error) error {
	return s.updateWorkflows(ctx, func(ws []Workflow) ([]Workflow, error) {
		idx := indexOfWorkflow(ws, workflowID)
		if idx == -1 {
			return nil, fmt.Errorf("%w: %d", ErrWorkflowNotFound, workflowID)
		}
		if index < 0 || index >= len(ws[idx].Tasks) {
			return nil, fmt.Errorf("%w: workflow %d has no task %d", ErrTaskNotFound, workflowID, index+1)
		}
		if err := fn(&ws[idx]); err != nil {
			return nil, err
		}
		return ws, nil
	})
}

// AddTask appends a "New Task" link with no target and returns its index.
func (s *Store) AddTask(ctx context.Context, workflowID int) (int, Task, error) {
	task := Task{ID: s.newID(), Name: NewTaskName, Kind: KindLink}
	index := -1
	err := s.updateWorkflows(ctx, func(ws []Workflow) ([]Workflow, error) {
		idx := indexOfWorkflow(ws, workflowID)
		if idx == -1 {
			return nil, fmt.Errorf("%w: %d", ErrWorkflowNotFound, workflowID)
		}
		ws[idx].Tasks = append(ws[idx].Tasks, task)
		index = len(ws[idx].Tasks) - 1
		return ws, nil
	})
	if err != nil {
		return -1, Task{}, err
	}
	return index, task, nil
}

// TaskField names an editable task attribute.
type TaskField string

const (
	FieldName   TaskField = "name"
	FieldKind   TaskField = "type"
	FieldTarget TaskField = "link"
	FieldValue  TaskField = "value"
	FieldX      TaskField = "x"
	FieldY      TaskField = "y"
	FieldWidth  TaskField = "width"
	FieldHeight TaskField = "height"
)

// ParseTaskField maps user input to a TaskField, accepting "kind" and
// "target" as aliases.
func ParseTaskField(s string) (TaskField, error) {
	switch strings.ToLower(s) {
	case "name":
		return FieldName, nil
	case "type", "kind":
		return FieldKind, nil
	case "link", "target":
		return FieldTarget, nil
	case "value":
		return FieldValue, nil
	case "x":
		return FieldX, nil
	case "y":
		return FieldY, nil
	case "width", "w":
		return FieldWidth, nil
	case "height", "h":
		return FieldHeight, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidField, s)
	}
}

// SetTaskField edits one attribute of the task at index. Geometry fields
// parse leniently: anything that is not a number becomes 0, and a task with
// no placement starts from DefaultPlacement.
func (s *Store) SetTaskField(ctx context.Context, workflowID, index int, field TaskField, value string) error {
	return s.updateTask(ctx, workflowID, index, func(w *Workflow) error {
		t := &w.Tasks[index]
		switch field {
		case FieldName:
			t.Name = value
		case FieldKind:
			kind, err := ParseTaskKind(value)
			if err != nil {
				return err
			}
			t.Kind = kind
		case FieldTarget:
			t.Target = value
		case FieldValue:
			t.Value = value
		case FieldX, FieldY, FieldWidth, FieldHeight:
			p := DefaultPlacement
			if t.Placement != nil {
				p = *t.Placement
			}
			n := LeadingInt(value, 0)
			switch field {
			case FieldX:
				p.X = n
			case FieldY:
				p.Y = n
			case FieldWidth:
				p.Width = n
			default:
				p.Height = n
			}
			t.Placement = &p
		default:
			return fmt.Errorf("%w: %q", ErrInvalidField, field)
		}
		return nil
	})
}

// ClearPlacement removes the window placement from the task at index.
func (s *Store) ClearPlacement(ctx context.Context, workflowID, index int) error {
	return s.updateTask(ctx, workflowID, index, func(w *Workflow) error {
		w.Tasks[index].Placement = nil
		return nil
	})
}

// DeleteTask removes the task at index and returns it.
func (s *Store) DeleteTask(ctx context.Context, workflowID, index int) (Task, error) {
	var removed Task
	err := s.updateTask(ctx, workflowID, index, func(w *Workflow) error {
		removed = w.Tasks[index]
		w.Tasks = slices.Delete(w.Tasks, index, index+1)
		return nil
	})
	return removed, err
}

// MoveTask swaps the task at index with its neighbour. It reports false at
// the list boundary.
func (s *Store) MoveTask(ctx context.Context, workflowID, index int, dir Direction) (bool, error) {
	moved := false
	err := s.updateTask(ctx, workflowID, index, func(w *Workflow) error {
		moved = swap(w.Tasks, index, dir.delta())
		return nil
	})
	if err != nil || !moved {
		return false, err
	}
	return true, nil
}

func (s *Store) launcherSlot(kind LauncherKind) (string, *[]Launcher, error) {
	switch kind {
	case Shortcuts:
		return ShortcutsKey, &s.shortcuts, nil
	case Tools:
		return ToolsKey, &s.tools, nil
	default:
		return "", nil, fmt.Errorf("unknown launcher kind: %s", kind)
	}
}

func (s *Store) updateLaunchers(ctx context.Context, kind LauncherKind, fn func([]Launcher) ([]Launcher, error)) error {
	key, slot, err := s.launcherSlot(kind)
	if err != nil {
		return err
	}
	return commit(ctx, s, key, slot, slices.Clone[[]Launcher], fn)
}

func indexOfLauncher(ls []Launcher, id int) int {
	return slices.IndexFunc(ls, func(l Launcher) bool { return l.ID == id })
}

// Launchers returns a copy of the shortcut or tool collection.
func (s *Store) Launchers(kind LauncherKind) []Launcher {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch kind {
	case Shortcuts:
		return slices.Clone(s.shortcuts)
	case Tools:
		return slices.Clone(s.tools)
	default:
		return nil
	}
}

// AddLauncher appends a new shortcut or tool with the default name and icon.
func (s *Store) AddLauncher(ctx context.Context, kind LauncherKind) (Launcher, error) {
	var created Launcher
	err := s.updateLaunchers(ctx, kind, func(ls []Launcher) ([]Launcher, error) {
		created = Launcher{ID: nextID(ls, func(l Launcher) int { return l.ID }), Name: NewShortcutName, Icon: ShortcutIcon}
		if kind == Tools {
			created.Name, created.Icon = NewToolName, ToolIcon
		}
		return append(ls, created), nil
	})
	return created, err
}

// UpdateLauncher sets the name, link, or icon of a shortcut or tool.
// Icons must come from the catalog.
func (s *Store) UpdateLauncher(ctx context.Context, kind LauncherKind, id int, field, value string) error {
	return s.updateLaunchers(ctx, kind, func(ls []Launcher) ([]Launcher, error) {
		idx := indexOfLauncher(ls, id)
		if idx == -1 {
			return nil, fmt.Errorf("%w: %s %d", ErrLauncherNotFound, kind, id)
		}
		switch field {
		case "name":
			ls[idx].Name = value
		case "link":
			ls[idx].Link = value
		case "icon":
			if !IsKnownIcon(value) {
				return nil, fmt.Errorf("%w: %s", ErrUnknownIcon, value)
			}
			ls[idx].Icon = value
		default:
			return nil, fmt.Errorf("%w: %q", ErrInvalidField, field)
		}
		return ls, nil
	})
}

// RemoveLauncher deletes a shortcut or tool.
func (s *Store) RemoveLauncher(ctx context.Context, kind LauncherKind, id int) error {
	return s.updateLaunchers(ctx, kind, func(ls []Launcher) ([]Launcher, error) {
		idx := indexOfLauncher(ls, id)
		if idx == -1 {
			return nil, fmt.Errorf("%w: %s %d", ErrLauncherNotFound, kind, id)
		}
		return slices.Delete(ls, idx, idx+1), nil
	})
}

func (s *Store) updateFolders(ctx context.Context, fn func([]WatchedFolder) ([]WatchedFolder, error)) error {
	return commit(ctx, s, FoldersKey, &s.folders, slices.Clone[[]WatchedFolder], fn)
}

func indexOfFolder(fs []WatchedFolder, id int) int {
	return slices.IndexFunc(fs, func(f WatchedFolder) bool { return f.ID == id })
}

// Folders returns a copy of the watched folders.
func (s *Store) Folders() []WatchedFolder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.folders)
}

// AddFolder appends a watched folder. Empty name or path fall back to the
// defaults.
func (s *Store) AddFolder(ctx context.Context, name, path string) (WatchedFolder, error) {
	if name == "" {
		name = NewFolderName
	}
	if path == "" {
		path = DefaultFolderPath()
	}
	var created WatchedFolder
	err := s.updateFolders(ctx, func(fs []WatchedFolder) ([]WatchedFolder, error) {
		created = WatchedFolder{ID: nextID(fs, func(f WatchedFolder) int { return f.ID }), Name: name, Path: path}
		return append(fs, created), nil
	})
	return created, err
}

// UpdateFolder sets the name or path of a watched folder.
func (s *Store) UpdateFolder(ctx context.Context, id int, field, value string) error {
	return s.updateFolders(ctx, func(fs []WatchedFolder) ([]WatchedFolder, error) {
		idx := indexOfFolder(fs, id)
		if idx == -1 {
			return nil, fmt.Errorf("%w: %d", ErrFolderNotFound, id)
		}
		switch field {
		case "name":
			fs[idx].Name = value
		case "path":
			fs[idx].Path = value
		default:
			return nil, fmt.Errorf("%w: %q", ErrInvalidField, field)
		}
		return fs, nil
	})
}

// RemoveFolder deletes a watched folder.
func (s *Store) RemoveFolder(ctx context.Context, id int) error {
	return s.updateFolders(ctx, func(fs []WatchedFolder) ([]WatchedFolder, error) {
		idx := indexOfFolder(fs, id)
		if idx == -1 {
			return nil, fmt.Errorf("%w: %d", ErrFolderNotFound, id)
		}
		return slices.Delete(fs, idx, idx+1), nil
	})
}
