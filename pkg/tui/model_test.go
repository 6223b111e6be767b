package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefanpenner/daybook/pkg/app"
	"github.com/stefanpenner/daybook/pkg/config"
	"github.com/stefanpenner/daybook/pkg/feedback"
	"github.com/stefanpenner/daybook/pkg/kv"
	"github.com/stefanpenner/daybook/pkg/macro"
)

type harness struct {
	app    *app.App
	events *feedback.Recorder
	urls   *[]string
}

func setupModel(t *testing.T) (Model, harness) {
	t.Helper()
	rec := &feedback.Recorder{}
	var urls []string
	a, err := app.New(context.Background(), config.Default(t.TempDir()), zerolog.Nop(), kv.NewMemory(), app.Options{
		Sink:    rec,
		Links:   macro.LinkOpenerFunc(func(_ context.Context, url string) error { urls = append(urls, url); return nil }),
		Sleeper: macro.SleepFunc(func(ctx context.Context, _ time.Duration) error { return ctx.Err() }),
		Now:     func() time.Time { return time.Date(2026, 10, 19, 9, 0, 0, 0, time.Local) },
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	m := NewModel(context.Background(), a, Feeds{})
	m.width, m.height = 120, 40
	return m, harness{app: a, events: rec, urls: &urls}
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

// press sends keys in order and returns the resulting model and the last
// command.
func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(keyMsg(k))
		m = next.(Model)
	}
	return m, cmd
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	for _, r := range s {
		m, _ = press(t, m, string(r))
	}
	return m
}

func TestNewModelListsWorkflowsCollapsed(t *testing.T) {
	m, h := setupModel(t)
	require.Len(t, m.visibleItems, len(h.app.Store.Workflows()))
	assert.Equal(t, "w1", m.visibleItems[0].ID)
	assert.False(t, m.visibleItems[0].IsTask())
}

func TestInitBatchesFeeds(t *testing.T) {
	m, _ := setupModel(t)
	assert.NotNil(t, m.Init())
}

func TestExpandAndToggleTask(t *testing.T) {
	m, h := setupModel(t)

	m, _ = press(t, m, "l", "j")
	item, ok := m.selected()
	require.True(t, ok)
	require.True(t, item.IsTask())
	assert.Equal(t, 0, item.TaskIndex)

	m, _ = press(t, m, " ")
	w := h.app.Store.Workflows()[0]
	assert.True(t, h.app.IsDone(w.ID, 0, w.Tasks[0]))
	assert.True(t, m.visibleItems[1].Done)
	assert.Equal(t, 20, m.visibleItems[0].Percent)

	m, _ = press(t, m, " ")
	assert.False(t, h.app.IsDone(w.ID, 0, w.Tasks[0]))
	assert.False(t, m.visibleItems[1].Done)
}

func TestLeftFromTaskGoesToWorkflow(t *testing.T) {
	m, _ := setupModel(t)
	m, _ = press(t, m, "l", "j", "j", "h")
	assert.Equal(t, 0, m.cursor)
	m, _ = press(t, m, "h")
	assert.False(t, m.visibleItems[0].IsExpanded)
}

func TestRunWorkflowDoesNotCheckTasks(t *testing.T) {
	m, h := setupModel(t)

	m, cmd := press(t, m, "x")
	require.NotNil(t, cmd)
	require.NotNil(t, m.run)

	// A second run is refused while one is active.
	m, second := press(t, m, "x")
	assert.Nil(t, second)

	msg := cmd()
	done, ok := msg.(RunDoneMsg)
	require.True(t, ok)
	require.NoError(t, done.Err)

	next, _ := m.Update(msg)
	m = next.(Model)
	assert.Nil(t, m.run)
	assert.Empty(t, h.app.Progress.Snapshot())
	assert.Contains(t, h.events.Titles(), "Macro Finished")
	assert.NotEmpty(t, *h.urls)
}

func TestCancelStopsRun(t *testing.T) {
	m, h := setupModel(t)

	m, cmd := press(t, m, "x")
	require.NotNil(t, cmd)
	m, _ = press(t, m, "c")

	done := cmd().(RunDoneMsg)
	assert.ErrorIs(t, done.Err, context.Canceled)
	assert.Contains(t, h.events.Titles(), "Macro Stopped")

	next, _ := m.Update(done)
	m = next.(Model)
	assert.Nil(t, m.run)
	_, showing := m.board.Current()
	assert.False(t, showing, "cancellation is not an error")
}

func TestStepMsgUpdatesRunLabel(t *testing.T) {
	m, _ := setupModel(t)
	m, _ = press(t, m, "x")
	require.NotNil(t, m.run)

	step := macro.Step{WorkflowID: 1, Index: 1, Total: 5, Phase: macro.PhaseDispatch}
	step.Task.Name = "Wait for sign-in"
	next, _ := m.Update(StepMsg(step))
	m = next.(Model)
	assert.Equal(t, `Running "Morning setup" 2/5: Wait for sign-in`, runLabel(m.run))
	m.run.cancel()
}

func TestAddWorkflowAndTask(t *testing.T) {
	m, h := setupModel(t)

	m, _ = press(t, m, "A")
	require.True(t, m.isInputMode)
	m = typeText(t, m, "Weekly review")
	m, _ = press(t, m, "enter")
	assert.False(t, m.isInputMode)

	ws := h.app.Store.Workflows()
	last := ws[len(ws)-1]
	assert.Equal(t, "Weekly review", last.Title)

	m.moveCursorTo(workflowItemID(last.ID))
	m, _ = press(t, m, "a")
	m = typeText(t, m, "Plan")
	m, _ = press(t, m, "enter")

	w, err := h.app.Store.Workflow(last.ID)
	require.NoError(t, err)
	require.Len(t, w.Tasks, 1)
	assert.Equal(t, "Plan", w.Tasks[0].Name)
	assert.True(t, m.expandedState[last.ID])
}

func TestInputEscCancels(t *testing.T) {
	m, h := setupModel(t)
	before := len(h.app.Store.Workflows())
	m, _ = press(t, m, "A")
	m = typeText(t, m, "Nope")
	m, _ = press(t, m, "esc")
	assert.False(t, m.isInputMode)
	assert.Len(t, h.app.Store.Workflows(), before)
}

func TestRenameWorkflowAndTask(t *testing.T) {
	m, h := setupModel(t)

	m, _ = press(t, m, "r")
	m.textInput.SetValue("Mornings")
	m, _ = press(t, m, "enter")
	w, _ := h.app.Store.Workflow(1)
	assert.Equal(t, "Mornings", w.Title)

	m, _ = press(t, m, "l", "j", "r")
	assert.Equal(t, "Open mail", m.textInput.Value())
	m.textInput.SetValue("Inbox")
	_, _ = press(t, m, "enter")
	w, _ = h.app.Store.Workflow(1)
	assert.Equal(t, "Inbox", w.Tasks[0].Name)
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	m, h := setupModel(t)
	before := len(h.app.Store.Workflows())

	m, _ = press(t, m, "d")
	require.NotNil(t, m.confirm)
	assert.Contains(t, m.View(), "Delete Workflow")
	m, _ = press(t, m, "n")
	assert.Nil(t, m.confirm)
	assert.Len(t, h.app.Store.Workflows(), before)

	m, _ = press(t, m, "d", "y")
	assert.Nil(t, m.confirm)
	assert.Len(t, h.app.Store.Workflows(), before-1)
	assert.Equal(t, "w2", m.visibleItems[0].ID)
}

func TestDeleteTask(t *testing.T) {
	m, h := setupModel(t)
	_, _ = press(t, m, "l", "j", "d", "y")
	w, _ := h.app.Store.Workflow(1)
	assert.Len(t, w.Tasks, 4)
	assert.Equal(t, "Wait for sign-in", w.Tasks[0].Name)
}

func TestMoveModeReordersWorkflows(t *testing.T) {
	m, h := setupModel(t)

	m, _ = press(t, m, "m")
	require.True(t, m.isMoveMode)

	// Up at the top is a no-op.
	m, _ = press(t, m, "k")
	assert.Equal(t, 1, h.app.Store.Workflows()[0].ID)

	m, _ = press(t, m, "j")
	assert.Equal(t, 2, h.app.Store.Workflows()[0].ID)
	assert.Equal(t, "w1", m.visibleItems[m.cursor].ID)

	m, _ = press(t, m, "esc")
	assert.False(t, m.isMoveMode)
}

func TestMoveModeReordersTasks(t *testing.T) {
	m, h := setupModel(t)

	m, _ = press(t, m, "l", "j", "m", "j")
	w, _ := h.app.Store.Workflow(1)
	assert.Equal(t, "Wait for sign-in", w.Tasks[0].Name)
	assert.Equal(t, "Open mail", w.Tasks[1].Name)
	assert.Equal(t, "w1/1", m.moveTarget)
	assert.Equal(t, "w1/1", m.visibleItems[m.cursor].ID)
}

func TestSearchFiltersAndClears(t *testing.T) {
	m, h := setupModel(t)
	total := len(h.app.Store.Workflows())

	m, _ = press(t, m, "/")
	require.True(t, m.isSearching)
	m = typeText(t, m, "standup")

	var ids []string
	for _, item := range m.visibleItems {
		ids = append(ids, item.ID)
	}
	assert.Equal(t, []string{"w2", "w2/0"}, ids)
	assert.True(t, m.searchMatchIDs["w2/0"])
	assert.Contains(t, m.View(), "1 matches")

	m, _ = press(t, m, "enter")
	assert.False(t, m.isSearching)
	assert.Equal(t, "standup", m.searchQuery)

	m, _ = press(t, m, "esc")
	assert.Empty(t, m.searchQuery)
	workflows := 0
	for _, item := range m.visibleItems {
		if !item.IsTask() {
			workflows++
		}
	}
	assert.Equal(t, total, workflows)
}

func TestSearchBackspace(t *testing.T) {
	m, _ := setupModel(t)
	m, _ = press(t, m, "/")
	m = typeText(t, m, "zzz")
	assert.Empty(t, m.visibleItems)
	m, _ = press(t, m, "backspace", "backspace", "backspace")
	assert.Empty(t, m.searchQuery)
	assert.NotEmpty(t, m.visibleItems)
}

func TestDayNavigation(t *testing.T) {
	m, h := setupModel(t)

	m, _ = press(t, m, "l", "j", " ")
	m, _ = press(t, m, "[")
	assert.Equal(t, "2026-10-18", h.app.Progress.Date())
	assert.False(t, m.visibleItems[1].Done)
	assert.Contains(t, m.View(), "not today")

	m, _ = press(t, m, "t")
	assert.Equal(t, "2026-10-19", h.app.Progress.Date())
	assert.True(t, m.visibleItems[1].Done)

	_, _ = press(t, m, "]")
	assert.Equal(t, "2026-10-20", h.app.Progress.Date())
}

func TestResetNeedsConfirmation(t *testing.T) {
	m, h := setupModel(t)

	m, _ = press(t, m, "l", "j", " ", "X")
	require.NotNil(t, m.confirm)
	assert.Contains(t, m.confirm.prompt, "2026-10-19")
	m, _ = press(t, m, "y")
	assert.Empty(t, h.app.Progress.Snapshot())
	assert.False(t, m.visibleItems[1].Done)
	assert.Contains(t, h.events.Titles(), "Success")
}

func TestOpenTask(t *testing.T) {
	m, h := setupModel(t)
	_, _ = press(t, m, "l", "j", "o")
	assert.Equal(t, []string{"https://mail.google.com"}, *h.urls)
}

func TestOpenTaskWithoutTarget(t *testing.T) {
	m, h := setupModel(t)
	m.moveCursorTo("w2")
	m, _ = press(t, m, "l", "j", "o")
	assert.Empty(t, *h.urls)
	ev, ok := m.board.Current()
	require.True(t, ok)
	assert.Contains(t, ev.Message, "no target")
}

func TestSidebarOpenAndDismiss(t *testing.T) {
	m, h := setupModel(t)

	m, _ = press(t, m, "tab")
	require.Equal(t, paneSidebar, m.focusedPane)
	item, ok := m.selectedSidebar()
	require.True(t, ok)
	assert.Equal(t, "Calendar", item.Name)

	m, _ = press(t, m, "enter")
	assert.Equal(t, []string{"https://calendar.google.com"}, *h.urls)

	// An alert arriving through the event feed shows up in the sidebar.
	alert, hit := h.app.Watcher.Tick()
	for !hit {
		alert, hit = h.app.Watcher.Tick()
	}
	next, _ := m.Update(EventMsg(feedback.Info("Folder Watcher", "New file detected in Downloads")))
	m = next.(Model)
	last := m.sidebar[len(m.sidebar)-1]
	assert.Equal(t, SectionAlerts, last.Section)
	assert.Equal(t, alert.ID, last.ID)

	m.sidebarCursor = len(m.sidebar) - 1
	m, _ = press(t, m, "d")
	assert.Zero(t, h.app.Inbox.Len())
	for _, it := range m.sidebar {
		assert.NotEqual(t, SectionAlerts, it.Section)
	}
}

func TestSidebarAddRenameRemove(t *testing.T) {
	m, h := setupModel(t)

	m, _ = press(t, m, "tab", "a")
	shortcuts := h.app.Store.Launchers("shortcut")
	require.Len(t, shortcuts, 3)
	assert.Equal(t, "New Shortcut", shortcuts[2].Name)

	m, _ = press(t, m, "r")
	require.True(t, m.isInputMode)
	m.textInput.SetValue("Mail")
	m, _ = press(t, m, "enter")
	assert.Equal(t, "Mail", h.app.Store.Launchers("shortcut")[0].Name)

	_, _ = press(t, m, "d", "y")
	assert.Len(t, h.app.Store.Launchers("shortcut"), 2)
}

func TestInlineEditSavesDocument(t *testing.T) {
	m, h := setupModel(t)

	m, _ = press(t, m, "e")
	require.True(t, m.isEditing)
	doc := m.docEditor.Value()
	assert.True(t, strings.HasPrefix(doc, "---\n"))

	m.docEditor.SetValue(strings.Replace(doc, "title: Morning setup", "title: Early", 1))
	m, _ = press(t, m, "esc")
	assert.False(t, m.isEditing)
	w, _ := h.app.Store.Workflow(1)
	assert.Equal(t, "Early", w.Title)
	assert.Len(t, w.Tasks, 5)
}

func TestInlineEditKeepsEditorOpenOnBadDocument(t *testing.T) {
	m, h := setupModel(t)
	m, _ = press(t, m, "e")
	m.docEditor.SetValue("not a document")
	m, _ = press(t, m, "esc")
	assert.True(t, m.isEditing)
	ev, ok := m.board.Current()
	require.True(t, ok)
	assert.Contains(t, ev.Message, "Save error")

	m, _ = press(t, m, "ctrl+c")
	_ = m
	w, _ := h.app.Store.Workflow(1)
	assert.Equal(t, "Morning setup", w.Title)
}

func TestEventMsgShowsOnBoard(t *testing.T) {
	m, _ := setupModel(t)
	next, cmd := m.Update(EventMsg(feedback.Success("Macro Finished", "All tasks executed.")))
	m = next.(Model)
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "Macro Finished: All tasks executed.")
}

func TestFileChangedReloads(t *testing.T) {
	m, h := setupModel(t)
	_, err := h.app.Store.AddWorkflow(context.Background(), "From CLI")
	require.NoError(t, err)

	next, _ := m.Update(FileChangedMsg{})
	m = next.(Model)
	assert.Equal(t, "From CLI", m.visibleItems[len(m.visibleItems)-1].Name)
}

func TestViewShowsHeaderAndHelp(t *testing.T) {
	m, _ := setupModel(t)
	view := m.View()
	assert.Contains(t, view, "Daybook")
	assert.Contains(t, view, "2026-10-19")
	assert.Contains(t, view, "0/")

	m, _ = press(t, m, "?")
	assert.Contains(t, m.View(), "Keyboard Shortcuts")
	m, _ = press(t, m, "esc")
	assert.False(t, m.showHelpModal)
}

func TestQuit(t *testing.T) {
	m, _ := setupModel(t)
	_, cmd := press(t, m, "q")
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}
