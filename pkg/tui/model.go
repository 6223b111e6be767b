package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/stefanpenner/daybook/pkg/app"
	"github.com/stefanpenner/daybook/pkg/feedback"
	"github.com/stefanpenner/daybook/pkg/macro"
	"github.com/stefanpenner/daybook/pkg/store"
)

// FileChangedMsg is sent when the file watcher detects changes.
type FileChangedMsg struct{}

// SyncDoneMsg is sent when the backup sync completes.
type SyncDoneMsg struct {
	Committed bool
	Pushed    bool
	Err       error
}

// EditorFinishedMsg is sent when $EDITOR returns.
type EditorFinishedMsg struct {
	WorkflowID int
	Path       string
	Err        error
}

// EventMsg carries a notification from the app's sink.
type EventMsg feedback.Event

// StepMsg carries a runner phase transition.
type StepMsg macro.Step

// RunDoneMsg is sent when a macro run returns.
type RunDoneMsg struct {
	WorkflowID int
	Err        error
}

type expireMsg struct{}

// Feeds are the channels the app writes into while the TUI is running.
type Feeds struct {
	Events feedback.ChanSink
	Steps  chan macro.Step
}

// NewFeeds allocates buffered feeds.
func NewFeeds() Feeds {
	return Feeds{
		Events: make(feedback.ChanSink, 64),
		Steps:  make(chan macro.Step, 64),
	}
}

// StepHook forwards a step without blocking the runner.
func (f Feeds) StepHook(s macro.Step) {
	select {
	case f.Steps <- s:
	default:
	}
}

func waitForEvent(ch <-chan feedback.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return nil
		}
		return EventMsg(e)
	}
}

func waitForStep(ch <-chan macro.Step) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return StepMsg(s)
	}
}

type pane int

const (
	paneTree pane = iota
	paneSidebar
)

// confirmation is an action waiting for y/n.
type confirmation struct {
	title   string
	prompt  string
	run     func(ctx context.Context) error
	success string
}

// runState tracks the macro started from the TUI.
type runState struct {
	workflowID int
	title      string
	cancel     context.CancelFunc
	step       macro.Step
}

// Model is the Bubble Tea model for the dashboard.
type Model struct {
	ctx   context.Context
	app   *app.App
	feeds Feeds
	board *feedback.Board
	keys  KeyMap

	width  int
	height int

	workflows     []store.Workflow
	visibleItems  []TreeItem
	expandedState map[int]bool
	cursor        int
	focusedPane   pane
	notesScroll   int

	sidebar       []SidebarItem
	sidebarCursor int

	// Modal state
	showHelpModal bool
	confirm       *confirmation

	// Move mode
	isMoveMode bool
	moveTarget string // item ID

	// Input mode, shared by add and rename
	isInputMode      bool
	textInput        textinput.Model
	inputPane        pane
	inputReplaceID   string // row replaced by the input while renaming
	inputDepth       int
	inputInsertAfter int
	inputCommit      func(ctx context.Context, value string) (string, error)

	// Inline document edit
	isEditing      bool
	docEditor      textarea.Model
	editWorkflowID int

	// Search state
	isSearching    bool
	searchQuery    string
	searchMatchIDs map[string]bool
	searchAncIDs   map[string]bool

	run *runState

	// Cached glamour renderer (expensive to create)
	glamourRenderer *glamour.TermRenderer
	glamourWidth    int

	allExpanded bool
}

// NewModel creates a new TUI model. feeds may be zero when nothing is
// streamed from the app.
func NewModel(ctx context.Context, a *app.App, feeds Feeds) Model {
	ti := textinput.New()
	ti.CharLimit = 120

	m := Model{
		ctx:           ctx,
		app:           a,
		feeds:         feeds,
		board:         feedback.NewBoard(a.Config.Notify.TTL),
		keys:          DefaultKeyMap(),
		expandedState: make(map[int]bool),
		textInput:     ti,
	}
	m.reload()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tea.WindowSize(), waitForEvent(m.feeds.Events), waitForStep(m.feeds.Steps))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		_, right := panelWidths(msg.Width)
		m.getGlamourRenderer(right - 2)
		if m.isEditing {
			m.sizeEditor()
		}
		m.reload()
		return m, tea.ClearScreen

	case FileChangedMsg:
		if err := m.app.Reload(m.ctx); err != nil {
			m.setError(err)
		}
		m.reload()
		return m, nil

	case SyncDoneMsg:
		switch {
		case msg.Err != nil:
			m.setStatus("Sync failed: " + msg.Err.Error())
		case msg.Pushed:
			m.setStatus("Synced successfully")
		case msg.Committed:
			m.setStatus("Snapshot committed (no remote)")
		default:
			m.setStatus("Nothing to sync")
		}
		return m, nil

	case EditorFinishedMsg:
		m.finishExternalEdit(msg)
		m.reload()
		return m, nil

	case EventMsg:
		m.board.Notify(feedback.Event(msg))
		m.reload()
		ttl := m.board.TTL()
		return m, tea.Batch(
			waitForEvent(m.feeds.Events),
			tea.Tick(ttl, func(time.Time) tea.Msg { return expireMsg{} }),
		)

	case StepMsg:
		if m.run != nil && m.run.workflowID == msg.WorkflowID {
			m.run.step = macro.Step(msg)
		}
		return m, waitForStep(m.feeds.Steps)

	case RunDoneMsg:
		if m.run != nil && m.run.workflowID == msg.WorkflowID {
			m.run = nil
		}
		if msg.Err != nil && !errors.Is(msg.Err, context.Canceled) {
			m.setError(msg.Err)
		}
		return m, nil

	case expireMsg:
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	if m.isInputMode {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd
	}

	if m.isEditing {
		var cmd tea.Cmd
		m.docEditor, cmd = m.docEditor.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.isInputMode {
		switch msg.Type {
		case tea.KeyEsc:
			m.isInputMode = false
			return m, nil
		case tea.KeyEnter:
			value := strings.TrimSpace(m.textInput.Value())
			if value != "" && m.inputCommit != nil {
				status, err := m.inputCommit(m.ctx, value)
				if err != nil {
					m.setError(err)
				} else {
					m.setStatus(status)
					m.reload()
				}
			}
			m.isInputMode = false
			return m, nil
		default:
			var cmd tea.Cmd
			m.textInput, cmd = m.textInput.Update(msg)
			return m, cmd
		}
	}

	if m.isEditing {
		return m.handleEditMode(msg)
	}

	if m.isSearching {
		return m.handleSearchInput(msg)
	}

	if m.showHelpModal {
		switch msg.String() {
		case "esc", "enter", "?", "q":
			m.showHelpModal = false
		}
		return m, nil
	}

	if m.isMoveMode {
		return m.handleMoveMode(msg)
	}

	if m.confirm != nil {
		switch msg.String() {
		case "y", "Y":
			c := m.confirm
			m.confirm = nil
			if err := c.run(m.ctx); err != nil {
				m.setError(err)
			} else {
				if c.success != "" {
					m.setStatus(c.success)
				}
				m.reload()
			}
		case "n", "N", "esc":
			m.confirm = nil
		}
		return m, nil
	}

	// An active filter is cleared by Esc/Enter once typing is done.
	if m.searchQuery != "" && (msg.Type == tea.KeyEsc || msg.Type == tea.KeyEnter) {
		var curID string
		if item, ok := m.selected(); ok {
			curID = item.ID
		}
		m.clearSearch()
		m.rebuildVisible()
		m.moveCursorTo(curID)
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.run != nil {
			m.run.cancel()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Tab):
		if m.focusedPane == paneTree {
			m.focusedPane = paneSidebar
			m.clampSidebar(1)
		} else {
			m.focusedPane = paneTree
		}
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.showHelpModal = !m.showHelpModal
		return m, nil

	case key.Matches(msg, m.keys.PrevDay):
		m.shiftDay(-1)
		return m, nil

	case key.Matches(msg, m.keys.NextDay):
		m.shiftDay(1)
		return m, nil

	case key.Matches(msg, m.keys.Today):
		if err := m.app.SwitchDate(m.ctx, m.app.Today()); err != nil {
			m.setError(err)
		}
		m.rebuildVisible()
		return m, nil

	case key.Matches(msg, m.keys.Cancel):
		if m.run != nil {
			m.run.cancel()
		} else {
			m.setStatus("Nothing is running")
		}
		return m, nil

	case key.Matches(msg, m.keys.Reset):
		date := m.app.Progress.Date()
		m.confirm = &confirmation{
			title:  "Reset Progress",
			prompt: fmt.Sprintf("Uncheck every task on %s?", date),
			run:    m.app.ResetProgress,
		}
		return m, nil

	case key.Matches(msg, m.keys.Reload):
		if err := m.app.Reload(m.ctx); err != nil {
			m.setError(err)
		} else {
			m.setStatus("Reloaded")
		}
		m.reload()
		return m, nil

	case key.Matches(msg, m.keys.Sync):
		m.setStatus("Syncing...")
		cmd := m.doSync()
		return m, cmd
	}

	if m.focusedPane == paneSidebar {
		return m.handleSidebarKey(msg)
	}
	return m.handleTreeKey(msg)
}

func (m Model) handleTreeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		m.notesScroll = 0

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.visibleItems)-1 {
			m.cursor++
		}
		m.notesScroll = 0

	case key.Matches(msg, m.keys.Right):
		if item, ok := m.selected(); ok && !item.IsTask() && item.HasChildren {
			m.expandedState[item.WorkflowID] = true
			m.rebuildVisible()
		}

	case key.Matches(msg, m.keys.Left):
		if item, ok := m.selected(); ok {
			if item.IsTask() {
				m.moveCursorTo(item.ParentID)
			} else if item.IsExpanded {
				m.expandedState[item.WorkflowID] = false
				m.rebuildVisible()
			}
		}

	case key.Matches(msg, m.keys.Enter):
		if item, ok := m.selected(); ok && !item.IsTask() && item.HasChildren {
			m.expandedState[item.WorkflowID] = !m.expandedState[item.WorkflowID]
			m.rebuildVisible()
		}

	case key.Matches(msg, m.keys.Space):
		item, ok := m.selected()
		if !ok {
			break
		}
		if !item.IsTask() {
			if item.HasChildren {
				m.expandedState[item.WorkflowID] = !m.expandedState[item.WorkflowID]
				m.rebuildVisible()
			}
			break
		}
		if _, err := m.app.ToggleTask(m.ctx, item.WorkflowID, item.TaskIndex); err != nil {
			m.setError(err)
		}
		m.rebuildVisible()

	case key.Matches(msg, m.keys.Run):
		if item, ok := m.selected(); ok {
			cmd := m.startRun(item.WorkflowID)
			return m, cmd
		}

	case key.Matches(msg, m.keys.Open):
		item, ok := m.selected()
		if !ok || !item.IsTask() {
			break
		}
		_, dispatched, err := m.app.OpenTask(m.ctx, item.WorkflowID, item.TaskIndex)
		if err != nil {
			m.setError(err)
		} else if !dispatched {
			m.setStatus("Nothing to open: " + item.Name + " has no target")
		}

	case key.Matches(msg, m.keys.InlineEdit):
		if item, ok := m.selected(); ok {
			if err := m.enterEditMode(item.WorkflowID); err != nil {
				m.setError(err)
				break
			}
			return m, textarea.Blink
		}

	case key.Matches(msg, m.keys.ExternalEdit):
		if item, ok := m.selected(); ok {
			cmd := m.openEditor(item.WorkflowID)
			return m, cmd
		}

	case key.Matches(msg, m.keys.AddTop):
		st := m.app.Store
		m.startInput(paneTree, "", 0, len(m.visibleItems)-1, "workflow title", "",
			func(ctx context.Context, title string) (string, error) {
				w, err := st.AddWorkflow(ctx, title)
				if err != nil {
					return "", err
				}
				return "Created: " + w.Title, nil
			})
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Add):
		item, ok := m.selected()
		if !ok {
			break
		}
		wfID := item.WorkflowID
		m.expandedState[wfID] = true
		m.rebuildVisible()
		after := m.lastRowOf(wfID)
		st := m.app.Store
		m.startInput(paneTree, "", 1, after, "task name", "",
			func(ctx context.Context, name string) (string, error) {
				idx, _, err := st.AddTask(ctx, wfID)
				if err != nil {
					return "", err
				}
				if err := st.SetTaskField(ctx, wfID, idx, store.FieldName, name); err != nil {
					return "", err
				}
				return "Added task: " + name, nil
			})
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Rename):
		item, ok := m.selected()
		if !ok {
			break
		}
		st := m.app.Store
		if item.IsTask() {
			m.startInput(paneTree, item.ID, item.Depth, m.cursor, "task name", item.Task.Name,
				func(ctx context.Context, name string) (string, error) {
					if err := st.SetTaskField(ctx, item.WorkflowID, item.TaskIndex, store.FieldName, name); err != nil {
						return "", err
					}
					return "Renamed to: " + name, nil
				})
		} else {
			m.startInput(paneTree, item.ID, item.Depth, m.cursor, "workflow title", item.Name,
				func(ctx context.Context, title string) (string, error) {
					if err := st.RenameWorkflow(ctx, item.WorkflowID, title); err != nil {
						return "", err
					}
					return "Renamed to: " + title, nil
				})
		}
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Delete):
		item, ok := m.selected()
		if !ok {
			break
		}
		st := m.app.Store
		if item.IsTask() {
			m.confirm = &confirmation{
				title:  "Delete Task",
				prompt: fmt.Sprintf("Delete task '%s'?", item.Name),
				run: func(ctx context.Context) error {
					_, err := st.DeleteTask(ctx, item.WorkflowID, item.TaskIndex)
					return err
				},
				success: "Deleted: " + item.Name,
			}
		} else {
			m.confirm = &confirmation{
				title:  "Delete Workflow",
				prompt: fmt.Sprintf("Delete '%s' and all of its tasks?", item.Name),
				run: func(ctx context.Context) error {
					return st.DeleteWorkflow(ctx, item.WorkflowID)
				},
				success: "Deleted: " + item.Name,
			}
		}

	case key.Matches(msg, m.keys.ToggleExpand):
		if m.allExpanded {
			m.expandedState = make(map[int]bool)
			m.allExpanded = false
		} else {
			for _, w := range m.workflows {
				m.expandedState[w.ID] = true
			}
			m.allExpanded = true
		}
		m.rebuildVisible()

	case key.Matches(msg, m.keys.Move):
		if item, ok := m.selected(); ok {
			m.isMoveMode = true
			m.moveTarget = item.ID
			m.setStatus("Move mode: j/k reorder, enter/esc exit")
		}

	case key.Matches(msg, m.keys.Search):
		m.isSearching = true
		m.clearSearch()
	}

	return m, nil
}

func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.sidebarCursor--
		m.clampSidebar(-1)

	case key.Matches(msg, m.keys.Down):
		m.sidebarCursor++
		m.clampSidebar(1)

	case key.Matches(msg, m.keys.Enter), key.Matches(msg, m.keys.Open):
		item, ok := m.selectedSidebar()
		if !ok || item.IsSectionHeader {
			break
		}
		var err error
		switch item.Section {
		case SectionShortcuts:
			_, _, err = m.app.OpenLauncher(m.ctx, store.Shortcuts, item.ID)
		case SectionTools:
			_, _, err = m.app.OpenLauncher(m.ctx, store.Tools, item.ID)
		case SectionFolders:
			_, _, err = m.app.OpenFolder(m.ctx, item.ID)
		case SectionAlerts:
			_, _, err = m.app.OpenAlert(m.ctx, item.ID)
		}
		if err != nil {
			m.setError(err)
		}

	case key.Matches(msg, m.keys.Add):
		item, ok := m.selectedSidebar()
		if !ok {
			break
		}
		var err error
		switch item.Section {
		case SectionShortcuts:
			_, err = m.app.Store.AddLauncher(m.ctx, store.Shortcuts)
		case SectionTools:
			_, err = m.app.Store.AddLauncher(m.ctx, store.Tools)
		case SectionFolders:
			_, err = m.app.Store.AddFolder(m.ctx, "", "")
		default:
			return m, nil
		}
		if err != nil {
			m.setError(err)
		} else {
			m.setStatus("Added to " + strings.ToLower(string(item.Section)))
		}
		m.reload()

	case key.Matches(msg, m.keys.Rename):
		item, ok := m.selectedSidebar()
		if !ok || item.IsSectionHeader || item.Section == SectionAlerts {
			break
		}
		st := m.app.Store
		m.startInput(paneSidebar, "", 0, 0, "name", item.Name,
			func(ctx context.Context, name string) (string, error) {
				var err error
				switch item.Section {
				case SectionShortcuts:
					err = st.UpdateLauncher(ctx, store.Shortcuts, item.ID, "name", name)
				case SectionTools:
					err = st.UpdateLauncher(ctx, store.Tools, item.ID, "name", name)
				case SectionFolders:
					err = st.UpdateFolder(ctx, item.ID, "name", name)
				}
				if err != nil {
					return "", err
				}
				return "Renamed to: " + name, nil
			})
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Delete):
		item, ok := m.selectedSidebar()
		if !ok || item.IsSectionHeader {
			break
		}
		if item.Section == SectionAlerts {
			m.app.Inbox.Dismiss(item.ID)
			m.reload()
			break
		}
		st := m.app.Store
		m.confirm = &confirmation{
			title:  "Remove",
			prompt: fmt.Sprintf("Remove '%s' from %s?", item.Name, strings.ToLower(string(item.Section))),
			run: func(ctx context.Context) error {
				switch item.Section {
				case SectionShortcuts:
					return st.RemoveLauncher(ctx, store.Shortcuts, item.ID)
				case SectionTools:
					return st.RemoveLauncher(ctx, store.Tools, item.ID)
				default:
					return st.RemoveFolder(ctx, item.ID)
				}
			},
			success: "Removed: " + item.Name,
		}
	}
	return m, nil
}

// handleEditMode handles key messages while the workflow document is open.
func (m Model) handleEditMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		if m.saveInlineEdit() {
			m.isEditing = false
			m.docEditor.Blur()
			m.setStatus("Saved")
		}
		m.reload()
		return m, nil

	case tea.KeyCtrlS:
		if m.saveInlineEdit() {
			m.setStatus("Saved")
		}
		m.reload()
		return m, nil

	case tea.KeyCtrlC:
		m.isEditing = false
		m.docEditor.Blur()
		m.setStatus("Edit cancelled")
		return m, nil

	default:
		var cmd tea.Cmd
		m.docEditor, cmd = m.docEditor.Update(msg)
		return m, cmd
	}
}

// handleSearchInput handles key messages while typing in the search bar.
func (m Model) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.isSearching = false
		m.clearSearch()
		m.rebuildVisible()
		return m, nil

	case tea.KeyEnter, tea.KeyDown, tea.KeyTab:
		// Keep the filter, stop typing.
		m.isSearching = false
		return m, nil

	case tea.KeyBackspace:
		if len(m.searchQuery) > 0 {
			_, size := utf8.DecodeLastRuneInString(m.searchQuery)
			m.searchQuery = m.searchQuery[:len(m.searchQuery)-size]
		}
		m.applySearchFilter()
		m.rebuildVisible()
		return m, nil

	default:
		switch msg.Type {
		case tea.KeyRunes:
			m.searchQuery += string(msg.Runes)
		case tea.KeySpace:
			m.searchQuery += " "
		default:
			return m, nil
		}
		m.applySearchFilter()
		m.rebuildVisible()
		return m, nil
	}
}

func (m Model) handleMoveMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.isMoveMode = false
		m.moveTarget = ""
		m.setStatus("Move cancelled")

	case msg.Type == tea.KeyEsc || msg.Type == tea.KeyEnter:
		m.isMoveMode = false
		m.moveTarget = ""
		m.setStatus("Move complete")

	case key.Matches(msg, m.keys.Down):
		m.tryReorder(store.Down)

	case key.Matches(msg, m.keys.Up):
		m.tryReorder(store.Up)
	}
	return m, nil
}

// tryReorder moves the move target one step. It reports whether anything
// moved; nothing does at a list boundary.
func (m *Model) tryReorder(dir store.Direction) bool {
	item, ok := m.itemByID(m.moveTarget)
	if !ok {
		return false
	}

	var (
		moved bool
		err   error
	)
	if item.IsTask() {
		moved, err = m.app.Store.MoveTask(m.ctx, item.WorkflowID, item.TaskIndex, dir)
		if moved {
			idx := item.TaskIndex + 1
			if dir == store.Up {
				idx = item.TaskIndex - 1
			}
			m.moveTarget = taskItemID(item.WorkflowID, idx)
		}
	} else {
		moved, err = m.app.Store.MoveWorkflow(m.ctx, item.WorkflowID, dir)
	}
	if err != nil {
		m.setStatus("Move error: " + err.Error())
		return false
	}
	if !moved {
		return false
	}
	m.reload()
	m.moveCursorTo(m.moveTarget)
	return true
}

func (m *Model) startInput(p pane, replaceID string, depth, insertAfter int, placeholder, value string,
	commit func(ctx context.Context, value string) (string, error)) {
	m.isInputMode = true
	m.inputPane = p
	m.inputReplaceID = replaceID
	m.inputDepth = depth
	m.inputInsertAfter = insertAfter
	m.inputCommit = commit
	m.textInput.Reset()
	m.textInput.Placeholder = placeholder
	m.textInput.SetValue(value)
	m.textInput.Focus()
}

func (m *Model) shiftDay(days int) {
	if err := m.app.ShiftDate(m.ctx, days); err != nil {
		m.setError(err)
	}
	m.rebuildVisible()
}

// startRun launches the workflow's macro on its own goroutine. Its events
// reach the model through the feeds.
func (m *Model) startRun(workflowID int) tea.Cmd {
	if m.run != nil {
		m.setStatus(fmt.Sprintf("Already running %q (c to stop)", m.run.title))
		return nil
	}
	w, err := m.app.Store.Workflow(workflowID)
	if err != nil {
		m.setError(err)
		return nil
	}
	ctx, cancel := context.WithCancel(m.ctx)
	m.run = &runState{workflowID: w.ID, title: w.Title, cancel: cancel}
	runner := m.app.Runner
	return func() tea.Msg {
		defer cancel()
		return RunDoneMsg{WorkflowID: w.ID, Err: runner.Run(ctx, w)}
	}
}

// panelWidths splits the screen between the tree and the right pane, with
// one column for the divider.
func panelWidths(total int) (left, right int) {
	left = total / 3
	if left < 28 {
		left = 28
	}
	right = total - left - 1
	if right < 20 {
		right = 20
	}
	return left, right
}

func (m *Model) sizeEditor() {
	_, right := panelWidths(m.width)
	m.docEditor.SetWidth(right)
	h := m.height - 6
	if h < 3 {
		h = 3
	}
	m.docEditor.SetHeight(h)
}

// enterEditMode opens the workflow document in the inline textarea.
func (m *Model) enterEditMode(workflowID int) error {
	doc, err := m.app.WorkflowDoc(workflowID)
	if err != nil {
		return err
	}
	ta := textarea.New()
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.SetValue(doc)

	m.isEditing = true
	m.docEditor = ta
	m.sizeEditor()
	m.docEditor.Focus()
	m.editWorkflowID = workflowID
	return nil
}

// saveInlineEdit writes the textarea back. It reports false, leaving the
// editor open, when the document does not parse.
func (m *Model) saveInlineEdit() bool {
	if err := m.app.SaveWorkflowDoc(m.ctx, m.editWorkflowID, m.docEditor.Value()); err != nil {
		m.setStatus("Save error: " + err.Error())
		return false
	}
	return true
}

func (m *Model) openEditor(workflowID int) tea.Cmd {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vim"
	}

	doc, err := m.app.WorkflowDoc(workflowID)
	if err != nil {
		m.setError(err)
		return nil
	}
	f, err := os.CreateTemp("", "daybook-workflow-*.md")
	if err != nil {
		m.setError(err)
		return nil
	}
	path := f.Name()
	_, werr := f.WriteString(doc)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		os.Remove(path)
		m.setError(werr)
		return nil
	}

	c := exec.Command(editor, path)
	return tea.ExecProcess(c, func(err error) tea.Msg {
		return EditorFinishedMsg{WorkflowID: workflowID, Path: path, Err: err}
	})
}

func (m *Model) finishExternalEdit(msg EditorFinishedMsg) {
	defer os.Remove(msg.Path)
	if msg.Err != nil {
		m.setStatus("Editor failed: " + msg.Err.Error())
		return
	}
	data, err := os.ReadFile(msg.Path)
	if err != nil {
		m.setError(err)
		return
	}
	if err := m.app.SaveWorkflowDoc(m.ctx, msg.WorkflowID, string(data)); err != nil {
		m.setStatus("Save error: " + err.Error())
		return
	}
	m.setStatus("Saved")
}

func (m *Model) clearSearch() {
	m.searchQuery = ""
	m.searchMatchIDs = nil
	m.searchAncIDs = nil
}

// applySearchFilter marks workflows matching the query, and the tasks whose
// names match, expanding matching workflows so their tasks show.
func (m *Model) applySearchFilter() {
	query := strings.ToLower(strings.TrimSpace(m.searchQuery))
	if query == "" {
		m.searchMatchIDs = nil
		m.searchAncIDs = nil
		return
	}

	m.searchMatchIDs = make(map[string]bool)
	m.searchAncIDs = make(map[string]bool)
	for _, w := range m.workflows {
		if !store.MatchesQuery(w, query) {
			continue
		}
		wid := workflowItemID(w.ID)
		if strings.Contains(strings.ToLower(w.Title), query) {
			m.searchMatchIDs[wid] = true
		}
		for i, t := range w.Tasks {
			if strings.Contains(strings.ToLower(t.Name), query) {
				m.searchMatchIDs[taskItemID(w.ID, i)] = true
				m.searchAncIDs[wid] = true
				m.expandedState[w.ID] = true
			}
		}
	}
}

func (m *Model) selected() (TreeItem, bool) {
	if m.cursor < 0 || m.cursor >= len(m.visibleItems) {
		return TreeItem{}, false
	}
	return m.visibleItems[m.cursor], true
}

func (m *Model) selectedSidebar() (SidebarItem, bool) {
	if m.sidebarCursor < 0 || m.sidebarCursor >= len(m.sidebar) {
		return SidebarItem{}, false
	}
	return m.sidebar[m.sidebarCursor], true
}

// clampSidebar keeps the sidebar cursor in range, stepping over section
// headers in direction dir.
func (m *Model) clampSidebar(dir int) {
	n := len(m.sidebar)
	if n == 0 {
		m.sidebarCursor = 0
		return
	}
	if m.sidebarCursor < 0 {
		m.sidebarCursor = 0
		dir = 1
	}
	if m.sidebarCursor >= n {
		m.sidebarCursor = n - 1
		dir = -1
	}
	for i := m.sidebarCursor; i >= 0 && i < n; i += dir {
		if !m.sidebar[i].IsSectionHeader {
			m.sidebarCursor = i
			return
		}
	}
	// Only headers in that direction: stay put on a header so add still
	// knows its section.
}

func (m *Model) itemByID(id string) (TreeItem, bool) {
	for _, item := range m.visibleItems {
		if item.ID == id {
			return item, true
		}
	}
	return TreeItem{}, false
}

// moveCursorTo positions the cursor on the row with the given ID.
func (m *Model) moveCursorTo(id string) {
	for i, item := range m.visibleItems {
		if item.ID == id {
			m.cursor = i
			return
		}
	}
}

// lastRowOf is the index of the last visible row belonging to a workflow.
func (m *Model) lastRowOf(workflowID int) int {
	last := -1
	for i, item := range m.visibleItems {
		if item.WorkflowID == workflowID {
			last = i
		}
	}
	return last
}

func (m *Model) reload() {
	m.workflows = m.app.Store.Workflows()
	if m.searchQuery != "" {
		m.applySearchFilter()
	}
	m.rebuildVisible()

	a := m.app
	m.sidebar = BuildSidebar(
		a.Store.Launchers(store.Shortcuts),
		a.Store.Launchers(store.Tools),
		a.Store.Folders(),
		a.Inbox.List(),
	)
	if m.sidebarCursor >= len(m.sidebar) {
		m.sidebarCursor = len(m.sidebar) - 1
	}
	if m.sidebarCursor < 0 {
		m.sidebarCursor = 0
	}
}

func (m *Model) rebuildVisible() {
	m.visibleItems = FlattenVisibleItems(m.workflows, m.expandedState, m.app.Progress.DoneFunc(m.app.Scheme))

	if m.searchQuery != "" && (m.searchMatchIDs != nil || m.searchAncIDs != nil) {
		m.visibleItems = FilterVisibleItems(m.visibleItems, m.searchMatchIDs, m.searchAncIDs)
	}

	if m.cursor >= len(m.visibleItems) {
		m.cursor = len(m.visibleItems) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// getGlamourRenderer returns a cached glamour renderer, creating one if needed
// or if the width changed.
func (m *Model) getGlamourRenderer(width int) *glamour.TermRenderer {
	if m.glamourRenderer != nil && m.glamourWidth == width {
		return m.glamourRenderer
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	m.glamourRenderer = r
	m.glamourWidth = width
	return r
}

func (m *Model) setStatus(msg string) {
	m.board.Notify(feedback.Info("", msg))
}

func (m *Model) setError(err error) {
	m.board.Notify(feedback.Error("Error", err.Error()))
}

func (m Model) doSync() tea.Cmd {
	a, ctx := m.app, m.ctx
	return func() tea.Msg {
		committed, pushed, err := a.Sync(ctx)
		return SyncDoneMsg{Committed: committed, Pushed: pushed, Err: err}
	}
}
