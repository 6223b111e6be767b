package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the TUI.
type KeyMap struct {
	Up           key.Binding
	Down         key.Binding
	Left         key.Binding
	Right        key.Binding
	Enter        key.Binding
	Space        key.Binding
	Tab          key.Binding
	PrevDay      key.Binding
	NextDay      key.Binding
	Today        key.Binding
	Run          key.Binding
	Cancel       key.Binding
	Open         key.Binding
	InlineEdit   key.Binding
	ExternalEdit key.Binding
	Add          key.Binding
	AddTop       key.Binding
	Delete       key.Binding
	Rename       key.Binding
	ToggleExpand key.Binding
	Reset        key.Binding
	Reload       key.Binding
	Sync         key.Binding
	Help         key.Binding
	Move         key.Binding
	Search       key.Binding
	Quit         key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "collapse"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "expand"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "toggle expand / open"),
		),
		Space: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "check task"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch pane"),
		),
		PrevDay: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "previous day"),
		),
		NextDay: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "next day"),
		),
		Today: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "today"),
		),
		Run: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "run workflow"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "stop run"),
		),
		Open: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open"),
		),
		InlineEdit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "inline edit"),
		),
		ExternalEdit: key.NewBinding(
			key.WithKeys("E"),
			key.WithHelp("E", "$EDITOR"),
		),
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add task"),
		),
		AddTop: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "add workflow"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Rename: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rename"),
		),
		ToggleExpand: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "toggle expand/collapse all"),
		),
		Reset: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "reset day"),
		),
		Reload: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "reload"),
		),
		Sync: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "backup & sync"),
		),
		Move: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "move mode"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns the footer help text.
func (k KeyMap) ShortHelp() string {
	return "↑↓ nav  space check  x run  o open  [ ] day  / search  a/A add  r rename  m move  tab pane  ? help"
}

// FullHelp returns all key bindings for the help modal.
func (k KeyMap) FullHelp() [][]string {
	return [][]string{
		{"↑/k", "Move up"},
		{"↓/j", "Move down"},
		{"←/h", "Collapse / go to workflow"},
		{"→/l", "Expand"},
		{"enter", "Toggle expand (tree) / open (sidebar)"},
		{"space", "Check or uncheck task for the day"},
		{"x", "Run workflow macro"},
		{"c", "Stop the running macro"},
		{"o", "Open task target"},
		{"tab", "Switch pane (details / sidebar)"},
		{"[", "Previous day"},
		{"]", "Next day"},
		{"t", "Back to today"},
		{"e", "Inline edit workflow document"},
		{"E", "Edit workflow in $EDITOR"},
		{"/", "Search workflows and tasks"},
		{"a", "Add task to workflow"},
		{"A", "Add workflow"},
		{"r", "Rename workflow or task"},
		{"d", "Delete (with confirmation) / dismiss alert"},
		{"C", "Toggle expand/collapse all"},
		{"m", "Enter move mode (reorder)"},
		{"X", "Reset the day's progress"},
		{"R", "Reload from disk"},
		{"s", "Backup snapshot & git sync"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	}
}
