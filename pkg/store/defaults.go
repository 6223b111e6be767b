package store

import (
	"os"
	"path/filepath"
	"slices"
)

// Icons is the catalog of icon names a shortcut or tool may use.
var Icons = []string{
	"fa-link", "fa-shield-halved", "fa-chart-line", "fa-file-alt",
	"fa-cogs", "fa-database", "fa-server", "fa-cloud",
	"fa-envelope", "fa-folder-open", "fa-globe", "fa-print",
	"fa-calculator", "fa-camera", "fa-video", "fa-music",
	"fa-scissors", "fa-terminal", "fa-code", "fa-bug", "fa-robot", "fa-clock", "fa-keyboard",
	"fa-wrench",
}

// IsKnownIcon reports whether icon is in the catalog.
func IsKnownIcon(icon string) bool {
	return slices.Contains(Icons, icon)
}

// Default names and icons for freshly added entries.
const (
	NewWorkflowTitle = "New Workflow"
	NewTaskName      = "New Task"
	NewShortcutName  = "New Shortcut"
	NewToolName      = "New Tool"
	NewFolderName    = "New Folder"
	ShortcutIcon     = "fa-link"
	ToolIcon         = "fa-wrench"
)

// DefaultWorkflows seeds a store that has never saved workflows.
func DefaultWorkflows() []Workflow {
	return []Workflow{
		{
			ID:    1,
			Title: "Morning setup",
			Tasks: []Task{
				{Name: "Open mail", Kind: KindLink, Target: "https://mail.google.com"},
				{Name: "Wait for sign-in", Kind: KindDelay, Value: "3000"},
				{Name: "Open planning sheet", Kind: KindLink, Target: filepath.Join(homeDir(), "Documents", "planning.xlsx"),
					Placement: &Placement{X: 0, Y: 0, Width: 800, Height: 600}},
				{Name: "Refresh data", Kind: KindKeys, Value: "Ctrl+R"},
				{Name: "Team dashboard", Kind: KindLink, Target: "https://example.com/dashboard"},
			},
		},
		{
			ID:    2,
			Title: "End of day",
			Tasks: []Task{
				{Name: "Write standup notes", Kind: KindLink, Target: "#"},
				{Name: "Export report", Kind: KindLink, Target: filepath.Join(homeDir(), "Documents", "reports")},
				{Name: "Save all", Kind: KindKeys, Value: "Ctrl+S"},
			},
		},
	}
}

// DefaultShortcuts seeds the shortcut collection.
func DefaultShortcuts() []Launcher {
	return []Launcher{
		{ID: 1, Name: "Calendar", Link: "https://calendar.google.com", Icon: "fa-clock"},
		{ID: 2, Name: "Reports", Link: "https://example.com/reports", Icon: "fa-chart-line"},
	}
}

// DefaultTools seeds the tool collection.
func DefaultTools() []Launcher {
	return []Launcher{
		{ID: 1, Name: "Calculator", Link: "calc.exe", Icon: "fa-calculator"},
		{ID: 2, Name: "Snipping Tool", Link: "snippingtool.exe", Icon: "fa-scissors"},
		{ID: 3, Name: "Command Prompt", Link: "cmd.exe", Icon: "fa-terminal"},
	}
}

// DefaultFolders seeds the watched folder collection.
func DefaultFolders() []WatchedFolder {
	return []WatchedFolder{{ID: 1, Name: "Downloads", Path: DefaultFolderPath()}}
}

// DefaultFolderPath is the path a new watched folder starts with.
func DefaultFolderPath() string {
	return filepath.Join(homeDir(), "Downloads")
}

func homeDir() string {
	home, _ := os.UserHomeDir()
	return home
}
