package main

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefanpenner/daybook/pkg/feedback"
	"github.com/stefanpenner/daybook/pkg/store"
	"github.com/stefanpenner/daybook/pkg/watch"
)

// quietRunner keeps links narrated and pacing short.
func quietRunner(t *testing.T) {
	t.Helper()
	t.Setenv("DAYBOOK_RUNNER_OPEN_LINKS", "false")
	t.Setenv("DAYBOOK_RUNNER_LINK_PACING", "1ms")
	t.Setenv("DAYBOOK_RUNNER_KEYS_PACING", "1ms")
}

func daybook(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := run(append([]string{"--dir", dir}, args...), strings.NewReader(""), &out, &errOut)
	return out.String(), err
}

func daybookJSON(t *testing.T, dir string, v any, args ...string) {
	t.Helper()
	out, err := daybook(t, dir, append([]string{"--json"}, args...)...)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), v), out)
}

func TestListSeedsDefaults(t *testing.T) {
	quietRunner(t)
	dir := t.TempDir()

	var views []workflowView
	daybookJSON(t, dir, &views, "list")
	require.Len(t, views, 2)
	assert.Equal(t, "Morning setup", views[0].Title)
	assert.Len(t, views[0].Tasks, 5)
	assert.Equal(t, 1, views[0].Tasks[0].Number)
	assert.NotEmpty(t, views[0].Tasks[0].ID)

	out, err := daybook(t, dir, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Morning setup")
	assert.Contains(t, out, "0% (0/8 tasks)")

	daybookJSON(t, dir, &views, "list", "--search", "STANDUP")
	require.Len(t, views, 1)
	assert.Equal(t, "End of day", views[0].Title)
}

func TestWorkflowLifecycle(t *testing.T) {
	quietRunner(t)
	dir := t.TempDir()

	var w workflowView
	daybookJSON(t, dir, &w, "add", "Weekly", "review")
	assert.Equal(t, 3, w.ID)
	assert.Equal(t, "Weekly review", w.Title)

	_, err := daybook(t, dir, "rename", "3", "Friday", "review")
	require.NoError(t, err)

	var tv taskView
	daybookJSON(t, dir, &tv, "task", "add", "3", "Timesheet", "--link", "https://time.example.com")
	assert.Equal(t, 1, tv.Number)
	assert.Equal(t, store.KindLink, tv.Kind)
	daybookJSON(t, dir, &tv, "task", "add", "3", "Pause", "--type", "delay", "--value", "250")
	assert.Equal(t, 2, tv.Number)

	_, err = daybook(t, dir, "task", "set", "3", "2", "value", "500")
	require.NoError(t, err)
	_, err = daybook(t, dir, "task", "up", "3", "2")
	require.NoError(t, err)

	daybookJSON(t, dir, &tv, "toggle", "3", "1")
	assert.True(t, tv.Done)
	assert.Equal(t, "Pause", tv.Name)

	daybookJSON(t, dir, &w, "show", "3")
	assert.Equal(t, "Friday review", w.Title)
	assert.Equal(t, 50, w.Percent)
	assert.Equal(t, "500", w.Tasks[0].Value)

	out, err := daybook(t, dir, "show", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Friday review")

	var moved map[string]bool
	daybookJSON(t, dir, &moved, "move", "1", "up")
	assert.False(t, moved["moved"])
	daybookJSON(t, dir, &moved, "move", "3", "up")
	assert.True(t, moved["moved"])

	_, err = daybook(t, dir, "delete", "3", "--yes")
	require.NoError(t, err)
	_, err = daybook(t, dir, "show", "3")
	assert.ErrorIs(t, err, store.ErrWorkflowNotFound)
}

func TestDeleteNeedsConfirmationWithoutTerminal(t *testing.T) {
	dir := t.TempDir()
	prev := terminalCheck
	terminalCheck = func() bool { return false }
	t.Cleanup(func() { terminalCheck = prev })

	_, err := daybook(t, dir, "delete", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")

	var views []workflowView
	daybookJSON(t, dir, &views, "list")
	assert.Len(t, views, 2)
}

func TestArgumentErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := daybook(t, dir, "toggle", "1", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "numbered from 1")

	_, err = daybook(t, dir, "toggle", "1", "9")
	assert.ErrorIs(t, err, store.ErrTaskNotFound)

	_, err = daybook(t, dir, "show", "x")
	assert.EqualError(t, err, "invalid id: x")

	_, err = daybook(t, dir, "move", "1", "sideways")
	assert.Error(t, err)

	_, err = daybook(t, dir, "task", "set", "1", "1", "colour", "red")
	assert.ErrorIs(t, err, store.ErrInvalidField)
}

func TestProgressByDay(t *testing.T) {
	dir := t.TempDir()

	_, err := daybook(t, dir, "toggle", "2", "1", "--date", "2026-01-02")
	require.NoError(t, err)
	_, err = daybook(t, dir, "toggle", "2", "2", "--date", "2026-01-02")
	require.NoError(t, err)

	var day dayView
	daybookJSON(t, dir, &day, "progress", "--date", "2026-01-02")
	assert.Equal(t, "2026-01-02", day.Date)
	assert.Equal(t, 2, day.Stats.Completed)
	assert.Equal(t, 8, day.Stats.Total)
	require.Len(t, day.Workflows, 2)
	assert.Equal(t, 67, day.Workflows[1].Percent)

	var history []dayView
	daybookJSON(t, dir, &history, "progress", "--history")
	require.Len(t, history, 1)
	assert.Equal(t, "2026-01-02", history[0].Date)

	out, err := daybook(t, dir, "reset", "--date", "2026-01-02", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Success: Today's progress has been reset.")

	daybookJSON(t, dir, &day, "progress", "--date", "2026-01-02")
	assert.Equal(t, 0, day.Stats.Completed)

	_, err = daybook(t, dir, "progress", "--date", "yesterday")
	assert.Error(t, err)
}

func TestExportImport(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	file := filepath.Join(t.TempDir(), "daybook.json")

	_, err := daybook(t, src, "add", "Exported")
	require.NoError(t, err)
	_, err = daybook(t, src, "export", file)
	require.NoError(t, err)

	stdout, err := daybook(t, src, "export")
	require.NoError(t, err)
	var snap store.Snapshot
	require.NoError(t, json.Unmarshal([]byte(stdout), &snap))
	assert.Len(t, snap.Workflows, 3)

	out, err := daybook(t, dst, "import", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration imported successfully")

	var views []workflowView
	daybookJSON(t, dst, &views, "list")
	require.Len(t, views, 3)
	assert.Equal(t, "Exported", views[2].Title)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"colour":"red"}`), 0644))
	var events []feedback.Event
	out, err = daybook(t, dst, "--json", "import", bad)
	assert.ErrorIs(t, err, store.ErrInvalidImport)
	require.NoError(t, json.Unmarshal([]byte(out), &events))
	require.Len(t, events, 1)
	assert.Equal(t, "Invalid configuration file", events[0].Message)
}

func TestImportLegacyFromStdin(t *testing.T) {
	dir := t.TempDir()
	var out, errOut bytes.Buffer
	legacy := `[{"id":7,"title":"Legacy","tasks":[{"name":"Docs","link":"https://docs"}]}]`

	err := run([]string{"--dir", dir, "import", "-"}, strings.NewReader(legacy), &out, &errOut)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Legacy template imported")

	var views []workflowView
	daybookJSON(t, dir, &views, "list")
	require.Len(t, views, 1)
	assert.Equal(t, 7, views[0].ID)
}

func TestLaunchersAndFolders(t *testing.T) {
	dir := t.TempDir()

	var l store.Launcher
	daybookJSON(t, dir, &l, "shortcut", "add", "--name", "Wiki", "--link", "https://wiki", "--icon", "fa-globe")
	assert.Equal(t, store.Launcher{ID: 3, Name: "Wiki", Link: "https://wiki", Icon: "fa-globe"}, l)

	daybookJSON(t, dir, &l, "tool", "add")
	assert.Equal(t, "New Tool", l.Name)
	assert.Equal(t, "fa-wrench", l.Icon)

	_, err := daybook(t, dir, "tool", "set", "4", "icon", "fa-unicorn")
	assert.ErrorIs(t, err, store.ErrUnknownIcon)
	_, err = daybook(t, dir, "tool", "set", "4", "name", "Paint")
	require.NoError(t, err)
	_, err = daybook(t, dir, "shortcut", "rm", "1")
	require.NoError(t, err)

	var ls []store.Launcher
	daybookJSON(t, dir, &ls, "shortcut", "list")
	require.Len(t, ls, 2)
	assert.Equal(t, "Reports", ls[0].Name)
	daybookJSON(t, dir, &ls, "tool", "list")
	assert.Equal(t, "Paint", ls[3].Name)

	var f store.WatchedFolder
	daybookJSON(t, dir, &f, "folder", "add", "Reports", `D:\Reports`)
	assert.Equal(t, 2, f.ID)

	out, err := daybook(t, dir, "folder", "open", "2")
	require.NoError(t, err)
	assert.Contains(t, out, `Opening "D:\Reports"`)

	_, err = daybook(t, dir, "folder", "rm", "9")
	assert.ErrorIs(t, err, store.ErrFolderNotFound)

	var icons []string
	daybookJSON(t, dir, &icons, "icons")
	assert.Equal(t, store.Icons, icons)
}

func TestRunWorkflow(t *testing.T) {
	quietRunner(t)
	dir := t.TempDir()

	_, err := daybook(t, dir, "add", "Quick")
	require.NoError(t, err)
	_, err = daybook(t, dir, "task", "add", "3", "Save", "--type", "keys", "--value", "Ctrl+S")
	require.NoError(t, err)
	_, err = daybook(t, dir, "task", "add", "3", "Docs", "--link", "https://docs.example.com")
	require.NoError(t, err)

	var events []feedback.Event
	daybookJSON(t, dir, &events, "run", "3")
	require.NotEmpty(t, events)
	assert.Equal(t, "Macro Running", events[0].Title)
	assert.Equal(t, "Macro Finished", events[len(events)-1].Title)

	// Running never checks tasks off.
	var w workflowView
	daybookJSON(t, dir, &w, "show", "3")
	assert.Equal(t, 0, w.Percent)

	out, err := daybook(t, dir, "add", "Empty")
	require.NoError(t, err)
	assert.Contains(t, out, "Added workflow 4")
	out, err = daybook(t, dir, "run", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "Macro: No tasks to run.")
}

func TestOpenTaskWithoutTarget(t *testing.T) {
	quietRunner(t)
	dir := t.TempDir()

	out, err := daybook(t, dir, "open", "2", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing to open")

	_, err = daybook(t, dir, "open", "#")
	assert.EqualError(t, err, "nothing to open")

	out, err = daybook(t, dir, "open", "https://example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Browser: Opening https://example.com")
}

func TestWatchStopsAfterCount(t *testing.T) {
	dir := t.TempDir()

	var alerts []watch.Alert
	daybookJSON(t, dir, &alerts, "watch", "--interval", "1ms", "--probability", "1", "--count", "2")
	require.Len(t, alerts, 2)
	assert.Equal(t, 1, alerts[0].FolderID)
	assert.Contains(t, watch.MockFiles, alerts[0].FileName)

	_, err := daybook(t, dir, "watch", "--probability", "2")
	assert.Error(t, err)
}

func TestEditUsesEditor(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	dir := t.TempDir()
	script := filepath.Join(t.TempDir(), "editor.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nsed -i.bak 's/^title: .*/title: Edited/' \"$1\"\n"), 0755))
	t.Setenv("EDITOR", script)

	out, err := daybook(t, dir, "edit", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved workflow 2")

	var w workflowView
	daybookJSON(t, dir, &w, "show", "2")
	assert.Equal(t, "Edited", w.Title)
	assert.Len(t, w.Tasks, 3)

	t.Setenv("EDITOR", "true")
	out, err = daybook(t, dir, "edit", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "No changes.")
}

func TestSyncWithoutRepository(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()

	_, err := daybook(t, dir, "sync")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync --init")
}
