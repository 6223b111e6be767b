package app

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefanpenner/daybook/pkg/config"
	"github.com/stefanpenner/daybook/pkg/feedback"
	"github.com/stefanpenner/daybook/pkg/macro"
	"github.com/stefanpenner/daybook/pkg/progress"
	"github.com/stefanpenner/daybook/pkg/store"
	"github.com/stefanpenner/daybook/pkg/watch"
)

type testApp struct {
	*App
	events *feedback.Recorder
	urls   *[]string
}

func setupApp(t *testing.T) testApp {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default(dir)
	rec := &feedback.Recorder{}
	var urls []string
	a, err := Open(context.Background(), cfg, zerolog.Nop(), Options{
		Sink:    rec,
		Links:   macro.LinkOpenerFunc(func(_ context.Context, url string) error { urls = append(urls, url); return nil }),
		Sleeper: macro.SleepFunc(func(ctx context.Context, _ time.Duration) error { return ctx.Err() }),
		Now:     func() time.Time { return time.Date(2026, 10, 19, 9, 0, 0, 0, time.Local) },
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return testApp{App: a, events: rec, urls: &urls}
}

func TestOpenLoadsToday(t *testing.T) {
	a := setupApp(t)
	assert.Equal(t, "2026-10-19", a.Progress.Date())
	assert.NotEmpty(t, a.Store.Workflows())
	assert.Equal(t, progress.SchemeTaskID, a.Scheme)
}

func TestToggleTaskAndStats(t *testing.T) {
	a := setupApp(t)
	ctx := context.Background()
	w := a.Store.Workflows()[0]

	done, err := a.ToggleTask(ctx, w.ID, 0)
	require.NoError(t, err)
	assert.True(t, done)
	assert.True(t, a.IsDone(w.ID, 0, w.Tasks[0]))
	assert.Equal(t, a.Progress.Snapshot(), map[string]bool{progress.SchemeTaskID.Key(w.ID, 0, w.Tasks[0]): true})

	total := 0
	for _, wf := range a.Store.Workflows() {
		total += len(wf.Tasks)
	}
	stats := a.Stats(a.Store.Workflows())
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, total, stats.Total)
	assert.Equal(t, progress.TierLow, stats.Tier)

	_, err = a.ToggleTask(ctx, w.ID, 99)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
	_, err = a.ToggleTask(ctx, 999, 0)
	assert.ErrorIs(t, err, store.ErrWorkflowNotFound)
}

func TestRunningNeverChecksTasks(t *testing.T) {
	a := setupApp(t)
	ctx := context.Background()
	w := a.Store.Workflows()[0]

	require.NoError(t, a.RunWorkflow(ctx, w.ID))
	assert.Empty(t, a.Progress.Snapshot())
	assert.Contains(t, a.events.Titles(), "Macro Finished")
	assert.NotEmpty(t, *a.urls)
}

func TestShiftDateAndReset(t *testing.T) {
	a := setupApp(t)
	ctx := context.Background()
	w := a.Store.Workflows()[0]

	_, err := a.ToggleTask(ctx, w.ID, 0)
	require.NoError(t, err)

	require.NoError(t, a.ShiftDate(ctx, -1))
	assert.Equal(t, "2026-10-18", a.Progress.Date())
	assert.Empty(t, a.Progress.Snapshot())

	require.NoError(t, a.ShiftDate(ctx, 1))
	assert.Len(t, a.Progress.Snapshot(), 1)

	require.NoError(t, a.ResetProgress(ctx))
	assert.Empty(t, a.Progress.Snapshot())
	events := a.events.Events()
	last := events[len(events)-1]
	assert.Equal(t, "Success", last.Title)
	assert.Equal(t, "Today's progress has been reset.", last.Message)
}

func TestImportExportFiles(t *testing.T) {
	a := setupApp(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "export.json")

	require.NoError(t, a.ExportFile(path))
	before := a.Store.Export()

	_, err := a.Store.AddWorkflow(ctx, "Temporary")
	require.NoError(t, err)
	require.NoError(t, a.ImportFile(ctx, path))
	assert.Equal(t, before, a.Store.Export())
	assert.Equal(t, "Configuration imported successfully", a.events.Events()[len(a.events.Events())-1].Message)

	legacy := filepath.Join(t.TempDir(), "legacy.json")
	require.NoError(t, os.WriteFile(legacy, []byte(`[{"id":1,"title":"Old","tasks":[]}]`), 0644))
	require.NoError(t, a.ImportFile(ctx, legacy))
	assert.Equal(t, "Legacy template imported", a.events.Events()[len(a.events.Events())-1].Message)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`"nope"`), 0644))
	assert.ErrorIs(t, a.ImportFile(ctx, bad), store.ErrInvalidImport)
	last := a.events.Events()[len(a.events.Events())-1]
	assert.Equal(t, feedback.Event{Title: "Error", Message: "Invalid configuration file", Severity: feedback.SeverityError, At: last.At}, last)
}

func TestOpenLauncherAndAlert(t *testing.T) {
	a := setupApp(t)
	ctx := context.Background()

	sc := a.Store.Launchers(store.Shortcuts)[0]
	ev, ok, err := a.OpenLauncher(ctx, store.Shortcuts, sc.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Browser", ev.Title)

	_, _, err = a.OpenLauncher(ctx, store.Tools, 999)
	assert.ErrorIs(t, err, store.ErrLauncherNotFound)

	alert := a.Inbox.Add(watchAlert(`C:\Downloads\Report_2025.pdf`))
	ev, ok, err = a.OpenAlert(ctx, alert.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `Opening "C:\Downloads\Report_2025.pdf"`, ev.Message)
}

func TestOpenTask(t *testing.T) {
	a := setupApp(t)
	ctx := context.Background()
	w, err := a.Store.AddWorkflow(ctx, "One")
	require.NoError(t, err)
	_, _, err = a.Store.AddTask(ctx, w.ID)
	require.NoError(t, err)

	// A new task has no target yet.
	_, ok, err := a.OpenTask(ctx, w.ID, 0)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = a.OpenTask(ctx, w.ID, 3)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}

func TestWorkflowDocRoundTrip(t *testing.T) {
	a := setupApp(t)
	ctx := context.Background()

	doc, err := a.WorkflowDoc(2)
	require.NoError(t, err)
	assert.Contains(t, doc, "title: End of day")

	// The id inside the document cannot retarget the edit.
	edited := strings.Replace(doc, "title: End of day", "title: Wrap up", 1)
	edited = strings.Replace(edited, "id: 2", "id: 1", 1)
	require.NoError(t, a.SaveWorkflowDoc(ctx, 2, edited))

	w, err := a.Store.Workflow(2)
	require.NoError(t, err)
	assert.Equal(t, "Wrap up", w.Title)
	one, err := a.Store.Workflow(1)
	require.NoError(t, err)
	assert.Equal(t, "Morning setup", one.Title)

	assert.Error(t, a.SaveWorkflowDoc(ctx, 2, "no frontmatter"))
	_, err = a.WorkflowDoc(42)
	assert.ErrorIs(t, err, store.ErrWorkflowNotFound)
}

func TestOpenFolder(t *testing.T) {
	a := setupApp(t)
	ctx := context.Background()
	f, err := a.Store.AddFolder(ctx, "Reports", `D:\Reports`)
	require.NoError(t, err)

	ev, ok, err := a.OpenFolder(ctx, f.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `Opening "D:\Reports"`, ev.Message)

	_, _, err = a.OpenFolder(ctx, 99)
	assert.ErrorIs(t, err, store.ErrFolderNotFound)
}

func TestSyncWithoutRemoteOnlyCommits(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	t.Setenv("GIT_AUTHOR_NAME", "daybook")
	t.Setenv("GIT_AUTHOR_EMAIL", "daybook@example.com")
	t.Setenv("GIT_COMMITTER_NAME", "daybook")
	t.Setenv("GIT_COMMITTER_EMAIL", "daybook@example.com")

	a := setupApp(t)
	ctx := context.Background()

	_, _, err := a.Sync(ctx)
	require.Error(t, err, "no backup repository yet")

	require.NoError(t, a.Backup.Init(ctx, ""))
	committed, pushed, err := a.Sync(ctx)
	require.NoError(t, err)
	assert.True(t, committed)
	assert.False(t, pushed)

	data, err := a.Backup.Latest()
	require.NoError(t, err)
	export, err := a.Store.ExportJSON()
	require.NoError(t, err)
	assert.JSONEq(t, string(export), string(data))
}

func watchAlert(path string) watch.Alert {
	return watch.Alert{FolderID: 1, FileName: filepath.Base(path), Path: path, At: time.Now()}
}
