// Package app wires the stores, the progress tracker, the macro runner, and
// the folder watcher together for the CLI and the TUI.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/stefanpenner/daybook/pkg/config"
	"github.com/stefanpenner/daybook/pkg/feedback"
	"github.com/stefanpenner/daybook/pkg/kv"
	"github.com/stefanpenner/daybook/pkg/macro"
	"github.com/stefanpenner/daybook/pkg/progress"
	"github.com/stefanpenner/daybook/pkg/store"
	"github.com/stefanpenner/daybook/pkg/sync"
	"github.com/stefanpenner/daybook/pkg/watch"
)

// App holds every component.
type App struct {
	Config *config.Config
	Log    zerolog.Logger

	KV       kv.Store
	Store    *store.Store
	Progress *progress.Tracker
	Scheme   progress.Scheme

	Sink       feedback.Sink
	Dispatcher *macro.Dispatcher
	Runner     *macro.Runner

	Inbox   *watch.Inbox
	Watcher *watch.Simulator

	Backup *sync.Repo

	now func() time.Time
}

// Options customise the wiring. The zero value is what the binary uses.
type Options struct {
	// Sink receives every event in addition to the log.
	Sink feedback.Sink
	// Links overrides the opener chosen from config.
	Links     macro.LinkOpener
	Sleeper   macro.Sleeper
	StepHook  func(macro.Step)
	AlertHook func(watch.Alert)
	Now       func() time.Time
}

// Open opens the SQLite database in the data directory and wires the app
// around it.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger, opts Options) (*App, error) {
	backend, err := kv.OpenSQLite(ctx, filepath.Join(cfg.DataDir, kv.DBFileName))
	if err != nil {
		return nil, err
	}
	a, err := New(ctx, cfg, log, backend, opts)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	return a, nil
}

// New wires the app around an already open key-value store and loads
// today's progress.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger, backend kv.Store, opts Options) (*App, error) {
	st, err := store.Open(ctx, backend, log.With().Str("component", "store").Logger())
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:   cfg,
		Log:      log,
		KV:       backend,
		Store:    st,
		Progress: progress.New(backend, log.With().Str("component", "progress").Logger()),
		Scheme:   cfg.Scheme(),
		Inbox:    &watch.Inbox{},
		Backup:   &sync.Repo{Dir: sync.BackupDir(cfg.DataDir), Log: log.With().Str("component", "backup").Logger()},
		now:      time.Now,
	}
	if opts.Now != nil {
		a.now = opts.Now
	}

	a.Sink = feedback.LogSink(log.With().Str("component", "feedback").Logger())
	if opts.Sink != nil {
		a.Sink = feedback.Fanout(a.Sink, opts.Sink)
	}

	links := opts.Links
	if links == nil {
		if cfg.Runner.OpenLinks {
			links = macro.NewSystemOpener()
		} else {
			links = macro.NarratedLinks{Log: log}
		}
	}
	runLog := log.With().Str("component", "runner").Logger()
	a.Dispatcher = macro.NewDispatcher(a.Sink, links, macro.NarratedKeys{Log: runLog}, runLog)

	runOpts := []macro.Option{
		macro.WithPacing(macro.Pacing{
			Link:          cfg.Runner.LinkPacing,
			Keys:          cfg.Runner.KeysPacing,
			DelayFallback: cfg.Runner.DelayFallback,
		}),
		macro.WithLogger(runLog),
	}
	if opts.Sleeper != nil {
		runOpts = append(runOpts, macro.WithSleeper(opts.Sleeper))
	}
	if opts.StepHook != nil {
		runOpts = append(runOpts, macro.WithStepHook(opts.StepHook))
	}
	a.Runner = macro.NewRunner(a.Dispatcher, runOpts...)

	watchOpts := []watch.Option{
		watch.WithInterval(cfg.Watcher.Interval),
		watch.WithProbability(cfg.Watcher.Probability),
		watch.WithLogger(log.With().Str("component", "watcher").Logger()),
	}
	if opts.AlertHook != nil {
		watchOpts = append(watchOpts, watch.WithAlertHook(opts.AlertHook))
	}
	a.Watcher = watch.NewSimulator(a.Store.Folders, a.Inbox, a.Sink, watchOpts...)

	if err := a.Progress.LoadForDate(ctx, a.Today()); err != nil {
		return nil, err
	}
	return a, nil
}

// Close closes the key-value store.
func (a *App) Close() error {
	return a.KV.Close()
}

// Today is the current local calendar day.
func (a *App) Today() string {
	return progress.Today(a.now())
}

// Reload re-reads collections and the loaded day, picking up writes from
// another process.
func (a *App) Reload(ctx context.Context) error {
	if err := a.Store.Reload(ctx); err != nil {
		return err
	}
	return a.Progress.LoadForDate(ctx, a.Progress.Date())
}

// SwitchDate loads another day's checklist.
func (a *App) SwitchDate(ctx context.Context, date string) error {
	return a.Progress.LoadForDate(ctx, date)
}

// ShiftDate moves the loaded day by days.
func (a *App) ShiftDate(ctx context.Context, days int) error {
	d, err := progress.ParseDate(a.Progress.Date())
	if err != nil {
		return err
	}
	return a.SwitchDate(ctx, d.AddDate(0, 0, days).Format(progress.DateLayout))
}

// IsDone reports whether a task is checked on the loaded day.
func (a *App) IsDone(workflowID, index int, t store.Task) bool {
	return a.Progress.Get(a.Scheme.Key(workflowID, index, t))
}

// ToggleTask flips the check mark of the task at index. Running a workflow
// never does this; only the user does.
func (a *App) ToggleTask(ctx context.Context, workflowID, index int) (bool, error) {
	w, err := a.Store.Workflow(workflowID)
	if err != nil {
		return false, err
	}
	if index < 0 || index >= len(w.Tasks) {
		return false, fmt.Errorf("%w: workflow %d has no task %d", store.ErrTaskNotFound, workflowID, index+1)
	}
	return a.Progress.Toggle(ctx, a.Scheme.Key(workflowID, index, w.Tasks[index]))
}

// Stats summarises completion over ws on the loaded day.
func (a *App) Stats(ws []store.Workflow) progress.Stats {
	return progress.Summarize(ws, a.Progress.DoneFunc(a.Scheme))
}

// WorkflowPercent is w's completion on the loaded day.
func (a *App) WorkflowPercent(w store.Workflow) int {
	return progress.WorkflowPercent(w, a.Progress.DoneFunc(a.Scheme))
}

// ResetProgress clears the loaded day.
func (a *App) ResetProgress(ctx context.Context) error {
	if err := a.Progress.ResetAll(ctx); err != nil {
		return err
	}
	a.Sink.Notify(feedback.Success("Success", "Today's progress has been reset."))
	return nil
}

// RunWorkflow runs a workflow by id and blocks until it ends.
func (a *App) RunWorkflow(ctx context.Context, id int) error {
	w, err := a.Store.Workflow(id)
	if err != nil {
		return err
	}
	return a.Runner.Run(ctx, w)
}

// OpenTask dispatches one task of a workflow.
func (a *App) OpenTask(ctx context.Context, workflowID, index int) (feedback.Event, bool, error) {
	w, err := a.Store.Workflow(workflowID)
	if err != nil {
		return feedback.Event{}, false, err
	}
	if index < 0 || index >= len(w.Tasks) {
		return feedback.Event{}, false, fmt.Errorf("%w: workflow %d has no task %d", store.ErrTaskNotFound, workflowID, index+1)
	}
	ev, ok := a.Dispatcher.Dispatch(ctx, w.Tasks[index])
	return ev, ok, nil
}

// OpenLauncher dispatches a shortcut's or tool's link.
func (a *App) OpenLauncher(ctx context.Context, kind store.LauncherKind, id int) (feedback.Event, bool, error) {
	for _, l := range a.Store.Launchers(kind) {
		if l.ID == id {
			ev, ok := a.Dispatcher.DispatchTarget(ctx, l.Link)
			return ev, ok, nil
		}
	}
	return feedback.Event{}, false, fmt.Errorf("%w: %s %d", store.ErrLauncherNotFound, kind, id)
}

// OpenAlert dispatches the path of a file alert.
func (a *App) OpenAlert(ctx context.Context, id int) (feedback.Event, bool, error) {
	for _, al := range a.Inbox.List() {
		if al.ID == id {
			ev, ok := a.Dispatcher.DispatchTarget(ctx, al.Path)
			return ev, ok, nil
		}
	}
	return feedback.Event{}, false, fmt.Errorf("alert %d not found", id)
}

// OpenFolder dispatches the path of a watched folder.
func (a *App) OpenFolder(ctx context.Context, id int) (feedback.Event, bool, error) {
	for _, f := range a.Store.Folders() {
		if f.ID == id {
			ev, ok := a.Dispatcher.DispatchTarget(ctx, f.Path)
			return ev, ok, nil
		}
	}
	return feedback.Event{}, false, fmt.Errorf("%w: %d", store.ErrFolderNotFound, id)
}

// WorkflowDoc renders a workflow as an editable document.
func (a *App) WorkflowDoc(id int) (string, error) {
	w, err := a.Store.Workflow(id)
	if err != nil {
		return "", err
	}
	return store.SerializeWorkflowDoc(w)
}

// SaveWorkflowDoc replaces workflow id with an edited document. An id
// written in the document is ignored.
func (a *App) SaveWorkflowDoc(ctx context.Context, id int, content string) error {
	w, err := store.ParseWorkflowDoc(content)
	if err != nil {
		return err
	}
	w.ID = id
	return a.Store.PutWorkflow(ctx, w)
}

// ExportFile writes the export document to path.
func (a *App) ExportFile(path string) error {
	data, err := a.Store.ExportJSON()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	return nil
}

// ImportData imports an export document or a legacy workflow array and
// reports the outcome as an event.
func (a *App) ImportData(ctx context.Context, data []byte) error {
	format, err := a.Store.Import(ctx, data)
	if err != nil {
		if errors.Is(err, store.ErrInvalidImport) {
			a.Sink.Notify(feedback.Error("Error", "Invalid configuration file"))
		} else {
			a.Sink.Notify(feedback.Error("Error", err.Error()))
		}
		return err
	}
	if format == store.ImportLegacy {
		a.Sink.Notify(feedback.Success("Success", "Legacy template imported"))
	} else {
		a.Sink.Notify(feedback.Success("Success", "Configuration imported successfully"))
	}
	return nil
}

// ImportFile reads path and imports it.
func (a *App) ImportFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return a.ImportData(ctx, data)
}

// BackupSnapshot commits the current export to the backup repository.
func (a *App) BackupSnapshot(ctx context.Context) (bool, error) {
	data, err := a.Store.ExportJSON()
	if err != nil {
		return false, err
	}
	return a.Backup.Commit(ctx, data)
}

// Sync commits a snapshot and, when the backup repo has a remote, pulls and
// pushes it. pushed is false when there is no remote.
func (a *App) Sync(ctx context.Context) (committed, pushed bool, err error) {
	committed, err = a.BackupSnapshot(ctx)
	if err != nil {
		return false, false, err
	}
	if !a.Backup.HasRemote(ctx) {
		return committed, false, nil
	}
	if err := a.Backup.Sync(ctx); err != nil {
		return committed, false, err
	}
	return committed, true, nil
}
