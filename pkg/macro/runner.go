package macro

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/stefanpenner/daybook/pkg/feedback"
	"github.com/stefanpenner/daybook/pkg/store"
)

// Phase is where a run currently is.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAnnounced
	PhaseDispatch
	PhasePace
	PhaseFinished
	PhaseCanceled
)

func (p Phase) String() string {
	switch p {
	case PhaseAnnounced:
		return "announced"
	case PhaseDispatch:
		return "dispatch"
	case PhasePace:
		return "pace"
	case PhaseFinished:
		return "finished"
	case PhaseCanceled:
		return "canceled"
	default:
		return "idle"
	}
}

// Step describes a phase transition. Index is -1 outside per-task phases.
type Step struct {
	WorkflowID int
	Index      int
	Total      int
	Task       store.Task
	Phase      Phase
	Wait       time.Duration
}

// Pacing holds the pauses the runner inserts after tasks.
type Pacing struct {
	Link          time.Duration
	Keys          time.Duration
	DelayFallback time.Duration
}

// DefaultPacing gives a browser tab time to appear and a typed sequence
// time to land.
var DefaultPacing = Pacing{
	Link:          800 * time.Millisecond,
	Keys:          500 * time.Millisecond,
	DelayFallback: time.Second,
}

// Sleeper suspends the caller for d or until ctx is done.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleepFunc adapts a function to Sleeper.
type SleepFunc func(ctx context.Context, d time.Duration) error

func (f SleepFunc) Sleep(ctx context.Context, d time.Duration) error { return f(ctx, d) }

// RealSleeper waits on the wall clock.
var RealSleeper Sleeper = SleepFunc(func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
})

// Runner executes a workflow's tasks one after another.
type Runner struct {
	dispatcher *Dispatcher
	sink       feedback.Sink
	pacing     Pacing
	sleeper    Sleeper
	onStep     func(Step)
	log        zerolog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithPacing overrides DefaultPacing.
func WithPacing(p Pacing) Option {
	return func(r *Runner) { r.pacing = p }
}

// WithSleeper replaces the wall-clock sleeper.
func WithSleeper(s Sleeper) Option {
	return func(r *Runner) { r.sleeper = s }
}

// WithStepHook registers a callback for every phase transition. It runs on
// the runner's goroutine.
func WithStepHook(fn func(Step)) Option {
	return func(r *Runner) { r.onStep = fn }
}

// WithLogger sets the runner's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Runner) { r.log = log }
}

// NewRunner returns a runner that reports through the dispatcher's sink.
func NewRunner(d *Dispatcher, opts ...Option) *Runner {
	r := &Runner{
		dispatcher: d,
		sink:       d.Sink(),
		pacing:     DefaultPacing,
		sleeper:    RealSleeper,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) step(s Step) {
	if r.onStep != nil {
		r.onStep(s)
	}
}

// Run executes wf's tasks in order and blocks until they are done or ctx is
// canceled. On cancellation no further task is dispatched and ctx's error is
// returned.
func (r *Runner) Run(ctx context.Context, wf store.Workflow) error {
	total := len(wf.Tasks)
	log := r.log.With().Int("workflow_id", wf.ID).Logger()

	if total == 0 {
		r.sink.Notify(feedback.Info("Macro", "No tasks to run."))
		r.step(Step{WorkflowID: wf.ID, Index: -1, Phase: PhaseFinished})
		return nil
	}

	r.sink.Notify(feedback.Success("Macro Running", fmt.Sprintf(`Starting workflow "%s"...`, wf.Title)))
	r.step(Step{WorkflowID: wf.ID, Index: -1, Total: total, Phase: PhaseAnnounced})
	log.Info().Str("title", wf.Title).Int("tasks", total).Msg("macro started")

	for i, task := range wf.Tasks {
		if err := ctx.Err(); err != nil {
			return r.stop(wf, i, err)
		}
		kind := task.ResolvedKind()
		tlog := log.With().Int("task_index", i).Str("kind", string(kind)).Logger()

		var wait time.Duration
		switch kind {
		case store.KindDelay:
			ms := store.DelayMillis(task.Value, r.pacing.DelayFallback.Milliseconds())
			wait = time.Duration(ms) * time.Millisecond
			r.step(Step{WorkflowID: wf.ID, Index: i, Total: total, Task: task, Phase: PhaseDispatch})
			tlog.Debug().Dur("wait", wait).Msg("delay")

		case store.KindKeys:
			r.step(Step{WorkflowID: wf.ID, Index: i, Total: total, Task: task, Phase: PhaseDispatch})
			if err := r.dispatcher.keys.SendKeys(ctx, task.Value); err != nil {
				tlog.Warn().Err(err).Msg("send keys failed")
				r.sink.Notify(feedback.Error("Auto-Type", err.Error()))
			} else {
				r.sink.Notify(feedback.Info("Auto-Type", "Sending: "+task.Value))
			}
			wait = r.pacing.Keys

		default:
			if !task.HasTarget() {
				tlog.Debug().Msg("no target, skipping")
				continue
			}
			r.step(Step{WorkflowID: wf.ID, Index: i, Total: total, Task: task, Phase: PhaseDispatch})
			r.dispatcher.Dispatch(ctx, task)
			wait = r.pacing.Link
		}

		r.step(Step{WorkflowID: wf.ID, Index: i, Total: total, Task: task, Phase: PhasePace, Wait: wait})
		if err := r.sleeper.Sleep(ctx, wait); err != nil {
			return r.stop(wf, i+1, err)
		}
	}

	r.sink.Notify(feedback.Success("Macro Finished", "All tasks executed."))
	r.step(Step{WorkflowID: wf.ID, Index: -1, Total: total, Phase: PhaseFinished})
	log.Info().Msg("macro finished")
	return nil
}

func (r *Runner) stop(wf store.Workflow, done int, err error) error {
	total := len(wf.Tasks)
	r.sink.Notify(feedback.Info("Macro Stopped",
		fmt.Sprintf(`Stopped "%s" after %d of %d tasks.`, wf.Title, done, total)))
	r.step(Step{WorkflowID: wf.ID, Index: done, Total: total, Phase: PhaseCanceled})
	r.log.Info().Int("workflow_id", wf.ID).Int("done", done).Err(err).Msg("macro stopped")
	return err
}
