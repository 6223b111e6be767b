// Package macro performs task side effects and runs workflows.
package macro

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/stefanpenner/daybook/pkg/feedback"
	"github.com/stefanpenner/daybook/pkg/store"
)

// Dispatcher performs a single task's side effect and reports it.
type Dispatcher struct {
	sink  feedback.Sink
	links LinkOpener
	keys  KeySender
	log   zerolog.Logger
}

// NewDispatcher wires a dispatcher. Nil capabilities fall back to the
// narrated ones.
func NewDispatcher(sink feedback.Sink, links LinkOpener, keys KeySender, log zerolog.Logger) *Dispatcher {
	if sink == nil {
		sink = feedback.Discard
	}
	if links == nil {
		links = NarratedLinks{Log: log}
	}
	if keys == nil {
		keys = NarratedKeys{Log: log}
	}
	return &Dispatcher{sink: sink, links: links, keys: keys, log: log}
}

// Sink is where the dispatcher sends its events.
func (d *Dispatcher) Sink() feedback.Sink { return d.sink }

// Dispatch performs the task's side effect without waiting, emits the
// resulting event, and returns it. A link task with no target does nothing
// and reports false.
func (d *Dispatcher) Dispatch(ctx context.Context, t store.Task) (feedback.Event, bool) {
	ev, ok := d.event(ctx, t)
	if ok {
		d.sink.Notify(ev)
	}
	return ev, ok
}

// DispatchTarget dispatches a raw link, as clicking a shortcut, tool, or
// file alert does.
func (d *Dispatcher) DispatchTarget(ctx context.Context, target string) (feedback.Event, bool) {
	return d.Dispatch(ctx, store.Task{Kind: store.KindLink, Target: target})
}

func (d *Dispatcher) event(ctx context.Context, t store.Task) (feedback.Event, bool) {
	switch t.ResolvedKind() {
	case store.KindDelay:
		ms := store.DelayMillis(t.Value, 0)
		return feedback.Info("Simulation", fmt.Sprintf("Waiting for %dms...", ms)), true

	case store.KindKeys:
		if err := d.keys.SendKeys(ctx, t.Value); err != nil {
			return feedback.Error("Key Press Simulation", err.Error()), true
		}
		return feedback.Success("Key Press Simulation", "Sending keys: "+t.Value), true

	default:
		if !t.HasTarget() {
			return feedback.Event{}, false
		}
		if strings.HasPrefix(t.Target, "http") {
			if t.Placement != nil {
				d.log.Debug().Str("url", t.Target).Stringer("window", t.Placement).
					Msg("browser windows cannot be positioned, ignoring placement")
			}
			if err := d.links.OpenURL(ctx, t.Target); err != nil {
				d.log.Warn().Err(err).Str("url", t.Target).Msg("open link failed")
				return feedback.Error("Browser", err.Error()), true
			}
			return feedback.Success("Browser", "Opening "+t.Target), true
		}
		msg := `Opening "` + t.Target + `"`
		if t.Placement != nil {
			msg += fmt.Sprintf(" (Window: %s)", t.Placement)
		}
		return feedback.Success("System Action", msg), true
	}
}
