// Package feedback carries short user-visible notifications from the
// dispatcher, runner, and folder watcher to whatever displays them.
package feedback

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Severity of an event.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
)

// Event is one notification.
type Event struct {
	Title    string    `json:"title"`
	Message  string    `json:"message"`
	Severity Severity  `json:"severity"`
	At       time.Time `json:"at"`
}

// Success builds a success event stamped now.
func Success(title, message string) Event {
	return Event{Title: title, Message: message, Severity: SeveritySuccess, At: time.Now()}
}

// Info builds an info event stamped now.
func Info(title, message string) Event {
	return Event{Title: title, Message: message, Severity: SeverityInfo, At: time.Now()}
}

// Error builds an error event stamped now.
func Error(title, message string) Event {
	return Event{Title: title, Message: message, Severity: SeverityError, At: time.Now()}
}

// Sink receives events. Implementations must be safe for concurrent use.
type Sink interface {
	Notify(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Notify(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// Fanout delivers each event to every sink in order.
func Fanout(sinks ...Sink) Sink {
	return SinkFunc(func(e Event) {
		for _, s := range sinks {
			s.Notify(e)
		}
	})
}

// Recorder keeps every event it receives.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Notify(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Titles returns the recorded event titles in order.
func (r *Recorder) Titles() []string {
	events := r.Events()
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Title
	}
	return out
}

// LogSink writes events to a logger; errors at error level, the rest at info.
func LogSink(log zerolog.Logger) Sink {
	return SinkFunc(func(e Event) {
		ev := log.Info()
		if e.Severity == SeverityError {
			ev = log.Error()
		}
		ev.Str("severity", string(e.Severity)).Str("title", e.Title).Msg(e.Message)
	})
}

// ChanSink sends events to a buffered channel and drops them when it is full,
// so producers never block on a slow display.
type ChanSink chan Event

func (c ChanSink) Notify(e Event) {
	select {
	case c <- e:
	default:
	}
}
