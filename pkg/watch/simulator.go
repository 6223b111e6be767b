package watch

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/stefanpenner/daybook/pkg/feedback"
	"github.com/stefanpenner/daybook/pkg/store"
)

// MockFiles are the file names a simulated arrival picks from.
var MockFiles = []string{"Report_2025.pdf", "Data_Export.csv", "Invoice_A110.xlsx", "Log_Error.txt"}

// Defaults for a Simulator.
const (
	DefaultInterval    = 15 * time.Second
	DefaultProbability = 0.3
)

// FolderWatcher reports files appearing in watched folders until ctx ends.
type FolderWatcher interface {
	Run(ctx context.Context) error
}

// Simulator is the FolderWatcher used everywhere: it never looks at the
// file system. Each tick it picks a folder and, with some probability,
// invents a file in it.
type Simulator struct {
	folders     func() []store.WatchedFolder
	inbox       *Inbox
	sink        feedback.Sink
	interval    time.Duration
	probability float64
	onAlert     func(Alert)
	log         zerolog.Logger
	now         func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithInterval sets the tick period.
func WithInterval(d time.Duration) Option {
	return func(s *Simulator) { s.interval = d }
}

// WithProbability sets the chance a tick produces an alert.
func WithProbability(p float64) Option {
	return func(s *Simulator) { s.probability = p }
}

// WithRand makes the simulation reproducible.
func WithRand(r *rand.Rand) Option {
	return func(s *Simulator) { s.rnd = r }
}

// WithAlertHook is called for every new alert, after it is in the inbox.
func WithAlertHook(fn func(Alert)) Option {
	return func(s *Simulator) { s.onAlert = fn }
}

// WithLogger sets the simulator's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Simulator) { s.log = log }
}

// NewSimulator reads the folder list through folders on every tick, so
// edits take effect without a restart.
func NewSimulator(folders func() []store.WatchedFolder, inbox *Inbox, sink feedback.Sink, opts ...Option) *Simulator {
	if sink == nil {
		sink = feedback.Discard
	}
	s := &Simulator{
		folders:     folders,
		inbox:       inbox,
		sink:        sink,
		interval:    DefaultInterval,
		probability: DefaultProbability,
		log:         zerolog.Nop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rnd == nil {
		s.rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return s
}

// Run ticks until ctx is done.
func (s *Simulator) Run(ctx context.Context) error {
	if s.interval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	s.log.Debug().Dur("interval", s.interval).Float64("probability", s.probability).Msg("folder watcher started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Tick runs one round of the simulation. It reports the alert it raised,
// if any.
func (s *Simulator) Tick() (Alert, bool) {
	folders := s.folders()
	if len(folders) == 0 {
		return Alert{}, false
	}

	s.mu.Lock()
	folder := folders[s.rnd.IntN(len(folders))]
	hit := s.rnd.Float64() < s.probability
	file := MockFiles[s.rnd.IntN(len(MockFiles))]
	s.mu.Unlock()
	if !hit {
		return Alert{}, false
	}

	alert := s.inbox.Add(Alert{
		FolderID: folder.ID,
		FileName: file,
		Path:     JoinPath(folder.Path, file),
		At:       s.now(),
	})
	s.log.Info().Str("folder", folder.Name).Str("file", file).Msg("simulated file arrival")
	s.sink.Notify(feedback.Info("Folder Watcher", "New file detected in "+folder.Name))
	if s.onAlert != nil {
		s.onAlert(alert)
	}
	return alert, true
}

// JoinPath appends name to dir using dir's own separator style. Paths with
// no forward slash are treated as Windows paths.
func JoinPath(dir, name string) string {
	sep := `\`
	if strings.Contains(dir, "/") && !strings.Contains(dir, `\`) {
		sep = "/"
	}
	return strings.TrimRight(dir, sep) + sep + name
}
