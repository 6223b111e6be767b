package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/stefanpenner/daybook/pkg/app"
	"github.com/stefanpenner/daybook/pkg/logging"
	"github.com/stefanpenner/daybook/pkg/tui"
)

// runTUI opens the dashboard. The folder watcher simulation runs alongside
// the program and stops when it exits.
func runTUI(cmd *cobra.Command, flags *globalFlags) error {
	feeds := tui.NewFeeds()
	s, err := openSession(cmd, flags, sessionOptions{
		mode: logging.ModeTUI,
		app:  app.Options{Sink: feeds.Events, StepHook: feeds.StepHook},
	})
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	m := tui.NewModel(ctx, s.app, feeds)
	p := tea.NewProgram(m, tea.WithAltScreen())

	stopWatcher, err := tui.StartWatcher(s.cfg.DataDir, p.Send, s.log.Logger)
	if err != nil {
		s.log.Warn().Err(err).Msg("data dir watcher unavailable, external changes need a manual reload")
	} else {
		defer stopWatcher()
	}

	g, gctx := errgroup.WithContext(ctx)
	if s.cfg.Watcher.Enabled {
		g.Go(func() error {
			return s.app.Watcher.Run(gctx)
		})
	}
	g.Go(func() error {
		defer cancel()
		_, err := p.Run()
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		p.Quit()
		return nil
	})
	return g.Wait()
}
