package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/stefanpenner/daybook/pkg/app"
	"github.com/stefanpenner/daybook/pkg/config"
	"github.com/stefanpenner/daybook/pkg/feedback"
	"github.com/stefanpenner/daybook/pkg/logging"
)

// session is one opened data directory: config, logger, and app.
type session struct {
	cfg    *config.Config
	log    *logging.Logger
	app    *app.App
	events *feedback.Recorder

	out  io.Writer
	json bool
}

type sessionOptions struct {
	mode logging.Mode
	app  app.Options
	// configure adjusts the loaded config before the app is wired.
	configure func(*config.Config)
}

// openSession resolves the data directory, loads its config, and opens the
// app. In CLI mode events are printed to the command's output as they
// happen, unless --json is set, and are always recorded.
func openSession(cmd *cobra.Command, flags *globalFlags, opts sessionOptions) (*session, error) {
	dataDir := config.ResolveDataDir(flags.Dir)
	cfg, err := config.Load(dataDir)
	if err != nil {
		return nil, err
	}
	if opts.configure != nil {
		opts.configure(cfg)
		if err := config.Validate(cfg); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
	}

	var console io.Writer
	if w := cmd.ErrOrStderr(); w != os.Stderr {
		console = w
	}
	log, logErr := logging.New(logging.Options{
		Mode:         opts.mode,
		Level:        cfg.Log.Level,
		ConsoleLevel: "warn",
		Verbose:      flags.Verbose,
		File:         cfg.Log.File,
		Console:      console,
	})
	if logErr != nil {
		log.Warn().Err(logErr).Msg("log file unavailable")
	}

	s := &session{
		cfg:    cfg,
		log:    log,
		events: &feedback.Recorder{},
		out:    cmd.OutOrStdout(),
		json:   flags.JSON,
	}

	appOpts := opts.app
	if opts.mode == logging.ModeCLI {
		sinks := []feedback.Sink{s.events}
		if !flags.JSON {
			sinks = append(sinks, feedback.SinkFunc(s.printEvent))
		}
		if appOpts.Sink != nil {
			sinks = append(sinks, appOpts.Sink)
		}
		appOpts.Sink = feedback.Fanout(sinks...)
	}

	a, err := app.Open(cmd.Context(), cfg, log.Logger, appOpts)
	if err != nil {
		_ = log.Close()
		return nil, err
	}
	if flags.Verbose {
		a.Backup.Out = cmd.ErrOrStderr()
	}
	s.app = a
	log.Debug().Str("data_dir", dataDir).Msg("session opened")
	return s, nil
}

func (s *session) Close() error {
	err := s.app.Close()
	if cerr := s.log.Close(); err == nil {
		err = cerr
	}
	return err
}

func (s *session) printEvent(e feedback.Event) {
	if e.Title == "" {
		fmt.Fprintln(s.out, e.Message)
		return
	}
	fmt.Fprintf(s.out, "%s: %s\n", e.Title, e.Message)
}

// printf writes human output; it is silent under --json.
func (s *session) printf(format string, args ...any) {
	if s.json {
		return
	}
	fmt.Fprintf(s.out, format, args...)
}

// result prints v as JSON under --json, or calls text otherwise.
func (s *session) result(v any, text func()) error {
	if s.json {
		return outputJSON(s.out, v)
	}
	text()
	return nil
}

// cliRun opens a CLI session around fn.
func cliRun(flags *globalFlags, fn func(ctx context.Context, s *session, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd, flags, sessionOptions{mode: logging.ModeCLI})
		if err != nil {
			return err
		}
		defer s.Close()
		return fn(cmd.Context(), s, args)
	}
}
