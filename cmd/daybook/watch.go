package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/stefanpenner/daybook/pkg/app"
	"github.com/stefanpenner/daybook/pkg/config"
	"github.com/stefanpenner/daybook/pkg/logging"
	"github.com/stefanpenner/daybook/pkg/watch"
)

func addWatchCommand(root *cobra.Command, flags *globalFlags) {
	var (
		interval    time.Duration
		probability float64
		count       int
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the folder watcher and print file alerts",
		Long: `Run the folder watcher in the foreground. Every interval one watched
folder is checked and, with the configured probability, a new file is
reported. Press Ctrl+C to stop.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			alerts := make(chan watch.Alert, 16)
			s, err := openSession(cmd, flags, sessionOptions{
				mode: logging.ModeCLI,
				app: app.Options{AlertHook: func(a watch.Alert) {
					select {
					case alerts <- a:
					default:
					}
				}},
				configure: func(cfg *config.Config) {
					if cmd.Flags().Changed("interval") {
						cfg.Watcher.Interval = interval
					}
					if cmd.Flags().Changed("probability") {
						cfg.Watcher.Probability = probability
					}
				},
			})
			if err != nil {
				return err
			}
			defer s.Close()

			folders := s.app.Store.Folders()
			if len(folders) == 0 {
				s.printf("No watched folders. Add one with 'daybook folder add'.\n")
				return nil
			}
			s.printf("Watching %d folders every %s (p=%g)\n", len(folders), s.cfg.Watcher.Interval, s.cfg.Watcher.Probability)

			var seen []watch.Alert
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return s.app.Watcher.Run(gctx)
			})
			g.Go(func() error {
				for {
					select {
					case <-gctx.Done():
						return nil
					case a := <-alerts:
						seen = append(seen, a)
						s.printf("  %s  %s\n", a.At.Format("15:04:05"), a.Path)
						if count > 0 && len(seen) >= count {
							cancel()
							return nil
						}
					}
				}
			})
			if err := g.Wait(); err != nil {
				return err
			}
			if s.json {
				return outputJSON(s.out, seen)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "time between checks (default from config, 15s)")
	cmd.Flags().Float64Var(&probability, "probability", 0, "chance a check finds a file (default from config, 0.3)")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "stop after this many alerts")

	root.AddCommand(cmd)
}

func addSyncCommand(root *cobra.Command, flags *globalFlags) {
	var (
		initRepo bool
		remote   string
	)
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Commit a snapshot to the backup repository and push it",
		Long: `Commit the exported configuration to a git repository in the data
directory, then pull and push when a remote is configured.

  daybook sync --init --remote git@example.com:me/daybook.git`,
		Args: cobra.NoArgs,
		RunE: cliRun(flags, func(ctx context.Context, s *session, _ []string) error {
			if initRepo {
				if err := s.app.Backup.Init(ctx, remote); err != nil {
					return err
				}
			}
			committed, pushed, err := s.app.Sync(ctx)
			if err != nil {
				return err
			}
			return s.result(map[string]bool{"committed": committed, "pushed": pushed}, func() {
				if committed {
					fmt.Fprintln(s.out, "Snapshot committed")
				} else {
					fmt.Fprintln(s.out, "No changes")
				}
				if pushed {
					fmt.Fprintln(s.out, "Pushed to origin")
				}
			})
		}),
	}
	cmd.Flags().BoolVar(&initRepo, "init", false, "create the backup repository first")
	cmd.Flags().StringVar(&remote, "remote", "", "with --init, set origin to this URL")

	root.AddCommand(cmd)
}
