package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stefanpenner/daybook/pkg/progress"
)

type dayView struct {
	Date      string          `json:"date"`
	Stats     progress.Stats  `json:"stats"`
	Workflows []workflowStats `json:"workflows,omitempty"`
}

type workflowStats struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Percent int    `json:"percent"`
}

func (s *session) viewDay(withWorkflows bool) dayView {
	ws := s.app.Store.Workflows()
	d := dayView{Date: s.app.Progress.Date(), Stats: s.app.Stats(ws)}
	if withWorkflows {
		for _, w := range ws {
			d.Workflows = append(d.Workflows, workflowStats{ID: w.ID, Title: w.Title, Percent: s.app.WorkflowPercent(w)})
		}
	}
	return d
}

func addProgressCommands(root *cobra.Command, flags *globalFlags) {
	var date string
	var history bool
	progressCmd := &cobra.Command{
		Use:   "progress",
		Short: "Show completion for a day",
		Args:  cobra.NoArgs,
		RunE: cliRun(flags, func(ctx context.Context, s *session, _ []string) error {
			if history {
				return s.printHistory(ctx)
			}
			if date != "" {
				if err := s.app.SwitchDate(ctx, date); err != nil {
					return err
				}
			}
			d := s.viewDay(true)
			return s.result(d, func() {
				fmt.Fprintf(s.out, "%s: %d%% (%d/%d tasks), %s\n", d.Date, d.Stats.Percent, d.Stats.Completed, d.Stats.Total, tierLabel(d.Stats.Percent))
				for _, w := range d.Workflows {
					fmt.Fprintf(s.out, "  %3d%%  %s\n", w.Percent, w.Title)
				}
			})
		}),
	}
	progressCmd.Flags().StringVar(&date, "date", "", "day to show, YYYY-MM-DD (default today)")
	progressCmd.Flags().BoolVar(&history, "history", false, "list every recorded day against the current workflows")

	var resetDate string
	var yes bool
	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Uncheck every task for a day",
		Args:  cobra.NoArgs,
		RunE: cliRun(flags, func(ctx context.Context, s *session, _ []string) error {
			if resetDate != "" {
				if err := s.app.SwitchDate(ctx, resetDate); err != nil {
					return err
				}
			}
			ok, err := s.confirmed(yes, "Reset progress for "+s.app.Progress.Date()+"?", "Every task is unchecked for that day.")
			if err != nil || !ok {
				return err
			}
			if err := s.app.ResetProgress(ctx); err != nil {
				return err
			}
			if s.json {
				return outputJSON(s.out, s.viewDay(false))
			}
			return nil
		}),
	}
	resetCmd.Flags().StringVar(&resetDate, "date", "", "day to reset, YYYY-MM-DD (default today)")
	resetCmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	root.AddCommand(progressCmd, resetCmd)
}

func (s *session) printHistory(ctx context.Context) error {
	dates, err := s.app.Progress.Dates(ctx)
	if err != nil {
		return err
	}
	days := make([]dayView, 0, len(dates))
	for _, date := range dates {
		if err := s.app.SwitchDate(ctx, date); err != nil {
			return err
		}
		days = append(days, s.viewDay(false))
	}
	return s.result(days, func() {
		if len(days) == 0 {
			fmt.Fprintln(s.out, "No progress recorded yet.")
			return
		}
		for _, d := range days {
			fmt.Fprintf(s.out, "%s  %3d%%  %d/%d\n", d.Date, d.Stats.Percent, d.Stats.Completed, d.Stats.Total)
		}
	})
}
