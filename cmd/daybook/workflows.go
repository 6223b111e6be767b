package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/stefanpenner/daybook/pkg/progress"
	"github.com/stefanpenner/daybook/pkg/store"
)

type taskView struct {
	Number int            `json:"number"`
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Kind   store.TaskKind `json:"kind"`
	Target string         `json:"target,omitempty"`
	Value  string         `json:"value,omitempty"`
	Window string         `json:"window,omitempty"`
	Done   bool           `json:"done"`
}

type workflowView struct {
	ID      int        `json:"id"`
	Title   string     `json:"title"`
	Percent int        `json:"percent"`
	Tasks   []taskView `json:"tasks"`
}

func (s *session) viewWorkflow(w store.Workflow) workflowView {
	v := workflowView{ID: w.ID, Title: w.Title, Percent: s.app.WorkflowPercent(w), Tasks: []taskView{}}
	for i, t := range w.Tasks {
		tv := taskView{
			Number: i + 1,
			ID:     t.ID,
			Name:   t.Name,
			Kind:   t.ResolvedKind(),
			Target: t.Target,
			Value:  t.Value,
			Done:   s.app.IsDone(w.ID, i, t),
		}
		if t.Placement != nil {
			tv.Window = t.Placement.String()
		}
		v.Tasks = append(v.Tasks, tv)
	}
	return v
}

func addWorkflowCommands(root *cobra.Command, flags *globalFlags) {
	var search string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List workflows with today's completion",
		Args:  cobra.NoArgs,
		RunE: cliRun(flags, func(_ context.Context, s *session, _ []string) error {
			ws := s.app.Store.Workflows()
			if search != "" {
				ws = s.app.Store.Search(search)
			}
			views := make([]workflowView, 0, len(ws))
			for _, w := range ws {
				views = append(views, s.viewWorkflow(w))
			}
			return s.result(views, func() {
				if len(views) == 0 {
					fmt.Fprintln(s.out, "No workflows.")
					return
				}
				for _, v := range views {
					fmt.Fprintf(s.out, "%3d  %-32s %3d%%  %d tasks\n", v.ID, v.Title, v.Percent, len(v.Tasks))
				}
				st := s.app.Stats(s.app.Store.Workflows())
				fmt.Fprintf(s.out, "\n%s: %d%% (%d/%d tasks)\n", s.app.Progress.Date(), st.Percent, st.Completed, st.Total)
			})
		}),
	}
	listCmd.Flags().StringVarP(&search, "search", "s", "", "only workflows whose title or a task name contains this")

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a workflow and today's checklist",
		Args:  cobra.ExactArgs(1),
		RunE: cliRun(flags, func(_ context.Context, s *session, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			w, err := s.app.Store.Workflow(id)
			if err != nil {
				return err
			}
			if s.json {
				return outputJSON(s.out, s.viewWorkflow(w))
			}
			md := store.RenderWorkflowMarkdown(w, func(i int, t store.Task) bool {
				return s.app.IsDone(w.ID, i, t)
			})
			fmt.Fprint(s.out, renderMarkdown(md))
			return nil
		}),
	}

	runCmd := &cobra.Command{
		Use:   "run <id>",
		Short: "Run a workflow as a macro",
		Long: `Run a workflow's tasks in order: links are opened, delays are waited
out, and key sequences are sent. Running never checks tasks off.
Press Ctrl+C to stop.`,
		Args: cobra.ExactArgs(1),
		RunE: cliRun(flags, func(ctx context.Context, s *session, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			runErr := s.app.RunWorkflow(ctx, id)
			if s.json {
				if err := outputJSON(s.out, s.events.Events()); err != nil {
					return err
				}
			}
			if runErr != nil && ctx.Err() != nil {
				return nil
			}
			return runErr
		}),
	}

	openCmd := &cobra.Command{
		Use:   "open <target> | open <id> <task#>",
		Short: "Open a link or path, or one task of a workflow",
		Args:  cobra.RangeArgs(1, 2),
		RunE: cliRun(flags, func(ctx context.Context, s *session, args []string) error {
			if len(args) == 1 {
				if _, ok := s.app.Dispatcher.DispatchTarget(ctx, args[0]); !ok {
					return fmt.Errorf("nothing to open")
				}
			} else {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				index, err := parseTaskNumber(args[1])
				if err != nil {
					return err
				}
				_, ok, err := s.app.OpenTask(ctx, id, index)
				if err != nil {
					return err
				}
				if !ok {
					s.printf("Nothing to open: task %d has no target\n", index+1)
				}
			}
			if s.json {
				return outputJSON(s.out, s.events.Events())
			}
			return nil
		}),
	}

	addCmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a workflow",
		Args:  cobra.MinimumNArgs(1),
		RunE: cliRun(flags, func(ctx context.Context, s *session, args []string) error {
			w, err := s.app.Store.AddWorkflow(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			return s.result(s.viewWorkflow(w), func() {
				fmt.Fprintf(s.out, "Added workflow %d: %s\n", w.ID, w.Title)
			})
		}),
	}

	renameCmd := &cobra.Command{
		Use:   "rename <id> <title>",
		Short: "Rename a workflow",
		Args:  cobra.MinimumNArgs(2),
		RunE: cliRun(flags, func(ctx context.Context, s *session, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			title := strings.Join(args[1:], " ")
			if err := s.app.Store.RenameWorkflow(ctx, id, title); err != nil {
				return err
			}
			s.printf("Renamed workflow %d to %s\n", id, title)
			return nil
		}),
	}

	var yes bool
	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a workflow",
		Args:  cobra.ExactArgs(1),
		RunE: cliRun(flags, func(ctx context.Context, s *session, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			w, err := s.app.Store.Workflow(id)
			if err != nil {
				return err
			}
			ok, err := s.confirmed(yes, fmt.Sprintf("Delete workflow %q?", w.Title), fmt.Sprintf("Its %d tasks are removed too.", len(w.Tasks)))
			if err != nil || !ok {
				return err
			}
			if err := s.app.Store.DeleteWorkflow(ctx, id); err != nil {
				return err
			}
			return s.result(map[string]int{"deleted": id}, func() {
				fmt.Fprintf(s.out, "Deleted workflow %d: %s\n", id, w.Title)
			})
		}),
	}
	deleteCmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	moveCmd := &cobra.Command{
		Use:   "move <id> up|down",
		Short: "Move a workflow one place up or down",
		Args:  cobra.ExactArgs(2),
		RunE: cliRun(flags, func(ctx context.Context, s *session, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			dir, err := store.ParseDirection(args[1])
			if err != nil {
				return err
			}
			moved, err := s.app.Store.MoveWorkflow(ctx, id, dir)
			if err != nil {
				return err
			}
			return s.result(map[string]bool{"moved": moved}, func() {
				if moved {
					fmt.Fprintf(s.out, "Moved workflow %d %s\n", id, dir)
				} else {
					fmt.Fprintf(s.out, "Workflow %d is already at the %s\n", id, edgeName(dir))
				}
			})
		}),
	}

	root.AddCommand(listCmd, showCmd, runCmd, openCmd, addCmd, renameCmd, deleteCmd, moveCmd)
}

func edgeName(dir store.Direction) string {
	if dir == store.Up {
		return "top"
	}
	return "bottom"
}

// renderMarkdown renders md for the terminal, falling back to the raw text.
func renderMarkdown(md string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

func tierLabel(p int) string {
	switch progress.TierFor(p) {
	case progress.TierHigh:
		return "on track"
	case progress.TierMedium:
		return "halfway"
	default:
		return "behind"
	}
}
