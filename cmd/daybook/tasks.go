package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stefanpenner/daybook/pkg/store"
)

// workflowTask parses "<id> <task#>" arguments.
func workflowTask(args []string) (int, int, error) {
	id, err := parseID(args[0])
	if err != nil {
		return 0, 0, err
	}
	index, err := parseTaskNumber(args[1])
	if err != nil {
		return 0, 0, err
	}
	return id, index, nil
}

func addTaskCommands(root *cobra.Command, flags *globalFlags) {
	taskCmd := &cobra.Command{
		Use:   "task",
		Short: "Edit the tasks of a workflow",
		Long: `Edit the tasks of a workflow. Tasks are numbered from 1 in the
order they run.

Fields for 'task set': name, type (link, delay, keys), link, value,
x, y, width, height.`,
	}

	var kind, target, value string
	addCmd := &cobra.Command{
		Use:   "add <id> [name]",
		Short: "Append a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: cliRun(flags, func(ctx context.Context, s *session, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			index, _, err := s.app.Store.AddTask(ctx, id)
			if err != nil {
				return err
			}
			edits := []struct {
				field store.TaskField
				value string
			}{
				{store.FieldName, strings.Join(args[1:], " ")},
				{store.FieldKind, kind},
				{store.FieldTarget, target},
				{store.FieldValue, value},
			}
			for _, e := range edits {
				if e.value == "" {
					continue
				}
				if err := s.app.Store.SetTaskField(ctx, id, index, e.field, e.value); err != nil {
					return err
				}
			}
			w, err := s.app.Store.Workflow(id)
			if err != nil {
				return err
			}
			v := s.viewWorkflow(w).Tasks[index]
			return s.result(v, func() {
				fmt.Fprintf(s.out, "Added task %d to workflow %d: %s\n", v.Number, id, v.Name)
			})
		}),
	}
	addCmd.Flags().StringVar(&kind, "type", "", "task type: link, delay, or keys")
	addCmd.Flags().StringVar(&target, "link", "", "URL or path a link task opens")
	addCmd.Flags().StringVar(&value, "value", "", "milliseconds for delay, key sequence for keys")

	rmCmd := &cobra.Command{
		Use:     "rm <id> <task#>",
		Aliases: []string{"remove"},
		Short:   "Remove a task",
		Args:    cobra.ExactArgs(2),
		RunE: cliRun(flags, func(ctx context.Context, s *session, args []string) error {
			id, index, err := workflowTask(args)
			if err != nil {
				return err
			}
			t, err := s.app.Store.DeleteTask(ctx, id, index)
			if err != nil {
				return err
			}
			s.printf("Removed task %d from workflow %d: %s\n", index+1, id, t.Name)
			return nil
		}),
	}

	setCmd := &cobra.Command{
		Use:   "set <id> <task#> <field> <value>",
		Short: "Set one field of a task",
		Args:  cobra.MinimumNArgs(4),
		RunE: cliRun(flags, func(ctx context.Context, s *session, args []string) error {
			id, index, err := workflowTask(args)
			if err != nil {
				return err
			}
			field, err := store.ParseTaskField(args[2])
			if err != nil {
				return err
			}
			if err := s.app.Store.SetTaskField(ctx, id, index, field, strings.Join(args[3:], " ")); err != nil {
				return err
			}
			s.printf("Updated %s of task %d in workflow %d\n", field, index+1, id)
			return nil
		}),
	}

	clearWindowCmd := &cobra.Command{
		Use:   "clear-window <id> <task#>",
		Short: "Remove the window placement of a link task",
		Args:  cobra.ExactArgs(2),
		RunE: cliRun(flags, func(ctx context.Context, s *session, args []string) error {
			id, index, err := workflowTask(args)
			if err != nil {
				return err
			}
			return s.app.Store.ClearPlacement(ctx, id, index)
		}),
	}

	moveTask := func(dir store.Direction) *cobra.Command {
		return &cobra.Command{
			Use:   string(dir) + " <id> <task#>",
			Short: "Move a task one place " + string(dir),
			Args:  cobra.ExactArgs(2),
			RunE: cliRun(flags, func(ctx context.Context, s *session, args []string) error {
				id, index, err := workflowTask(args)
				if err != nil {
					return err
				}
				moved, err := s.app.Store.MoveTask(ctx, id, index, dir)
				if err != nil {
					return err
				}
				if !moved {
					s.printf("Task %d is already at the %s\n", index+1, edgeName(dir))
				}
				return nil
			}),
		}
	}

	taskCmd.AddCommand(addCmd, rmCmd, setCmd, clearWindowCmd, moveTask(store.Up), moveTask(store.Down))

	var date string
	toggleCmd := &cobra.Command{
		Use:   "toggle <id> <task#>",
		Short: "Check or uncheck a task for the day",
		Args:  cobra.ExactArgs(2),
		RunE: cliRun(flags, func(ctx context.Context, s *session, args []string) error {
			id, index, err := workflowTask(args)
			if err != nil {
				return err
			}
			if date != "" {
				if err := s.app.SwitchDate(ctx, date); err != nil {
					return err
				}
			}
			done, err := s.app.ToggleTask(ctx, id, index)
			if err != nil {
				return err
			}
			w, err := s.app.Store.Workflow(id)
			if err != nil {
				return err
			}
			v := s.viewWorkflow(w)
			return s.result(v.Tasks[index], func() {
				mark := " "
				if done {
					mark = "x"
				}
				fmt.Fprintf(s.out, "[%s] %s (%s, %s %d%%)\n", mark, w.Tasks[index].Name, s.app.Progress.Date(), w.Title, v.Percent)
			})
		}),
	}
	toggleCmd.Flags().StringVar(&date, "date", "", "day to edit, YYYY-MM-DD (default today)")

	root.AddCommand(taskCmd, toggleCmd)
}
