package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(&globalFlags{})
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

type globalFlags struct {
	Dir     string
	JSON    bool
	Verbose bool
}

func newRootCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daybook",
		Short: "Daily workflows, checklists, and launchers",
		Long: `daybook keeps your daily routine in one place: workflows of links,
waits, and key presses that can be run as macros, a per-day checklist,
shortcuts, tools, and watched folders.

Run without arguments to open the dashboard.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, flags)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flags.Dir, "dir", "", "data directory (default $DAYBOOK_DIR or the per-OS default)")
	cmd.PersistentFlags().BoolVar(&flags.JSON, "json", false, "print machine-readable JSON")
	cmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "log debug output to stderr")

	addWorkflowCommands(cmd, flags)
	addTaskCommands(cmd, flags)
	addProgressCommands(cmd, flags)
	addDataCommands(cmd, flags)
	addCollectionCommands(cmd, flags)
	addWatchCommand(cmd, flags)
	addSyncCommand(cmd, flags)

	return cmd
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseID parses a workflow, launcher, or folder id.
func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid id: %s", s)
	}
	return id, nil
}

// parseTaskNumber maps a 1-based task number to an index.
func parseTaskNumber(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid task number: %s (tasks are numbered from 1)", s)
	}
	return n - 1, nil
}
