package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"
)

func addDataCommands(root *cobra.Command, flags *globalFlags) {
	exportCmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Export workflows, shortcuts, tools, and folders as JSON",
		Long: `Export workflows, shortcuts, tools, and watched folders as one JSON
document. Without a file the document is written to stdout.
Daily progress is not exported.`,
		Args: cobra.MaximumNArgs(1),
		RunE: cliRun(flags, func(_ context.Context, s *session, args []string) error {
			if len(args) == 0 {
				data, err := s.app.Store.ExportJSON()
				if err != nil {
					return err
				}
				_, err = s.out.Write(data)
				return err
			}
			if err := s.app.ExportFile(args[0]); err != nil {
				return err
			}
			return s.result(map[string]string{"exported": args[0]}, func() {
				fmt.Fprintf(s.out, "Exported to %s\n", args[0])
			})
		}),
	}

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import an exported document or a legacy workflow list",
		Long: `Import an exported document, replacing each collection it contains.
A bare JSON array is read as a legacy list of workflows. Use - to read
from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cliRun(flags, func(ctx context.Context, s *session, args []string) error {
				var err error
				if args[0] == "-" {
					var data []byte
					data, err = io.ReadAll(cmd.InOrStdin())
					if err != nil {
						return fmt.Errorf("reading stdin: %w", err)
					}
					err = s.app.ImportData(ctx, data)
				} else {
					err = s.app.ImportFile(ctx, args[0])
				}
				if s.json {
					if jerr := outputJSON(s.out, s.events.Events()); jerr != nil && err == nil {
						err = jerr
					}
				}
				return err
			})(cmd, args)
		},
	}

	editCmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a workflow in $EDITOR",
		Long: `Open a workflow in $EDITOR as markdown with YAML frontmatter. The
frontmatter holds the title and tasks; the body is ignored. Saving
replaces the workflow; an id in the document is ignored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cliRun(flags, func(ctx context.Context, s *session, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				doc, err := s.app.WorkflowDoc(id)
				if err != nil {
					return err
				}
				edited, err := editInEditor(ctx, cmd, doc)
				if err != nil {
					return err
				}
				if edited == doc {
					s.printf("No changes.\n")
					return nil
				}
				if err := s.app.SaveWorkflowDoc(ctx, id, edited); err != nil {
					return err
				}
				s.printf("Saved workflow %d\n", id)
				return nil
			})(cmd, args)
		},
	}

	root.AddCommand(exportCmd, importCmd, editCmd)
}

// editorCommand splits $EDITOR into a command and its arguments,
// defaulting to vim.
func editorCommand() []string {
	if fields := strings.Fields(os.Getenv("EDITOR")); len(fields) > 0 {
		return fields
	}
	return []string{"vim"}
}

// editInEditor writes content to a temp file, waits for the editor, and
// returns what was saved.
func editInEditor(ctx context.Context, cmd *cobra.Command, content string) (string, error) {
	f, err := os.CreateTemp("", "daybook-workflow-*.md")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	editor := editorCommand()
	c := exec.CommandContext(ctx, editor[0], append(editor[1:], path)...)
	c.Stdin = cmd.InOrStdin()
	c.Stdout = cmd.OutOrStdout()
	c.Stderr = cmd.ErrOrStderr()
	if err := c.Run(); err != nil {
		return "", fmt.Errorf("editor: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading edited file: %w", err)
	}
	return string(data), nil
}
