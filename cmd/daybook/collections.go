package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stefanpenner/daybook/pkg/store"
)

func addCollectionCommands(root *cobra.Command, flags *globalFlags) {
	root.AddCommand(
		launcherCommand(flags, store.Shortcuts, "shortcut", "Manage sidebar shortcuts"),
		launcherCommand(flags, store.Tools, "tool", "Manage sidebar tools"),
		folderCommand(flags),
		&cobra.Command{
			Use:   "icons",
			Short: "List the icons a shortcut or tool may use",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if flags.JSON {
					return outputJSON(cmd.OutOrStdout(), store.Icons)
				}
				for _, icon := range store.Icons {
					fmt.Fprintln(cmd.OutOrStdout(), icon)
				}
				return nil
			},
		},
	)
}

func launcherCommand(flags *globalFlags, kind store.LauncherKind, use, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List " + use + "s",
		Args:  cobra.NoArgs,
		RunE: cliRun(flags, func(_ context.Context, s *session, _ []string) error {
			ls := s.app.Store.Launchers(kind)
			return s.result(ls, func() {
				for _, l := range ls {
					fmt.Fprintf(s.out, "%3d  %-24s %-18s %s\n", l.ID, l.Name, l.Icon, l.Link)
				}
			})
		}),
	}

	var name, link, icon string
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a " + use,
		Args:  cobra.NoArgs,
		RunE: cliRun(flags, func(ctx context.Context, s *session, _ []string) error {
			l, err := s.app.Store.AddLauncher(ctx, kind)
			if err != nil {
				return err
			}
			for _, edit := range [][2]string{{"name", name}, {"link", link}, {"icon", icon}} {
				if edit[1] == "" {
					continue
				}
				if err := s.app.Store.UpdateLauncher(ctx, kind, l.ID, edit[0], edit[1]); err != nil {
					return err
				}
			}
			for _, got := range s.app.Store.Launchers(kind) {
				if got.ID == l.ID {
					l = got
				}
			}
			return s.result(l, func() {
				fmt.Fprintf(s.out, "Added %s %d: %s\n", use, l.ID, l.Name)
			})
		}),
	}
	addCmd.Flags().StringVar(&name, "name", "", "display name")
	addCmd.Flags().StringVar(&link, "link", "", "URL or path to open")
	addCmd.Flags().StringVar(&icon, "icon", "", "icon name (see 'daybook icons')")

	setCmd := &cobra.Command{
		Use:   "set <id> name|link|icon <value>",
		Short: "Set one field of a " + use,
		Args:  cobra.MinimumNArgs(3),
		RunE: cliRun(flags, func(ctx context.Context, s *session, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			field := strings.ToLower(args[1])
			return s.app.Store.UpdateLauncher(ctx, kind, id, field, strings.Join(args[2:], " "))
		}),
	}

	rmCmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Remove a " + use,
		Args:    cobra.ExactArgs(1),
		RunE: cliRun(flags, func(ctx context.Context, s *session, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := s.app.Store.RemoveLauncher(ctx, kind, id); err != nil {
				return err
			}
			s.printf("Removed %s %d\n", use, id)
			return nil
		}),
	}

	openCmd := &cobra.Command{
		Use:   "open <id>",
		Short: "Open a " + use,
		Args:  cobra.ExactArgs(1),
		RunE: cliRun(flags, func(ctx context.Context, s *session, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			_, ok, err := s.app.OpenLauncher(ctx, kind, id)
			if err != nil {
				return err
			}
			if !ok {
				s.printf("Nothing to open: %s %d has no link\n", use, id)
			}
			return nil
		}),
	}

	cmd.AddCommand(listCmd, addCmd, setCmd, rmCmd, openCmd)
	return cmd
}

func folderCommand(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "folder",
		Short: "Manage watched folders",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List watched folders",
		Args:  cobra.NoArgs,
		RunE: cliRun(flags, func(_ context.Context, s *session, _ []string) error {
			fs := s.app.Store.Folders()
			return s.result(fs, func() {
				for _, f := range fs {
					fmt.Fprintf(s.out, "%3d  %-20s %s\n", f.ID, f.Name, f.Path)
				}
			})
		}),
	}

	addCmd := &cobra.Command{
		Use:   "add [name] [path]",
		Short: "Watch a folder (default: New Folder in your Downloads)",
		Args:  cobra.MaximumNArgs(2),
		RunE: cliRun(flags, func(ctx context.Context, s *session, args []string) error {
			var name, path string
			if len(args) > 0 {
				name = args[0]
			}
			if len(args) > 1 {
				path = args[1]
			}
			f, err := s.app.Store.AddFolder(ctx, name, path)
			if err != nil {
				return err
			}
			return s.result(f, func() {
				fmt.Fprintf(s.out, "Watching %s (%d): %s\n", f.Name, f.ID, f.Path)
			})
		}),
	}

	setCmd := &cobra.Command{
		Use:   "set <id> name|path <value>",
		Short: "Set the name or path of a watched folder",
		Args:  cobra.MinimumNArgs(3),
		RunE: cliRun(flags, func(ctx context.Context, s *session, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return s.app.Store.UpdateFolder(ctx, id, strings.ToLower(args[1]), strings.Join(args[2:], " "))
		}),
	}

	rmCmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Stop watching a folder",
		Args:    cobra.ExactArgs(1),
		RunE: cliRun(flags, func(ctx context.Context, s *session, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := s.app.Store.RemoveFolder(ctx, id); err != nil {
				return err
			}
			s.printf("Removed folder %d\n", id)
			return nil
		}),
	}

	openCmd := &cobra.Command{
		Use:   "open <id>",
		Short: "Open a watched folder",
		Args:  cobra.ExactArgs(1),
		RunE: cliRun(flags, func(ctx context.Context, s *session, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			_, _, err = s.app.OpenFolder(ctx, id)
			return err
		}),
	}

	cmd.AddCommand(listCmd, addCmd, setCmd, rmCmd, openCmd)
	return cmd
}
