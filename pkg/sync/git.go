// Package sync keeps a git history of exported snapshots and pushes it to a
// remote.
package sync

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// SnapshotFile is the exported document tracked in the backup repo.
const SnapshotFile = "daybook.json"

// BackupDir is the backup repository inside the data directory.
func BackupDir(dataDir string) string {
	return filepath.Join(dataDir, "backup")
}

// Repo is a git working tree holding SnapshotFile.
type Repo struct {
	Dir string
	// Out receives git's own output; nil discards it.
	Out io.Writer
	Log zerolog.Logger
}

func (r *Repo) git(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", r.Dir}, args...)...)
	if r.Out != nil {
		cmd.Stdout = r.Out
		cmd.Stderr = r.Out
	}
	return cmd
}

// IsRepo reports whether Dir is already a git repository.
func (r *Repo) IsRepo() bool {
	_, err := os.Stat(filepath.Join(r.Dir, ".git"))
	return err == nil
}

// Init creates the repository if needed and, when remote is non-empty,
// points origin at it.
func (r *Repo) Init(ctx context.Context, remote string) error {
	if err := os.MkdirAll(r.Dir, 0755); err != nil {
		return fmt.Errorf("creating backup directory: %w", err)
	}
	if !r.IsRepo() {
		if err := r.git(ctx, "init", "-q").Run(); err != nil {
			return fmt.Errorf("git init: %w", err)
		}
		r.Log.Info().Str("dir", r.Dir).Msg("initialized backup repository")
	}
	if remote == "" {
		return nil
	}

	// Remove existing origin first; it may not exist.
	_ = r.git(ctx, "remote", "remove", "origin").Run()
	if err := r.git(ctx, "remote", "add", "origin", remote).Run(); err != nil {
		return fmt.Errorf("setting remote: %w", err)
	}
	r.Log.Info().Str("remote", remote).Msg("backup remote set")
	return nil
}

// Commit writes data as the snapshot and commits it. It reports false when
// the snapshot did not change.
func (r *Repo) Commit(ctx context.Context, data []byte) (bool, error) {
	if !r.IsRepo() {
		return false, fmt.Errorf("no backup repository in %s; run 'daybook sync --init' first", r.Dir)
	}
	if err := os.WriteFile(filepath.Join(r.Dir, SnapshotFile), data, 0644); err != nil {
		return false, fmt.Errorf("writing snapshot: %w", err)
	}
	if err := r.git(ctx, "add", SnapshotFile).Run(); err != nil {
		return false, fmt.Errorf("git add: %w", err)
	}
	if err := r.git(ctx, "diff", "--cached", "--quiet").Run(); err == nil {
		return false, nil
	}
	msg := "snapshot " + time.Now().Format("2006-01-02 15:04:05")
	if err := r.git(ctx, "commit", "-q", "-m", msg).Run(); err != nil {
		return false, fmt.Errorf("git commit: %w", err)
	}
	r.Log.Info().Str("message", msg).Msg("committed snapshot")
	return true, nil
}

// HasRemote reports whether origin is configured.
func (r *Repo) HasRemote(ctx context.Context) bool {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, "git", "-C", r.Dir, "remote")
	cmd.Stdout = &out
	return cmd.Run() == nil && bytes.Contains(out.Bytes(), []byte("origin"))
}

// Sync pulls (rebase, falling back to merge) and pushes.
func (r *Repo) Sync(ctx context.Context) error {
	if !r.HasRemote(ctx) {
		return fmt.Errorf("no remote configured; run 'daybook sync --init --remote <url>'")
	}

	if r.remoteEmpty(ctx) {
		r.Log.Debug().Msg("remote has no branches yet, skipping pull")
	} else if err := r.git(ctx, "pull", "--rebase", "origin", "HEAD").Run(); err != nil {
		r.Log.Warn().Err(err).Msg("rebase failed, trying merge")
		_ = r.git(ctx, "rebase", "--abort").Run()

		if err := r.git(ctx, "pull", "--no-rebase", "origin", "HEAD").Run(); err != nil {
			_ = r.git(ctx, "merge", "--abort").Run()
			return fmt.Errorf("sync failed: could not rebase or merge; resolve conflicts in %s", r.Dir)
		}
	}

	if err := r.git(ctx, "push", "-u", "origin", "HEAD").Run(); err != nil {
		return fmt.Errorf("push failed: %w", err)
	}
	r.Log.Info().Msg("backup synced")
	return nil
}

func (r *Repo) remoteEmpty(ctx context.Context) bool {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, "git", "-C", r.Dir, "ls-remote", "--heads", "origin")
	cmd.Stdout = &out
	return cmd.Run() == nil && len(bytes.TrimSpace(out.Bytes())) == 0
}

// Latest reads the snapshot in the working tree.
func (r *Repo) Latest() ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(r.Dir, SnapshotFile))
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	return data, nil
}
