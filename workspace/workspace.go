// Package workspace wraps the git CLI for the small set of repository
// operations the tool needs: opening a working tree, branching before a
// run, and committing the files a run wrote.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrNotRepository indicates the directory is not inside a git working tree.
var ErrNotRepository = errors.New("not a git repository")

// ErrGitNotFound indicates the git binary was not found in PATH.
var ErrGitNotFound = errors.New("git binary not found")

// maxStderrLength limits stderr output in error messages.
const maxStderrLength = 500

// Workspace is a git working tree the tool writes into.
type Workspace struct {
	root    string
	gitPath string
}

// Open validates dir as a git working tree and returns a Workspace
// rooted at the repository's top level.
func Open(ctx context.Context, dir string) (*Workspace, error) {
	gitPath, err := exec.LookPath("git")
	if err != nil {
		return nil, ErrGitNotFound
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving workspace path: %w", err)
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("workspace %s is not a directory", abs)
	}

	w := &Workspace{root: abs, gitPath: gitPath}
	top, err := w.run(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotRepository, abs)
	}
	w.root = top
	return w, nil
}

// Clone clones url into dir and returns the resulting Workspace.
func Clone(ctx context.Context, url, dir string) (*Workspace, error) {
	gitPath, err := exec.LookPath("git")
	if err != nil {
		return nil, ErrGitNotFound
	}

	cmd := exec.CommandContext(ctx, gitPath, "clone", "--", url, dir)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git clone %s: %s", url, sanitizeStderr(stderr.String()))
	}
	return Open(ctx, dir)
}

// Root returns the repository's top-level directory. This is the target
// root files are materialized under.
func (w *Workspace) Root() string {
	return w.root
}

// CurrentBranch returns the checked-out branch name.
func (w *Workspace) CurrentBranch(ctx context.Context) (string, error) {
	return w.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
}

// NewBranch creates and checks out a branch.
func (w *Workspace) NewBranch(ctx context.Context, name string) error {
	_, err := w.run(ctx, "checkout", "-b", name)
	return err
}

// Dirty reports whether the working tree has uncommitted changes,
// including untracked files.
func (w *Workspace) Dirty(ctx context.Context) (bool, error) {
	out, err := w.run(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return out != "", nil
}

// CommitAll stages every change in the working tree and commits it.
// Returns the new commit hash.
func (w *Workspace) CommitAll(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", errors.New("commit message is empty")
	}
	if _, err := w.run(ctx, "add", "--all"); err != nil {
		return "", err
	}
	if _, err := w.run(ctx, "commit", "-m", message); err != nil {
		return "", err
	}
	return w.run(ctx, "rev-parse", "HEAD")
}

// Push pushes the current branch to remote, setting upstream.
func (w *Workspace) Push(ctx context.Context, remote string) error {
	branch, err := w.CurrentBranch(ctx)
	if err != nil {
		return err
	}
	_, err = w.run(ctx, "push", "--set-upstream", remote, branch)
	return err
}

// run executes a git subcommand in the workspace root and returns its
// trimmed stdout.
func (w *Workspace) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, w.gitPath, args...)
	cmd.Dir = w.root

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := sanitizeStderr(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return "", fmt.Errorf("git %s: %s", args[0], detail)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// sanitizeStderr prepares stderr output for inclusion in error messages.
func sanitizeStderr(stderr string) string {
	if len(stderr) > maxStderrLength {
		stderr = stderr[:maxStderrLength] + "... (truncated)"
	}
	return strings.TrimSpace(stderr)
}
