package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WorktreeEntry is one record of `git worktree list --porcelain`.
type WorktreeEntry struct {
	Path     string
	Head     string // full commit hash; empty for bare entries
	Branch   string // short branch name; empty when detached or bare
	Detached bool
	Bare     bool
	Locked   bool
	Prunable bool
}

// ListWorktrees returns all worktrees registered with the repository at dir.
// The main worktree is always first.
func ListWorktrees(ctx context.Context, dir string) ([]WorktreeEntry, error) {
	out, err := outputGit(ctx, dir, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("failed to list worktrees: %w", err)
	}
	return ParseWorktreeList(string(out)), nil
}

// ParseWorktreeList parses porcelain worktree list output.
func ParseWorktreeList(out string) []WorktreeEntry {
	var entries []WorktreeEntry
	var cur *WorktreeEntry

	for _, line := range strings.Split(out, "\n") {
		key, val, _ := strings.Cut(line, " ")
		switch key {
		case "worktree":
			entries = append(entries, WorktreeEntry{Path: val})
			cur = &entries[len(entries)-1]
		case "HEAD":
			if cur != nil {
				cur.Head = val
			}
		case "branch":
			if cur != nil {
				cur.Branch = strings.TrimPrefix(val, "refs/heads/")
			}
		case "detached":
			if cur != nil {
				cur.Detached = true
			}
		case "bare":
			if cur != nil {
				cur.Bare = true
			}
		case "locked":
			if cur != nil {
				cur.Locked = true
			}
		case "prunable":
			if cur != nil {
				cur.Prunable = true
			}
		}
	}
	return entries
}

// MainWorktreePath returns the path of the main worktree of the repository at dir.
func MainWorktreePath(ctx context.Context, dir string) (string, error) {
	entries, err := ListWorktrees(ctx, dir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", fmt.Errorf("no worktrees found")
	}
	return entries[0].Path, nil
}

// FindBranchWorktree returns the path where branch is checked out, or "".
func FindBranchWorktree(ctx context.Context, dir, branch string) (string, error) {
	entries, err := ListWorktrees(ctx, dir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if e.Branch == branch {
			return e.Path, nil
		}
	}
	return "", nil
}

// IsMainWorktree reports whether path holds a .git directory rather than
// the .git file of a linked worktree.
func IsMainWorktree(path string) bool {
	info, err := os.Stat(filepath.Join(path, ".git"))
	return err == nil && info.IsDir()
}

// AddWorktree creates a worktree at path on a new branch started at base.
func AddWorktree(ctx context.Context, dir, path, branch, base string) error {
	return runGit(ctx, dir, "worktree", "add", "-b", branch, path, base)
}

// AddDetachedWorktree creates a worktree at path with a detached HEAD at ref.
func AddDetachedWorktree(ctx context.Context, dir, path, ref string) error {
	return runGit(ctx, dir, "worktree", "add", "--detach", path, ref)
}

// RemoveWorktree removes the worktree at path. force discards local changes.
func RemoveWorktree(ctx context.Context, dir, path string, force bool) error {
	args := []string{"worktree", "remove"}
	if force {
		args = append(args, "--force")
	}
	if err := runGit(ctx, dir, append(args, path)...); err != nil {
		return fmt.Errorf("failed to remove worktree: %w", err)
	}
	return nil
}

// DetachHead detaches HEAD at dir from its branch without touching the
// index or working tree.
func DetachHead(ctx context.Context, dir string) error {
	head, err := outputLine(ctx, dir, "rev-parse", "--verify", "HEAD")
	if err != nil {
		return err
	}
	return runGit(ctx, dir, "update-ref", "--no-deref", "HEAD", head)
}

// AttachHead points HEAD at dir back to branch, leaving files as they are.
func AttachHead(ctx context.Context, dir, branch string) error {
	return runGit(ctx, dir, "symbolic-ref", "HEAD", "refs/heads/"+branch)
}

// PruneWorktrees removes administrative data for worktrees whose directory is gone.
func PruneWorktrees(ctx context.Context, dir string) error {
	return runGit(ctx, dir, "worktree", "prune")
}
