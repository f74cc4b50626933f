package worktree

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/raphi011/wtsweep/internal/git"
	"github.com/raphi011/wtsweep/internal/log"
)

// ManagerConfig holds the naming and storage conventions.
type ManagerConfig struct {
	Prefix        string // branch prefix, e.g. "wt/"
	BaseDir       string // see ResolveBaseDir
	AutoGitignore bool
}

// Manager creates and lists the worktrees of one repository.
type Manager struct {
	repo      string // main worktree root
	commonDir string
	cfg       ManagerConfig
	now       func() time.Time
}

// NewManager opens the repository containing repoPath. Any worktree of
// the repository may be given; the manager always works from the main one.
func NewManager(ctx context.Context, repoPath string, cfg ManagerConfig) (*Manager, error) {
	top, err := git.TopLevel(ctx, repoPath)
	if err != nil {
		return nil, newError(ErrNotARepository, "%s", repoPath)
	}
	mainPath, err := git.MainWorktreePath(ctx, top)
	if err != nil {
		return nil, WrapError(ErrProcess, "failed to find main worktree", err)
	}
	common, err := git.CommonDir(ctx, top)
	if err != nil {
		return nil, WrapError(ErrProcess, "failed to find git directory", err)
	}
	return &Manager{repo: mainPath, commonDir: common, cfg: cfg, now: time.Now}, nil
}

// Repo returns the main worktree path.
func (m *Manager) Repo() string { return m.repo }

// CommonDir returns the git directory shared by all worktrees.
func (m *Manager) CommonDir() string { return m.commonDir }

// Config returns the manager's conventions.
func (m *Manager) Config() ManagerConfig { return m.cfg }

// BaseDir returns the resolved directory new worktrees are created in.
func (m *Manager) BaseDir() string {
	return ResolveBaseDir(m.repo, m.cfg.BaseDir)
}

// CreateOptions configures Create.
type CreateOptions struct {
	TaskID     string
	BaseBranch string // empty = branch checked out in the main worktree
	Force      bool   // replace an existing branch and its worktree
	CustomPath string // empty = computed under BaseDir
}

// Create adds a worktree on a new branch named prefix + sanitized task id,
// started at the base branch's current commit.
func (m *Manager) Create(ctx context.Context, opts CreateOptions) (Info, error) {
	l := log.FromContext(ctx)

	id := SanitizeTaskID(opts.TaskID)
	branch, err := BranchName(m.cfg.Prefix, opts.TaskID)
	if err != nil {
		return Info{}, err
	}

	base := opts.BaseBranch
	if base == "" {
		base, err = git.CurrentBranch(ctx, m.repo)
		if errors.Is(err, git.ErrDetachedHead) {
			base = "HEAD"
		} else if err != nil {
			return Info{}, WrapError(ErrProcess, "failed to read current branch", err)
		}
	}
	baseCommit, err := git.ResolveCommit(ctx, m.repo, base)
	if err != nil {
		return Info{}, WrapError(ErrInvalidReference, "base "+base, err)
	}

	now := m.now()
	path := opts.CustomPath
	if path == "" {
		path = WorktreePath(m.BaseDir(), id, now)
	} else if path, err = filepath.Abs(path); err != nil {
		return Info{}, WrapError(ErrIO, "invalid path", err)
	}

	if err := m.clearExisting(ctx, branch, path, opts.Force); err != nil {
		return Info{}, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Info{}, WrapError(ErrIO, "failed to create base directory", err)
	}

	if m.cfg.AutoGitignore && opts.CustomPath == "" {
		if rel, ok := relativeInside(m.repo, m.BaseDir()); ok {
			changed, err := ensureGitignored(m.repo, rel)
			if err != nil {
				return Info{}, WrapError(ErrIO, "failed to update .gitignore", err)
			}
			if changed {
				l.Debug("added base dir to .gitignore", "entry", rel)
			}
		}
	}

	if err := git.AddWorktree(ctx, m.repo, path, branch, baseCommit); err != nil {
		return Info{}, WrapError(ErrProcess, "failed to add worktree", err)
	}
	l.Debug("created worktree", "path", path, "branch", branch, "base", base)

	return Info{
		Path:      path,
		Branch:    branch,
		Head:      baseCommit,
		CreatedAt: now,
	}, nil
}

// clearExisting fails with ErrAlreadyExists when branch or path is taken,
// unless force is set, in which case the old worktree and branch are removed.
func (m *Manager) clearExisting(ctx context.Context, branch, path string, force bool) error {
	entries, err := git.ListWorktrees(ctx, m.repo)
	if err != nil {
		return WrapError(ErrProcess, "failed to list worktrees", err)
	}

	var occupants []string
	for _, e := range entries {
		if e.Branch == branch || samePath(e.Path, path) {
			if samePath(e.Path, m.repo) {
				return newError(ErrAlreadyExists, "%s is checked out in the main worktree", branch)
			}
			occupants = append(occupants, e.Path)
		}
	}
	branchExists := git.BranchExists(ctx, m.repo, branch)
	_, statErr := os.Stat(path)
	pathExists := statErr == nil

	if !branchExists && len(occupants) == 0 && !pathExists {
		return nil
	}
	if !force {
		if branchExists {
			return newError(ErrAlreadyExists, "branch %s", branch)
		}
		return newError(ErrAlreadyExists, "path %s", path)
	}

	l := log.FromContext(ctx)
	for _, p := range occupants {
		l.Warn("removing existing worktree", "path", p)
		if err := git.RemoveWorktree(ctx, m.repo, p, true); err != nil {
			return WrapError(ErrProcess, "failed to replace worktree", err)
		}
	}
	if _, err := os.Stat(path); err == nil {
		return newError(ErrAlreadyExists, "path %s exists and is not a worktree", path)
	}
	if err := git.PruneWorktrees(ctx, m.repo); err != nil {
		return WrapError(ErrProcess, "failed to prune worktrees", err)
	}
	if branchExists {
		if err := git.DeleteLocalBranch(ctx, m.repo, branch, true); err != nil {
			return WrapError(ErrProcess, "failed to replace branch", err)
		}
	}
	return nil
}

// List returns all worktrees of the repository in git's order (main first).
// Bare and prunable entries, and entries whose directory is gone, are skipped.
// Status is not populated.
func (m *Manager) List(ctx context.Context) ([]Info, error) {
	entries, err := git.ListWorktrees(ctx, m.repo)
	if err != nil {
		return nil, WrapError(ErrProcess, "failed to enumerate worktrees", err)
	}

	l := log.FromContext(ctx)
	now := m.now()
	infos := make([]Info, 0, len(entries))
	for _, e := range entries {
		if e.Bare {
			continue
		}
		if e.Prunable {
			l.Debug("skipping prunable worktree", "path", e.Path)
			continue
		}
		if _, err := os.Stat(e.Path); err != nil {
			l.Warn("worktree directory missing", "path", e.Path, "error", err)
			continue
		}

		info := Info{
			Path:       e.Path,
			Branch:     e.Branch,
			Head:       e.Head,
			IsDetached: e.Detached || e.Branch == "",
			IsMain:     samePath(e.Path, m.repo),
			Locked:     e.Locked,
		}
		info.CreatedAt = m.createdAt(ctx, info)
		if !info.CreatedAt.IsZero() {
			info.Age = now.Sub(info.CreatedAt)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// createdAt reads the branch's oldest reflog entry, falling back to the
// modification time of the worktree's .git entry.
func (m *Manager) createdAt(ctx context.Context, info Info) time.Time {
	if info.Branch != "" {
		if t, err := git.GetBranchCreatedTime(ctx, m.repo, info.Branch); err == nil {
			return t
		}
	}
	if fi, err := os.Stat(filepath.Join(info.Path, ".git")); err == nil {
		return fi.ModTime()
	}
	return time.Time{}
}

// samePath compares paths after resolving symlinks where possible.
func samePath(a, b string) bool {
	if a == b {
		return true
	}
	ra, errA := filepath.EvalSymlinks(a)
	rb, errB := filepath.EvalSymlinks(b)
	return errA == nil && errB == nil && ra == rb
}
