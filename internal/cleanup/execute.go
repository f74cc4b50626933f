package cleanup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/raphi011/wtsweep/internal/git"
	"github.com/raphi011/wtsweep/internal/log"
	"github.com/raphi011/wtsweep/internal/worktree"
)

// execute runs the strategy for info. Preserving steps run before anything
// is removed; when one fails the worktree is left as it was. It returns
// the stash commit for StashAndDiscard.
func (e *Engine) execute(ctx context.Context, info worktree.Info, status *worktree.Status, opts Options) (string, error) {
	switch opts.Strategy {
	case Discard:
		return "", e.remove(ctx, info, opts)
	case MergeToFeature:
		if err := e.mergeToFeature(ctx, info, opts); err != nil {
			return "", err
		}
		return "", e.remove(ctx, info, opts)
	case BackupToOrigin:
		if err := e.backup(ctx, info, opts); err != nil {
			return "", err
		}
		return "", e.remove(ctx, info, opts)
	case StashAndDiscard:
		var stash string
		if len(status.UncommittedChanges) > 0 || len(status.UntrackedFiles) > 0 {
			var err error
			if stash, err = e.stash(ctx, info, opts); err != nil {
				return "", err
			}
		}
		if err := e.remove(ctx, info, opts); err != nil {
			if stash == "" {
				return "", err
			}
			// put the changes back into the worktree that is still there
			if popErr := git.StashPop(context.WithoutCancel(ctx), info.Path, stash); popErr != nil {
				return stash, fmt.Errorf("%w (changes kept in stash %s: %v)", err, stash, popErr)
			}
			return "", err
		}
		return stash, nil
	}
	return "", fmt.Errorf("unknown strategy %q", opts.Strategy)
}

// remove deletes the worktree directory and, unless KeepBranch, its branch.
// The branch is deleted first from a detached HEAD; if either step fails
// the branch is restored and reattached, leaving the worktree as it was.
func (e *Engine) remove(ctx context.Context, info worktree.Info, opts Options) error {
	repo := e.mgr.Repo()
	deleteBranch := !opts.KeepBranch && info.Branch != ""

	var head string
	if deleteBranch {
		var err error
		if head, err = git.HeadCommit(ctx, info.Path); err != nil {
			return worktree.WrapError(worktree.ErrProcess, "read HEAD of "+info.Path, err)
		}
		if err := git.DetachHead(ctx, info.Path); err != nil {
			return worktree.WrapError(worktree.ErrProcess, "detach "+info.Path, err)
		}
		if err := git.DeleteLocalBranch(ctx, repo, info.Branch, true); err != nil {
			e.restoreBranch(ctx, info, "")
			return worktree.WrapError(worktree.ErrProcess, "delete branch "+info.Branch, err)
		}
	}

	if err := git.RemoveWorktree(ctx, repo, info.Path, true); err != nil {
		if deleteBranch {
			e.restoreBranch(ctx, info, head)
		}
		return worktree.WrapError(worktree.ErrProcess, "remove "+info.Path, err)
	}
	return nil
}

// restoreBranch recreates info.Branch at head (unless head is empty) and
// checks it out again in the worktree.
func (e *Engine) restoreBranch(ctx context.Context, info worktree.Info, head string) {
	ctx = context.WithoutCancel(ctx)
	l := log.FromContext(ctx)
	if head != "" {
		if err := git.CreateBranch(ctx, e.mgr.Repo(), info.Branch, head, false); err != nil {
			l.Warn("failed to restore branch", "branch", info.Branch, "commit", head, "error", err)
			return
		}
	}
	if err := git.AttachHead(ctx, info.Path, info.Branch); err != nil {
		l.Warn("failed to reattach branch", "path", info.Path, "branch", info.Branch, "error", err)
	}
}

func requireBranch(info worktree.Info) error {
	if info.Branch == "" {
		return fmt.Errorf("%w: %s has a detached HEAD", worktree.ErrInvalidReference, info.Path)
	}
	return nil
}

// featureBranch strips the managed prefix: "wt/login" merges into "login".
func featureBranch(branch, prefix string) (string, error) {
	feature := strings.TrimPrefix(branch, prefix)
	if prefix == "" || feature == branch {
		return "", fmt.Errorf("%w: no feature branch for %s (prefix %q)", worktree.ErrInvalidReference, branch, prefix)
	}
	if err := worktree.ValidateBranchName(feature); err != nil {
		return "", err
	}
	return feature, nil
}

func (e *Engine) mergeToFeature(ctx context.Context, info worktree.Info, opts Options) error {
	if err := requireBranch(info); err != nil {
		return err
	}
	feature, err := featureBranch(info.Branch, opts.Prefix)
	if err != nil {
		return err
	}
	repo := e.mgr.Repo()
	l := log.FromContext(ctx)

	if !git.BranchExists(ctx, repo, feature) {
		l.Debug("creating feature branch", "branch", feature, "at", info.Branch)
		if err := git.CreateBranch(ctx, repo, feature, info.Branch, false); err != nil {
			return worktree.WrapError(worktree.ErrProcess, "create "+feature, err)
		}
		return nil
	}

	checkout, err := git.FindBranchWorktree(ctx, repo, feature)
	if err != nil {
		return worktree.WrapError(worktree.ErrProcess, "failed to list worktrees", err)
	}
	if checkout != "" {
		st, err := git.GetStatus(ctx, checkout)
		if err != nil {
			return worktree.WrapError(worktree.ErrProcess, "status of "+checkout, err)
		}
		if len(st.Uncommitted()) > 0 {
			return fmt.Errorf("%w: %s is checked out with local changes in %s", worktree.ErrProcess, feature, checkout)
		}
		return mergeIn(ctx, checkout, info.Branch, feature)
	}

	// not checked out anywhere: merge on a throwaway detached worktree
	tmp, err := os.MkdirTemp("", "wtsweep-merge-")
	if err != nil {
		return worktree.WrapError(worktree.ErrIO, "failed to create merge directory", err)
	}
	defer os.RemoveAll(tmp)
	helper := filepath.Join(tmp, "wt")
	if err := git.AddDetachedWorktree(ctx, repo, helper, feature); err != nil {
		return worktree.WrapError(worktree.ErrProcess, "failed to check out "+feature, err)
	}
	defer func() {
		if err := git.RemoveWorktree(context.WithoutCancel(ctx), repo, helper, true); err != nil {
			l.Warn("failed to remove merge worktree", "path", helper, "error", err)
		}
	}()

	if err := mergeIn(ctx, helper, info.Branch, feature); err != nil {
		return err
	}
	head, err := git.HeadCommit(ctx, helper)
	if err != nil {
		return worktree.WrapError(worktree.ErrProcess, "read merge result", err)
	}
	if err := git.CreateBranch(ctx, repo, feature, head, true); err != nil {
		return worktree.WrapError(worktree.ErrProcess, "update "+feature, err)
	}
	return nil
}

// mergeIn merges branch at dir. A failed merge that can be aborted was a
// conflict.
func mergeIn(ctx context.Context, dir, branch, feature string) error {
	err := git.Merge(ctx, dir, branch)
	if err == nil {
		return nil
	}
	if abortErr := git.MergeAbort(ctx, dir); abortErr == nil {
		return worktree.WrapError(worktree.ErrMergeConflict, fmt.Sprintf("merge %s into %s", branch, feature), err)
	}
	return worktree.WrapError(worktree.ErrProcess, fmt.Sprintf("merge %s into %s", branch, feature), err)
}

func (e *Engine) backup(ctx context.Context, info worktree.Info, opts Options) error {
	if err := requireBranch(info); err != nil {
		return err
	}
	remote := opts.Remote
	if remote == "" {
		remote = "origin"
	}
	if !git.HasRemote(ctx, e.mgr.Repo(), remote) {
		return fmt.Errorf("%w: no remote named %q", worktree.ErrRemote, remote)
	}
	if err := git.Push(ctx, e.mgr.Repo(), remote, info.Branch); err != nil {
		return worktree.WrapError(worktree.ErrRemote, "push "+info.Branch+" to "+remote, err)
	}
	return nil
}

// stashMessage is "<prefix>cleanup-<branch>-<unix seconds>".
func (e *Engine) stashMessage(info worktree.Info, prefix string) string {
	name := info.Branch
	if name == "" {
		name = filepath.Base(info.Path)
	}
	return fmt.Sprintf("%scleanup-%s-%d", prefix, name, e.now().Unix())
}

func (e *Engine) stash(ctx context.Context, info worktree.Info, opts Options) (string, error) {
	msg := e.stashMessage(info, opts.Prefix)
	hash, err := git.StashPush(ctx, info.Path, msg)
	if err != nil {
		return "", worktree.WrapError(worktree.ErrProcess, "stash "+info.Path, err)
	}
	log.FromContext(ctx).Debug("stashed changes", "path", info.Path, "stash", hash, "message", msg)
	return hash, nil
}
