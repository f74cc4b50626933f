package worktree

import (
	"context"
	"errors"
	"time"

	"github.com/raphi011/wtsweep/internal/git"
	"github.com/raphi011/wtsweep/internal/log"
)

// ClassifySeverity derives severity from the counts of unsaved work.
// Untracked files alone are a light warning; uncommitted changes or
// unpushed commits are a warning.
func ClassifySeverity(uncommitted, untracked, unpushed int) Severity {
	switch {
	case uncommitted > 0 || unpushed > 0:
		return SeverityWarning
	case untracked > 0:
		return SeverityLightWarning
	}
	return SeverityClean
}

// CheckStatus inspects the worktree at path. branch may be empty for a
// detached HEAD. MergeInfo is left nil.
func CheckStatus(ctx context.Context, path, branch string) (*Status, error) {
	wts, err := git.GetStatus(ctx, path)
	if err != nil {
		if !git.IsInsideRepoPath(ctx, path) {
			return nil, newError(ErrNotARepository, "%s", path)
		}
		return nil, WrapError(ErrProcess, "failed to read status of "+path, err)
	}

	s := &Status{
		UncommittedChanges: wts.Uncommitted(),
		UntrackedFiles:     wts.Untracked(),
		Remote:             RemoteState{Kind: RemoteNone},
		CheckedAt:          time.Now(),
	}

	var upstream git.Upstream
	if branch != "" {
		if upstream, err = git.GetUpstream(ctx, path, branch); err != nil {
			return nil, WrapError(ErrProcess, "failed to read upstream of "+branch, err)
		}
	}

	switch {
	case upstream.Gone:
		s.Remote = RemoteState{Kind: RemoteDeleted}
	case upstream.Ref != "":
		ahead, behind, err := git.AheadBehind(ctx, path, upstream.Ref, "HEAD")
		if err != nil {
			return nil, WrapError(ErrProcess, "failed to compare with "+upstream.Ref, err)
		}
		s.AheadCount, s.BehindCount = ahead, behind
		s.Remote = NewRemoteState(ahead, behind)
	}

	commits, err := git.UnpushedCommits(ctx, path, branch, upstream)
	if err != nil {
		return nil, WrapError(ErrProcess, "failed to list unpushed commits", err)
	}
	s.UnpushedCommits = commitInfos(commits)

	s.classify()
	return s, nil
}

func (s *Status) classify() {
	s.IsClean = len(s.UncommittedChanges) == 0 && len(s.UntrackedFiles) == 0 && len(s.UnpushedCommits) == 0
	s.Severity = ClassifySeverity(len(s.UncommittedChanges), len(s.UntrackedFiles), len(s.UnpushedCommits))
}

// UpdateStatus refreshes info.Status. With a non-nil detector, merge
// detection runs against the detector's target and fills MergeInfo.
// A detection failure is logged and leaves MergeInfo nil.
func (m *Manager) UpdateStatus(ctx context.Context, info *Info, detector *MergeDetector) error {
	s, err := CheckStatus(ctx, info.Path, info.Branch)
	if err != nil {
		return err
	}

	if detector != nil && info.Branch != "" {
		mi, err := detector.Detect(ctx, info.Path, info.Branch, "")
		switch {
		case err == nil:
			s.MergeInfo = &mi
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return err
		default:
			log.FromContext(ctx).Warn("merge detection failed", "branch", info.Branch, "error", err)
		}
	}

	info.Status = s
	return nil
}
