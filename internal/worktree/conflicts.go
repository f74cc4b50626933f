package worktree

import (
	"context"
	"fmt"
	"strings"

	"github.com/raphi011/wtsweep/internal/git"
)

// ConflictReport is the advisory result of merging a branch into a target
// in memory.
type ConflictReport struct {
	Branch    string   `json:"branch" yaml:"branch"`
	Target    string   `json:"target" yaml:"target"`
	Conflicts []string `json:"conflicts" yaml:"conflicts"`
	Summary   string   `json:"summary" yaml:"summary"`
}

// HasConflicts reports whether the merge would conflict.
func (r ConflictReport) HasConflicts() bool {
	return len(r.Conflicts) > 0
}

// AnalyzeConflicts reports the paths that would conflict if branch were
// merged into target. It never touches refs, the index or any work tree.
func AnalyzeConflicts(ctx context.Context, repo, branch, target string) (ConflictReport, error) {
	if !git.IsInsideRepoPath(ctx, repo) {
		return ConflictReport{}, newError(ErrNotARepository, "%s", repo)
	}
	for _, ref := range []string{branch, target} {
		if _, err := git.ResolveCommit(ctx, repo, ref); err != nil {
			return ConflictReport{}, WrapError(ErrInvalidReference, ref, err)
		}
	}

	paths, err := git.MergeTreeConflicts(ctx, repo, target, branch)
	if err != nil {
		return ConflictReport{}, WrapError(ErrProcess, "merge-tree failed", err)
	}

	r := ConflictReport{Branch: branch, Target: target, Conflicts: paths}
	r.Summary = summarizeConflicts(r)
	return r, nil
}

func summarizeConflicts(r ConflictReport) string {
	switch n := len(r.Conflicts); n {
	case 0:
		return fmt.Sprintf("%s merges cleanly into %s", r.Branch, r.Target)
	case 1:
		return fmt.Sprintf("1 conflicting file merging %s into %s: %s", r.Branch, r.Target, r.Conflicts[0])
	default:
		shown := r.Conflicts
		more := ""
		if n > 5 {
			shown = shown[:5]
			more = fmt.Sprintf(" and %d more", n-5)
		}
		return fmt.Sprintf("%d conflicting files merging %s into %s: %s%s",
			n, r.Branch, r.Target, strings.Join(shown, ", "), more)
	}
}
