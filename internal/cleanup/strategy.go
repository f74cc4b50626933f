package cleanup

import (
	"fmt"
	"strings"
)

// Strategy selects what happens to a worktree that passed evaluation.
type Strategy string

const (
	// Discard removes the worktree and deletes its branch.
	Discard Strategy = "discard"
	// MergeToFeature merges the branch into its feature branch first.
	MergeToFeature Strategy = "merge_to_feature"
	// BackupToOrigin pushes the branch to the remote first.
	BackupToOrigin Strategy = "backup_to_origin"
	// StashAndDiscard stashes local changes first.
	StashAndDiscard Strategy = "stash_and_discard"
)

// Strategies lists every strategy in documentation order.
var Strategies = []Strategy{Discard, MergeToFeature, BackupToOrigin, StashAndDiscard}

// ParseStrategy parses a strategy name. Dashes are accepted for underscores.
func ParseStrategy(s string) (Strategy, error) {
	name := Strategy(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	for _, st := range Strategies {
		if st == name {
			return st, nil
		}
	}
	names := make([]string, len(Strategies))
	for i, st := range Strategies {
		names[i] = string(st)
	}
	return "", fmt.Errorf("invalid strategy %q: must be one of %s", s, strings.Join(names, ", "))
}

func (s Strategy) String() string { return string(s) }

// preservesCommits reports whether the strategy keeps commits that are not on
// any remote.
func (s Strategy) preservesCommits() bool {
	return s == MergeToFeature || s == BackupToOrigin
}

// preservesChanges reports whether the strategy keeps uncommitted and
// untracked files.
func (s Strategy) preservesChanges() bool {
	return s == StashAndDiscard
}
