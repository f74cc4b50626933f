package git

import (
	"context"

	"github.com/raphi011/wtsweep/internal/cmd"
)

// MergeTreeConflicts performs an in-memory merge of branch into target and
// returns the conflicting paths. Nothing in the work tree or index changes.
// Requires git 2.38 or newer.
func MergeTreeConflicts(ctx context.Context, dir, target, branch string) ([]string, error) {
	if err := requireVersion(ctx, "conflict analysis", 2, 38); err != nil {
		return nil, err
	}
	out, err := outputGit(ctx, dir, "merge-tree", "--write-tree", "--name-only", "--no-messages", target, branch)
	switch cmd.ExitCode(err) {
	case -1:
		if err != nil {
			return nil, err
		}
		return nil, nil
	case 1:
		// first line is the (conflicted) tree id
		lines := splitLines(string(out))
		if len(lines) <= 1 {
			return nil, nil
		}
		return dedupe(lines[1:]), nil
	}
	return nil, err
}

func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := paths[:0]
	for _, p := range paths {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
