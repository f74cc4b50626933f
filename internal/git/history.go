package git

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// History reads the commit graph in-process, without spawning git for
// every commit. It is used for walks that would otherwise need one
// process per revision.
type History struct {
	repo *gogit.Repository
}

// OpenHistory opens the repository containing path. Linked worktrees
// resolve to the shared object store.
func OpenHistory(path string) (*History, error) {
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}
	return &History{repo: repo}, nil
}

func (h *History) resolve(rev string) (plumbing.Hash, error) {
	hash, err := h.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("unknown revision %q: %w", rev, err)
	}
	return *hash, nil
}

// Subjects returns the subject lines of commits reachable from rev that
// were committed no earlier than since, newest first. since itself is
// excluded. At most limit
// commits are read; limit <= 0 means no limit.
//
// since is usually the merge base of rev and some branch: anything
// committed before it cannot carry that branch's changes.
func (h *History) Subjects(ctx context.Context, rev, since string, limit int) ([]string, error) {
	from, err := h.resolve(rev)
	if err != nil {
		return nil, err
	}

	var cutoff *object.Commit
	if since != "" {
		stop, err := h.resolve(since)
		if err != nil {
			return nil, err
		}
		if cutoff, err = h.repo.CommitObject(stop); err != nil {
			return nil, err
		}
	}

	iter, err := h.repo.Log(&gogit.LogOptions{From: from, Order: gogit.LogOrderCommitterTime})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var subjects []string
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if cutoff != nil {
			if c.Committer.When.Before(cutoff.Committer.When) {
				return storer.ErrStop
			}
			// same-second commits may be ordered after the cutoff
			if c.Hash == cutoff.Hash {
				return nil
			}
		}
		subjects = append(subjects, subjectLine(c.Message))
		if limit > 0 && len(subjects) >= limit {
			return storer.ErrStop
		}
		return nil
	})
	if err != nil && !errors.Is(err, storer.ErrStop) {
		return nil, err
	}
	return subjects, nil
}

func subjectLine(msg string) string {
	line, _, _ := strings.Cut(msg, "\n")
	return strings.TrimSpace(line)
}
