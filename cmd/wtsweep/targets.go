package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"github.com/raphi011/wtsweep/internal/worktree"
)

// worktreeSource implements fuzzy.Source over worktree names.
type worktreeSource []worktree.Info

func (s worktreeSource) String(i int) string { return s[i].Name() }
func (s worktreeSource) Len() int            { return len(s) }

// resolveWorktree finds the worktree a user meant by query, trying in order:
// exact branch, prefix + query as branch, path (absolute or relative to
// dir), the base name of a path, then a fuzzy match on branch names. The
// fuzzy match must be unambiguous.
func resolveWorktree(infos []worktree.Info, query, prefix, dir string) (worktree.Info, error) {
	if query == "" {
		return worktree.Info{}, fmt.Errorf("empty worktree target")
	}

	for _, info := range infos {
		if info.Branch == query || (prefix != "" && info.Branch == prefix+query) {
			return info, nil
		}
	}

	path := query
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	path = filepath.Clean(path)
	for _, info := range infos {
		if samePath(info.Path, path) {
			return info, nil
		}
	}

	// worktree directories are named <task-id>__<timestamp>
	for _, info := range infos {
		base := filepath.Base(info.Path)
		if id, _, ok := strings.Cut(base, "__"); ok && id == query {
			return info, nil
		}
	}

	matches := fuzzy.FindFrom(query, worktreeSource(infos))
	switch {
	case len(matches) == 0:
		return worktree.Info{}, fmt.Errorf("no worktree matches %q", query)
	case len(matches) == 1 || matches[0].Score > matches[1].Score:
		return infos[matches[0].Index], nil
	}

	var names []string
	for _, m := range matches {
		if m.Score < matches[0].Score {
			break
		}
		names = append(names, m.Str)
	}
	return worktree.Info{}, fmt.Errorf("%q is ambiguous: %s", query, strings.Join(names, ", "))
}

// currentWorktree returns the worktree containing dir.
func currentWorktree(infos []worktree.Info, dir string) (worktree.Info, error) {
	best := -1
	for i, info := range infos {
		if rel, err := filepath.Rel(resolve(info.Path), resolve(dir)); err == nil && !strings.HasPrefix(rel, "..") {
			// nested worktrees: the deepest match wins
			if best < 0 || len(info.Path) > len(infos[best].Path) {
				best = i
			}
		}
	}
	if best < 0 {
		return worktree.Info{}, fmt.Errorf("%s is not inside a worktree", dir)
	}
	return infos[best], nil
}

func resolve(p string) string {
	if r, err := filepath.EvalSymlinks(p); err == nil {
		return r
	}
	return filepath.Clean(p)
}

func samePath(a, b string) bool {
	return resolve(a) == resolve(b)
}

// targetWorktree resolves args[0], or the worktree containing the working
// directory when no argument is given.
func targetWorktree(ctx context.Context, r *repo, args []string) (worktree.Info, error) {
	infos, err := r.mgr.List(ctx)
	if err != nil {
		return worktree.Info{}, err
	}
	dir := workDirFrom(ctx)
	if len(args) == 0 {
		return currentWorktree(infos, dir)
	}
	return resolveWorktree(infos, args[0], r.cfg.Worktree.Prefix, dir)
}

// completeWorktrees completes branch names of the current repository's
// worktrees.
func completeWorktrees(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	r, err := openRepo(ctx)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	infos, err := r.mgr.List(ctx)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var matches []string
	for _, info := range infos {
		if info.Branch != "" && strings.HasPrefix(info.Branch, toComplete) {
			matches = append(matches, info.Branch)
		}
	}
	return matches, cobra.ShellCompDirectiveNoFileComp
}
