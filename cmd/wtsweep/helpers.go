package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/raphi011/wtsweep/internal/cleanup"
	"github.com/raphi011/wtsweep/internal/config"
	"github.com/raphi011/wtsweep/internal/forge"
	"github.com/raphi011/wtsweep/internal/git"
	"github.com/raphi011/wtsweep/internal/log"
	"github.com/raphi011/wtsweep/internal/prcache"
	"github.com/raphi011/wtsweep/internal/ui/progress"
	"github.com/raphi011/wtsweep/internal/worktree"
)

type workDirKey struct{}

func withWorkDir(ctx context.Context, dir string) context.Context {
	return context.WithValue(ctx, workDirKey{}, dir)
}

// workDirFrom returns the directory set by -C, or the process working
// directory.
func workDirFrom(ctx context.Context) string {
	if dir, ok := ctx.Value(workDirKey{}).(string); ok && dir != "" {
		return dir
	}
	dir, _ := os.Getwd()
	return dir
}

// isTerminal reports whether f is an interactive terminal.
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// repo is one opened repository with its effective configuration.
type repo struct {
	cfg *config.Config // global merged with the repository's .wtsweep.toml
	mgr *worktree.Manager
}

// openRepo opens the repository containing the working directory.
func openRepo(ctx context.Context) (*repo, error) {
	dir := workDirFrom(ctx)
	mainPath, err := git.MainWorktreePath(ctx, dir)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.FromContext(ctx).Debug("not a repository", "dir", dir, "error", err)
		return nil, fmt.Errorf("%s: %w", dir, worktree.ErrNotARepository)
	}

	cfg := config.FromContext(ctx)
	if r := config.ResolverFromContext(ctx); r != nil {
		if cfg, err = r.ConfigForRepo(mainPath); err != nil {
			return nil, err
		}
	}

	mgr, err := worktree.NewManager(ctx, dir, worktree.ManagerConfig{
		Prefix:        cfg.Worktree.Prefix,
		BaseDir:       cfg.Worktree.BaseDir,
		AutoGitignore: cfg.Worktree.AutoGitignore,
	})
	if err != nil {
		return nil, err
	}
	return &repo{cfg: cfg, mgr: mgr}, nil
}

// detectOptions adjusts the configured merge detection per command.
type detectOptions struct {
	methods []worktree.Method // overrides merge.methods when set
	noForge bool
}

// detector builds a merge detector from the configuration. The returned
// func saves the PR cache and must be called once detection is done.
func (r *repo) detector(ctx context.Context, opts detectOptions) (*worktree.MergeDetector, func()) {
	l := log.FromContext(ctx)

	methods := opts.methods
	if len(methods) == 0 {
		for _, m := range r.cfg.Merge.Methods {
			methods = append(methods, worktree.Method(m))
		}
	}
	dc := worktree.DetectorConfig{
		Methods:      methods,
		MainBranches: r.cfg.Merge.MainBranches,
		UseForge:     r.cfg.Merge.UseForge && !opts.noForge,
	}

	done := func() {}
	if dc.UseForge {
		lookup, err := forge.DetectLookup(ctx, r.mgr.Repo(), r.cfg.ForgeHosts())
		switch {
		case err != nil:
			l.Debug("no forge for repository", "error", err)
			dc.UseForge = false
		default:
			dc.Forge = lookup
			if store, err := prcache.Open(); err != nil {
				l.Debug("pr cache unavailable", "error", err)
			} else {
				cached := prcache.Wrap(lookup, store)
				dc.Forge = cached
				done = func() {
					if err := cached.Save(context.WithoutCancel(ctx)); err != nil {
						l.Warn("failed to save pr cache", "error", err)
					}
				}
			}
		}
	}
	return worktree.NewMergeDetector(dc), done
}

// engine returns a cleanup engine with the repository's detector.
func (r *repo) engine(ctx context.Context, opts detectOptions) (*cleanup.Engine, func()) {
	d, done := r.detector(ctx, opts)
	return cleanup.NewEngine(r.mgr, d), done
}

// spin starts a spinner on stderr when it is a terminal and console
// logging would not interleave with it. The returned func stops it.
func spin(ctx context.Context, message string) func() {
	if log.FromContext(ctx).IsVerbose() || !isTerminal(os.Stderr) {
		return func() {}
	}
	s := progress.NewSpinner(os.Stderr, message)
	s.Start()
	return s.Stop
}

// isCanceled reports whether err comes from a canceled or expired context.
func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
