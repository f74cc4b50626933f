package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/raphi011/wtsweep/internal/cache"
	"github.com/raphi011/wtsweep/internal/cleanup"
	"github.com/raphi011/wtsweep/internal/hooks"
	"github.com/raphi011/wtsweep/internal/log"
	"github.com/raphi011/wtsweep/internal/output"
	"github.com/raphi011/wtsweep/internal/ui/progress"
	"github.com/raphi011/wtsweep/internal/ui/prompt"
	"github.com/raphi011/wtsweep/internal/ui/static"
	"github.com/raphi011/wtsweep/internal/worktree"
)

// errNoConfirmation is returned when cleanup would need to prompt but
// stdin is not a terminal.
var errNoConfirmation = errors.New("refusing to clean up without confirmation: stdin is not a terminal (use --yes or --dry-run)")

// cleanupFlags are the cleanup command's flags. Unset flags fall back to
// the [cleanup] configuration.
type cleanupFlags struct {
	strategy      strategyValue
	minAge        time.Duration
	force         bool
	dryRun        bool
	yes           bool
	prefix        string
	mergedOnly    bool
	minConfidence float64
	keepBranch    bool
	remote        string
	targetBranch  string
	format        formatValue
	hooks         hookFlags
}

func newCleanupCmd() *cobra.Command {
	return new(cleanupFlags).command()
}

func (f *cleanupFlags) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cleanup",
		Short:   "Remove worktrees that are safe to remove",
		Aliases: []string{"prune", "sweep"},
		GroupID: GroupCore,
		Args:    cobra.NoArgs,
		Long: `Evaluate every managed worktree (branch starts with the prefix) and
clean up those that pass all checks, one at a time:

  1. younger than --min-age            -> skipped_too_new
  2. --merged-only and not merged      -> skipped_not_merged
  3. safety violations (uncommitted, untracked, unpushed, in use)
                                       -> skipped_unsafe
  4. not confirmed                     -> skipped_declined

Strategies:
  discard            remove the worktree and delete its branch
  merge_to_feature   merge the branch into its prefix-less feature branch first
  backup_to_origin   push the branch to the remote first
  stash_and_discard  stash uncommitted and untracked work first

--force overrides medium and high violations but never a worktree in use,
--min-age or --merged-only. Without --yes every worktree is confirmed
interactively. The repository is locked while cleanup runs.

Hooks with on = ["cleanup"] run in the main worktree once for every
removed worktree after the run; a failing hook is only reported.`,
		Example: `  wtsweep cleanup -n                          # show what would happen
  wtsweep cleanup --merged-only -y            # remove merged worktrees
  wtsweep cleanup --strategy stash_and_discard --min-age 0s
  wtsweep cleanup --strategy backup_to_origin -y -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			r, err := openRepo(ctx)
			if err != nil {
				return err
			}
			opts, err := f.options(cmd, r)
			if err != nil {
				return err
			}
			matches, env, err := f.hooks.selected(r.cfg, hooks.TriggerCleanup)
			if err != nil {
				return err
			}
			if !opts.AutoConfirm && !opts.DryRun {
				if !isTerminal(os.Stdin) {
					return errNoConfirmation
				}
				opts.Confirm = confirmWorktree(cancel)
			}

			lock := cache.NewFileLock(cache.RepoLockPath(r.mgr.CommonDir()))
			if err := lock.TryLock(); err != nil {
				if errors.Is(err, cache.ErrLocked) {
					return fmt.Errorf("another wtsweep process is modifying this repository: %w", err)
				}
				return err
			}
			defer func() { _ = lock.Unlock() }()

			engine, done := r.engine(ctx, detectOptions{})
			defer done()

			bar := newCleanupBar(ctx, opts, f.format.Format())
			opts.Progress = bar.update
			report, err := engine.Cleanup(ctx, opts)
			bar.stop()
			if err != nil && !isCanceled(err) {
				return err
			}

			if printErr := printReport(ctx, report, f.format.Format()); printErr != nil {
				return printErr
			}
			if err == nil {
				runner := hooks.Runner{Out: cmd.ErrOrStderr(), DryRun: report.WasDryRun}
				runCleanupHooks(ctx, runner, matches, env, r.mgr.Repo(), report)
			}
			if err != nil {
				if cmd.Context().Err() == nil {
					// canceled from the prompt
					return fmt.Errorf("cleanup aborted: %w", err)
				}
				return err
			}
			if report.Failed > 0 {
				return fmt.Errorf("%d of %d worktrees failed to clean up", report.Failed, report.TotalEvaluated)
			}
			return nil
		},
	}

	fl := cmd.Flags()
	addStrategyFlag(cmd, &f.strategy)
	fl.DurationVar(&f.minAge, "min-age", 0, "Skip worktrees younger than this (default: cleanup.min_age)")
	fl.BoolVarP(&f.force, "force", "f", false, "Clean up despite uncommitted, untracked or unpushed work")
	fl.BoolVarP(&f.dryRun, "dry-run", "n", false, "Show what would be done without changing anything")
	fl.BoolVarP(&f.yes, "yes", "y", false, "Do not ask for confirmation")
	fl.StringVar(&f.prefix, "prefix", "", "Only consider branches with this prefix (default: worktree.prefix)")
	fl.BoolVar(&f.mergedOnly, "merged-only", false, "Only clean up branches detected as merged")
	fl.Float64Var(&f.minConfidence, "min-confidence", 0, "Minimum merge confidence for --merged-only (default: cleanup.min_merge_confidence)")
	fl.BoolVar(&f.keepBranch, "keep-branch", false, "Keep the local branch after removing its worktree")
	fl.StringVar(&f.remote, "remote", "", "Remote for backup_to_origin (default: cleanup.remote)")
	fl.StringVarP(&f.targetBranch, "target-branch", "t", "", "Branch to detect merges into")
	addFormatFlag(cmd, &f.format)
	f.hooks.register(cmd)

	return cmd
}

// options layers explicitly set flags over the repository configuration.
func (f *cleanupFlags) options(cmd *cobra.Command, r *repo) (cleanup.Options, error) {
	c := r.cfg.Cleanup
	fl := cmd.Flags()

	strategy, err := cleanup.ParseStrategy(c.Strategy)
	if err != nil {
		return cleanup.Options{}, err
	}
	if fl.Changed("strategy") {
		strategy = f.strategy.s
	}

	opts := cleanup.Options{
		Strategy:           strategy,
		MinAge:             c.MinAge.Duration,
		Force:              f.force,
		DryRun:             f.dryRun,
		AutoConfirm:        f.yes,
		MergedOnly:         c.MergedOnly || f.mergedOnly,
		MinMergeConfidence: c.MinMergeConfidence,
		Prefix:             r.cfg.Worktree.Prefix,
		KeepBranch:         !c.DeleteBranch || f.keepBranch,
		Remote:             c.Remote,
		TargetBranch:       f.targetBranch,
		WorkingDir:         workDirFrom(cmd.Context()),
	}
	if fl.Changed("min-age") {
		if f.minAge < 0 {
			return cleanup.Options{}, fmt.Errorf("--min-age must not be negative")
		}
		opts.MinAge = f.minAge
	}
	if fl.Changed("prefix") {
		opts.Prefix = f.prefix
	}
	if fl.Changed("min-confidence") {
		if f.minConfidence < 0 || f.minConfidence > 1 {
			return cleanup.Options{}, fmt.Errorf("--min-confidence must be between 0 and 1, got %v", f.minConfidence)
		}
		opts.MinMergeConfidence = f.minConfidence
	}
	if fl.Changed("remote") {
		opts.Remote = f.remote
	}
	return opts, nil
}

// confirmWorktree asks on the terminal. Escape or ctrl+c cancels the
// whole run through cancel.
func confirmWorktree(cancel context.CancelFunc) cleanup.ConfirmFunc {
	return func(ctx context.Context, info worktree.Info, vs []cleanup.Violation) (bool, error) {
		details := make([]string, 0, len(vs)+1)
		details = append(details, fmt.Sprintf("%s (%s old)", info.Path, static.FormatAge(info.Age)))
		for _, v := range vs {
			details = append(details, v.String())
		}

		res, err := prompt.Confirm(ctx, "Clean up "+info.Name()+"?", details, prompt.Options{})
		if err != nil {
			return false, err
		}
		if res.Cancelled {
			cancel()
			return false, context.Canceled
		}
		return res.Confirmed, nil
	}
}

// runCleanupHooks runs matches for every cleaned result.
func runCleanupHooks(ctx context.Context, runner hooks.Runner, matches []hooks.Match, env map[string]string, repoPath string, report cleanup.Report) {
	if len(matches) == 0 {
		return
	}
	for _, res := range report.Results {
		if res.Action != cleanup.Cleaned {
			continue
		}
		runner.RunEach(ctx, matches, hooks.Context{
			Path:    res.Path,
			Branch:  res.Branch,
			Repo:    repoPath,
			Trigger: hooks.TriggerCleanup,
			Action:  string(res.Action),
			Env:     env,
		}, repoPath)
	}
}

// cleanupBar drives a progress bar from cleanup progress callbacks. It is
// inert unless the run is non-interactive and stderr is a terminal.
type cleanupBar struct {
	enabled bool
	bar     *progress.Bar
}

func newCleanupBar(ctx context.Context, opts cleanup.Options, f output.Format) *cleanupBar {
	interactive := !opts.AutoConfirm && !opts.DryRun
	enabled := !interactive && f == output.FormatTable &&
		!log.FromContext(ctx).IsVerbose() && isTerminal(os.Stderr)
	return &cleanupBar{enabled: enabled}
}

func (b *cleanupBar) update(done, total int, res cleanup.Result) {
	if !b.enabled {
		return
	}
	if b.bar == nil {
		b.bar = progress.NewBar(os.Stderr, total, "")
		b.bar.Start()
	}
	b.bar.Set(done, res.Branch)
}

func (b *cleanupBar) stop() {
	if b.bar != nil {
		b.bar.Stop()
	}
}

// printReport renders the per-worktree results and a summary line.
func printReport(ctx context.Context, report cleanup.Report, f output.Format) error {
	out := output.FromContext(ctx)
	if f != output.FormatTable {
		return out.Encode(f, report)
	}

	if len(report.Results) == 0 {
		out.Println("No managed worktrees to clean up.")
		return nil
	}
	rows := make([][]string, len(report.Results))
	for i, res := range report.Results {
		rows[i] = static.CleanupTableRow(res, report.WasDryRun)
	}
	out.Print(static.RenderTable(static.CleanupHeaders, rows))
	out.Println()
	out.Println(static.ReportSummary(report))
	return nil
}
