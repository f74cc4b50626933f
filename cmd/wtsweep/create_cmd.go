package main

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/raphi011/wtsweep/internal/cache"
	"github.com/raphi011/wtsweep/internal/hooks"
	"github.com/raphi011/wtsweep/internal/log"
	"github.com/raphi011/wtsweep/internal/output"
	"github.com/raphi011/wtsweep/internal/preserve"
	"github.com/raphi011/wtsweep/internal/worktree"
)

func newCreateCmd() *cobra.Command {
	var (
		base            string
		force           bool
		path            string
		copyToClipboard bool
		noPreserve      bool
		hook            hookFlags
	)

	cmd := &cobra.Command{
		Use:     "create <task-id>",
		Short:   "Create a worktree for a task",
		Aliases: []string{"new"},
		GroupID: GroupCore,
		Args:    cobra.ExactArgs(1),
		Long: `Create a worktree on a new branch named <prefix><task-id>.

The task id is sanitized into a valid branch name. The worktree is placed
under worktree.base_dir as <task-id>__<unix-time-hex> unless --path is
given. The new path is printed on stdout.

Git-ignored files matching preserve.patterns (e.g. .env) are copied from
the main worktree. Hooks with on = ["create"] then run inside the new
worktree; their output goes to stderr.`,
		Example: `  wtsweep create feature-123               # wt/feature-123 from the current branch
  wtsweep create JIRA-42 --base develop     # start from develop
  wtsweep create feature-123 --force        # recreate branch and worktree
  cd "$(wtsweep create spike)"              # jump into the new worktree
  wtsweep create api-7 --hook deps -a pm=pnpm  # run one hook with a variable`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l := log.FromContext(ctx)
			out := output.FromContext(ctx)

			r, err := openRepo(ctx)
			if err != nil {
				return err
			}
			matches, env, err := hook.selected(r.cfg, hooks.TriggerCreate)
			if err != nil {
				return err
			}

			lock := cache.NewFileLock(cache.RepoLockPath(r.mgr.CommonDir()))
			if err := lock.Lock(ctx); err != nil {
				return err
			}
			defer func() { _ = lock.Unlock() }()

			info, err := r.mgr.Create(ctx, worktree.CreateOptions{
				TaskID:     args[0],
				BaseBranch: base,
				Force:      force,
				CustomPath: path,
			})
			if err != nil {
				return err
			}
			l.Debug("created worktree", "path", info.Path, "branch", info.Branch, "head", info.Head)
			_ = lock.Unlock()

			if !noPreserve {
				copied, err := preserve.Copy(ctx, r.cfg.Preserve, r.mgr.Repo(), info.Path)
				if err != nil {
					l.Printf("Warning: failed to preserve files: %v\n", err)
				}
				for _, f := range copied {
					l.Debug("preserved file", "file", f)
				}
				if len(copied) > 0 {
					l.Printf("Preserved %d ignored file(s)\n", len(copied))
				}
			}

			if copyToClipboard {
				if err := clipboard.WriteAll(info.Path); err != nil {
					l.Printf("Warning: failed to copy to clipboard: %v\n", err)
				}
			}

			out.Println(info.Path)

			runner := hooks.Runner{Out: cmd.ErrOrStderr()}
			hc := hooks.Context{
				Path:    info.Path,
				Branch:  info.Branch,
				Repo:    r.mgr.Repo(),
				Trigger: hooks.TriggerCreate,
				Env:     env,
			}
			if err := runner.Run(ctx, matches, hc, info.Path); err != nil {
				return fmt.Errorf("%s created: %w", info.Path, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&base, "base", "b", "", "Branch to start from (default: current branch of the main worktree)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Replace an existing branch and its worktree")
	cmd.Flags().StringVarP(&path, "path", "p", "", "Create the worktree at this path instead")
	cmd.Flags().BoolVarP(&copyToClipboard, "copy", "c", false, "Copy the worktree path to the clipboard")
	cmd.Flags().BoolVar(&noPreserve, "no-preserve", false, "Do not copy ignored files matching preserve.patterns")
	hook.register(cmd)
	_ = cmd.MarkFlagDirname("path")

	return cmd
}
