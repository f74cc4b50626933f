package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/raphi011/wtsweep/internal/git"
	"github.com/raphi011/wtsweep/internal/output"
	"github.com/raphi011/wtsweep/internal/ui/static"
	"github.com/raphi011/wtsweep/internal/ui/styles"
	"github.com/raphi011/wtsweep/internal/worktree"
)

func newDetectCmd() *cobra.Command {
	var (
		targetBranch string
		methods      methodsValue
		noForge      bool
		format       formatValue
	)

	cmd := &cobra.Command{
		Use:               "detect [worktree|branch]",
		Short:             "Detect whether a branch was merged",
		GroupID:           GroupAnalysis,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeWorktrees,
		Long: `Run merge detection for one branch and show every method's verdict.

Methods run in the order configured in merge.methods (or given with
--method): standard (ancestry), squash (commit or content equivalence),
github_pr (merged pull request via gh/glab) and file_content (commit
messages and cherry-picks on the target).

The argument is a worktree (matched like in "status") or any local branch.
Without an argument the current worktree's branch is used.`,
		Example: `  wtsweep detect feature-123                       # against the main branch
  wtsweep detect wt/spike --target-branch develop
  wtsweep detect feature-123 --method squash --no-forge -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			r, err := openRepo(ctx)
			if err != nil {
				return err
			}
			branch, path, err := detectSubject(ctx, r, args)
			if err != nil {
				return err
			}

			detector, done := r.detector(ctx, detectOptions{methods: methods.methods, noForge: noForge})
			defer done()

			stop := spin(ctx, "Detecting merge of "+branch+"...")
			mi, err := detector.Detect(ctx, path, branch, targetBranch)
			stop()
			if err != nil {
				return err
			}

			if f := format.Format(); f != output.FormatTable {
				return out.Encode(f, mi)
			}
			writeMergeInfo(out.Writer(), branch, mi)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetBranch, "target-branch", "t", "", "Branch to detect merges into (default: first of merge.main_branches)")
	addMethodFlag(cmd, &methods)
	cmd.Flags().BoolVar(&noForge, "no-forge", false, "Skip the pull request lookup")
	addFormatFlag(cmd, &format)

	return cmd
}

// detectSubject resolves the branch to check and a path inside the
// repository to run detection from.
func detectSubject(ctx context.Context, r *repo, args []string) (branch, path string, err error) {
	if len(args) == 1 && git.BranchExists(ctx, r.mgr.Repo(), args[0]) {
		return args[0], r.mgr.Repo(), nil
	}
	info, err := targetWorktree(ctx, r, args)
	if err != nil {
		return "", "", err
	}
	if info.Branch == "" {
		return "", "", fmt.Errorf("%s: %w: HEAD is detached", info.Path, worktree.ErrInvalidReference)
	}
	return info.Branch, info.Path, nil
}

// writeMergeInfo prints the verdict followed by one row per method.
func writeMergeInfo(w io.Writer, branch string, mi worktree.MergeInfo) {
	verdict := "not merged"
	if mi.IsMerged {
		verdict = styles.MergedStyle.Render("merged")
	}
	fmt.Fprintf(w, "%s into %s: %s (%s, confidence %.2f)\n", branch, mi.Target, verdict, mi.DetectionMethod, mi.Confidence)
	if mi.Details != "" {
		fmt.Fprintln(w, styles.MutedStyle.Render(mi.Details))
	}
	if len(mi.MethodResults) == 0 {
		return
	}

	rows := make([][]string, len(mi.MethodResults))
	for i, res := range mi.MethodResults {
		merged := "no"
		if res.IsMerged {
			merged = "yes"
		}
		details := res.Details
		if res.Error != "" {
			details = styles.ErrorStyle.Render(res.Error)
		}
		rows[i] = []string{string(res.Method), merged, fmt.Sprintf("%.2f", res.Confidence), details}
	}
	fmt.Fprintln(w)
	fmt.Fprint(w, static.RenderTable([]string{"METHOD", "MERGED", "CONFIDENCE", "DETAILS"}, rows))
}
