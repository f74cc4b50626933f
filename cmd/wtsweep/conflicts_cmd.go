package main

import (
	"github.com/spf13/cobra"

	"github.com/raphi011/wtsweep/internal/output"
	"github.com/raphi011/wtsweep/internal/ui/styles"
	"github.com/raphi011/wtsweep/internal/worktree"
)

func newConflictsCmd() *cobra.Command {
	var (
		targetBranch string
		format       formatValue
	)

	cmd := &cobra.Command{
		Use:               "conflicts [worktree|branch]",
		Short:             "Check whether a branch would merge cleanly",
		GroupID:           GroupAnalysis,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeWorktrees,
		Long: `Merge a branch into the target in memory and list the files that
would conflict. No refs, index or working tree are touched.

Requires git 2.38 or later (git merge-tree --write-tree).`,
		Example: `  wtsweep conflicts feature-123
  wtsweep conflicts wt/spike --target-branch develop`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			r, err := openRepo(ctx)
			if err != nil {
				return err
			}
			branch, _, err := detectSubject(ctx, r, args)
			if err != nil {
				return err
			}
			detector, done := r.detector(ctx, detectOptions{noForge: true})
			defer done()
			target, err := detector.ResolveTarget(ctx, r.mgr.Repo(), targetBranch)
			if err != nil {
				return err
			}

			report, err := worktree.AnalyzeConflicts(ctx, r.mgr.Repo(), branch, target)
			if err != nil {
				return err
			}

			if f := format.Format(); f != output.FormatTable {
				return out.Encode(f, report)
			}
			if !report.HasConflicts() {
				out.Println(styles.SuccessStyle.Render(report.Summary))
				return nil
			}
			out.Println(styles.WarningStyle.Render(report.Summary))
			for _, path := range report.Conflicts {
				out.Println("  " + path)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetBranch, "target-branch", "t", "", "Branch to merge into (default: first of merge.main_branches)")
	addFormatFlag(cmd, &format)

	return cmd
}
