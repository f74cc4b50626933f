package main

import (
	"github.com/spf13/cobra"

	"github.com/raphi011/wtsweep/internal/output"
	"github.com/raphi011/wtsweep/internal/ui/static"
	"github.com/raphi011/wtsweep/internal/worktree"
)

func newRecommendCmd() *cobra.Command {
	var (
		prefix string
		format formatValue
	)

	cmd := &cobra.Command{
		Use:     "recommend",
		Short:   "Rank worktrees by how safe they are to clean up",
		Aliases: []string{"rec"},
		GroupID: GroupAnalysis,
		Args:    cobra.NoArgs,
		Long: `Score every managed worktree and recommend what to do with it.

The score starts at 1.0 and drops by 0.3 for uncommitted changes, 0.2 for
untracked files and 0.4 for unpushed commits on an unmerged branch.

  safe_cleanup      score above 0.8 and merged
  careful_cleanup   score above 0.5
  keep              everything else

Nothing is changed.`,
		Example: `  wtsweep recommend
  wtsweep recommend -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			r, err := openRepo(ctx)
			if err != nil {
				return err
			}
			engine, done := r.engine(ctx, detectOptions{})
			defer done()

			stop := spin(ctx, "Checking worktrees...")
			candidates, err := engine.Recommend(ctx, prefix, worktree.DefaultConcurrency)
			stop()
			if err != nil {
				return err
			}

			if f := format.Format(); f != output.FormatTable {
				return out.Encode(f, candidates)
			}
			if len(candidates) == 0 {
				out.Println("No managed worktrees.")
				return nil
			}
			rows := make([][]string, len(candidates))
			for i, c := range candidates {
				rows[i] = static.CandidateTableRow(c)
			}
			out.Print(static.RenderTable(static.CandidateHeaders, rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "Only consider branches with this prefix (default: worktree.prefix)")
	addFormatFlag(cmd, &format)

	return cmd
}
