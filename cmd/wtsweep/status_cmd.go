package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/raphi011/wtsweep/internal/output"
	"github.com/raphi011/wtsweep/internal/ui/static"
	"github.com/raphi011/wtsweep/internal/ui/styles"
	"github.com/raphi011/wtsweep/internal/worktree"
)

func newStatusCmd() *cobra.Command {
	var (
		withMerge    bool
		targetBranch string
		format       formatValue
	)

	cmd := &cobra.Command{
		Use:               "status [worktree]",
		Short:             "Show a worktree's unsaved work",
		Aliases:           []string{"st"},
		GroupID:           GroupCore,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeWorktrees,
		Long: `Show uncommitted changes, untracked files, unpushed commits and the
upstream state of one worktree.

The worktree is matched by branch, task id, path or a fuzzy branch match.
Without an argument the worktree containing the current directory is used.`,
		Example: `  wtsweep status                     # current worktree
  wtsweep status feature-123         # by task id
  wtsweep status feat --merge        # fuzzy match, with merge detection`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			r, err := openRepo(ctx)
			if err != nil {
				return err
			}
			info, err := targetWorktree(ctx, r, args)
			if err != nil {
				return err
			}

			if err := r.mgr.UpdateStatus(ctx, &info, nil); err != nil {
				return err
			}
			if (withMerge || targetBranch != "") && info.Branch != "" {
				detector, done := r.detector(ctx, detectOptions{})
				stop := spin(ctx, "Detecting merge of "+info.Branch+"...")
				mi, err := detector.Detect(ctx, info.Path, info.Branch, targetBranch)
				stop()
				done()
				if err != nil {
					return err
				}
				info.Status.MergeInfo = &mi
			}

			if f := format.Format(); f != output.FormatTable {
				return out.Encode(f, info)
			}
			writeStatus(out.Writer(), info)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&withMerge, "merge", "m", false, "Detect whether the branch was merged")
	cmd.Flags().StringVarP(&targetBranch, "target-branch", "t", "", "Branch to detect merges into (implies --merge)")
	addFormatFlag(cmd, &format)

	return cmd
}

// writeStatus prints a human-readable status report.
func writeStatus(w io.Writer, info worktree.Info) {
	s := info.Status
	fields := []static.Field{
		{Name: "Branch", Value: styles.FormatBranch(info)},
		{Name: "Path", Value: info.Path},
		{Name: "Age", Value: static.FormatAge(info.Age)},
		{Name: "Status", Value: styles.FormatSeverity(s.Severity) + "  " + s.Description()},
		{Name: "Remote", Value: s.Remote.String()},
	}
	if s.MergeInfo != nil {
		merge := styles.FormatMerge(s.MergeInfo) + " into " + s.MergeInfo.Target
		if s.MergeInfo.Details != "" {
			merge += " (" + s.MergeInfo.Details + ")"
		}
		fields = append(fields, static.Field{Name: "Merge", Value: merge})
	}
	fmt.Fprint(w, static.RenderFields(fields))

	list := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(w, "\n%s (%d):\n", styles.Bold.Render(title), len(items))
		for _, item := range items {
			fmt.Fprintln(w, "  "+item)
		}
	}
	list("Uncommitted changes", s.UncommittedChanges)
	list("Untracked files", s.UntrackedFiles)

	commits := make([]string, len(s.UnpushedCommits))
	for i, c := range s.UnpushedCommits {
		commits[i] = fmt.Sprintf("%s %s %s", styles.MutedStyle.Render(shortHash(c.Hash)), c.Subject, styles.MutedStyle.Render("("+c.Author+")"))
	}
	list("Unpushed commits", commits)
}

func shortHash(h string) string {
	return h[:min(7, len(h))]
}
