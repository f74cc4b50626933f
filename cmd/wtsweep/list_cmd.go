package main

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/raphi011/wtsweep/internal/cache"
	"github.com/raphi011/wtsweep/internal/log"
	"github.com/raphi011/wtsweep/internal/output"
	"github.com/raphi011/wtsweep/internal/ui/static"
	"github.com/raphi011/wtsweep/internal/worktree"
)

func newListCmd() *cobra.Command {
	var (
		withStatus bool
		withMerge  bool
		refresh    bool
		bySeverity bool
		format     formatValue
	)

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List worktrees",
		Aliases: []string{"ls"},
		GroupID: GroupCore,
		Args:    cobra.NoArgs,
		Long: `List the worktrees of the current repository, main worktree first.

With --status each worktree's unsaved work is checked; results are cached
for status.cache_ttl. --merge adds merge detection (never cached) and
implies --status. --refresh ignores cached statuses. --by-severity puts
worktrees holding the most unsaved work first (implies --status).`,
		Example: `  wtsweep list                    # paths, branches and ages
  wtsweep list --status           # include uncommitted/unpushed work
  wtsweep list --merge -o json    # full status with merge verdicts as JSON
  wtsweep list --by-severity      # worktrees with unsaved work first`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			r, err := openRepo(ctx)
			if err != nil {
				return err
			}
			infos, err := r.mgr.List(ctx)
			if err != nil {
				return err
			}

			withStatus = withStatus || bySeverity
			if withStatus || withMerge {
				stop := spin(ctx, fmt.Sprintf("Checking %d worktrees...", len(infos)))
				err := refreshStatuses(ctx, r, infos, withMerge, refresh)
				stop()
				if err != nil {
					if isCanceled(err) {
						return err
					}
					log.FromContext(ctx).Warn("some statuses could not be read", "error", err)
				}
			}

			if bySeverity {
				sortBySeverity(infos)
			}

			if f := format.Format(); f != output.FormatTable {
				return out.Encode(f, infos)
			}

			rows := make([][]string, len(infos))
			for i, info := range infos {
				rows[i] = static.WorktreeTableRow(info, r.cfg.Cleanup.MinAge.Duration)
			}
			headers := static.WorktreeHeaders
			if !withStatus && !withMerge {
				headers, rows = withoutStatusColumns(headers, rows)
			}
			out.Print(static.RenderTable(headers, rows))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&withStatus, "status", "s", false, "Check uncommitted, untracked and unpushed work")
	cmd.Flags().BoolVarP(&withMerge, "merge", "m", false, "Detect whether branches were merged (implies --status)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Ignore cached statuses")
	cmd.Flags().BoolVar(&bySeverity, "by-severity", false, "Sort by unsaved work, most severe first (implies --status)")
	addFormatFlag(cmd, &format)

	return cmd
}

// refreshStatuses fills Status for each entry. Without merge detection,
// statuses are served from and saved to the repository's status cache.
func refreshStatuses(ctx context.Context, r *repo, infos []worktree.Info, withMerge, refresh bool) error {
	l := log.FromContext(ctx)

	if withMerge {
		detector, done := r.detector(ctx, detectOptions{})
		defer done()
		return r.mgr.UpdateStatuses(ctx, infos, detector, worktree.DefaultConcurrency)
	}

	store, err := cache.Open[worktree.Status](cache.StatusPath(r.mgr.CommonDir()), r.cfg.Status.CacheTTL.Duration)
	if err != nil {
		l.Debug("status cache unavailable", "error", err)
		return r.mgr.UpdateStatuses(ctx, infos, nil, worktree.DefaultConcurrency)
	}

	var missing []int
	for i := range infos {
		if s, ok := store.Get(statusKey(infos[i])); ok && !refresh {
			infos[i].Status = &s
			continue
		}
		missing = append(missing, i)
	}
	l.Debug("status cache", "hits", len(infos)-len(missing), "misses", len(missing))

	batch := make([]worktree.Info, len(missing))
	for j, i := range missing {
		batch[j] = infos[i]
	}
	err = r.mgr.UpdateStatuses(ctx, batch, nil, worktree.DefaultConcurrency)
	for j, i := range missing {
		infos[i].Status = batch[j].Status
		if batch[j].Status != nil {
			store.Set(statusKey(batch[j]), *batch[j].Status)
		}
	}

	store.Prune()
	if saveErr := store.Save(context.WithoutCancel(ctx)); saveErr != nil {
		l.Warn("failed to save status cache", "error", saveErr)
	}
	return err
}

// sortBySeverity orders worktrees by status priority, keeping the main
// worktree first and listing order among equals. Unread statuses go last.
func sortBySeverity(infos []worktree.Info) {
	rank := func(info worktree.Info) int {
		switch {
		case info.IsMain:
			return -1
		case info.Status == nil:
			return 3
		}
		return info.Status.Severity.Priority()
	}
	slices.SortStableFunc(infos, func(a, b worktree.Info) int {
		return cmp.Compare(rank(a), rank(b))
	})
}

// statusKey invalidates cached statuses when HEAD moves.
func statusKey(info worktree.Info) string {
	return info.Path + "@" + info.Head
}

// withoutStatusColumns drops the STATUS, MERGE and DETAILS columns.
func withoutStatusColumns(headers []string, rows [][]string) ([]string, [][]string) {
	keep := func(cells []string) []string {
		return []string{cells[0], cells[1], cells[5]}
	}
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = keep(row)
	}
	return keep(headers), out
}
