package static

import (
	"fmt"
	"strings"
	"time"

	"github.com/raphi011/wtsweep/internal/cleanup"
	"github.com/raphi011/wtsweep/internal/ui/styles"
	"github.com/raphi011/wtsweep/internal/worktree"
)

// WorktreeHeaders are the columns produced by WorktreeTableRow.
var WorktreeHeaders = []string{"BRANCH", "AGE", "STATUS", "MERGE", "DETAILS", "PATH"}

// WorktreeTableRow renders one worktree. Ages at or above staleAfter are
// highlighted; a zero staleAfter disables highlighting. Columns that need
// a status are "-" when info.Status is nil.
func WorktreeTableRow(info worktree.Info, staleAfter time.Duration) []string {
	age := FormatAge(info.Age)
	if staleAfter > 0 && info.Age >= staleAfter && !info.IsMain {
		age = styles.WarningStyle.Render(age)
	}

	status, merge, details := "-", "-", "-"
	if s := info.Status; s != nil {
		status = styles.FormatSeverity(s.Severity)
		details = s.Description()
		if m := styles.FormatMerge(s.MergeInfo); m != "" {
			merge = m
		}
	}

	return []string{styles.FormatBranch(info), age, status, merge, details, info.Path}
}

// CleanupHeaders are the columns produced by CleanupTableRow.
var CleanupHeaders = []string{"BRANCH", "ACTION", "REASON", "PATH"}

// CleanupTableRow renders one cleanup result.
func CleanupTableRow(r cleanup.Result, dryRun bool) []string {
	reason := r.Reason
	if r.Error != "" {
		reason = styles.ErrorStyle.Render(r.Error)
	}
	if r.StashRef != "" {
		reason += " (stash " + shortHash(r.StashRef) + ")"
	}
	branch := r.Branch
	if branch == "" {
		branch = styles.MutedStyle.Render("(detached)")
	}
	return []string{branch, styles.FormatAction(r.Action, dryRun), reason, r.Path}
}

// CandidateHeaders are the columns produced by CandidateTableRow.
var CandidateHeaders = []string{"BRANCH", "SCORE", "RECOMMENDATION", "STATUS", "PATH"}

// CandidateTableRow renders one ranked worktree.
func CandidateTableRow(c cleanup.Candidate) []string {
	status := "unknown"
	if c.Info.Status != nil {
		status = c.Info.Status.Description()
	}
	return []string{
		styles.FormatBranch(c.Info),
		fmt.Sprintf("%.2f", c.Score),
		styles.FormatRecommendation(c.Recommendation),
		status,
		c.Info.Path,
	}
}

// ReportSummary is the closing line of a cleanup run, e.g.
// "3 evaluated: 1 cleaned, 2 skipped, 0 failed (discard)".
func ReportSummary(r cleanup.Report) string {
	verb := "cleaned"
	if r.WasDryRun {
		verb = "would clean"
	}
	return fmt.Sprintf("%d evaluated: %d %s, %d skipped, %d failed (%s)",
		r.TotalEvaluated, r.Cleaned, verb, r.Skipped, r.Failed, r.StrategyUsed)
}

// FormatAge renders a duration in its largest whole unit: "45s", "12m",
// "3h", "5d", "7w".
func FormatAge(d time.Duration) string {
	const (
		day  = 24 * time.Hour
		week = 7 * day
	)
	switch {
	case d < 0:
		return "0s"
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d/time.Second))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d/time.Minute))
	case d < day:
		return fmt.Sprintf("%dh", int(d/time.Hour))
	case d < 2*week:
		return fmt.Sprintf("%dd", int(d/day))
	}
	return fmt.Sprintf("%dw", int(d/week))
}

func shortHash(h string) string {
	h = strings.TrimSpace(h)
	if len(h) > 7 {
		return h[:7]
	}
	return h
}
