package styles

import (
	"fmt"

	"github.com/raphi011/wtsweep/internal/cleanup"
	"github.com/raphi011/wtsweep/internal/worktree"
)

// Symbols for worktree and cleanup states
const (
	symbolClean    = "✓"
	symbolLight    = "○"
	symbolWarning  = "●"
	symbolMerged   = "⇡"
	symbolRemoved  = "✕"
	symbolSkipped  = "–"
	symbolFailed   = "!"
	symbolDetached = "@"
)

// SeveritySymbol returns the plain symbol for a severity.
func SeveritySymbol(s worktree.Severity) string {
	switch s {
	case worktree.SeverityClean:
		return symbolClean
	case worktree.SeverityLightWarning:
		return symbolLight
	}
	return symbolWarning
}

// FormatSeverity returns a colored symbol and name, e.g. "● warning".
func FormatSeverity(s worktree.Severity) string {
	text := SeveritySymbol(s) + " " + s.String()
	switch s {
	case worktree.SeverityClean:
		return SuccessStyle.Render(text)
	case worktree.SeverityLightWarning:
		return MutedStyle.Render(text)
	}
	return WarningStyle.Render(text)
}

// FormatMerge renders a merge verdict, e.g. "⇡ squash 0.85".
// Returns "" when detection did not run.
func FormatMerge(mi *worktree.MergeInfo) string {
	if mi == nil {
		return ""
	}
	if !mi.IsMerged {
		return MutedStyle.Render(fmt.Sprintf("no %.2f", mi.Confidence))
	}
	return MergedStyle.Render(fmt.Sprintf("%s %s %.2f", symbolMerged, mi.DetectionMethod, mi.Confidence))
}

// FormatBranch renders a worktree's branch, marking detached heads.
func FormatBranch(info worktree.Info) string {
	if info.IsDetached {
		return MutedStyle.Render(symbolDetached + " " + info.Name())
	}
	if info.IsMain {
		return Bold.Render(info.Branch)
	}
	return info.Branch
}

// ActionSymbol returns the plain symbol for a cleanup action.
func ActionSymbol(a cleanup.Action) string {
	switch {
	case a == cleanup.Cleaned:
		return symbolRemoved
	case a.IsSkipped():
		return symbolSkipped
	}
	return symbolFailed
}

// FormatAction returns a colored symbol and action name.
// dryRun renders cleaned worktrees as "would clean".
func FormatAction(a cleanup.Action, dryRun bool) string {
	text := string(a)
	if a == cleanup.Cleaned && dryRun {
		text = "would clean"
	}
	text = ActionSymbol(a) + " " + text
	switch {
	case a == cleanup.Cleaned:
		return SuccessStyle.Render(text)
	case a.IsSkipped():
		return MutedStyle.Render(text)
	}
	return ErrorStyle.Render(text)
}

// FormatRecommendation colors a recommendation.
func FormatRecommendation(r cleanup.Recommendation) string {
	switch r {
	case cleanup.SafeCleanup:
		return SuccessStyle.Render(string(r))
	case cleanup.CarefulCleanup:
		return WarningStyle.Render(string(r))
	}
	return MutedStyle.Render(string(r))
}
