// Package cleanup decides which managed worktrees can be removed and
// removes them.
//
// [Engine.Cleanup] walks the worktrees of one repository in listing order
// and evaluates each against [Options]:
//
//   - the main worktree and branches outside the prefix are not considered
//   - worktrees younger than MinAge are skipped, even with Force
//   - with MergedOnly, unmerged or low-confidence branches are skipped
//   - unsaved work yields [Violation] entries; blocking ones skip the worktree
//   - the configured [Strategy] runs, or is only reported on a dry run
//
// Every evaluated worktree ends in exactly one [Action]. Per-worktree
// failures are recorded in the [Report] and never stop the run.
//
// [Score] and [Engine.Recommend] rank worktrees without removing anything.
package cleanup
