// Package worktree creates, lists and inspects the git worktrees of one
// repository and decides whether their branches were merged.
//
// # Naming
//
// Worktrees are created on branches named prefix + sanitized task id
// ("wt/fix-login") in a directory under the configured base directory
// ("<repo>/.worktrees/fix-login__65a1b2c3"). The prefix marks the branches
// this tool owns; cleanup never touches anything else.
//
// # Status
//
// [CheckStatus] collects uncommitted and untracked paths, commits that exist
// only locally, and the relation to the upstream. Severity is derived from
// those counts alone by [ClassifySeverity]:
//
//	nothing                          clean
//	untracked files only             light_warning
//	uncommitted changes or commits   warning
//
// # Merge Detection
//
// [MergeDetector] runs independent methods in the configured order and
// reduces them with [Aggregate]:
//
//	standard      branch tip is an ancestor of the target        0.95 / 0.8
//	squash        net diff found on the target                   0.85, 0.75, 0.7 x ratio
//	github_pr     forge reports a merged pull request            0.9 / 0.6
//	file_content  commit messages found in the target history    0.5 to 0.7
//
// A method that cannot run records its error and is left out of the
// verdict. github_pr is omitted entirely when the forge is disabled or
// unavailable.
//
// # Errors
//
// All errors wrap one of the Err* kinds, e.g.
//
//	if errors.Is(err, worktree.ErrAlreadyExists) { ... }
package worktree
