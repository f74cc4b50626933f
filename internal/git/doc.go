// Package git wraps the git CLI for worktree lifecycle and branch analysis.
//
// Nearly everything shells out to git through [cmd.OutputContext] so that
// user configuration (credential helpers, hooks, includeIf) applies the same
// way it does in a terminal. Every call takes a context and a directory;
// the directory is passed as `git -C dir`.
//
// # Worktrees
//
//   - [ListWorktrees], [ParseWorktreeList]: porcelain listing
//   - [AddWorktree], [AddDetachedWorktree], [RemoveWorktree], [PruneWorktrees]
//
// # Branch state
//
//   - [CurrentBranch], [ResolveCommit], [BranchExists]
//   - [GetUpstream], [AheadBehind], [UnpushedCommits]
//   - [GetStatus]: porcelain v1 working tree status
//
// # Merge analysis
//
//   - [IsAncestor], [MergeBase], [SquashCommit], [CherryEquivalent]
//   - [MergeTreeConflicts]: in-memory merge via `git merge-tree --write-tree`
//   - [History]: in-process commit walks backed by go-git
package git
