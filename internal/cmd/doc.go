// Package cmd provides helpers for executing shell commands with proper error handling.
//
// Commands run through [RunContext] and [OutputContext]. Both capture stderr
// and use it as the error message when the process exits non-zero, so
// failures read like the underlying tool printed them.
//
// # Usage
//
//	if err := cmd.RunContext(ctx, repo, "git", "fetch"); err != nil {
//	    return fmt.Errorf("fetch: %w", err)
//	}
//
//	out, err := cmd.OutputContext(ctx, repo, "git", "rev-parse", "HEAD")
//
// Exit codes stay available through [ExitError] and [ExitCode] for commands
// that signal results through them (git merge-base --is-ancestor, git diff --quiet).
//
// # Deadlines
//
// Nothing times out by default. [WithTimeout] attaches a per-process deadline
// to a context; every command started with that context gets its own timer.
//
// # Design Notes
//
// wtsweep shells out to git/gh/glab rather than linking git libraries for
// mutations, so user configuration (SSH keys, credential helpers, hooks)
// applies unchanged.
package cmd
