// Package hooks runs user-defined shell commands after wtsweep operations.
//
// Hooks are configured in [hooks.NAME] tables:
//
//	[hooks.deps]
//	command = "npm ci"
//	on = ["create"]
//
//	[hooks.notify]
//	command = "echo 'removed {branch}'"
//	on = ["cleanup"]
//
// A hook whose "on" list names the trigger ("create", "cleanup" or "all")
// runs automatically. A hook without "on" only runs when selected with
// --hook=NAME; --no-hook skips every hook.
//
// # Placeholders
//
//   - {path}: worktree path
//   - {branch}: branch name, empty for a detached HEAD
//   - {repo}: main worktree path
//   - {folder}: base name of the main worktree
//   - {trigger}: create or cleanup
//   - {action}: cleanup outcome, e.g. cleaned
//
// Values passed with --arg key=value are available as {key}, {key:raw}
// for an unquoted value, and {key:-default}. Every other value is
// single-quoted for the shell. Shell expansions such as ${HOME} are left
// untouched.
//
// Create hooks run in the new worktree and stop the command on failure.
// Cleanup hooks run in the main worktree once per removed worktree, and a
// failure is only logged.
package hooks
