// Package config handles loading and validation of wtsweep configuration.
//
// Settings are read from ~/.config/wtsweep/config.toml (or the file named by
// WTSWEEP_CONFIG) and layered over [Default]. A per-repo .wtsweep.toml at the
// main worktree root overrides individual fields via [MergeLocal].
//
// # Sections
//
//   - [worktree]: branch prefix, base directory, .gitignore maintenance
//   - [merge]: detection methods, candidate main branches, forge usage
//   - [cleanup]: default strategy, minimum age, merge requirements, remote
//   - [status]: cache TTL for computed worktree status
//   - [log]: optional rotated JSON log file
//   - [process]: per-invocation timeout for git and forge CLIs
//   - [preserve]: ignored files copied into new worktrees (local patterns append)
//   - [hooks.NAME]: shell commands run after create or cleanup (local hooks merge by name)
//   - [hosts]: custom domains mapped to "github" or "gitlab"
//
// Durations are strings accepted by time.ParseDuration ("90m", "24h").
//
// The worktree and cleanup packages never import config: cmd/wtsweep copies
// the values they need into plain option structs.
package config
