package config

import "slices"

// MergeLocal merges a local per-repo config into a global config,
// returning a new Config without mutating the global.
// Returns global unchanged if local is nil.
func MergeLocal(global *Config, local *LocalConfig) *Config {
	if local == nil {
		return global
	}

	// Hosts, Status, Log and Process are global-only and carried over as-is.
	merged := *global
	merged.Merge.Methods = slices.Clone(global.Merge.Methods)
	merged.Merge.MainBranches = slices.Clone(global.Merge.MainBranches)
	merged.Preserve = PreserveConfig{
		Patterns: appendUnique(global.Preserve.Patterns, local.Preserve.Patterns),
		Exclude:  appendUnique(global.Preserve.Exclude, local.Preserve.Exclude),
	}
	merged.Hooks = mergeHooks(global.Hooks, local.Hooks)

	if local.Worktree.Prefix != nil {
		merged.Worktree.Prefix = *local.Worktree.Prefix
	}
	if local.Worktree.BaseDir != "" {
		merged.Worktree.BaseDir = local.Worktree.BaseDir
	}
	if local.Worktree.AutoGitignore != nil {
		merged.Worktree.AutoGitignore = *local.Worktree.AutoGitignore
	}

	// lists replace rather than append: order matters for both
	if len(local.Merge.Methods) > 0 {
		merged.Merge.Methods = slices.Clone(local.Merge.Methods)
	}
	if len(local.Merge.MainBranches) > 0 {
		merged.Merge.MainBranches = slices.Clone(local.Merge.MainBranches)
	}
	if local.Merge.UseForge != nil {
		merged.Merge.UseForge = *local.Merge.UseForge
	}

	if local.Cleanup.Strategy != "" {
		merged.Cleanup.Strategy = local.Cleanup.Strategy
	}
	if local.Cleanup.MinAge != nil {
		merged.Cleanup.MinAge = *local.Cleanup.MinAge
	}
	if local.Cleanup.MergedOnly != nil {
		merged.Cleanup.MergedOnly = *local.Cleanup.MergedOnly
	}
	if local.Cleanup.MinMergeConfidence != nil {
		merged.Cleanup.MinMergeConfidence = *local.Cleanup.MinMergeConfidence
	}
	if local.Cleanup.DeleteBranch != nil {
		merged.Cleanup.DeleteBranch = *local.Cleanup.DeleteBranch
	}
	if local.Cleanup.Remote != "" {
		merged.Cleanup.Remote = local.Cleanup.Remote
	}

	return &merged
}

// appendUnique returns base followed by the entries of extra not already in it.
func appendUnique(base, extra []string) []string {
	out := slices.Clone(base)
	for _, e := range extra {
		if !slices.Contains(out, e) {
			out = append(out, e)
		}
	}
	return out
}

// mergeHooks overlays local hooks by name. A local hook with enabled = false
// removes the global one of the same name.
func mergeHooks(global, local map[string]Hook) map[string]Hook {
	if len(global) == 0 && len(local) == 0 {
		return nil
	}
	out := make(map[string]Hook, len(global)+len(local))
	for name, h := range global {
		out[name] = h
	}
	for name, h := range local {
		if h.Enabled != nil && !*h.Enabled {
			delete(out, name)
			continue
		}
		out[name] = h
	}
	return out
}
