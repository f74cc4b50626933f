package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// LocalConfigFileName is the per-repo config file at the main worktree root.
const LocalConfigFileName = ".wtsweep.toml"

// LocalConfig holds per-repo configuration overrides from .wtsweep.toml.
// Pointer fields and zero-value strings indicate "not set" (inherit from global).
type LocalConfig struct {
	Worktree LocalWorktree   `toml:"worktree"`
	Merge    LocalMerge      `toml:"merge"`
	Cleanup  LocalCleanup    `toml:"cleanup"`
	Preserve PreserveConfig  `toml:"preserve"` // appended to global
	Hooks    map[string]Hook `toml:"hooks"`    // merged by name into global
}

// LocalWorktree holds local worktree overrides
type LocalWorktree struct {
	Prefix        *string `toml:"prefix"` // "" is a valid override meaning no prefix
	BaseDir       string  `toml:"base_dir"`
	AutoGitignore *bool   `toml:"auto_gitignore"`
}

// LocalMerge holds local merge detection overrides
type LocalMerge struct {
	Methods      []string `toml:"methods"`
	MainBranches []string `toml:"main_branches"`
	UseForge     *bool    `toml:"use_forge"`
}

// LocalCleanup holds local cleanup overrides
type LocalCleanup struct {
	Strategy           string    `toml:"strategy"`
	MinAge             *Duration `toml:"min_age"`
	MergedOnly         *bool     `toml:"merged_only"`
	MinMergeConfidence *float64  `toml:"min_merge_confidence"`
	DeleteBranch       *bool     `toml:"delete_branch"`
	Remote             string    `toml:"remote"`
}

// LoadLocal reads a per-repo .wtsweep.toml from the given repo path.
// Returns nil (no error) if the file doesn't exist.
// Returns an error only on parse or validation failure.
func LoadLocal(repoPath string) (*LocalConfig, error) {
	configFile := filepath.Join(repoPath, LocalConfigFileName)

	data, err := os.ReadFile(configFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read local config %s: %w", configFile, err)
	}

	var local LocalConfig
	if _, err := toml.Decode(string(data), &local); err != nil {
		return nil, fmt.Errorf("failed to parse local config %s: %w", configFile, err)
	}

	if err := local.validate(); err != nil {
		return nil, fmt.Errorf("%w in %s", err, configFile)
	}
	if local.Worktree.BaseDir, err = expandPath(local.Worktree.BaseDir); err != nil {
		return nil, fmt.Errorf("expand worktree.base_dir in %s: %w", configFile, err)
	}

	return &local, nil
}

func (l *LocalConfig) validate() error {
	for _, m := range l.Merge.Methods {
		if err := validateEnum(m, "merge.methods entry", ValidMethods); err != nil {
			return err
		}
	}
	if err := validateEnum(l.Cleanup.Strategy, "cleanup.strategy", ValidStrategies); err != nil {
		return err
	}
	if c := l.Cleanup.MinMergeConfidence; c != nil {
		if err := validateConfidence(*c, "cleanup.min_merge_confidence"); err != nil {
			return err
		}
	}
	if err := validatePreserve(l.Preserve); err != nil {
		return err
	}
	return validateHooks(l.Hooks)
}

// defaultLocalConfig is the template for wtsweep config init --local
const defaultLocalConfig = `# wtsweep local config (per-repo overrides)
# Place this file at the root of the main worktree.
# Settings here override the global config for this repo only.

# [worktree]
# prefix = "agent/"
# base_dir = ".worktrees"

# [merge]
# main_branches = ["develop"]
# use_forge = false

# [cleanup]
# strategy = "backup_to_origin"
# min_age = "72h"
# merged_only = true

# Patterns here are added to the global ones
# [preserve]
# patterns = [".env", ".env.*"]

# Add repo-specific hooks, or disable a global one with enabled = false
# [hooks.setup]
# command = "make setup"
# on = ["create"]
#
# [hooks.global-hook-name]
# enabled = false
`

// DefaultLocalConfig returns the default local configuration template content.
func DefaultLocalConfig() string {
	return defaultLocalConfig
}

// InitLocal writes the local template into repoPath and returns its path.
func InitLocal(repoPath string, force bool) (string, error) {
	path := filepath.Join(repoPath, LocalConfigFileName)
	return path, writeTemplate(path, defaultLocalConfig, force)
}
