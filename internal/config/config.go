package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration is a time.Duration that reads and writes TOML strings like "24h".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	if v < 0 {
		return fmt.Errorf("invalid duration %q: must not be negative", text)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// WorktreeConfig controls naming and placement of new worktrees.
type WorktreeConfig struct {
	Prefix        string `toml:"prefix"`         // branch prefix, e.g. "wt/"
	BaseDir       string `toml:"base_dir"`       // relative to the repo root, or absolute
	AutoGitignore bool   `toml:"auto_gitignore"` // add base_dir to .gitignore on create
}

// MergeConfig controls merge detection.
type MergeConfig struct {
	Methods      []string `toml:"methods"`
	MainBranches []string `toml:"main_branches"`
	UseForge     bool     `toml:"use_forge"`
}

// CleanupConfig holds defaults for the cleanup command.
type CleanupConfig struct {
	Strategy           string   `toml:"strategy"`
	MinAge             Duration `toml:"min_age"`
	MergedOnly         bool     `toml:"merged_only"`
	MinMergeConfidence float64  `toml:"min_merge_confidence"`
	DeleteBranch       bool     `toml:"delete_branch"`
	Remote             string   `toml:"remote"`
}

// StatusConfig controls the status cache.
type StatusConfig struct {
	CacheTTL Duration `toml:"cache_ttl"`
}

// LogConfig configures the structured log file. An empty File disables it.
type LogConfig struct {
	File       string `toml:"file"`
	Level      string `toml:"level"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// ProcessConfig controls external process invocation.
type ProcessConfig struct {
	Timeout Duration `toml:"timeout"` // per-process deadline; 0 disables
}

// Hook is a shell command run after create or cleanup.
type Hook struct {
	Command     string   `toml:"command"`
	Description string   `toml:"description,omitempty"`
	On          []string `toml:"on,omitempty"`      // triggers; without any the hook only runs via --hook
	Enabled     *bool    `toml:"enabled,omitempty"` // false in a local config removes a global hook
}

// PreserveConfig selects git-ignored files copied into new worktrees.
type PreserveConfig struct {
	Patterns []string `toml:"patterns"` // globs matched against the file's base name
	Exclude  []string `toml:"exclude"`  // path segments never descended into
}

// Config holds the wtsweep configuration
type Config struct {
	Worktree WorktreeConfig    `toml:"worktree"`
	Merge    MergeConfig       `toml:"merge"`
	Cleanup  CleanupConfig     `toml:"cleanup"`
	Status   StatusConfig      `toml:"status"`
	Log      LogConfig         `toml:"log"`
	Process  ProcessConfig     `toml:"process"`
	Preserve PreserveConfig    `toml:"preserve"`
	Hooks    map[string]Hook   `toml:"hooks"`
	Hosts    map[string]string `toml:"hosts"` // domain -> forge type mapping
}

// Defaults for settings that are not present in the config file.
const (
	DefaultPrefix             = "wt/"
	DefaultBaseDir            = ".worktrees"
	DefaultStrategy           = "discard"
	DefaultMinAge             = 24 * time.Hour
	DefaultMinMergeConfidence = 0.8
	DefaultRemote             = "origin"
	DefaultCacheTTL           = 5 * time.Minute
)

// Default returns the default configuration
func Default() Config {
	return Config{
		Worktree: WorktreeConfig{
			Prefix:        DefaultPrefix,
			BaseDir:       DefaultBaseDir,
			AutoGitignore: true,
		},
		Merge: MergeConfig{
			Methods:      append([]string(nil), ValidMethods...),
			MainBranches: []string{"main", "master"},
			UseForge:     true,
		},
		Cleanup: CleanupConfig{
			Strategy:           DefaultStrategy,
			MinAge:             Duration{DefaultMinAge},
			MinMergeConfidence: DefaultMinMergeConfidence,
			DeleteBranch:       true,
			Remote:             DefaultRemote,
		},
		Status: StatusConfig{CacheTTL: Duration{DefaultCacheTTL}},
		Preserve: PreserveConfig{
			Exclude: []string{"node_modules", ".venv", "vendor"},
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 7,
		},
	}
}

// expandPath expands ~ to the user's home directory
func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand ~: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	if path == "~" {
		return os.UserHomeDir()
	}
	return path, nil
}

// ConfigPathEnv overrides the location of the global config file.
const ConfigPathEnv = "WTSWEEP_CONFIG"

// Path returns the path to the global config file.
func Path() (string, error) {
	if p := os.Getenv(ConfigPathEnv); p != "" {
		return expandPath(p)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "wtsweep", "config.toml"), nil
}

// Load reads the global config file.
// Returns Default() if the file doesn't exist (no error).
// Returns an error only if the file exists but is invalid.
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads config from path, layered over Default().
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("failed to read config file: %w", err)
	}

	// decoding into a populated struct keeps defaults for absent keys
	cfg := Default()
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return Default(), fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("%s: %w", path, err)
	}

	if cfg.Log.File, err = expandPath(cfg.Log.File); err != nil {
		return Default(), fmt.Errorf("expand log.file: %w", err)
	}
	if cfg.Worktree.BaseDir, err = expandPath(cfg.Worktree.BaseDir); err != nil {
		return Default(), fmt.Errorf("expand worktree.base_dir: %w", err)
	}

	return cfg, nil
}

// Validate checks enum fields and numeric ranges.
func (c *Config) Validate() error {
	if c.Worktree.BaseDir == "" {
		return errors.New("worktree.base_dir must not be empty")
	}
	for _, m := range c.Merge.Methods {
		if err := validateEnum(m, "merge.methods entry", ValidMethods); err != nil {
			return err
		}
	}
	if err := validateEnum(c.Cleanup.Strategy, "cleanup.strategy", ValidStrategies); err != nil {
		return err
	}
	if err := validateConfidence(c.Cleanup.MinMergeConfidence, "cleanup.min_merge_confidence"); err != nil {
		return err
	}
	if err := validateEnum(c.Log.Level, "log.level", ValidLogLevels); err != nil {
		return err
	}
	if err := validatePreserve(c.Preserve); err != nil {
		return err
	}
	if err := validateHooks(c.Hooks); err != nil {
		return err
	}
	for host, forgeType := range c.Hosts {
		if err := validateEnum(forgeType, fmt.Sprintf("forge type for host %q", host), ValidForgeTypes); err != nil {
			return err
		}
	}
	return nil
}

// ForgeHosts returns the host -> forge mapping, never nil.
func (c *Config) ForgeHosts() map[string]string {
	if c.Hosts == nil {
		return map[string]string{}
	}
	return c.Hosts
}

// configKey is the context key for Config
type configKey struct{}

// WithConfig returns a new context with the config stored in it.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext returns the config stored in ctx, or the defaults.
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey{}).(*Config); ok && cfg != nil {
		return cfg
	}
	def := Default()
	return &def
}

const defaultConfig = `# wtsweep configuration

[worktree]
# Branch prefix for managed worktrees. Cleanup only touches branches with it.
prefix = "wt/"
# Where new worktrees go: relative to the repository root, absolute, or ~/...
base_dir = ".worktrees"
# Add base_dir to .gitignore when it lives inside the repository
auto_gitignore = true

[merge]
# Detection methods, in order: standard, squash, github_pr, file_content
methods = ["standard", "squash", "github_pr", "file_content"]
# Candidate target branches; the first one that exists is used
main_branches = ["main", "master"]
# Ask gh/glab whether a pull request was merged
use_forge = true

[cleanup]
# discard, merge_to_feature, backup_to_origin, or stash_and_discard
strategy = "discard"
# Never clean worktrees younger than this
min_age = "24h"
# Only clean branches detected as merged
merged_only = false
min_merge_confidence = 0.8
delete_branch = true
# Remote used by backup_to_origin
remote = "origin"

[status]
# How long "wtsweep list --status" reuses a computed status
cache_ttl = "5m"

[log]
# Structured JSON log file (rotated). Empty disables it.
# file = "~/.local/state/wtsweep/wtsweep.log"
level = "info"

[process]
# Deadline for each git/gh/glab invocation. "0s" waits forever.
timeout = "0s"

# Copy git-ignored files matching these base-name globs from the main
# worktree into every new worktree. Existing files are never overwritten.
[preserve]
patterns = []
exclude = ["node_modules", ".venv", "vendor"]

# Hooks run after "create" (in the new worktree) or after each removed
# worktree during "cleanup" (in the main worktree). Hooks without "on"
# only run via --hook=name.
# Placeholders: {path} {branch} {repo} {trigger} {action} and --arg key=value
# [hooks.deps]
# command = "npm ci"
# description = "install dependencies"
# on = ["create"]
#
# [hooks.notify]
# command = "echo 'removed {branch}'"
# on = ["cleanup"]

# Host mappings for self-hosted GitHub Enterprise or GitLab instances
# [hosts]
# "github.mycompany.com" = "github"
# "gitlab.internal.corp" = "gitlab"
`

// DefaultConfig returns the default global configuration template content.
func DefaultConfig() string {
	return defaultConfig
}

// Init creates a default config file at Path().
// If force is true, overwrites existing file.
// Returns the path to the created file.
func Init(force bool) (string, error) {
	path, err := Path()
	if err != nil {
		return "", err
	}
	return path, writeTemplate(path, defaultConfig, force)
}

func writeTemplate(path, content string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return errors.New("config file already exists: " + path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}
