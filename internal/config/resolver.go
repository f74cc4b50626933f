package config

import (
	"context"
	"path/filepath"
	"sync"
)

// Resolver hands out the effective configuration of a repository: the
// global config with the repository's .wtsweep.toml merged over it. Each
// repository's file is read once. Safe for concurrent use.
type Resolver struct {
	global *Config

	mu     sync.Mutex
	byRepo map[string]*Config // cleaned main worktree path -> merged config
}

// NewResolver returns a Resolver layering local files over global.
func NewResolver(global *Config) *Resolver {
	return &Resolver{global: global, byRepo: make(map[string]*Config)}
}

// ConfigForRepo returns the effective config for the repository whose main
// worktree is repoPath. Without a local file that is the global config
// itself. A broken local file is an error and is retried on the next call.
func (r *Resolver) ConfigForRepo(repoPath string) (*Config, error) {
	key := filepath.Clean(repoPath)

	r.mu.Lock()
	defer r.mu.Unlock()
	if cfg, ok := r.byRepo[key]; ok {
		return cfg, nil
	}

	local, err := LoadLocal(key)
	if err != nil {
		return nil, err
	}
	cfg := MergeLocal(r.global, local)
	r.byRepo[key] = cfg
	return cfg, nil
}

// Global returns the config without local overrides.
func (r *Resolver) Global() *Config {
	return r.global
}

type resolverKey struct{}

// WithResolver attaches r to ctx.
func WithResolver(ctx context.Context, r *Resolver) context.Context {
	return context.WithValue(ctx, resolverKey{}, r)
}

// ResolverFromContext returns the Resolver attached to ctx, or nil.
func ResolverFromContext(ctx context.Context) *Resolver {
	r, _ := ctx.Value(resolverKey{}).(*Resolver)
	return r
}
