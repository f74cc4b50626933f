// Package prcache caches pull request lookups on disk so repeated merge
// detection does not call the forge CLI for every branch on every run.
//
// Answers are cached per origin URL and branch. Merged and closed PRs
// cannot change anymore and are kept for a day; open PRs and "no PR"
// answers are re-checked after ten minutes.
package prcache

import (
	"context"
	"time"

	"github.com/raphi011/wtsweep/internal/cache"
	"github.com/raphi011/wtsweep/internal/forge"
	"github.com/raphi011/wtsweep/internal/log"
)

const (
	// TerminalTTL applies to MERGED and CLOSED answers.
	TerminalTTL = 24 * time.Hour
	// OpenTTL applies to OPEN and missing-PR answers.
	OpenTTL = 10 * time.Minute
)

// Answer is one cached forge response. PR is nil when the branch has no PR.
type Answer struct {
	PR *forge.PRInfo `json:"pr,omitempty"`
}

// Lookup is the forge query being cached.
type Lookup interface {
	Check(ctx context.Context) error
	LookupPR(ctx context.Context, branch string) (*forge.PRInfo, error)
	Key(branch string) string
}

// Cached wraps a Lookup with a persistent store.
type Cached struct {
	lookup Lookup
	store  *cache.Store[Answer]
}

// Wrap returns a Lookup that answers from store when possible.
func Wrap(lookup Lookup, store *cache.Store[Answer]) *Cached {
	return &Cached{lookup: lookup, store: store}
}

// Open opens the user-wide PR cache file.
func Open() (*cache.Store[Answer], error) {
	path, err := cache.PRPath()
	if err != nil {
		return nil, err
	}
	return cache.Open[Answer](path, OpenTTL)
}

// Check is never cached; the forge CLI must be usable for new lookups.
func (c *Cached) Check(ctx context.Context) error {
	return c.lookup.Check(ctx)
}

// LookupPR returns the cached answer for branch or asks the forge.
// Errors are not cached.
func (c *Cached) LookupPR(ctx context.Context, branch string) (*forge.PRInfo, error) {
	key := c.lookup.Key(branch)
	if a, ok := c.store.Get(key); ok {
		log.FromContext(ctx).Debug("pr cache hit", "branch", branch)
		return a.PR, nil
	}

	pr, err := c.lookup.LookupPR(ctx, branch)
	if err != nil {
		return nil, err
	}

	ttl := OpenTTL
	if pr != nil && pr.IsTerminal() {
		ttl = TerminalTTL
	}
	c.store.SetTTL(key, Answer{PR: pr}, ttl)
	return pr, nil
}

// Key delegates to the wrapped lookup.
func (c *Cached) Key(branch string) string {
	return c.lookup.Key(branch)
}

// Save persists new answers.
func (c *Cached) Save(ctx context.Context) error {
	return c.store.Save(ctx)
}
