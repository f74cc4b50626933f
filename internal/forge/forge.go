package forge

import (
	"context"
	"time"
)

// Normalized pull request states.
const (
	PRStateOpen   = "OPEN"
	PRStateMerged = "MERGED"
	PRStateClosed = "CLOSED"
)

// PRInfo describes the pull/merge request whose head is a given branch.
type PRInfo struct {
	Number   int       `json:"number"`
	State    string    `json:"state"` // Normalized: OPEN, MERGED, CLOSED
	IsDraft  bool      `json:"is_draft"`
	Title    string    `json:"title"`
	URL      string    `json:"url"`
	Author   string    `json:"author"`
	MergedAt time.Time `json:"merged_at,omitzero"`
}

// IsTerminal reports whether the state can no longer change.
func (p *PRInfo) IsTerminal() bool {
	return p.State == PRStateMerged || p.State == PRStateClosed
}

// Forge represents a git hosting service (GitHub, GitLab, etc.)
type Forge interface {
	// Name returns the forge name ("github" or "gitlab")
	Name() string

	// Check verifies the CLI is installed and authenticated
	Check(ctx context.Context) error

	// GetPRForBranch fetches the most recent PR whose head is branch.
	// Returns nil, nil when the branch never had one.
	GetPRForBranch(ctx context.Context, repoURL, branch string) (*PRInfo, error)

	// FormatState returns a human-readable PR state
	FormatState(state string) string
}

// Lookup binds a Forge to one repository.
type Lookup struct {
	Forge   Forge
	RepoURL string
}

// Check verifies the forge CLI is usable.
func (l *Lookup) Check(ctx context.Context) error {
	return l.Forge.Check(ctx)
}

// LookupPR returns the PR for branch in the bound repository.
func (l *Lookup) LookupPR(ctx context.Context, branch string) (*PRInfo, error) {
	return l.Forge.GetPRForBranch(ctx, l.RepoURL, branch)
}

// Key identifies cached answers for branch in the bound repository.
func (l *Lookup) Key(branch string) string {
	return l.RepoURL + "#" + branch
}
