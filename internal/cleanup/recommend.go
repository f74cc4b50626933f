package cleanup

import (
	"context"

	"github.com/raphi011/wtsweep/internal/log"
	"github.com/raphi011/wtsweep/internal/worktree"
)

// Recommendation is an advisory verdict for one worktree.
type Recommendation string

const (
	SafeCleanup    Recommendation = "safe_cleanup"
	CarefulCleanup Recommendation = "careful_cleanup"
	Keep           Recommendation = "keep"
)

// RecommendFor maps a safety score and merge state to a verdict.
func RecommendFor(score float64, merged bool) Recommendation {
	switch {
	case score > 0.8 && merged:
		return SafeCleanup
	case score > 0.5:
		return CarefulCleanup
	}
	return Keep
}

// Candidate is a ranked worktree.
type Candidate struct {
	Info           worktree.Info  `json:"worktree" yaml:"worktree"`
	Score          float64        `json:"score" yaml:"score"`
	Recommendation Recommendation `json:"recommendation" yaml:"recommendation"`
}

// Recommend refreshes the status of every managed worktree, including
// merge detection, and ranks them. Worktrees whose status cannot be read
// are kept. Results are in listing order. prefix works as in Options.
func (e *Engine) Recommend(ctx context.Context, prefix string, limit int) ([]Candidate, error) {
	if prefix == "" {
		prefix = e.mgr.Config().Prefix
	}
	infos, err := e.mgr.List(ctx)
	if err != nil {
		return nil, err
	}

	managed := infos[:0]
	for _, info := range infos {
		if e.managed(info, prefix) {
			managed = append(managed, info)
		}
	}

	if err := e.mgr.UpdateStatuses(ctx, managed, e.detector, limit); err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		log.FromContext(ctx).Warn("some statuses could not be read", "error", err)
	}

	out := make([]Candidate, len(managed))
	for i, info := range managed {
		c := Candidate{Info: info, Recommendation: Keep}
		if info.Status != nil {
			c.Score = Score(info.Status)
			c.Recommendation = RecommendFor(c.Score, info.Status.IsMerged())
		}
		out[i] = c
	}
	return out, nil
}
