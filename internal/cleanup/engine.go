package cleanup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/raphi011/wtsweep/internal/git"
	"github.com/raphi011/wtsweep/internal/log"
	"github.com/raphi011/wtsweep/internal/worktree"
)

// Action is the outcome for one evaluated worktree.
type Action string

const (
	Cleaned          Action = "cleaned"
	SkippedTooNew    Action = "skipped_too_new"
	SkippedNotMerged Action = "skipped_not_merged"
	SkippedUnsafe    Action = "skipped_unsafe"
	SkippedDeclined  Action = "skipped_declined"
	Failed           Action = "failed"
)

// IsSkipped reports whether the worktree was left alone by policy.
func (a Action) IsSkipped() bool {
	switch a {
	case SkippedTooNew, SkippedNotMerged, SkippedUnsafe, SkippedDeclined:
		return true
	}
	return false
}

// ConfirmFunc asks whether info may be cleaned. violations are the
// non-blocking ones.
type ConfirmFunc func(ctx context.Context, info worktree.Info, violations []Violation) (bool, error)

// Options controls one cleanup run.
type Options struct {
	Strategy Strategy
	MinAge   time.Duration
	// Force lets non-critical violations pass. It never bypasses MinAge,
	// MergedOnly or a worktree in use.
	Force              bool
	DryRun             bool
	AutoConfirm        bool
	MergedOnly         bool
	MinMergeConfidence float64
	// Prefix restricts cleanup to branches starting with it. Empty uses
	// the manager's prefix.
	Prefix string
	// KeepBranch leaves the branch in place after the worktree is removed.
	KeepBranch   bool
	Remote       string // for BackupToOrigin, default "origin"
	TargetBranch string // merge detection target, empty for the main branch
	// WorkingDir is checked for WorktreeInUse. Empty uses os.Getwd.
	WorkingDir string

	// Confirm is consulted unless AutoConfirm or DryRun.
	Confirm ConfirmFunc
	// Progress is called after each evaluated worktree with the number
	// evaluated so far and the number of managed worktrees.
	Progress func(done, total int, res Result)
}

// Result is the outcome for one worktree.
type Result struct {
	Path       string              `json:"path" yaml:"path"`
	Branch     string              `json:"branch" yaml:"branch"`
	Action     Action              `json:"action" yaml:"action"`
	Reason     string              `json:"reason,omitempty" yaml:"reason,omitempty"`
	Violations []Violation         `json:"violations,omitempty" yaml:"violations,omitempty"`
	MergeInfo  *worktree.MergeInfo `json:"merge_info,omitempty" yaml:"merge_info,omitempty"`
	StashRef   string              `json:"stash_ref,omitempty" yaml:"stash_ref,omitempty"`
	Error      string              `json:"error,omitempty" yaml:"error,omitempty"`

	Err error `json:"-" yaml:"-"`
}

// Report summarizes a cleanup run. Results are in listing order.
type Report struct {
	Results        []Result `json:"results" yaml:"results"`
	TotalEvaluated int      `json:"total_evaluated" yaml:"total_evaluated"`
	Cleaned        int      `json:"cleaned" yaml:"cleaned"`
	Skipped        int      `json:"skipped" yaml:"skipped"`
	Failed         int      `json:"failed" yaml:"failed"`
	WasDryRun      bool     `json:"was_dry_run" yaml:"was_dry_run"`
	StrategyUsed   Strategy `json:"strategy_used" yaml:"strategy_used"`
}

func (r *Report) add(res Result) {
	r.Results = append(r.Results, res)
	r.TotalEvaluated++
	switch {
	case res.Action == Cleaned:
		r.Cleaned++
	case res.Action.IsSkipped():
		r.Skipped++
	default:
		r.Failed++
	}
}

// Engine cleans up the worktrees of one repository.
type Engine struct {
	mgr      *worktree.Manager
	detector *worktree.MergeDetector
	now      func() time.Time
}

// NewEngine returns an engine for mgr's repository. detector may be nil,
// in which case MergedOnly skips every worktree and unpushed commits are
// never considered merged.
func NewEngine(mgr *worktree.Manager, detector *worktree.MergeDetector) *Engine {
	return &Engine{mgr: mgr, detector: detector, now: time.Now}
}

// Cleanup evaluates every managed worktree one at a time and applies
// opts.Strategy to those that pass. It only fails as a whole when the
// worktrees cannot be listed or ctx is done.
func (e *Engine) Cleanup(ctx context.Context, opts Options) (Report, error) {
	l := log.FromContext(ctx)

	if opts.Strategy == "" {
		opts.Strategy = Discard
	}
	if _, err := ParseStrategy(string(opts.Strategy)); err != nil {
		return Report{}, err
	}
	if opts.Prefix == "" {
		opts.Prefix = e.mgr.Config().Prefix
	}
	if opts.WorkingDir == "" {
		opts.WorkingDir, _ = os.Getwd()
	}

	infos, err := e.mgr.List(ctx)
	if err != nil {
		return Report{}, err
	}

	managed := infos[:0]
	for _, info := range infos {
		if e.managed(info, opts.Prefix) {
			managed = append(managed, info)
		}
	}

	report := Report{WasDryRun: opts.DryRun, StrategyUsed: opts.Strategy}
	removed := false
	for i, info := range managed {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		res := e.evaluate(ctx, info, opts)
		if errors.Is(res.Err, context.Canceled) || errors.Is(res.Err, context.DeadlineExceeded) {
			return report, res.Err
		}
		if res.Action == Cleaned && !opts.DryRun {
			removed = true
		}
		l.Debug("cleanup", "path", res.Path, "action", res.Action, "reason", res.Reason)

		report.add(res)
		if opts.Progress != nil {
			opts.Progress(i+1, len(managed), res)
		}
	}

	if removed {
		if err := git.PruneWorktrees(ctx, e.mgr.Repo()); err != nil {
			l.Warn("worktree prune failed", "error", err)
		}
	}
	return report, nil
}

// managed reports whether info is ours to clean up.
func (e *Engine) managed(info worktree.Info, prefix string) bool {
	if info.IsMain {
		return false
	}
	if prefix == "" {
		return true
	}
	return info.Branch != "" && strings.HasPrefix(info.Branch, prefix)
}

func (e *Engine) evaluate(ctx context.Context, info worktree.Info, opts Options) Result {
	res := Result{Path: info.Path, Branch: info.Branch}

	if info.Age < opts.MinAge {
		res.Action = SkippedTooNew
		res.Reason = fmt.Sprintf("age %s is below %s", info.Age.Round(time.Second), opts.MinAge)
		return res
	}

	if err := e.mgr.UpdateStatus(ctx, &info, nil); err != nil {
		return fail(res, err)
	}
	status := info.Status

	if (opts.MergedOnly || len(status.UnpushedCommits) > 0) && e.detector != nil && info.Branch != "" {
		mi, err := e.detector.Detect(ctx, info.Path, info.Branch, opts.TargetBranch)
		if err != nil {
			return fail(res, err)
		}
		status.MergeInfo = &mi
		res.MergeInfo = &mi
	}

	if opts.MergedOnly {
		mi := status.MergeInfo
		switch {
		case mi == nil || !mi.IsMerged:
			res.Action = SkippedNotMerged
			res.Reason = "not merged"
			return res
		case mi.Confidence < opts.MinMergeConfidence:
			res.Action = SkippedNotMerged
			res.Reason = fmt.Sprintf("merged (%s) with confidence %.2f below %.2f",
				mi.DetectionMethod, mi.Confidence, opts.MinMergeConfidence)
			return res
		}
	}

	res.Violations = Assess(status, opts, within(opts.WorkingDir, info.Path))
	if blocking(res.Violations, opts.Force) {
		res.Action = SkippedUnsafe
		res.Reason = violationSummary(res.Violations, opts.Force)
		return res
	}

	if opts.DryRun {
		res.Action = Cleaned
		res.Reason = "would " + describe(opts.Strategy)
		return res
	}

	if !opts.AutoConfirm {
		ok, err := e.confirm(ctx, info, res.Violations, opts)
		if err != nil {
			return fail(res, err)
		}
		if !ok {
			res.Action = SkippedDeclined
			res.Reason = "declined"
			return res
		}
	}

	stash, err := e.execute(ctx, info, status, opts)
	res.StashRef = stash
	if err != nil {
		return fail(res, err)
	}
	res.Action = Cleaned
	res.Reason = describe(opts.Strategy)
	return res
}

func (e *Engine) confirm(ctx context.Context, info worktree.Info, vs []Violation, opts Options) (bool, error) {
	if opts.Confirm == nil {
		return false, nil
	}
	return opts.Confirm(ctx, info, vs)
}

func fail(res Result, err error) Result {
	res.Action = Failed
	res.Err = err
	res.Error = err.Error()
	return res
}

func violationSummary(vs []Violation, force bool) string {
	var parts []string
	for _, v := range vs {
		if v.Blocks(force) {
			parts = append(parts, v.Message)
		}
	}
	return strings.Join(parts, ", ")
}

func describe(s Strategy) string {
	switch s {
	case MergeToFeature:
		return "merge into feature branch and remove"
	case BackupToOrigin:
		return "push to remote and remove"
	case StashAndDiscard:
		return "stash changes and remove"
	}
	return "remove"
}
