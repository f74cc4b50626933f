package worktree

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"sync"

	"github.com/raphi011/wtsweep/internal/forge"
	"github.com/raphi011/wtsweep/internal/git"
	"github.com/raphi011/wtsweep/internal/log"
)

// Method names a merge detection method.
type Method string

const (
	MethodStandard    Method = "standard"
	MethodSquash      Method = "squash"
	MethodGitHubPR    Method = "github_pr"
	MethodFileContent Method = "file_content"
	// MethodNone is reported when no method produced a usable result.
	MethodNone Method = "none"
)

// DefaultMethods is the detection order used when none is configured.
var DefaultMethods = []Method{MethodStandard, MethodSquash, MethodGitHubPR, MethodFileContent}

// historyLimit bounds how many target commits file_content reads.
const historyLimit = 2000

var (
	errNoUniqueCommits = errors.New("no unique commits")
	errNoPullRequest   = errors.New("no pull request")
)

// MethodResult is the outcome of one detection method.
type MethodResult struct {
	Method     Method  `json:"method" yaml:"method"`
	IsMerged   bool    `json:"is_merged" yaml:"is_merged"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
	Details    string  `json:"details,omitempty" yaml:"details,omitempty"`
	Error      string  `json:"error,omitempty" yaml:"error,omitempty"`
}

func failed(m Method, err error) MethodResult {
	return MethodResult{Method: m, Error: err.Error()}
}

// MergeInfo is the aggregated verdict for one branch against one target.
type MergeInfo struct {
	IsMerged        bool           `json:"is_merged" yaml:"is_merged"`
	DetectionMethod Method         `json:"detection_method" yaml:"detection_method"`
	Confidence      float64        `json:"confidence" yaml:"confidence"`
	Details         string         `json:"details,omitempty" yaml:"details,omitempty"`
	Target          string         `json:"target" yaml:"target"`
	MethodResults   []MethodResult `json:"method_results" yaml:"method_results"`
}

// PullRequestLookup answers whether a branch has a pull request.
// LookupPR returns nil, nil when there is none.
type PullRequestLookup interface {
	Check(ctx context.Context) error
	LookupPR(ctx context.Context, branch string) (*forge.PRInfo, error)
}

// DetectorConfig configures a MergeDetector.
type DetectorConfig struct {
	Methods      []Method // run in this order; empty means DefaultMethods
	MainBranches []string // candidate targets, first that resolves wins
	UseForge     bool
	Forge        PullRequestLookup // may be nil
}

// MergeDetector decides whether a branch's work reached a target branch.
// It is safe for concurrent use.
type MergeDetector struct {
	cfg DetectorConfig

	forgeOnce sync.Once
	forgeErr  error
}

// NewMergeDetector returns a detector for cfg.
func NewMergeDetector(cfg DetectorConfig) *MergeDetector {
	if len(cfg.Methods) == 0 {
		cfg.Methods = DefaultMethods
	}
	return &MergeDetector{cfg: cfg}
}

// Methods returns the configured method order.
func (d *MergeDetector) Methods() []Method {
	return d.cfg.Methods
}

// forgeAvailable checks the forge once per detector.
func (d *MergeDetector) forgeAvailable(ctx context.Context) bool {
	if !d.cfg.UseForge || d.cfg.Forge == nil {
		return false
	}
	d.forgeOnce.Do(func() {
		d.forgeErr = d.cfg.Forge.Check(ctx)
		if d.forgeErr != nil {
			log.FromContext(ctx).Warn("forge unavailable, skipping github_pr", "error", d.forgeErr)
		}
	})
	return d.forgeErr == nil
}

// probe holds what every method needs for one detection.
type probe struct {
	path   string
	branch string
	head   string
	target string
}

// Detect runs the configured methods for branch against target and
// aggregates them. An empty target selects the first resolvable main
// branch, then the repository default branch. path may be any worktree
// of the repository.
func (d *MergeDetector) Detect(ctx context.Context, path, branch, target string) (MergeInfo, error) {
	if !git.IsInsideRepoPath(ctx, path) {
		return MergeInfo{}, newError(ErrNotARepository, "%s", path)
	}

	head, err := git.ResolveCommit(ctx, path, branch)
	if err != nil {
		return MergeInfo{}, WrapError(ErrInvalidReference, "branch "+branch, err)
	}

	target, err = d.ResolveTarget(ctx, path, target)
	if err != nil {
		return MergeInfo{}, err
	}

	if branch == target {
		return MergeInfo{
			DetectionMethod: MethodNone,
			Target:          target,
			Details:         "self: branch is the target",
		}, nil
	}

	p := probe{path: path, branch: branch, head: head, target: target}
	results := make([]MethodResult, 0, len(d.cfg.Methods))
	for _, m := range d.cfg.Methods {
		if err := ctx.Err(); err != nil {
			return MergeInfo{}, err
		}
		if m == MethodGitHubPR && !d.forgeAvailable(ctx) {
			continue
		}
		r := d.run(ctx, m, p)
		log.FromContext(ctx).Debug("merge method", "branch", branch, "method", m,
			"merged", r.IsMerged, "confidence", r.Confidence, "error", r.Error)
		results = append(results, r)
	}

	mi := Aggregate(results)
	mi.Target = target
	return mi, nil
}

// ResolveTarget returns target if it resolves, otherwise picks a main branch.
func (d *MergeDetector) ResolveTarget(ctx context.Context, path, target string) (string, error) {
	if target != "" {
		if _, err := git.ResolveCommit(ctx, path, target); err != nil {
			return "", WrapError(ErrInvalidReference, "target "+target, err)
		}
		return target, nil
	}
	for _, b := range d.cfg.MainBranches {
		if _, err := git.ResolveCommit(ctx, path, b); err == nil {
			return b, nil
		}
	}
	def := git.GetDefaultBranch(ctx, path)
	if _, err := git.ResolveCommit(ctx, path, def); err != nil {
		return "", newError(ErrInvalidReference, "no main branch found (tried %s)",
			strings.Join(append(d.cfg.MainBranches, def), ", "))
	}
	return def, nil
}

func (d *MergeDetector) run(ctx context.Context, m Method, p probe) MethodResult {
	switch m {
	case MethodStandard:
		return detectStandard(ctx, p)
	case MethodSquash:
		return detectSquash(ctx, p)
	case MethodGitHubPR:
		return d.detectPullRequest(ctx, p)
	case MethodFileContent:
		return detectFileContent(ctx, p)
	}
	return failed(m, fmt.Errorf("unknown method %q", m))
}

// detectStandard checks ancestry: a merged branch tip is reachable from the target.
func detectStandard(ctx context.Context, p probe) MethodResult {
	merged, err := git.IsAncestor(ctx, p.path, p.head, p.target)
	if err != nil {
		return failed(MethodStandard, err)
	}
	if merged {
		return MethodResult{
			Method:     MethodStandard,
			IsMerged:   true,
			Confidence: 0.95,
			Details:    fmt.Sprintf("%s is an ancestor of %s", p.branch, p.target),
		}
	}
	return MethodResult{
		Method:     MethodStandard,
		Confidence: 0.8,
		Details:    fmt.Sprintf("%s is not an ancestor of %s", p.branch, p.target),
	}
}

// uniqueBase returns the merge base and fails when the branch adds nothing.
func uniqueBase(ctx context.Context, p probe) (string, error) {
	base, err := git.MergeBase(ctx, p.path, p.head, p.target)
	if err != nil {
		return "", fmt.Errorf("no common history with %s: %w", p.target, err)
	}
	n, err := git.CountCommits(ctx, p.path, base+".."+p.head)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", errNoUniqueCommits
	}
	return base, nil
}

// detectSquash looks for the branch's net change on the target: first as a
// patch-equivalent commit, then as identical content of every changed path.
func detectSquash(ctx context.Context, p probe) MethodResult {
	base, err := uniqueBase(ctx, p)
	if err != nil {
		return failed(MethodSquash, err)
	}

	squash, err := git.SquashCommit(ctx, p.path, base, p.head)
	if err != nil {
		return failed(MethodSquash, err)
	}
	equivalent, err := git.CherryEquivalent(ctx, p.path, p.target, squash)
	if err != nil {
		return failed(MethodSquash, err)
	}
	if equivalent {
		return MethodResult{
			Method:     MethodSquash,
			IsMerged:   true,
			Confidence: 0.85,
			Details:    fmt.Sprintf("squashed changes of %s found on %s", p.branch, p.target),
		}
	}

	changed, err := git.DiffNames(ctx, p.path, base, p.head)
	if err != nil {
		return failed(MethodSquash, err)
	}
	if len(changed) == 0 {
		return failed(MethodSquash, errors.New("no net changes"))
	}
	differing, err := git.DiffNames(ctx, p.path, p.head, p.target, changed...)
	if err != nil {
		return failed(MethodSquash, err)
	}

	matching := len(changed) - len(differing)
	if matching == len(changed) {
		return MethodResult{
			Method:     MethodSquash,
			IsMerged:   true,
			Confidence: 0.75,
			Details:    fmt.Sprintf("all %d changed paths match %s", len(changed), p.target),
		}
	}
	ratio := float64(matching) / float64(len(changed))
	return MethodResult{
		Method:     MethodSquash,
		Confidence: 0.7 * ratio,
		Details:    fmt.Sprintf("%d of %d changed paths match %s", matching, len(changed), p.target),
	}
}

func (d *MergeDetector) detectPullRequest(ctx context.Context, p probe) MethodResult {
	pr, err := d.cfg.Forge.LookupPR(ctx, p.branch)
	if err != nil {
		return failed(MethodGitHubPR, err)
	}
	if pr == nil {
		return failed(MethodGitHubPR, errNoPullRequest)
	}
	if pr.State == forge.PRStateMerged {
		return MethodResult{
			Method:     MethodGitHubPR,
			IsMerged:   true,
			Confidence: 0.9,
			Details:    fmt.Sprintf("PR #%d merged", pr.Number),
		}
	}
	return MethodResult{
		Method:     MethodGitHubPR,
		Confidence: 0.6,
		Details:    fmt.Sprintf("PR #%d is %s", pr.Number, strings.ToLower(pr.State)),
	}
}

var prSuffix = regexp.MustCompile(`\s*\(#\d+\)$`)

// normalizeSubject drops the " (#123)" suffix forges append on squash merges.
func normalizeSubject(s string) string {
	return prSuffix.ReplaceAllString(strings.TrimSpace(s), "")
}

// branchMention matches branch as a whole ref name, so wt/feat-1 is not
// found inside wt/feat-10 or origin/wt/feat-1x.
func branchMention(branch string) *regexp.Regexp {
	return regexp.MustCompile(`(^|[^\w./-])` + regexp.QuoteMeta(branch) + `($|[^\w./-])`)
}

// detectFileContent matches the branch's commit subjects against the
// target's history since the merge base.
func detectFileContent(ctx context.Context, p probe) MethodResult {
	base, err := uniqueBase(ctx, p)
	if err != nil {
		return failed(MethodFileContent, err)
	}

	subjects, err := git.CommitSubjects(ctx, p.path, base+".."+p.head)
	if err != nil {
		return failed(MethodFileContent, err)
	}

	hist, err := git.OpenHistory(p.path)
	if err != nil {
		return failed(MethodFileContent, err)
	}
	targetSubjects, err := hist.Subjects(ctx, p.target, base, historyLimit)
	if err != nil {
		return failed(MethodFileContent, err)
	}

	mention := branchMention(p.branch)
	seen := make(map[string]bool, len(targetSubjects))
	mentioned := false
	for _, s := range targetSubjects {
		seen[normalizeSubject(s)] = true
		if mention.MatchString(s) {
			mentioned = true
		}
	}

	found := 0
	for _, s := range subjects {
		if seen[normalizeSubject(s)] {
			found++
		}
	}

	ratio := float64(found) / float64(len(subjects))
	switch {
	case found == len(subjects):
		return MethodResult{
			Method:     MethodFileContent,
			IsMerged:   true,
			Confidence: 0.5 + 0.2*ratio,
			Details:    fmt.Sprintf("all %d commit messages found on %s", len(subjects), p.target),
		}
	case mentioned:
		return MethodResult{
			Method:     MethodFileContent,
			IsMerged:   true,
			Confidence: 0.6,
			Details:    fmt.Sprintf("%s is mentioned in %s history", p.branch, p.target),
		}
	}
	return MethodResult{
		Method:     MethodFileContent,
		Confidence: 0.5,
		Details:    fmt.Sprintf("%d of %d commit messages found on %s", found, len(subjects), p.target),
	}
}

// Aggregate reduces method results to one verdict. Errored results are
// ignored. The most confident merged result wins; without one, the most
// confident negative result is reported. Ties go to the earlier method.
// Confidences outside [0,1] are treated as 0.
func Aggregate(results []MethodResult) MergeInfo {
	mi := MergeInfo{DetectionMethod: MethodNone, MethodResults: results}

	var best *MethodResult
	for i := range results {
		r := &results[i]
		r.Confidence = clampConfidence(r.Confidence)
		if r.Error != "" {
			continue
		}
		switch {
		case best == nil:
			best = r
		case r.IsMerged && !best.IsMerged:
			best = r
		case r.IsMerged == best.IsMerged && r.Confidence > best.Confidence:
			best = r
		}
	}

	if best == nil {
		return mi
	}
	mi.IsMerged = best.IsMerged
	mi.DetectionMethod = best.Method
	mi.Confidence = best.Confidence
	mi.Details = best.Details
	return mi
}

func clampConfidence(c float64) float64 {
	if math.IsNaN(c) || c < 0 || c > 1 {
		return 0
	}
	return c
}
