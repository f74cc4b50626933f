package cleanup

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/raphi011/wtsweep/internal/worktree"
)

// ViolationKind names a reason removing a worktree could lose work.
type ViolationKind string

const (
	UncommittedChanges ViolationKind = "uncommitted_changes"
	UntrackedFiles     ViolationKind = "untracked_files"
	UnpushedCommits    ViolationKind = "unpushed_commits"
	// WorktreeInUse means the current process runs inside the worktree.
	WorktreeInUse ViolationKind = "worktree_in_use"
)

// ViolationSeverity ranks a violation. Low is informational, Medium and
// High block unless forced, Critical always blocks.
type ViolationSeverity int

const (
	SeverityLow ViolationSeverity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s ViolationSeverity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

func (s ViolationSeverity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Violation is one itemized safety problem.
type Violation struct {
	Kind     ViolationKind     `json:"kind" yaml:"kind"`
	Severity ViolationSeverity `json:"severity" yaml:"severity"`
	Count    int               `json:"count,omitempty" yaml:"count,omitempty"`
	Message  string            `json:"message" yaml:"message"`
}

// Blocks reports whether v prevents cleanup.
func (v Violation) Blocks(force bool) bool {
	if v.Severity == SeverityCritical {
		return true
	}
	return !force && v.Severity >= SeverityMedium
}

func (v Violation) String() string {
	return fmt.Sprintf("%s (%s)", v.Message, v.Severity)
}

// Assess lists the safety violations of removing a worktree with status s
// under opts. Work the strategy preserves is reported at low severity.
func Assess(s *worktree.Status, opts Options, inUse bool) []Violation {
	var out []Violation
	if inUse {
		out = append(out, Violation{
			Kind:     WorktreeInUse,
			Severity: SeverityCritical,
			Message:  "worktree is the current working directory",
		})
	}
	if s == nil {
		return out
	}

	if n := len(s.UncommittedChanges); n > 0 {
		sev := SeverityHigh
		if opts.Strategy.preservesChanges() {
			sev = SeverityLow
		}
		out = append(out, Violation{
			Kind:     UncommittedChanges,
			Severity: sev,
			Count:    n,
			Message:  plural(n, "uncommitted change"),
		})
	}

	if n := len(s.UntrackedFiles); n > 0 {
		sev := SeverityMedium
		if opts.Strategy.preservesChanges() {
			sev = SeverityLow
		}
		out = append(out, Violation{
			Kind:     UntrackedFiles,
			Severity: sev,
			Count:    n,
			Message:  plural(n, "untracked file"),
		})
	}

	if n := len(s.UnpushedCommits); n > 0 {
		sev := SeverityHigh
		msg := plural(n, "unpushed commit")
		switch {
		case s.IsMerged():
			sev = SeverityLow
			msg += fmt.Sprintf(", merged (%s)", s.MergeInfo.DetectionMethod)
		case opts.Strategy.preservesCommits() || opts.KeepBranch:
			sev = SeverityLow
			msg += ", kept on a branch"
		}
		out = append(out, Violation{
			Kind:     UnpushedCommits,
			Severity: sev,
			Count:    n,
			Message:  msg,
		})
	}
	return out
}

func blocking(vs []Violation, force bool) bool {
	for _, v := range vs {
		if v.Blocks(force) {
			return true
		}
	}
	return false
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// within reports whether dir is root or lies below it.
func within(dir, root string) bool {
	if dir == "" || root == "" {
		return false
	}
	if d, err := filepath.EvalSymlinks(dir); err == nil {
		dir = d
	}
	if r, err := filepath.EvalSymlinks(root); err == nil {
		root = r
	}
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator)))
}

// Score rates how safe removing a worktree is, from 0 to 1. It is
// advisory and never gates cleanup.
func Score(s *worktree.Status) float64 {
	if s == nil {
		return 0
	}
	score := 1.0
	if len(s.UncommittedChanges) > 0 {
		score -= 0.3
	}
	if len(s.UntrackedFiles) > 0 {
		score -= 0.2
	}
	if len(s.UnpushedCommits) > 0 && !s.IsMerged() {
		score -= 0.4
	}
	return max(0, min(1, score))
}
