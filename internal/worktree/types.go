package worktree

import (
	"fmt"
	"strings"
	"time"

	"github.com/raphi011/wtsweep/internal/git"
)

// Info describes one worktree.
type Info struct {
	Path       string        `json:"path" yaml:"path"`
	Branch     string        `json:"branch" yaml:"branch"` // empty when detached
	Head       string        `json:"head" yaml:"head"`
	IsDetached bool          `json:"is_detached" yaml:"is_detached"`
	IsMain     bool          `json:"is_main" yaml:"is_main"`
	Locked     bool          `json:"locked,omitempty" yaml:"locked,omitempty"`
	CreatedAt  time.Time     `json:"created_at" yaml:"created_at"`
	Age        time.Duration `json:"age" yaml:"age"`
	Status     *Status       `json:"status,omitempty" yaml:"status,omitempty"` // nil until UpdateStatus
}

// Name returns the branch, or "(detached)" plus a short hash.
func (i Info) Name() string {
	if i.Branch != "" {
		return i.Branch
	}
	head := i.Head
	if len(head) > 7 {
		head = head[:7]
	}
	return "(detached " + head + ")"
}

// Severity ranks how much unsaved work a worktree holds.
type Severity int

const (
	SeverityClean Severity = iota
	SeverityLightWarning
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityClean:
		return "clean"
	case SeverityLightWarning:
		return "light_warning"
	case SeverityWarning:
		return "warning"
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// Priority orders severities for display, most severe first (lowest value).
func (s Severity) Priority() int {
	switch s {
	case SeverityWarning:
		return 0
	case SeverityLightWarning:
		return 1
	}
	return 2
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(b []byte) error {
	switch string(b) {
	case "clean":
		*s = SeverityClean
	case "light_warning":
		*s = SeverityLightWarning
	case "warning":
		*s = SeverityWarning
	default:
		return fmt.Errorf("unknown severity %q", b)
	}
	return nil
}

// RemoteKind is the relation of a branch to its upstream.
type RemoteKind int

const (
	RemoteNone RemoteKind = iota
	RemoteUpToDate
	RemoteAhead
	RemoteBehind
	RemoteDiverged
	RemoteDeleted
)

var remoteKindNames = map[RemoteKind]string{
	RemoteNone:     "no_remote",
	RemoteUpToDate: "up_to_date",
	RemoteAhead:    "ahead",
	RemoteBehind:   "behind",
	RemoteDiverged: "diverged",
	RemoteDeleted:  "remote_deleted",
}

func (k RemoteKind) String() string {
	if s, ok := remoteKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("remote(%d)", int(k))
}

func (k RemoteKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *RemoteKind) UnmarshalText(b []byte) error {
	for kind, name := range remoteKindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown remote state %q", b)
}

// RemoteState is a branch's position relative to its upstream.
type RemoteState struct {
	Kind   RemoteKind `json:"kind" yaml:"kind"`
	Ahead  int        `json:"ahead,omitempty" yaml:"ahead,omitempty"`
	Behind int        `json:"behind,omitempty" yaml:"behind,omitempty"`
}

// NewRemoteState derives the state from ahead/behind counts against an
// existing upstream.
func NewRemoteState(ahead, behind int) RemoteState {
	switch {
	case ahead > 0 && behind > 0:
		return RemoteState{Kind: RemoteDiverged, Ahead: ahead, Behind: behind}
	case ahead > 0:
		return RemoteState{Kind: RemoteAhead, Ahead: ahead}
	case behind > 0:
		return RemoteState{Kind: RemoteBehind, Behind: behind}
	}
	return RemoteState{Kind: RemoteUpToDate}
}

func (r RemoteState) String() string {
	switch r.Kind {
	case RemoteNone:
		return "no remote"
	case RemoteUpToDate:
		return "up to date"
	case RemoteAhead:
		return fmt.Sprintf("%d ahead", r.Ahead)
	case RemoteBehind:
		return fmt.Sprintf("%d behind", r.Behind)
	case RemoteDiverged:
		return fmt.Sprintf("%d ahead, %d behind", r.Ahead, r.Behind)
	case RemoteDeleted:
		return "remote deleted"
	}
	return r.Kind.String()
}

// CommitInfo is a commit that exists only locally.
type CommitInfo struct {
	Hash    string    `json:"hash" yaml:"hash"`
	Subject string    `json:"subject" yaml:"subject"`
	Author  string    `json:"author" yaml:"author"`
	Time    time.Time `json:"time" yaml:"time"`
}

func commitInfos(commits []git.Commit) []CommitInfo {
	if len(commits) == 0 {
		return nil
	}
	out := make([]CommitInfo, len(commits))
	for i, c := range commits {
		out[i] = CommitInfo(c)
	}
	return out
}

// Status is a point-in-time snapshot of a worktree's unsaved work.
type Status struct {
	IsClean            bool         `json:"is_clean" yaml:"is_clean"`
	Severity           Severity     `json:"severity" yaml:"severity"`
	UncommittedChanges []string     `json:"uncommitted_changes" yaml:"uncommitted_changes"`
	UntrackedFiles     []string     `json:"untracked_files" yaml:"untracked_files"`
	UnpushedCommits    []CommitInfo `json:"unpushed_commits" yaml:"unpushed_commits"`
	AheadCount         int          `json:"ahead_count" yaml:"ahead_count"`
	BehindCount        int          `json:"behind_count" yaml:"behind_count"`
	Remote             RemoteState  `json:"remote" yaml:"remote"`
	MergeInfo          *MergeInfo   `json:"merge_info,omitempty" yaml:"merge_info,omitempty"`
	CheckedAt          time.Time    `json:"checked_at" yaml:"checked_at"`
}

// IsSafeToCleanup reports whether removing the worktree loses nothing:
// no uncommitted or untracked files, and every local commit is either
// pushed or already merged.
func (s *Status) IsSafeToCleanup() bool {
	if len(s.UncommittedChanges) > 0 || len(s.UntrackedFiles) > 0 {
		return false
	}
	return len(s.UnpushedCommits) == 0 || s.IsMerged()
}

// IsMerged reports whether merge detection ran and found the branch merged.
func (s *Status) IsMerged() bool {
	return s.MergeInfo != nil && s.MergeInfo.IsMerged
}

// Description is a one-line summary such as "Clean (squash)" or
// "2 uncommitted, 1 untracked, 3 ahead".
func (s *Status) Description() string {
	if s.IsClean {
		if s.IsMerged() {
			return fmt.Sprintf("Clean (%s)", s.MergeInfo.DetectionMethod)
		}
		return "Clean"
	}

	var issues []string
	if n := len(s.UncommittedChanges); n > 0 {
		issues = append(issues, fmt.Sprintf("%d uncommitted", n))
	}
	if n := len(s.UntrackedFiles); n > 0 {
		issues = append(issues, fmt.Sprintf("%d untracked", n))
	}
	switch s.Remote.Kind {
	case RemoteNone:
		if n := len(s.UnpushedCommits); n > 0 {
			issues = append(issues, fmt.Sprintf("%d unpushed", n))
		}
	case RemoteAhead, RemoteBehind, RemoteDiverged, RemoteDeleted:
		issues = append(issues, s.Remote.String())
		if s.Remote.Kind == RemoteDeleted && len(s.UnpushedCommits) > 0 {
			issues = append(issues, fmt.Sprintf("%d unpushed", len(s.UnpushedCommits)))
		}
	}
	if len(issues) == 0 {
		return "Unknown issue"
	}
	return strings.Join(issues, ", ")
}
