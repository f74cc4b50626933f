package git

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/raphi011/wtsweep/internal/cmd"
)

// ErrDetachedHead is returned by CurrentBranch when HEAD is not a branch.
var ErrDetachedHead = errors.New("HEAD is detached")

// TopLevel returns the root of the work tree containing dir.
func TopLevel(ctx context.Context, dir string) (string, error) {
	return outputLine(ctx, dir, "rev-parse", "--show-toplevel")
}

// CommonDir returns the absolute git directory shared by all worktrees.
func CommonDir(ctx context.Context, dir string) (string, error) {
	out, err := outputLine(ctx, dir, "rev-parse", "--git-common-dir")
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(out) {
		out = filepath.Join(dir, out)
	}
	return filepath.Clean(out), nil
}

// CurrentBranch returns the short branch name checked out at dir.
func CurrentBranch(ctx context.Context, dir string) (string, error) {
	out, err := outputLine(ctx, dir, "symbolic-ref", "--quiet", "--short", "HEAD")
	if err != nil {
		if cmd.ExitCode(err) == 1 {
			return "", ErrDetachedHead
		}
		return "", err
	}
	return out, nil
}

// ResolveCommit resolves ref to a full commit hash.
func ResolveCommit(ctx context.Context, dir, ref string) (string, error) {
	out, err := outputLine(ctx, dir, "rev-parse", "--verify", "--quiet", ref+"^{commit}")
	if err != nil {
		if cmd.ExitCode(err) == 1 {
			return "", fmt.Errorf("unknown revision %q", ref)
		}
		return "", err
	}
	return out, nil
}

// BranchExists reports whether refs/heads/<branch> exists.
func BranchExists(ctx context.Context, dir, branch string) bool {
	return runGit(ctx, dir, "show-ref", "--verify", "--quiet", "refs/heads/"+branch) == nil
}

// IsAncestor reports whether ancestor is reachable from descendant.
func IsAncestor(ctx context.Context, dir, ancestor, descendant string) (bool, error) {
	err := runGit(ctx, dir, "merge-base", "--is-ancestor", ancestor, descendant)
	switch cmd.ExitCode(err) {
	case -1:
		if err != nil {
			return false, err
		}
		return true, nil
	case 1:
		return false, nil
	}
	return false, err
}

// MergeBase returns the best common ancestor of a and b.
func MergeBase(ctx context.Context, dir, a, b string) (string, error) {
	return outputLine(ctx, dir, "merge-base", a, b)
}

// CountCommits runs rev-list --count over the given revisions.
func CountCommits(ctx context.Context, dir string, revs ...string) (int, error) {
	out, err := outputLine(ctx, dir, append([]string{"rev-list", "--count"}, revs...)...)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(out)
}

// AheadBehind counts commits in head not in upstream (ahead) and the reverse (behind).
func AheadBehind(ctx context.Context, dir, upstream, head string) (ahead, behind int, err error) {
	out, err := outputLine(ctx, dir, "rev-list", "--count", "--left-right", upstream+"..."+head)
	if err != nil {
		return 0, 0, err
	}
	fields := strings.Fields(out)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("unexpected rev-list output %q", out)
	}
	if behind, err = strconv.Atoi(fields[0]); err != nil {
		return 0, 0, err
	}
	if ahead, err = strconv.Atoi(fields[1]); err != nil {
		return 0, 0, err
	}
	return ahead, behind, nil
}

// Upstream describes a branch's configured tracking ref.
type Upstream struct {
	Ref  string // full ref name, e.g. refs/remotes/origin/feature; empty if none
	Gone bool   // configured, but the remote ref no longer exists
}

// GetUpstream reads the tracking configuration of branch.
func GetUpstream(ctx context.Context, dir, branch string) (Upstream, error) {
	out, err := outputLine(ctx, dir, "for-each-ref",
		"--format=%(upstream)%00%(upstream:track,nobracket)", "refs/heads/"+branch)
	if err != nil {
		return Upstream{}, err
	}
	ref, track, _ := strings.Cut(out, "\x00")
	return Upstream{Ref: ref, Gone: ref != "" && track == "gone"}, nil
}

// HasRemote reports whether a remote with the given name is configured.
func HasRemote(ctx context.Context, dir, name string) bool {
	return runGit(ctx, dir, "remote", "get-url", name) == nil
}

// GetOriginURL gets the URL of the origin remote
func GetOriginURL(ctx context.Context, dir string) (string, error) {
	return outputLine(ctx, dir, "remote", "get-url", "origin")
}

// GetDefaultBranch returns the default branch name for the remote origin.
// Falls back to "main" if it cannot be determined.
func GetDefaultBranch(ctx context.Context, dir string) string {
	out, err := outputLine(ctx, dir, "symbolic-ref", "--short", "refs/remotes/origin/HEAD")
	if err == nil {
		if _, branch, ok := strings.Cut(out, "/"); ok && branch != "" {
			return branch
		}
	}
	return "main"
}

// GetBranchCreatedTime returns when the branch ref was created, read from
// the oldest reflog entry.
func GetBranchCreatedTime(ctx context.Context, dir, branch string) (time.Time, error) {
	out, err := outputLine(ctx, dir, "reflog", "show", "--date=unix", "--format=%gd", "refs/heads/"+branch)
	if err != nil {
		return time.Time{}, err
	}
	lines := splitLines(out)
	if len(lines) == 0 {
		return time.Time{}, fmt.Errorf("no reflog for %s", branch)
	}
	return parseReflogTime(lines[len(lines)-1])
}

// parseReflogTime extracts the timestamp from "refs/heads/x@{1700000000}".
func parseReflogTime(selector string) (time.Time, error) {
	start := strings.LastIndex(selector, "@{")
	if start < 0 || !strings.HasSuffix(selector, "}") {
		return time.Time{}, fmt.Errorf("unexpected reflog selector %q", selector)
	}
	secs, err := strconv.ParseInt(selector[start+2:len(selector)-1], 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("unexpected reflog selector %q", selector)
	}
	return time.Unix(secs, 0), nil
}

// CreateBranch creates branch at start without checking it out.
// force resets an existing branch (git branch -f).
func CreateBranch(ctx context.Context, dir, branch, start string, force bool) error {
	args := []string{"branch"}
	if force {
		args = append(args, "-f")
	}
	return runGit(ctx, dir, append(args, branch, start)...)
}

// DeleteLocalBranch deletes a local branch. force uses -D.
func DeleteLocalBranch(ctx context.Context, dir, branch string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	if err := runGit(ctx, dir, "branch", flag, branch); err != nil {
		return fmt.Errorf("failed to delete branch %s: %w", branch, err)
	}
	return nil
}

// Push pushes branch to remote under the same name.
func Push(ctx context.Context, dir, remote, branch string) error {
	return runGit(ctx, dir, "push", remote, "refs/heads/"+branch+":refs/heads/"+branch)
}

// Merge merges branch into the branch checked out at dir.
func Merge(ctx context.Context, dir, branch string) error {
	return runGit(ctx, dir, "merge", "--no-edit", branch)
}

// MergeAbort aborts an in-progress merge at dir.
func MergeAbort(ctx context.Context, dir string) error {
	return runGit(ctx, dir, "merge", "--abort")
}

// HeadCommit returns the commit checked out at dir.
func HeadCommit(ctx context.Context, dir string) (string, error) {
	return outputLine(ctx, dir, "rev-parse", "HEAD")
}

// DiffNames lists paths that differ between two revisions, optionally
// restricted to paths.
func DiffNames(ctx context.Context, dir, from, to string, paths ...string) ([]string, error) {
	args := []string{"diff", "--name-only", "--no-renames", from, to}
	if len(paths) > 0 {
		args = append(append(args, "--"), paths...)
	}
	out, err := outputGit(ctx, dir, args...)
	if err != nil {
		return nil, err
	}
	return splitLines(string(out)), nil
}

// CommitSubjects returns commit subjects over the given revisions, newest first.
func CommitSubjects(ctx context.Context, dir string, revs ...string) ([]string, error) {
	out, err := outputGit(ctx, dir, append([]string{"log", "--format=%s"}, revs...)...)
	if err != nil {
		return nil, err
	}
	return splitLines(string(out)), nil
}

// SquashCommit writes a dangling commit whose tree is head's tree and whose
// only parent is base. It represents the branch as a single squashed change.
func SquashCommit(ctx context.Context, dir, base, head string) (string, error) {
	tree, err := outputLine(ctx, dir, "rev-parse", head+"^{tree}")
	if err != nil {
		return "", err
	}
	return outputLine(ctx, dir, "commit-tree", tree, "-p", base, "-m", "squash of "+head)
}

// CherryEquivalent reports whether commit has a patch-equivalent commit in upstream.
func CherryEquivalent(ctx context.Context, dir, upstream, commit string) (bool, error) {
	out, err := outputLine(ctx, dir, "cherry", upstream, commit, commit+"^")
	if err != nil {
		return false, err
	}
	return strings.HasPrefix(out, "-"), nil
}
