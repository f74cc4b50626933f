package git

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

// ErrGitNotFound indicates git is not installed or not in PATH
var ErrGitNotFound = errors.New("git not found: please install git (https://git-scm.com)")

// ErrGitTooOld is returned by operations the installed git cannot perform.
var ErrGitTooOld = errors.New("git is too old")

// CheckGit verifies that git is available in PATH
func CheckGit() error {
	if _, err := exec.LookPath("git"); err != nil {
		return ErrGitNotFound
	}
	return nil
}

// Version is a git release number.
type Version struct {
	Major, Minor, Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// AtLeast reports whether v is major.minor or newer.
func (v Version) AtLeast(major, minor int) bool {
	if v.Major != major {
		return v.Major > major
	}
	return v.Minor >= minor
}

// ParseVersion parses `git version` output such as
// "git version 2.39.3 (Apple Git-146)" or "git version 2.45.1.windows.1".
func ParseVersion(s string) (Version, error) {
	fields := strings.Fields(s)
	if len(fields) < 3 || fields[0] != "git" || fields[1] != "version" {
		return Version{}, fmt.Errorf("unexpected git version output %q", s)
	}

	var nums [3]int
	parts := strings.Split(fields[2], ".")
	for i := 0; i < len(nums) && i < len(parts); i++ {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			if i >= 2 {
				break
			}
			return Version{}, fmt.Errorf("unexpected git version %q", fields[2])
		}
		nums[i] = n
	}
	if len(parts) < 2 {
		return Version{}, fmt.Errorf("unexpected git version %q", fields[2])
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

var (
	versionMu sync.Mutex
	version   *Version
)

// InstalledVersion returns the version of git in PATH. A successful result
// is remembered for the life of the process.
func InstalledVersion(ctx context.Context) (Version, error) {
	versionMu.Lock()
	defer versionMu.Unlock()
	if version != nil {
		return *version, nil
	}
	out, err := outputLine(ctx, "", "version")
	if err != nil {
		return Version{}, err
	}
	v, err := ParseVersion(out)
	if err != nil {
		return Version{}, err
	}
	version = &v
	return v, nil
}

// requireVersion fails with ErrGitTooOld when git is older than
// major.minor. An unreadable version is not treated as too old.
func requireVersion(ctx context.Context, feature string, major, minor int) error {
	v, err := InstalledVersion(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return nil
	}
	if !v.AtLeast(major, minor) {
		return fmt.Errorf("%w: %s needs git %d.%d or newer, found %s", ErrGitTooOld, feature, major, minor, v)
	}
	return nil
}

// IsInsideRepoPath returns true if the given path is inside a git work tree.
func IsInsideRepoPath(ctx context.Context, path string) bool {
	return runGit(ctx, path, "rev-parse", "--is-inside-work-tree") == nil
}
