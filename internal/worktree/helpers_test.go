package worktree

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/raphi011/wtsweep/internal/forge"
	"github.com/raphi011/wtsweep/internal/git"
)

// resolveTempDir creates a temp directory and resolves macOS symlinks.
func resolveTempDir(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	resolved, err := filepath.EvalSymlinks(tmpDir)
	if err != nil {
		t.Fatalf("failed to resolve symlinks for %s: %v", tmpDir, err)
	}
	return resolved
}

// configureTestRepo sets git user config and disables GPG signing.
func configureTestRepo(t *testing.T, repoPath string) {
	t.Helper()
	for _, args := range [][]string{
		{"config", "user.email", "test@test.com"},
		{"config", "user.name", "Test User"},
		{"config", "commit.gpgsign", "false"},
	} {
		mustGit(t, repoPath, args...)
	}
}

// setupTestRepo creates a git repo with main branch, initial commit, and git config.
// Returns the resolved repo path.
func setupTestRepo(t *testing.T) string {
	t.Helper()
	repoPath := filepath.Join(resolveTempDir(t), "test-repo")
	mustGit(t, "", "init", "-b", "main", repoPath)
	configureTestRepo(t, repoPath)
	commitFile(t, repoPath, "README.md", "# test\n", "Initial commit")
	return repoPath
}

// setupTestRepoWithOrigin creates a repo cloned from a bare origin.
// Returns (repoPath, originPath).
func setupTestRepoWithOrigin(t *testing.T) (string, string) {
	t.Helper()
	tmpDir := resolveTempDir(t)
	originPath := filepath.Join(tmpDir, "origin.git")
	repoPath := filepath.Join(tmpDir, "repo")

	mustGit(t, "", "init", "--bare", "-b", "main", originPath)
	mustGit(t, "", "clone", originPath, repoPath)
	configureTestRepo(t, repoPath)
	commitFile(t, repoPath, "README.md", "# test\n", "Initial commit")
	mustGit(t, repoPath, "push", "-u", "origin", "HEAD")
	return repoPath, originPath
}

// commitFile writes name under dir and commits it with msg.
func commitFile(t *testing.T, dir, name, content, msg string) {
	t.Helper()
	writeFile(t, dir, name, content)
	mustGit(t, dir, "add", name)
	mustGit(t, dir, "commit", "-m", msg)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

// mustGit runs a git command and fails the test on error.
func mustGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	if err := git.RunGitCommand(context.Background(), dir, args...); err != nil {
		t.Fatalf("git %v: %v", args, err)
	}
}

func newTestManager(t *testing.T, repo string) *Manager {
	t.Helper()
	m, err := NewManager(context.Background(), repo, ManagerConfig{
		Prefix:        "wt/",
		BaseDir:       ".worktrees",
		AutoGitignore: true,
	})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return m
}

// fixedClock returns a clock for Manager.now.
func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

// fakeForge is an in-memory PullRequestLookup.
type fakeForge struct {
	checkErr error
	prs      map[string]*forge.PRInfo
	err      error
	checks   int
}

func (f *fakeForge) Check(context.Context) error {
	f.checks++
	return f.checkErr
}

func (f *fakeForge) LookupPR(_ context.Context, branch string) (*forge.PRInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.prs[branch], nil
}

func methodResult(mi MergeInfo, m Method) (MethodResult, bool) {
	for _, r := range mi.MethodResults {
		if r.Method == m {
			return r, true
		}
	}
	return MethodResult{}, false
}

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}
