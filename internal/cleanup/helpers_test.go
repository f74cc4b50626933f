package cleanup

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/raphi011/wtsweep/internal/cmd"
	"github.com/raphi011/wtsweep/internal/git"
	"github.com/raphi011/wtsweep/internal/worktree"
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
	mustGit(t, repoPath, "config", "user.email", "test@test.com")
	mustGit(t, repoPath, "config", "user.name", "Test User")
	mustGit(t, repoPath, "config", "commit.gpgsign", "false")
}

// setupTestRepo creates a git repo with main branch, initial commit, and git config.
func setupTestRepo(t *testing.T) string {
	t.Helper()
	repoPath := filepath.Join(resolveTempDir(t), "test-repo")
	mustGit(t, "", "init", "-b", "main", repoPath)
	configureTestRepo(t, repoPath)
	commitFile(t, repoPath, "README.md", "# test\n", "Initial commit")
	return repoPath
}

// setupTestRepoWithOrigin creates a repo cloned from a bare origin.
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

func commitFile(t *testing.T, dir, name, content, msg string) {
	t.Helper()
	writeFile(t, dir, name, content)
	mustGit(t, dir, "add", name)
	mustGit(t, dir, "commit", "-m", msg)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func mustGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	if err := git.RunGitCommand(context.Background(), dir, args...); err != nil {
		t.Fatalf("git %v: %v", args, err)
	}
}

// gitOutput runs git in dir and returns trimmed stdout.
func gitOutput(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := cmd.OutputContext(context.Background(), dir, "git", args...)
	if err != nil {
		t.Fatalf("git %v: %v", args, err)
	}
	return strings.TrimSpace(string(out))
}

func newTestManager(t *testing.T, repo string) *worktree.Manager {
	t.Helper()
	m, err := worktree.NewManager(context.Background(), repo, worktree.ManagerConfig{
		Prefix:  "wt/",
		BaseDir: ".worktrees",
	})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return m
}

func newTestEngine(t *testing.T, repo string) (*Engine, *worktree.Manager) {
	t.Helper()
	m := newTestManager(t, repo)
	d := worktree.NewMergeDetector(worktree.DetectorConfig{
		Methods:      []worktree.Method{worktree.MethodStandard},
		MainBranches: []string{"main"},
	})
	return NewEngine(m, d), m
}

func create(t *testing.T, m *worktree.Manager, id string) worktree.Info {
	t.Helper()
	info, err := m.Create(context.Background(), worktree.CreateOptions{TaskID: id, BaseBranch: "main"})
	if err != nil {
		t.Fatalf("Create(%s) error = %v", id, err)
	}
	return info
}

// defaultOptions removes without prompting and ignores age.
func defaultOptions(s Strategy) Options {
	return Options{
		Strategy:           s,
		AutoConfirm:        true,
		MinMergeConfidence: 0.8,
	}
}

func resultFor(t *testing.T, r Report, branch string) Result {
	t.Helper()
	for _, res := range r.Results {
		if res.Branch == branch {
			return res
		}
	}
	t.Fatalf("no result for %s in %+v", branch, r.Results)
	return Result{}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func checkCounts(t *testing.T, r Report) {
	t.Helper()
	if r.TotalEvaluated != r.Cleaned+r.Skipped+r.Failed || r.TotalEvaluated != len(r.Results) {
		t.Errorf("counts inconsistent: total %d, cleaned %d, skipped %d, failed %d, results %d",
			r.TotalEvaluated, r.Cleaned, r.Skipped, r.Failed, len(r.Results))
	}
}
