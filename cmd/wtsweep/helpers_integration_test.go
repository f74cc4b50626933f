//go:build integration

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/raphi011/wtsweep/internal/cmd"
	"github.com/raphi011/wtsweep/internal/git"
)

func TestMain(m *testing.M) {
	// isolate from the user's config and caches
	tmp, err := os.MkdirTemp("", "wtsweep-cli-test")
	if err != nil {
		panic(err)
	}
	os.Setenv("WTSWEEP_CONFIG", filepath.Join(tmp, "config.toml"))
	os.Setenv("XDG_CACHE_HOME", filepath.Join(tmp, "cache"))
	code := m.Run()
	os.RemoveAll(tmp)
	os.Exit(code)
}

// runWtsweep executes the CLI with -C dir and returns stdout and stderr.
func runWtsweep(t *testing.T, dir string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	var s session
	root := newRootCmd(&stdout, &stderr, &s)
	root.SetArgs(append([]string{"-C", dir}, args...))
	err := root.ExecuteContext(context.Background())
	s.close()
	return stdout.String(), stderr.String(), err
}

// mustRun is runWtsweep that fails the test on error.
func mustRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	stdout, stderr, err := runWtsweep(t, dir, args...)
	if err != nil {
		t.Fatalf("wtsweep %v: %v\nstderr: %s", args, err, stderr)
	}
	return stdout
}

// setupTestRepo creates a git repo with main branch, initial commit, and git config.
func setupTestRepo(t *testing.T) string {
	t.Helper()
	repoPath := filepath.Join(resolveTempDir(t), "test-repo")
	mustGit(t, "", "init", "-b", "main", repoPath)
	mustGit(t, repoPath, "config", "user.email", "test@test.com")
	mustGit(t, repoPath, "config", "user.name", "Test User")
	mustGit(t, repoPath, "config", "commit.gpgsign", "false")
	commitFile(t, repoPath, "README.md", "# test\n", "Initial commit")
	return repoPath
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

func gitOutput(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := cmd.OutputContext(context.Background(), dir, "git", args...)
	if err != nil {
		t.Fatalf("git %v: %v", args, err)
	}
	return strings.TrimSpace(string(out))
}
