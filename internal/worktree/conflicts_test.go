package worktree

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/raphi011/wtsweep/internal/git"
)

func TestAnalyzeConflicts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := setupTestRepo(t)
	mustGit(t, repo, "checkout", "-b", "wt/clash")
	commitFile(t, repo, "README.md", "# branch\n", "Branch readme")
	commitFile(t, repo, "new.txt", "new\n", "Branch file")
	mustGit(t, repo, "branch", "wt/clean", "main")
	mustGit(t, repo, "checkout", "main")
	commitFile(t, repo, "README.md", "# main\n", "Main readme")
	mainBefore := headOf(t, repo)

	r, err := AnalyzeConflicts(ctx, repo, "wt/clash", "main")
	if err != nil {
		t.Fatalf("AnalyzeConflicts() error = %v", err)
	}
	if !r.HasConflicts() || len(r.Conflicts) != 1 || r.Conflicts[0] != "README.md" {
		t.Errorf("Conflicts = %v, want [README.md]", r.Conflicts)
	}
	if !containsAll(r.Summary, "1 conflicting file", "README.md") {
		t.Errorf("Summary = %q", r.Summary)
	}

	clean, err := AnalyzeConflicts(ctx, repo, "wt/clean", "main")
	if err != nil {
		t.Fatal(err)
	}
	if clean.HasConflicts() || !strings.Contains(clean.Summary, "merges cleanly") {
		t.Errorf("clean report = %+v", clean)
	}

	if got := headOf(t, repo); got != mainBefore {
		t.Errorf("main moved from %s to %s", mainBefore, got)
	}
	st, err := CheckStatus(ctx, repo, "main")
	if err != nil {
		t.Fatal(err)
	}
	if len(st.UncommittedChanges) != 0 {
		t.Errorf("work tree touched: %v", st.UncommittedChanges)
	}
}

func TestAnalyzeConflicts_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := setupTestRepo(t)

	if _, err := AnalyzeConflicts(ctx, repo, "missing", "main"); !errors.Is(err, ErrInvalidReference) {
		t.Errorf("unknown branch: error = %v, want ErrInvalidReference", err)
	}
	if _, err := AnalyzeConflicts(ctx, repo, "main", "missing"); !errors.Is(err, ErrInvalidReference) {
		t.Errorf("unknown target: error = %v, want ErrInvalidReference", err)
	}
	if _, err := AnalyzeConflicts(ctx, resolveTempDir(t), "a", "b"); !errors.Is(err, ErrNotARepository) {
		t.Errorf("non-repo: error = %v, want ErrNotARepository", err)
	}
}

func TestSummarizeConflicts(t *testing.T) {
	t.Parallel()

	many := make([]string, 7)
	for i := range many {
		many[i] = fmt.Sprintf("f%d", i)
	}

	tests := []struct {
		name      string
		conflicts []string
		want      string
	}{
		{"none", nil, "wt/x merges cleanly into main"},
		{"two", []string{"a", "b"}, "2 conflicting files merging wt/x into main: a, b"},
		{"truncated", many, "7 conflicting files merging wt/x into main: f0, f1, f2, f3, f4 and 2 more"},
	}
	for _, tt := range tests {
		got := summarizeConflicts(ConflictReport{Branch: "wt/x", Target: "main", Conflicts: tt.conflicts})
		if got != tt.want {
			t.Errorf("%s: summarizeConflicts() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func headOf(t *testing.T, dir string) string {
	t.Helper()
	out, err := git.HeadCommit(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	return out
}
