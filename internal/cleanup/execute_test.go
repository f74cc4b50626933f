package cleanup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/raphi011/wtsweep/internal/git"
	"github.com/raphi011/wtsweep/internal/worktree"
)

func TestFeatureBranch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		branch, prefix string
		want           string
		wantErr        bool
	}{
		{"wt/login", "wt/", "login", false},
		{"wt/team/login", "wt/", "team/login", false},
		{"login", "wt/", "", true},
		{"wt/login", "", "", true},
		{"wt/", "wt/", "", true},
	}
	for _, tt := range tests {
		got, err := featureBranch(tt.branch, tt.prefix)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("featureBranch(%q, %q) = %q, %v, want %q (err %v)", tt.branch, tt.prefix, got, err, tt.want, tt.wantErr)
		}
		if err != nil && !errors.Is(err, worktree.ErrInvalidReference) {
			t.Errorf("featureBranch(%q) error %v should wrap ErrInvalidReference", tt.branch, err)
		}
	}
}

func TestCleanup_MergeToFeature_CreatesFeature(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := setupTestRepo(t)
	e, m := newTestEngine(t, repo)
	info := create(t, m, "login")
	commitFile(t, info.Path, "login.go", "package login\n", "Add login")
	tip, _ := git.ResolveCommit(ctx, repo, "wt/login")

	report, err := e.Cleanup(ctx, defaultOptions(MergeToFeature))
	if err != nil {
		t.Fatal(err)
	}
	res := resultFor(t, report, "wt/login")
	if res.Action != Cleaned {
		t.Fatalf("Action = %s (%s %s), want cleaned", res.Action, res.Reason, res.Error)
	}
	if got, _ := git.ResolveCommit(ctx, repo, "login"); got != tip {
		t.Errorf("login = %s, want %s", got, tip)
	}
	if git.BranchExists(ctx, repo, "wt/login") || exists(info.Path) {
		t.Error("worktree and branch should be removed")
	}
}

func TestCleanup_MergeToFeature_Existing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := setupTestRepo(t)
	mustGit(t, repo, "checkout", "-b", "login")
	commitFile(t, repo, "feature.txt", "f\n", "Feature work")
	mustGit(t, repo, "checkout", "main")

	e, m := newTestEngine(t, repo)
	info := create(t, m, "login")
	commitFile(t, info.Path, "task.txt", "t\n", "Task work")

	report, err := e.Cleanup(ctx, defaultOptions(MergeToFeature))
	if err != nil {
		t.Fatal(err)
	}
	res := resultFor(t, report, "wt/login")
	if res.Action != Cleaned {
		t.Fatalf("Action = %s (%s), want cleaned", res.Action, res.Error)
	}

	files := gitOutput(t, repo, "ls-tree", "--name-only", "login")
	if !containsLine(files, "feature.txt") || !containsLine(files, "task.txt") {
		t.Errorf("login tree = %q, want feature.txt and task.txt", files)
	}
	// helper worktree is gone
	entries, err := git.ListWorktrees(ctx, repo)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("worktrees left: %+v", entries)
	}
}

func TestCleanup_MergeToFeature_CheckedOut(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := setupTestRepo(t)
	e, m := newTestEngine(t, repo)
	info := create(t, m, "main")
	commitFile(t, info.Path, "task.txt", "t\n", "Task work")

	// the feature branch "main" is checked out in the clean main worktree
	report, err := e.Cleanup(ctx, defaultOptions(MergeToFeature))
	if err != nil {
		t.Fatal(err)
	}
	if res := resultFor(t, report, "wt/main"); res.Action != Cleaned {
		t.Fatalf("Action = %s (%s), want cleaned", res.Action, res.Error)
	}
	if !exists(repo + "/task.txt") {
		t.Error("merge did not update the main worktree")
	}
}

func TestCleanup_MergeToFeature_DirtyCheckout(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := setupTestRepo(t)
	e, m := newTestEngine(t, repo)
	info := create(t, m, "main")
	commitFile(t, info.Path, "task.txt", "t\n", "Task work")
	writeFile(t, repo, "README.md", "local edit\n")

	report, err := e.Cleanup(ctx, defaultOptions(MergeToFeature))
	if err != nil {
		t.Fatal(err)
	}
	res := resultFor(t, report, "wt/main")
	if res.Action != Failed {
		t.Fatalf("Action = %s, want failed", res.Action)
	}
	if !exists(info.Path) {
		t.Error("worktree removed after failed merge")
	}
}

func TestCleanup_MergeToFeature_Conflict(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := setupTestRepo(t)
	mustGit(t, repo, "checkout", "-b", "login")
	commitFile(t, repo, "README.md", "# feature\n", "Feature readme")
	mustGit(t, repo, "checkout", "main")
	before, _ := git.ResolveCommit(ctx, repo, "login")

	e, m := newTestEngine(t, repo)
	info := create(t, m, "login")
	commitFile(t, info.Path, "README.md", "# task\n", "Task readme")

	report, err := e.Cleanup(ctx, defaultOptions(MergeToFeature))
	if err != nil {
		t.Fatal(err)
	}
	checkCounts(t, report)
	res := resultFor(t, report, "wt/login")
	if res.Action != Failed || !errors.Is(res.Err, worktree.ErrMergeConflict) {
		t.Fatalf("result = %s %v, want failed with ErrMergeConflict", res.Action, res.Err)
	}
	if report.Failed != 1 {
		t.Errorf("Failed = %d, want 1", report.Failed)
	}
	if got, _ := git.ResolveCommit(ctx, repo, "login"); got != before {
		t.Errorf("login moved to %s after a conflict", got)
	}
	if !exists(info.Path) || !git.BranchExists(ctx, repo, "wt/login") {
		t.Error("worktree must stay intact after a conflict")
	}
}

func TestCleanup_BackupToOrigin(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo, origin := setupTestRepoWithOrigin(t)
	e, m := newTestEngine(t, repo)
	info := create(t, m, "backup")
	commitFile(t, info.Path, "b.txt", "b\n", "Backup work")
	tip, _ := git.ResolveCommit(ctx, repo, "wt/backup")

	report, err := e.Cleanup(ctx, defaultOptions(BackupToOrigin))
	if err != nil {
		t.Fatal(err)
	}
	res := resultFor(t, report, "wt/backup")
	if res.Action != Cleaned {
		t.Fatalf("Action = %s (%s), want cleaned", res.Action, res.Error)
	}
	if got, _ := git.ResolveCommit(ctx, origin, "refs/heads/wt/backup"); got != tip {
		t.Errorf("origin wt/backup = %q, want %s", got, tip)
	}
	if exists(info.Path) {
		t.Error("worktree should be removed after backup")
	}
}

func TestCleanup_BackupToOrigin_NoRemote(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := setupTestRepo(t)
	e, m := newTestEngine(t, repo)
	info := create(t, m, "backup")

	report, err := e.Cleanup(ctx, defaultOptions(BackupToOrigin))
	if err != nil {
		t.Fatal(err)
	}
	res := resultFor(t, report, "wt/backup")
	if res.Action != Failed || !errors.Is(res.Err, worktree.ErrRemote) {
		t.Errorf("result = %s %v, want failed with ErrRemote", res.Action, res.Err)
	}
	if !exists(info.Path) {
		t.Error("worktree removed although the push failed")
	}
}

// assertIntact checks that a failed removal left the worktree on disk with
// its branch checked out at tip.
func assertIntact(t *testing.T, repo string, info worktree.Info, tip string) {
	t.Helper()
	ctx := context.Background()
	if !exists(info.Path) {
		t.Fatalf("worktree %s removed although cleanup failed", info.Path)
	}
	if got, err := git.ResolveCommit(ctx, repo, "refs/heads/"+info.Branch); err != nil || got != tip {
		t.Errorf("%s = %q, %v, want %s", info.Branch, got, err, tip)
	}
	if got, err := git.CurrentBranch(ctx, info.Path); err != nil || got != info.Branch {
		t.Errorf("checked out branch = %q, %v, want %s", got, err, info.Branch)
	}
}

func TestCleanup_RemoveFailureKeepsBranch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := setupTestRepo(t)
	e, m := newTestEngine(t, repo)
	info := create(t, m, "locked")
	tip, _ := git.ResolveCommit(ctx, repo, "wt/locked")
	// a locked worktree needs a double --force to go
	mustGit(t, repo, "worktree", "lock", info.Path)

	report, err := e.Cleanup(ctx, defaultOptions(Discard))
	if err != nil {
		t.Fatal(err)
	}
	res := resultFor(t, report, "wt/locked")
	if res.Action != Failed || !errors.Is(res.Err, worktree.ErrProcess) {
		t.Fatalf("result = %s %v, want failed with ErrProcess", res.Action, res.Err)
	}
	assertIntact(t, repo, info, tip)
}

func TestCleanup_BranchDeleteFailureKeepsWorktree(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := setupTestRepo(t)
	e, m := newTestEngine(t, repo)
	info := create(t, m, "pinned")
	tip, _ := git.ResolveCommit(ctx, repo, "wt/pinned")
	lock := filepath.Join(repo, ".git", "refs", "heads", "wt", "pinned.lock")
	if err := os.WriteFile(lock, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	report, err := e.Cleanup(ctx, defaultOptions(Discard))
	if err != nil {
		t.Fatal(err)
	}
	res := resultFor(t, report, "wt/pinned")
	if res.Action != Failed {
		t.Fatalf("Action = %s, want failed", res.Action)
	}
	assertIntact(t, repo, info, tip)
}

func TestCleanup_StashRestoredWhenRemoveFails(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := setupTestRepo(t)
	e, m := newTestEngine(t, repo)
	info := create(t, m, "stashlock")
	tip, _ := git.ResolveCommit(ctx, repo, "wt/stashlock")
	writeFile(t, info.Path, "README.md", "edited\n")
	writeFile(t, info.Path, "notes.txt", "scratch\n")
	mustGit(t, repo, "worktree", "lock", info.Path)

	report, err := e.Cleanup(ctx, defaultOptions(StashAndDiscard))
	if err != nil {
		t.Fatal(err)
	}
	res := resultFor(t, report, "wt/stashlock")
	if res.Action != Failed {
		t.Fatalf("Action = %s, want failed", res.Action)
	}
	if res.StashRef != "" {
		t.Errorf("StashRef = %q, want empty once the changes are restored", res.StashRef)
	}
	assertIntact(t, repo, info, tip)

	for name, want := range map[string]string{"README.md": "edited\n", "notes.txt": "scratch\n"} {
		data, err := os.ReadFile(filepath.Join(info.Path, name))
		if err != nil || string(data) != want {
			t.Errorf("%s = %q, %v, want %q", name, data, err, want)
		}
	}
	if entries, _ := git.StashList(ctx, repo); len(entries) != 0 {
		t.Errorf("StashList = %+v, want the stash popped", entries)
	}
}

func containsLine(s, line string) bool {
	return slices.Contains(strings.Split(s, "\n"), line)
}
