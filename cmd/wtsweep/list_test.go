package main

import (
	"slices"
	"testing"

	"github.com/raphi011/wtsweep/internal/worktree"
)

func TestSortBySeverity(t *testing.T) {
	t.Parallel()

	withSeverity := func(path string, s worktree.Severity) worktree.Info {
		return worktree.Info{Path: path, Status: &worktree.Status{Severity: s}}
	}
	infos := []worktree.Info{
		{Path: "/repo", IsMain: true},
		withSeverity("/a", worktree.SeverityClean),
		{Path: "/unread"},
		withSeverity("/b", worktree.SeverityLightWarning),
		withSeverity("/c", worktree.SeverityWarning),
		withSeverity("/d", worktree.SeverityClean),
		withSeverity("/e", worktree.SeverityWarning),
	}

	sortBySeverity(infos)

	got := make([]string, len(infos))
	for i, info := range infos {
		got[i] = info.Path
	}
	want := []string{"/repo", "/c", "/e", "/b", "/a", "/d", "/unread"}
	if !slices.Equal(got, want) {
		t.Errorf("sortBySeverity() = %v, want %v", got, want)
	}
}
