package git

import (
	"context"
	"strings"
)

// StatusEntry is one record of `git status --porcelain=v1 -z`.
type StatusEntry struct {
	Index    byte   // X column: staged state
	Worktree byte   // Y column: unstaged state
	Path     string // current path
	OrigPath string // source path for renames and copies
}

// IsUntracked reports a "??" entry.
func (e StatusEntry) IsUntracked() bool {
	return e.Index == '?' && e.Worktree == '?'
}

// IsIgnored reports a "!!" entry.
func (e StatusEntry) IsIgnored() bool {
	return e.Index == '!' && e.Worktree == '!'
}

// Code returns the two-letter status code.
func (e StatusEntry) Code() string {
	return string([]byte{e.Index, e.Worktree})
}

// WorkingTreeStatus holds the parsed porcelain state of a work tree.
type WorkingTreeStatus struct {
	Entries []StatusEntry
}

// Uncommitted returns paths of tracked files with staged or unstaged changes.
func (s WorkingTreeStatus) Uncommitted() []string {
	var paths []string
	for _, e := range s.Entries {
		if !e.IsUntracked() && !e.IsIgnored() {
			paths = append(paths, e.Path)
		}
	}
	return paths
}

// Untracked returns paths of untracked files.
func (s WorkingTreeStatus) Untracked() []string {
	var paths []string
	for _, e := range s.Entries {
		if e.IsUntracked() {
			paths = append(paths, e.Path)
		}
	}
	return paths
}

// GetStatus runs git status in dir and parses the result.
func GetStatus(ctx context.Context, dir string) (WorkingTreeStatus, error) {
	out, err := outputGit(ctx, dir, "status", "--porcelain=v1", "-z", "--untracked-files=all")
	if err != nil {
		return WorkingTreeStatus{}, err
	}
	return ParsePorcelain(out), nil
}

// ParsePorcelain parses NUL-separated porcelain v1 output.
// Rename and copy records carry the original path in the following field.
func ParsePorcelain(data []byte) WorkingTreeStatus {
	var st WorkingTreeStatus
	fields := strings.Split(string(data), "\x00")
	for i := 0; i < len(fields); i++ {
		rec := fields[i]
		if len(rec) < 4 {
			continue
		}
		e := StatusEntry{Index: rec[0], Worktree: rec[1], Path: rec[3:]}
		if (e.Index == 'R' || e.Index == 'C') && i+1 < len(fields) {
			i++
			e.OrigPath = fields[i]
		}
		st.Entries = append(st.Entries, e)
	}
	return st
}

// IgnoredFiles lists git-ignored files present in dir, relative to it.
func IgnoredFiles(ctx context.Context, dir string) ([]string, error) {
	out, err := outputGit(ctx, dir, "ls-files", "-z", "--others", "--ignored", "--exclude-standard")
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, p := range strings.Split(string(out), "\x00") {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths, nil
}
