package git

import (
	"context"
	"fmt"
	"strings"
)

// StashEntry is one entry of the shared stash list.
type StashEntry struct {
	Ref     string // stash@{N}
	Hash    string
	Message string
}

// StashPush stashes tracked and untracked changes at dir under message.
// Returns the created stash commit.
// Fails when there was nothing to stash.
func StashPush(ctx context.Context, dir, message string) (string, error) {
	before, _ := outputLine(ctx, dir, "rev-parse", "--verify", "--quiet", "refs/stash")
	if err := runGit(ctx, dir, "stash", "push", "-u", "-m", message); err != nil {
		return "", fmt.Errorf("failed to stash changes: %w", err)
	}
	hash, err := outputLine(ctx, dir, "rev-parse", "--verify", "--quiet", "refs/stash")
	if err != nil || hash == before {
		return "", fmt.Errorf("no local changes to stash in %s", dir)
	}
	return hash, nil
}

// StashList returns all stash entries, newest first.
func StashList(ctx context.Context, dir string) ([]StashEntry, error) {
	out, err := outputGit(ctx, dir, "stash", "list", "--format=%gd%x1f%H%x1f%gs")
	if err != nil {
		return nil, err
	}
	var entries []StashEntry
	for _, line := range splitLines(string(out)) {
		parts := strings.SplitN(line, "\x1f", 3)
		if len(parts) != 3 {
			continue
		}
		entries = append(entries, StashEntry{Ref: parts[0], Hash: parts[1], Message: parts[2]})
	}
	return entries, nil
}

// FindStash returns the newest stash whose hash equals needle or whose
// message contains it.
func FindStash(ctx context.Context, dir, needle string) (StashEntry, bool, error) {
	entries, err := StashList(ctx, dir)
	if err != nil {
		return StashEntry{}, false, err
	}
	for _, e := range entries {
		if e.Hash == needle || strings.Contains(e.Message, needle) {
			return e, true, nil
		}
	}
	return StashEntry{}, false, nil
}

// StashPop applies the stash commit hash at dir and drops it from the list.
// Other stashes pushed in the meantime are left alone.
func StashPop(ctx context.Context, dir, hash string) error {
	entry, ok, err := FindStash(ctx, dir, hash)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("stash %s not found", hash)
	}
	if err := runGit(ctx, dir, "stash", "pop", entry.Ref); err != nil {
		return fmt.Errorf("failed to restore %s: %w", entry.Ref, err)
	}
	return nil
}
