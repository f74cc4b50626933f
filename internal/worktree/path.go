package worktree

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ResolveBaseDir resolves the configured worktree base directory.
// Supports:
//   - ".worktrees" or "./.worktrees" = nested inside repo
//   - "../{repo}-worktrees" = sibling to repo
//   - "~/worktrees/{repo}" = centralized folder
//   - "/absolute/{repo}" = absolute path
func ResolveBaseDir(repoPath, baseDir string) string {
	path := strings.ReplaceAll(baseDir, "{repo}", filepath.Base(repoPath))

	switch {
	case strings.HasPrefix(path, "../"):
		return filepath.Join(filepath.Dir(repoPath), path[3:])

	case strings.HasPrefix(path, "~/"):
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			// Keep the ~ so the error message shows what was configured
			return path
		}
		return filepath.Join(home, path[2:])

	case filepath.IsAbs(path):
		return filepath.Clean(path)

	default:
		return filepath.Join(repoPath, strings.TrimPrefix(path, "./"))
	}
}

// WorktreePath returns <base>/<id>__<unix seconds in hex>. Slashes in id
// become nested directories.
func WorktreePath(base, id string, created time.Time) string {
	name := fmt.Sprintf("%s__%x", filepath.FromSlash(id), created.Unix())
	return filepath.Join(base, name)
}

// relativeInside returns path relative to root if it lies within root.
func relativeInside(root, path string) (string, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}
