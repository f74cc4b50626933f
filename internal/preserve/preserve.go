// Package preserve copies git-ignored files such as .env from the main
// worktree into a freshly created one.
package preserve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/raphi011/wtsweep/internal/config"
	"github.com/raphi011/wtsweep/internal/git"
	"github.com/raphi011/wtsweep/internal/log"
)

// matches reports whether relPath should be copied. Patterns are matched
// against the base name; any path segment listed in exclude rejects the file.
func matches(relPath string, patterns, exclude []string) bool {
	for seg := range strings.SplitSeq(filepath.ToSlash(relPath), "/") {
		if slices.Contains(exclude, seg) {
			return false
		}
	}

	base := filepath.Base(relPath)
	for _, pat := range patterns {
		if ok, _ := filepath.Match(pat, base); ok {
			return true
		}
	}
	return false
}

// copyFile copies src to dst with the source's permission bits. An existing
// dst is left alone and reported as not copied.
func copyFile(src, dst string) (bool, error) {
	info, err := os.Stat(src)
	if err != nil {
		return false, err
	}
	if !info.Mode().IsRegular() {
		return false, fmt.Errorf("%s: not a regular file", src)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return false, err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return false, nil
		}
		return false, err
	}

	in, err := os.Open(src)
	if err != nil {
		out.Close()
		os.Remove(dst)
		return false, err
	}
	defer in.Close()

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return false, err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return false, err
	}
	return true, nil
}

// Copy copies the git-ignored files of src that match cfg into dst and
// returns their relative paths. Files that fail to copy are logged and
// skipped.
func Copy(ctx context.Context, cfg config.PreserveConfig, src, dst string) ([]string, error) {
	if len(cfg.Patterns) == 0 {
		return nil, nil
	}
	l := log.FromContext(ctx)

	ignored, err := git.IgnoredFiles(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("list ignored files: %w", err)
	}

	var copied []string
	for _, rel := range ignored {
		if !matches(rel, cfg.Patterns, cfg.Exclude) {
			continue
		}
		ok, err := copyFile(filepath.Join(src, rel), filepath.Join(dst, rel))
		if err != nil {
			l.Debug("preserve: copy failed", "file", rel, "error", err)
			continue
		}
		if ok {
			copied = append(copied, rel)
		}
	}
	return copied, nil
}
