package worktree

import (
	"os"
	"path/filepath"
	"strings"
)

// ensureGitignored appends "/<rel>/" to <repo>/.gitignore unless an
// equivalent line is already present. Returns whether the file changed.
func ensureGitignored(repo, rel string) (bool, error) {
	rel = filepath.ToSlash(rel)
	entry := "/" + rel + "/"
	path := filepath.Join(repo, ".gitignore")

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}

	for _, line := range strings.Split(string(data), "\n") {
		switch strings.TrimSpace(line) {
		case entry, rel, rel + "/", "/" + rel:
			return false, nil
		}
	}

	var b strings.Builder
	b.Write(data)
	if len(data) > 0 && !strings.HasSuffix(string(data), "\n") {
		b.WriteByte('\n')
	}
	b.WriteString(entry)
	b.WriteByte('\n')

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return false, err
	}
	return true, nil
}
