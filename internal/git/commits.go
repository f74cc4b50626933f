package git

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Commit is a single log entry.
type Commit struct {
	Hash    string    `json:"hash"`
	Subject string    `json:"subject"`
	Author  string    `json:"author"`
	Time    time.Time `json:"time"`
}

const commitFormat = "--format=%H%x1f%s%x1f%an%x1f%ct"

// LogCommits lists commits over the given revisions, newest first.
func LogCommits(ctx context.Context, dir string, revs ...string) ([]Commit, error) {
	out, err := outputGit(ctx, dir, append([]string{"log", commitFormat}, revs...)...)
	if err != nil {
		return nil, err
	}
	return parseCommits(string(out))
}

func parseCommits(out string) ([]Commit, error) {
	var commits []Commit
	for _, line := range splitLines(out) {
		parts := strings.Split(line, "\x1f")
		if len(parts) != 4 {
			return nil, fmt.Errorf("unexpected log line %q", line)
		}
		secs, err := strconv.ParseInt(parts[3], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("unexpected commit time %q", parts[3])
		}
		commits = append(commits, Commit{
			Hash:    parts[0],
			Subject: parts[1],
			Author:  parts[2],
			Time:    time.Unix(secs, 0),
		})
	}
	return commits, nil
}

// UnpushedCommits lists commits on branch that are not on its upstream.
// Without an upstream, it lists commits that no other local branch or
// remote-tracking ref contains, i.e. work that exists only on this branch.
// An empty branch means detached HEAD at dir.
func UnpushedCommits(ctx context.Context, dir, branch string, upstream Upstream) ([]Commit, error) {
	if upstream.Ref != "" && !upstream.Gone {
		return LogCommits(ctx, dir, upstream.Ref+"..HEAD")
	}
	revs := []string{"HEAD", "--not"}
	if branch != "" {
		// --branches matches exclude patterns against names without refs/heads/
		revs = append(revs, "--exclude="+branch)
	}
	revs = append(revs, "--branches", "--remotes")
	return LogCommits(ctx, dir, revs...)
}
