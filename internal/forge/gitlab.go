package forge

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/raphi011/wtsweep/internal/cmd"
)

// GitLab implements Forge for GitLab repositories using the glab CLI.
type GitLab struct{}

// Name returns "gitlab"
func (g *GitLab) Name() string {
	return "gitlab"
}

// Check verifies that glab CLI is available and authenticated
func (g *GitLab) Check(ctx context.Context) error {
	if _, err := exec.LookPath("glab"); err != nil {
		return fmt.Errorf("glab not found: please install GitLab CLI (https://gitlab.com/gitlab-org/cli)")
	}

	if err := cmd.RunContext(ctx, "", "glab", "auth", "status"); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		errMsg := err.Error()
		if strings.Contains(errMsg, "not logged") || strings.Contains(errMsg, "no token") {
			return fmt.Errorf("glab not authenticated: please run 'glab auth login'")
		}
		return fmt.Errorf("glab auth check failed: %w", err)
	}
	return nil
}

type glabMR struct {
	IID    int    `json:"iid"`
	State  string `json:"state"` // opened, merged, closed, locked
	Draft  bool   `json:"draft"`
	Title  string `json:"title"`
	WebURL string `json:"web_url"`
	Author struct {
		Username string `json:"username"`
	} `json:"author"`
	MergedAt *time.Time `json:"merged_at"`
}

// GetPRForBranch fetches MR info for a branch using glab CLI
func (g *GitLab) GetPRForBranch(ctx context.Context, repoURL, branch string) (*PRInfo, error) {
	// glab uses -R like gh, but needs the project path
	output, err := cmd.OutputContext(ctx, "", "glab", "mr", "list",
		"-R", extractGitLabProject(repoURL),
		"--source-branch", branch,
		"--all",
		"-F", "json",
		"-P", "1")
	if err != nil {
		return nil, fmt.Errorf("glab command failed: %w", err)
	}
	return parseGitLabMRs(output)
}

func parseGitLabMRs(output []byte) (*PRInfo, error) {
	var mrs []glabMR
	if err := json.Unmarshal(output, &mrs); err != nil {
		return nil, fmt.Errorf("failed to parse glab output: %w", err)
	}
	if len(mrs) == 0 {
		return nil, nil
	}

	mr := mrs[0]
	info := &PRInfo{
		Number:  mr.IID,
		State:   normalizeGitLabState(mr.State),
		IsDraft: mr.Draft,
		Title:   mr.Title,
		URL:     mr.WebURL,
		Author:  mr.Author.Username,
	}
	if mr.MergedAt != nil {
		info.MergedAt = *mr.MergedAt
	}
	return info, nil
}

// FormatState returns a human-readable MR state
func (g *GitLab) FormatState(state string) string {
	return formatState(state)
}

// normalizeGitLabState converts GitLab state to normalized format
func normalizeGitLabState(state string) string {
	switch strings.ToLower(state) {
	case "opened":
		return PRStateOpen
	case "merged":
		return PRStateMerged
	case "closed", "locked":
		return PRStateClosed
	default:
		return strings.ToUpper(state)
	}
}

// extractGitLabProject extracts the project path from a GitLab URL
// e.g., "git@gitlab.com:group/project.git" -> "group/project"
// e.g., "https://gitlab.com/group/subgroup/project.git" -> "group/subgroup/project"
func extractGitLabProject(url string) string {
	url = strings.TrimSuffix(url, ".git")

	if strings.HasPrefix(url, "git@") {
		if _, path, ok := strings.Cut(url, ":"); ok {
			return path
		}
	}

	if _, rest, ok := strings.Cut(url, "://"); ok {
		if _, path, ok := strings.Cut(rest, "/"); ok {
			return path
		}
	}

	return url
}
