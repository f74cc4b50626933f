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

// GitHub implements Forge for GitHub repositories using the gh CLI.
type GitHub struct{}

// Name returns "github"
func (g *GitHub) Name() string {
	return "github"
}

// Check verifies that gh CLI is available and authenticated
func (g *GitHub) Check(ctx context.Context) error {
	if _, err := exec.LookPath("gh"); err != nil {
		return fmt.Errorf("gh not found: please install GitHub CLI (https://cli.github.com)")
	}

	if err := cmd.RunContext(ctx, "", "gh", "auth", "status"); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		errMsg := err.Error()
		if strings.Contains(errMsg, "not logged") || strings.Contains(errMsg, "no accounts") {
			return fmt.Errorf("gh not authenticated: please run 'gh auth login'")
		}
		return fmt.Errorf("gh auth check failed: %w", err)
	}
	return nil
}

type ghPR struct {
	Number  int    `json:"number"`
	State   string `json:"state"`
	IsDraft bool   `json:"isDraft"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Author  struct {
		Login string `json:"login"`
	} `json:"author"`
	MergedAt *time.Time `json:"mergedAt"`
}

// GetPRForBranch fetches PR info for a branch using gh CLI
func (g *GitHub) GetPRForBranch(ctx context.Context, repoURL, branch string) (*PRInfo, error) {
	output, err := cmd.OutputContext(ctx, "", "gh", "pr", "list",
		"-R", repoURL,
		"--head", branch,
		"--state", "all",
		"--json", "number,state,isDraft,title,url,author,mergedAt",
		"--limit", "1")
	if err != nil {
		return nil, fmt.Errorf("gh command failed: %w", err)
	}
	return parseGitHubPRs(output)
}

func parseGitHubPRs(output []byte) (*PRInfo, error) {
	var prs []ghPR
	if err := json.Unmarshal(output, &prs); err != nil {
		return nil, fmt.Errorf("failed to parse gh output: %w", err)
	}
	if len(prs) == 0 {
		return nil, nil
	}

	pr := prs[0]
	info := &PRInfo{
		Number:  pr.Number,
		State:   pr.State, // GitHub already uses OPEN, MERGED, CLOSED
		IsDraft: pr.IsDraft,
		Title:   pr.Title,
		URL:     pr.URL,
		Author:  pr.Author.Login,
	}
	if pr.MergedAt != nil {
		info.MergedAt = *pr.MergedAt
	}
	return info, nil
}

// FormatState returns a human-readable PR state
func (g *GitHub) FormatState(state string) string {
	return formatState(state)
}

func formatState(state string) string {
	switch state {
	case PRStateMerged:
		return "merged"
	case PRStateOpen:
		return "open"
	case PRStateClosed:
		return "closed"
	default:
		return ""
	}
}
