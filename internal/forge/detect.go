package forge

import (
	"context"
	"net/url"
	"strings"

	"github.com/raphi011/wtsweep/internal/git"
)

// Detect picks the forge serving remoteURL. Explicit host mappings win over
// URL heuristics; anything unrecognized is treated as GitHub.
func Detect(remoteURL string, hostMap map[string]string) Forge {
	host, path := splitRemote(remoteURL)
	if name, ok := hostMap[host]; ok && host != "" {
		return ByName(name)
	}
	if looksLikeGitLab(host, path) {
		return &GitLab{}
	}
	return &GitHub{}
}

// DetectLookup binds the forge for the origin remote of repoPath.
func DetectLookup(ctx context.Context, repoPath string, hostMap map[string]string) (*Lookup, error) {
	origin, err := git.GetOriginURL(ctx, repoPath)
	if err != nil {
		return nil, err
	}
	return &Lookup{Forge: Detect(origin, hostMap), RepoURL: origin}, nil
}

// ByName maps a configured forge name to its implementation, defaulting to
// GitHub.
func ByName(name string) Forge {
	if strings.EqualFold(name, "gitlab") {
		return &GitLab{}
	}
	return &GitHub{}
}

// splitRemote separates host and repository path for URL remotes
// (https://, ssh://) and scp-like remotes ([user@]host:path).
func splitRemote(remoteURL string) (host, path string) {
	if strings.Contains(remoteURL, "://") {
		u, err := url.Parse(remoteURL)
		if err != nil {
			return "", ""
		}
		return u.Hostname(), u.Path
	}

	colon := strings.Index(remoteURL, ":")
	if colon <= 0 || strings.Contains(remoteURL[:colon], "/") {
		return "", ""
	}
	host = remoteURL[:colon]
	if at := strings.LastIndex(host, "@"); at >= 0 {
		host = host[at+1:]
	}
	return host, remoteURL[colon+1:]
}

// looksLikeGitLab matches gitlab.com, self-hosted gitlab.* hosts and
// instances mounted under a /gitlab/ path.
func looksLikeGitLab(host, path string) bool {
	host = strings.ToLower(host)
	if host == "gitlab.com" || strings.HasPrefix(host, "gitlab.") {
		return true
	}
	for _, seg := range strings.Split(strings.ToLower(path), "/") {
		if seg == "gitlab" {
			return true
		}
	}
	return false
}
