// Package forge answers one question for merge detection: what state is the
// pull request for this branch in?
//
// GitHub is queried with the gh CLI and GitLab with glab, reusing whatever
// login those tools already have. States come back normalized to OPEN,
// MERGED or CLOSED.
//
// [Detect] chooses the forge from the origin URL. A host listed under
// [hosts] in the config wins; otherwise gitlab.com, gitlab.* hosts and
// /gitlab/ paths map to GitLab and everything else to GitHub.
//
//	l, err := forge.DetectLookup(ctx, repoPath, cfg.ForgeHosts())
//	pr, err := l.LookupPR(ctx, branch)
//
// [Lookup] implements worktree.PullRequestLookup and is usually wrapped by
// prcache.
package forge
