package changelog

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/versio-mono/versio/internal/gitrepo"
	"github.com/versio-mono/versio/internal/verrors"
)

// GitHubSource groups commits into PRs by querying the GitHub REST API for
// the repository's merged pull requests, one merge commit per PR, grounded
// on the hosted-PR-lookup pattern common across the retrieval pack's
// GitHub-integrated tools. Every merged PR whose merge commit is present
// locally becomes a group; PRs are not filtered by head, and a PR merged
// before base yields a group with no commits.
type GitHubSource struct {
	Owner string
	Repo  string
	Token string
}

func (g *GitHubSource) client(ctx context.Context) *github.Client {
	if g.Token == "" {
		return github.NewClient(nil)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: g.Token})
	return github.NewClient(oauth2.NewClient(ctx, ts))
}

// Changes lists merged PRs and, for each, resolves the commits reachable
// from its merge commit but not from base via the local repo adapter,
// oldest first.
func (g *GitHubSource) Changes(repo *gitrepo.Repo, head, base string) (*Changes, error) {
	ctx := context.Background()
	client := g.client(ctx)

	opts := &github.PullRequestListOptions{
		State:       "closed",
		Base:        "",
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var prs []*github.PullRequest
	for {
		page, resp, err := client.PullRequests.List(ctx, g.Owner, g.Repo, opts)
		if err != nil {
			return nil, fmt.Errorf("listing pull requests: %w: %v", verrors.ErrIO, err)
		}
		prs = append(prs, page...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	var groups []*FullPr
	for _, pr := range prs {
		if pr.MergedAt == nil || pr.MergeCommitSHA == nil {
			continue
		}
		headOid := pr.GetMergeCommitSHA()
		commits, err := repo.CommitsBetween(base, headOid)
		if err != nil {
			continue
		}
		for i, j := 0, len(commits)-1; i < j; i, j = i+1, j-1 {
			commits[i], commits[j] = commits[j], commits[i]
		}
		groups = append(groups, NewFullPr(pr.GetNumber(), pr.GetMergedAt().Time, base, headOid, false, commits, nil))
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].ClosedAt.Before(groups[j].ClosedAt) })
	return &Changes{groups: groups}, nil
}
