// Package changelog defines the change-source contract the planner
// consumes -- PR groups of conventional commits -- and the PR-grouped and
// changelog result types the planner produces.
package changelog

import (
	"time"

	"github.com/versio-mono/versio/internal/gitrepo"
)

// SizedPrCommit is one commit considered within a PR's scope for a single
// project: its nominal size, whether it covers that project, and whether an
// earlier PR already claimed it.
type SizedPrCommit struct {
	Oid       string
	Message   string
	Size      string // the size.Size.String() token, e.g. "minor"
	Applies   bool
	Duplicate bool
}

// Included reports whether this commit counts toward the PR's effective
// size for a project: it must apply to that project and not be a duplicate
// already counted by an earlier PR.
func (c SizedPrCommit) Included() bool { return c.Applies && !c.Duplicate }

// SizedPr is one PR's commits as considered for a single project.
type SizedPr struct {
	Number   int
	ClosedAt time.Time
	Commits  []SizedPrCommit
}

// FullPr is a single pull request as yielded by a ChangeSource: its
// identity, the commits it closed, and whether particular oids were
// excluded (e.g. already-released commits rebased into it).
type FullPr struct {
	Number     int
	ClosedAt   time.Time
	BaseOid    string
	HeadOid    string
	BestGuess  bool
	excluded   map[string]bool
	commits    []*gitrepo.Commit
}

// NewFullPr wraps a PR's identity and its ordered commits.
func NewFullPr(number int, closedAt time.Time, baseOid, headOid string, bestGuess bool, commits []*gitrepo.Commit, excludedOids []string) *FullPr {
	excluded := make(map[string]bool, len(excludedOids))
	for _, oid := range excludedOids {
		excluded[oid] = true
	}
	return &FullPr{
		Number: number, ClosedAt: closedAt, BaseOid: baseOid, HeadOid: headOid,
		BestGuess: bestGuess, commits: commits, excluded: excluded,
	}
}

// HasExclude reports whether oid was explicitly excluded from this PR's
// scope.
func (p *FullPr) HasExclude(oid string) bool { return p.excluded[oid] }

// IncludedCommits returns this PR's commits minus any explicitly excluded
// oids, oldest first.
func (p *FullPr) IncludedCommits() []*gitrepo.Commit {
	if len(p.excluded) == 0 {
		return p.commits
	}
	out := make([]*gitrepo.Commit, 0, len(p.commits))
	for _, c := range p.commits {
		if !p.excluded[c.ID()] {
			out = append(out, c)
		}
	}
	return out
}

// Changes is the result of querying a ChangeSource: every PR that closed
// between base and head, in the source's preferred processing order.
type Changes struct {
	groups []*FullPr
}

// Groups returns the PR groups in processing order.
func (c *Changes) Groups() []*FullPr { return c.groups }

// ChangeSource is the out-of-core collaborator that groups commits between
// base and head into pull requests, either via a hosted API or a local
// heuristic.
type ChangeSource interface {
	Changes(repo *gitrepo.Repo, head, base string) (*Changes, error)
}
