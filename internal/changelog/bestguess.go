package changelog

import (
	"github.com/versio-mono/versio/internal/gitrepo"
)

// BestGuessSource groups commits into PRs without any hosted API: it visits
// the commits between base and head oldest-first, and every merge commit
// (more than one parent) closes a "PR" made of the non-merge commits visited
// since the previous merge commit, whether they sit on the mainline or on
// the merged branch. Commits after the last merge commit form one final PR.
// Used when no GitHub token/remote is configured.
type BestGuessSource struct{}

// Changes walks the linear history between base and head once, grouping by
// merge-commit boundary.
func (BestGuessSource) Changes(repo *gitrepo.Repo, head, base string) (*Changes, error) {
	commits, err := repo.CommitsBetween(base, head)
	if err != nil {
		return nil, err
	}

	var groups []*FullPr
	var pending []*gitrepo.Commit
	number := 0

	flush := func(boundary *gitrepo.Commit) {
		if len(pending) == 0 {
			return
		}
		number++
		closedAt := pending[0].When()
		headOid := pending[0].ID()
		if boundary != nil {
			closedAt = boundary.When()
			headOid = boundary.ID()
		}
		ordered := append([]*gitrepo.Commit(nil), pending...)
		groups = append(groups, NewFullPr(number, closedAt, base, headOid, true, ordered, nil))
		pending = nil
	}

	// commits is newest-first; walk oldest-first so "pending" accumulates in
	// chronological order and a merge commit flushes everything beneath it.
	for i := len(commits) - 1; i >= 0; i-- {
		c := commits[i]
		if c.IsMerge() {
			flush(c)
			continue
		}
		pending = append(pending, c)
	}
	flush(nil)

	return &Changes{groups: groups}, nil
}
