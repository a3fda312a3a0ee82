package plan

import (
	"github.com/versio-mono/versio/internal/config"
	"github.com/versio-mono/versio/internal/gitrepo"
	"github.com/versio-mono/versio/internal/state"
)

// FindLastCommits walks the linear commit sequence from HEAD back to
// prevTag (not the PR-grouped view) and records, per project still present
// in the current manifest, the most recent commit that touched it. The
// walk is newest-first, so the first sighting for a project wins.
func FindLastCommits(repo *gitrepo.Repo, current *config.ConfigFile, prevTag string) (map[config.ProjectId]string, error) {
	oids, err := repo.WalkHeadTo(prevTag)
	if err != nil {
		return nil, err
	}

	last := map[config.ProjectId]string{}

	for _, oid := range oids {
		commit, err := repo.CommitByOid(oid)
		if err != nil {
			return nil, err
		}
		files, err := commit.Files()
		if err != nil {
			return nil, err
		}

		histSlice, err := state.SlicePrevState(repo, oid, true)
		if err != nil {
			return nil, err
		}

		for _, histProj := range histSlice.Config.Projects {
			if _, stillPresent := last[histProj.Id]; stillPresent {
				continue
			}
			if current.Project(histProj.Id) == nil {
				continue
			}
			for _, f := range files {
				covers, err := histProj.Covers(f)
				if err != nil {
					return nil, err
				}
				if covers {
					last[histProj.Id] = oid
					break
				}
			}
		}
	}

	return last, nil
}
