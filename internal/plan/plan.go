// Package plan implements the PlanBuilder, the dependency propagator, and
// LastCommitFinder: the core algorithm that turns PR-grouped conventional
// commits into a per-project size increment and changelog.
package plan

import (
	"fmt"
	"sort"

	"github.com/versio-mono/versio/internal/changelog"
	"github.com/versio-mono/versio/internal/config"
	"github.com/versio-mono/versio/internal/gitrepo"
	"github.com/versio-mono/versio/internal/size"
	"github.com/versio-mono/versio/internal/state"
)

// ChangeLogEntry pairs a considered PR with its effective size for one
// project, after the dedup/ordering pass.
type ChangeLogEntry struct {
	Pr            changelog.SizedPr
	EffectiveSize size.Size
}

// Incr is one project's computed result: its final increment and its
// changelog. The oid of a project's most recent touching commit is found
// separately by FindLastCommits and consulted directly by StateWrite when
// placing a tag_head_or_last.
type Incr struct {
	Size      size.Size
	ChangeLog []ChangeLogEntry
}

// Plan is the PlanBuilder's output: a per-project increment plus the PRs
// that touched no covered path at all.
type Plan struct {
	Incrs       map[config.ProjectId]*Incr
	Ineffective []changelog.SizedPr
}

// Builder drives PlanBuilder over a change source's PR groups.
type Builder struct {
	Repo    *gitrepo.Repo
	Current *config.ConfigFile
	prevTag string
}

// NewBuilder constructs a PlanBuilder against the current manifest, walking
// historical manifest slices back to prevTag as needed.
func NewBuilder(repo *gitrepo.Repo, current *config.ConfigFile, prevTag string) *Builder {
	return &Builder{Repo: repo, Current: current, prevTag: prevTag}
}

// Build walks every PR group in order, classifies its commits, aggregates
// per-project increments and changelogs, then runs the dedup/ordering pass
// and dependency propagation.
func (b *Builder) Build(changes *changelog.Changes) (*Plan, error) {
	type prProject struct {
		commits []changelog.SizedPrCommit
	}

	perProject := map[config.ProjectId]map[int]*prProject{}
	prMeta := map[int]changelog.SizedPr{}
	var prOrder []int
	ineffective := map[int]changelog.SizedPr{}

	for _, p := range b.Current.Projects {
		perProject[p.Id] = map[int]*prProject{}
	}

	for _, pr := range changes.Groups() {
		prOrder = append(prOrder, pr.Number)
		sizedPr := changelog.SizedPr{Number: pr.Number, ClosedAt: pr.ClosedAt}

		for _, pp := range perProject {
			pp[pr.Number] = &prProject{}
		}

		prevState, err := state.SlicePrevState(b.Repo, b.prevTag, true)
		if err != nil {
			return nil, err
		}

		for _, commit := range pr.IncludedCommits() {
			// Step 1: move the historical slice to the commit's parent so the
			// manifest reflects that commit's own project definitions.
			parentSpec := commit.ID() + "^"
			advanced, err := prevState.Advance(parentSpec)
			if err == nil {
				prevState = advanced
			}

			kind := commit.Kind()
			s, err := b.Current.Size(kind)
			if err != nil {
				return nil, fmt.Errorf("commit %s: %w", commit.ID(), err)
			}

			prc := changelog.SizedPrCommit{Oid: commit.ID(), Message: commit.Summary(), Size: s.String()}

			files, err := commit.Files()
			if err != nil {
				return nil, err
			}

			for _, histProj := range prevState.Config.Projects {
				curProj := b.Current.Project(histProj.Id)
				if curProj == nil {
					continue
				}
				applies := false
				for _, f := range files {
					covers, err := histProj.Covers(f)
					if err != nil {
						return nil, err
					}
					if covers {
						applies = true
						break
					}
				}
				entry := prc
				entry.Applies = applies
				perProject[histProj.Id][pr.Number].commits = append(perProject[histProj.Id][pr.Number].commits, entry)
			}
		}

		prMeta[pr.Number] = sizedPr

		productive := false
		for _, pp := range perProject {
			if max := effectiveSize(pp[pr.Number].commits); max > size.None {
				productive = true
			}
		}
		if !productive {
			ineffective[pr.Number] = sizedPr
		}
	}

	// sort_and_dedup: PRs considered in closed_at order so "duplicate" marks
	// the later sighting of any commit oid shared across PRs.
	sort.Slice(prOrder, func(i, j int) bool {
		return prMeta[prOrder[i]].ClosedAt.Before(prMeta[prOrder[j]].ClosedAt)
	})

	incrs := map[config.ProjectId]*Incr{}
	for _, p := range b.Current.Projects {
		incr := &Incr{Size: size.None}
		var entries []ChangeLogEntry
		seen := map[string]bool{}

		for _, num := range prOrder {
			pp := perProject[p.Id][num]
			if pp == nil {
				continue
			}
			var commits []changelog.SizedPrCommit
			for _, c := range pp.commits {
				c.Duplicate = seen[c.Oid]
				if !c.Duplicate {
					seen[c.Oid] = true
				}
				commits = append(commits, c)
			}
			eff := size.None
			for _, c := range commits {
				if c.Included() {
					s, _ := size.Parse(c.Size)
					eff = size.Max(eff, s)
				}
			}
			if eff > size.None {
				sp := prMeta[num]
				sp.Commits = commits
				entries = append(entries, ChangeLogEntry{Pr: sp, EffectiveSize: eff})
				incr.Size = size.Max(incr.Size, eff)
			}
		}

		incr.ChangeLog = entries
		incrs[p.Id] = incr
	}

	if err := propagate(b.Current, incrs); err != nil {
		return nil, err
	}

	var ineff []changelog.SizedPr
	for _, num := range prOrder {
		if sp, ok := ineffective[num]; ok {
			ineff = append(ineff, sp)
		}
	}

	return &Plan{Incrs: incrs, Ineffective: ineff}, nil
}

func effectiveSize(commits []changelog.SizedPrCommit) size.Size {
	max := size.None
	for _, c := range commits {
		if c.Applies {
			s, err := size.Parse(c.Size)
			if err == nil {
				max = size.Max(max, s)
			}
		}
	}
	return max
}

// propagate runs a Kahn-style topological walk over the dependency DAG,
// propagating each project's computed size to every transitive dependent.
func propagate(cfg *config.ConfigFile, incrs map[config.ProjectId]*Incr) error {
	dependents := map[config.ProjectId][]config.ProjectId{}
	remaining := map[config.ProjectId]int{}
	for _, p := range cfg.Projects {
		remaining[p.Id] = len(p.Depends)
		for _, dep := range p.Depends {
			dependents[dep] = append(dependents[dep], p.Id)
		}
	}

	var queue []config.ProjectId
	for _, p := range cfg.Projects {
		if remaining[p.Id] == 0 {
			queue = append(queue, p.Id)
		}
	}

	processed := map[config.ProjectId]bool{}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if processed[id] {
			continue
		}
		processed[id] = true

		incr, ok := incrs[id]
		if !ok {
			incr = &Incr{Size: size.None}
			incrs[id] = incr
		}

		for _, dep := range dependents[id] {
			depIncr, ok := incrs[dep]
			if !ok {
				depIncr = &Incr{Size: size.None}
				incrs[dep] = depIncr
			}
			depIncr.Size = size.Max(depIncr.Size, incr.Size)
			remaining[dep]--
			if remaining[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	return nil
}
