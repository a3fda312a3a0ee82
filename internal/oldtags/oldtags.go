// Package oldtags indexes, per project, the ordered history of version tags
// reachable from HEAD back to the manifest's prev_tag, and supports slicing
// that index to "as of an earlier commit" views.
package oldtags

import (
	"fmt"

	"github.com/Masterminds/semver"

	"github.com/versio-mono/versio/internal/config"
	"github.com/versio-mono/versio/internal/verrors"
)

// RepoAdapter is the narrow slice of the §6 Repo adapter contract OldTags
// construction needs.
type RepoAdapter interface {
	TagNames(globPattern string) ([]string, error)
	RevparseOid(tagOrRev string) (string, error)
	WalkHeadTo(boundary string) ([]string, error)
}

// OldTags maps each project to its prior version tags (latest-first along
// the HEAD-to-prev_tag walk) and, for any commit on that walk, the most
// recent tag no later than it.
type OldTags struct {
	byProj   map[config.ProjectId][]string
	notAfter map[config.ProjectId]map[string]int
}

// Empty returns an index with no tags at all, used as the "no previous
// state" fallback when the baseline tag is missing.
func Empty() *OldTags {
	return &OldTags{byProj: map[config.ProjectId][]string{}, notAfter: map[config.ProjectId]map[string]int{}}
}

// Build indexes every project's tag_prefix-matching tags by walking from HEAD
// back to prevTag.
func Build(repo RepoAdapter, prevTag string, projects []*config.Project) (*OldTags, error) {
	type bucketKey struct {
		id  config.ProjectId
		oid string
	}
	byOid := map[bucketKey][]string{}
	projByPrefix := map[config.ProjectId]bool{}

	for _, p := range projects {
		globPattern := tagGlob(p.TagPrefix)
		tags, err := repo.TagNames(globPattern)
		if err != nil {
			return nil, err
		}
		for _, tag := range tags {
			if _, err := semver.NewVersion(tagVersionPart(tag, p.TagPrefix)); err != nil {
				continue
			}
			oid, err := repo.RevparseOid(tag + "^{}")
			if err != nil {
				oid, err = repo.RevparseOid(tag)
				if err != nil {
					return nil, fmt.Errorf("resolving tag %s: %w", tag, err)
				}
			}
			key := bucketKey{id: p.Id, oid: oid}
			byOid[key] = append(byOid[key], tag)
		}
		projByPrefix[p.Id] = true
	}

	walk, err := repo.WalkHeadTo(prevTag)
	if err != nil {
		return nil, fmt.Errorf("walking to %s: %w: %v", prevTag, verrors.ErrRepo, err)
	}

	byProj := map[config.ProjectId][]string{}
	notAfter := map[config.ProjectId]map[string]int{}
	current := map[config.ProjectId]int{}

	// Walk is newest-first; visit it oldest-first so each commit maps to the
	// most recent tag at or before it (commits older than a project's first
	// tag get no entry).
	for i := len(walk) - 1; i >= 0; i-- {
		oid := walk[i]
		for id := range projByPrefix {
			if tags, ok := byOid[bucketKey{id: id, oid: oid}]; ok {
				current[id] = len(byProj[id])
				byProj[id] = append(byProj[id], tags...)
			}
			if idx, ok := current[id]; ok {
				if notAfter[id] == nil {
					notAfter[id] = map[string]int{}
				}
				notAfter[id][oid] = idx
			}
		}
	}

	// byProj was built oldest-tag-first; reverse each list to latest-first
	// and rebase notAfter indices to match.
	for id, tags := range byProj {
		n := len(tags)
		reversed := make([]string, n)
		for i, t := range tags {
			reversed[n-1-i] = t
		}
		byProj[id] = reversed
		for oid, idx := range notAfter[id] {
			notAfter[id][oid] = n - 1 - idx
		}
	}

	return &OldTags{byProj: byProj, notAfter: notAfter}, nil
}

func tagGlob(prefix string) string {
	if prefix == "" {
		return "v*.*.*"
	}
	return prefix + "-v*.*.*"
}

func tagVersionPart(tag, prefix string) string {
	if prefix == "" {
		return trimVPrefix(tag)
	}
	return trimVPrefix(trimPrefixDash(tag, prefix))
}

func trimVPrefix(s string) string {
	if len(s) > 0 && (s[0] == 'v' || s[0] == 'V') {
		return s[1:]
	}
	return s
}

func trimPrefixDash(s, prefix string) string {
	p := prefix + "-"
	if len(s) >= len(p) && s[:len(p)] == p {
		return s[len(p):]
	}
	return s
}

// Latest returns the most recent tag for a project.
func (o *OldTags) Latest(id config.ProjectId) (string, bool) {
	tags, ok := o.byProj[id]
	if !ok || len(tags) == 0 {
		return "", false
	}
	return tags[0], true
}

// NotAfter returns the most recent tag for a project no later than commit
// boundary.
func (o *OldTags) NotAfter(id config.ProjectId, boundary string) (string, bool) {
	idx, ok := o.notAfter[id][boundary]
	if !ok {
		return "", false
	}
	tags := o.byProj[id]
	if idx < 0 || idx >= len(tags) {
		return "", false
	}
	return tags[idx], true
}

// SliceEarlier returns a new index as seen from an earlier commit newOid: for
// each project, a Latest() call on the result equals this index's
// NotAfter(id, newOid).
func (o *OldTags) SliceEarlier(newOid string) (*OldTags, error) {
	byProj := map[config.ProjectId][]string{}
	notAfter := map[config.ProjectId]map[string]int{}

	for id, afts := range o.notAfter {
		idx, ok := afts[newOid]
		if !ok {
			continue
		}
		list, ok := o.byProj[id]
		if !ok {
			return nil, fmt.Errorf("illegal project %d oid for %s: %w", id, newOid, verrors.ErrRepo)
		}
		if idx < 0 || idx >= len(list) {
			return nil, fmt.Errorf("illegal project %d oid for %s: %w", id, newOid, verrors.ErrRepo)
		}
		byProj[id] = append([]string(nil), list[idx:]...)

		newAfts := map[string]int{}
		for oid, i := range afts {
			if i >= idx {
				newAfts[oid] = i - idx
			}
		}
		notAfter[id] = newAfts
	}

	return &OldTags{byProj: byProj, notAfter: notAfter}, nil
}
