// Package gitrepo adapts github.com/go-git/go-git/v5 to the read-only Repo
// adapter contract the planner depends on, following the direct go-git usage
// patterns of the gotaglog teacher (PlainOpen, plumbing.Reference,
// object.NewCommitIterBSF, storer.ErrStop).
package gitrepo

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	log "github.com/sirupsen/logrus"

	"github.com/versio-mono/versio/internal/verrors"
)

// Repo is a read-mostly adapter over a single on-disk Git repository.
type Repo struct {
	repo *git.Repository
	path string
}

// Open opens the repository at path.
func Open(path string) (*Repo, error) {
	log.Debugf("opening repository at %q", path)
	r, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w: %v", path, verrors.ErrRepo, err)
	}
	return &Repo{repo: r, path: path}, nil
}

// BranchName returns the name of the currently checked-out branch.
func (r *Repo) BranchName() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolving HEAD: %w: %v", verrors.ErrRepo, err)
	}
	if !head.Name().IsBranch() {
		return "", fmt.Errorf("HEAD is detached: %w", verrors.ErrRepo)
	}
	return head.Name().Short(), nil
}

// ErrNotFound is returned by RevparseOid when the given rev cannot be
// resolved to a commit.
var ErrNotFound = fmt.Errorf("revision not found: %w", verrors.ErrRepo)

// RevparseOid resolves a tag name or revision spec to a commit hex oid.
func (r *Repo) RevparseOid(tagOrRev string) (string, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(tagOrRev))
	if err != nil {
		return "", ErrNotFound
	}
	commit, err := r.commitFromHash(*hash)
	if err != nil {
		return "", ErrNotFound
	}
	return commit.Hash.String(), nil
}

// commitFromHash dereferences an arbitrary object (tag, commit) hash down to
// the commit it denotes, exactly as gotaglog's getTagCommit does.
func (r *Repo) commitFromHash(hash plumbing.Hash) (*object.Commit, error) {
	if tag, err := r.repo.TagObject(hash); err == nil {
		return tag.Commit()
	}
	return r.repo.CommitObject(hash)
}

// TagNames returns tag short-names matching a shell-style glob (e.g.
// "v[0-9]*.[0-9]*.[0-9]*" or "myproj-v[0-9]*.[0-9]*.[0-9]*").
func (r *Repo) TagNames(globPattern string) ([]string, error) {
	re, err := globToRegexp(globPattern)
	if err != nil {
		return nil, err
	}

	tagsIter, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w: %v", verrors.ErrRepo, err)
	}

	var names []string
	err = tagsIter.ForEach(func(tag *plumbing.Reference) error {
		name := tag.Name().Short()
		if re.MatchString(name) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterating tags: %w: %v", verrors.ErrRepo, err)
	}
	sort.Strings(names)
	return names, nil
}

// globToRegexp converts the limited fnmatch-with-character-classes syntax
// used for tag globs (e.g. "v[[digit]].[[digit]].[[digit]]" from the source,
// simplified here to "v[0-9]*.[0-9]*.[0-9]*") into a regexp.
func globToRegexp(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '.':
			b.WriteString(`\.`)
		case '*':
			b.WriteString(`.*`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("compiling tag glob %q: %w", pattern, verrors.ErrRepo)
	}
	return re, nil
}

// WalkHeadTo walks commits from HEAD back to (but not including) the commit
// tagged by boundary, newest-first. Commits are visited in committer-time
// order, not a topological order, and the walk stops at the first commit
// equal to boundary, so commits visited after it are not returned. If
// boundary does not resolve, the whole history from HEAD is returned.
func (r *Repo) WalkHeadTo(boundary string) ([]string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolving HEAD: %w: %v", verrors.ErrRepo, err)
	}
	headCommit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("resolving HEAD commit: %w: %v", verrors.ErrRepo, err)
	}

	var boundaryHash plumbing.Hash
	hasBoundary := false
	if boundaryOid, err := r.RevparseOid(boundary); err == nil {
		boundaryHash = plumbing.NewHash(boundaryOid)
		hasBoundary = true
	}

	var oids []string
	iter, err := r.repo.Log(&git.LogOptions{From: headCommit.Hash, Order: git.LogOrderCommitterTime})
	if err != nil {
		return nil, fmt.Errorf("walking commits: %w: %v", verrors.ErrRepo, err)
	}
	err = iter.ForEach(func(c *object.Commit) error {
		if hasBoundary && c.Hash == boundaryHash {
			return storer.ErrStop
		}
		oids = append(oids, c.Hash.String())
		return nil
	})
	if err != nil && err != storer.ErrStop {
		return nil, fmt.Errorf("walking commits: %w: %v", verrors.ErrRepo, err)
	}
	return oids, nil
}

// Commit creates a single commit of all currently staged/modified changes in
// the worktree, on the current branch.
func (r *Repo) Commit(message string, authorName, authorEmail string) error {
	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("opening worktree: %w: %v", verrors.ErrRepo, err)
	}
	if _, err := wt.Add("."); err != nil {
		return fmt.Errorf("staging changes: %w: %v", verrors.ErrRepo, err)
	}
	_, err = wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{Name: authorName, Email: authorEmail, When: time.Now()},
	})
	if err != nil {
		return fmt.Errorf("committing: %w: %v", verrors.ErrRepo, err)
	}
	return nil
}

// UpdateTagHead moves (or creates) tag to point at the current HEAD.
func (r *Repo) UpdateTagHead(tag string) error {
	head, err := r.repo.Head()
	if err != nil {
		return fmt.Errorf("resolving HEAD: %w: %v", verrors.ErrRepo, err)
	}
	return r.UpdateTag(tag, head.Hash().String())
}

// UpdateTag moves (or creates) tag to point at oid.
func (r *Repo) UpdateTag(tag, oid string) error {
	ref := plumbing.NewHashReference(plumbing.NewTagReferenceName(tag), plumbing.NewHash(oid))
	if err := r.repo.Storer.SetReference(ref); err != nil {
		return fmt.Errorf("tagging %s at %s: %w: %v", tag, oid, verrors.ErrRepo, err)
	}
	return nil
}

// RemoteOwnerRepo parses the "owner/repo" pair out of the origin remote's
// URL, supporting both the SSH (git@host:owner/repo.git) and HTTPS
// (https://host/owner/repo.git) forms, so a hosted change source can target
// the right GitHub repository without a separate manifest-level setting.
func (r *Repo) RemoteOwnerRepo() (string, string, error) {
	remote, err := r.repo.Remote("origin")
	if err != nil {
		return "", "", fmt.Errorf("resolving origin remote: %w: %v", verrors.ErrRepo, err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", "", fmt.Errorf("origin remote has no URL: %w", verrors.ErrRepo)
	}
	return parseOwnerRepo(urls[0])
}

var remotePathRe = regexp.MustCompile(`[:/]([^/:]+)/([^/]+?)(?:\.git)?$`)

func parseOwnerRepo(url string) (string, string, error) {
	m := remotePathRe.FindStringSubmatch(url)
	if m == nil {
		return "", "", fmt.Errorf("parsing owner/repo from remote %q: %w", url, verrors.ErrRepo)
	}
	return m[1], m[2], nil
}

// Pull fast-forwards the current branch from its remote.
func (r *Repo) Pull() error {
	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("opening worktree: %w: %v", verrors.ErrRepo, err)
	}
	err = wt.Pull(&git.PullOptions{})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return fmt.Errorf("pulling: %w: %v", verrors.ErrRepo, err)
	}
	return nil
}

// CommitsBetween returns commits reachable from head but not from base,
// newest-first, mirroring gotaglog's getCommitsInRange. base and head may be
// any revision RevparseOid accepts (an oid, a tag name, "HEAD").
func (r *Repo) CommitsBetween(base, head string) ([]*Commit, error) {
	headOid, err := r.RevparseOid(head)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", head, err)
	}
	until, err := r.repo.CommitObject(plumbing.NewHash(headOid))
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w: %v", head, verrors.ErrRepo, err)
	}

	excluded := map[plumbing.Hash]bool{}
	if base != "" {
		baseOid, err := r.RevparseOid(base)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", base, err)
		}
		baseCommit, err := r.repo.CommitObject(plumbing.NewHash(baseOid))
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w: %v", base, verrors.ErrRepo, err)
		}
		excluded[baseCommit.Hash] = true
		baseIter := object.NewCommitIterBSF(baseCommit, nil, nil)
		err = baseIter.ForEach(func(c *object.Commit) error {
			excluded[c.Hash] = true
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking base ancestry: %w: %v", verrors.ErrRepo, err)
		}
	}

	var commits []*Commit
	untilIter := object.NewCommitIterBSF(until, nil, nil)
	err = untilIter.ForEach(func(c *object.Commit) error {
		if excluded[c.Hash] {
			return nil
		}
		commits = append(commits, newCommit(r, c))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking commits: %w: %v", verrors.ErrRepo, err)
	}
	return commits, nil
}

// CommitByOid loads a single commit wrapper by its hex oid.
func (r *Repo) CommitByOid(oid string) (*Commit, error) {
	c, err := r.repo.CommitObject(plumbing.NewHash(oid))
	if err != nil {
		return nil, fmt.Errorf("resolving commit %s: %w: %v", oid, verrors.ErrRepo, err)
	}
	return newCommit(r, c), nil
}

// Slice returns a read-only view of the repository as of the commit resolved
// from spec (a tag name, oid, or other revision).
func (r *Repo) Slice(spec string) (*Slice, error) {
	oid, err := r.RevparseOid(spec)
	if err != nil {
		return nil, err
	}
	commit, err := r.repo.CommitObject(plumbing.NewHash(oid))
	if err != nil {
		return nil, fmt.Errorf("resolving commit %s: %w: %v", oid, verrors.ErrRepo, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("resolving tree for %s: %w: %v", oid, verrors.ErrRepo, err)
	}
	return &Slice{repo: r, oid: oid, tree: tree}, nil
}

// SliceAtOid is Slice but for an already-resolved oid, used internally when
// re-slicing the planner's historical manifest cursor commit by commit.
func (r *Repo) SliceAtOid(oid string) (*Slice, error) {
	commit, err := r.repo.CommitObject(plumbing.NewHash(oid))
	if err != nil {
		return nil, fmt.Errorf("resolving commit %s: %w: %v", oid, verrors.ErrRepo, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("resolving tree for %s: %w: %v", oid, verrors.ErrRepo, err)
	}
	return &Slice{repo: r, oid: oid, tree: tree}, nil
}
