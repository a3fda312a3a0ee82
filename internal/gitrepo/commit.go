package gitrepo

import (
	"fmt"
	"regexp"
	"time"

	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/versio-mono/versio/internal/verrors"
)

// kindPattern extracts the conventional-commit type and optional breaking-
// change bang from a commit's summary line, e.g. "feat(api)!: add filter".
var kindPattern = regexp.MustCompile(`^(\w+)(?:\([^)]*\))?(!)?:`)

// Commit is the §6 Repo adapter's per-commit view: id, conventional-commit
// kind, summary, and touched files.
type Commit struct {
	repo  *Repo
	raw   *object.Commit
	files []string
}

func newCommit(r *Repo, c *object.Commit) *Commit {
	return &Commit{repo: r, raw: c}
}

// ID returns the commit's hex oid.
func (c *Commit) ID() string { return c.raw.Hash.String() }

// Summary returns the first line of the commit message.
func (c *Commit) Summary() string {
	for i, r := range c.raw.Message {
		if r == '\n' {
			return c.raw.Message[:i]
		}
	}
	return c.raw.Message
}

// Message returns the full commit message.
func (c *Commit) Message() string { return c.raw.Message }

// When returns the commit's author timestamp.
func (c *Commit) When() time.Time { return c.raw.Author.When }

// IsMerge reports whether this commit has more than one parent, the signal
// the best-guess change source uses to delimit a merge-committed PR's range.
func (c *Commit) IsMerge() bool { return c.raw.NumParents() > 1 }

// Kind returns the conventional-commit type token, with a trailing "!" if
// the commit declares a breaking change, or "" if the summary doesn't match
// the conventional-commit shape.
func (c *Commit) Kind() string {
	m := kindPattern.FindStringSubmatch(c.Summary())
	if m == nil {
		return ""
	}
	if m[2] == "!" {
		return m[1] + "!"
	}
	return m[1]
}

// Files returns the paths this commit touched, relative to its first parent
// (or, for a root commit, every path in its tree).
func (c *Commit) Files() ([]string, error) {
	if c.files != nil {
		return c.files, nil
	}

	tree, err := c.raw.Tree()
	if err != nil {
		return nil, fmt.Errorf("resolving tree for %s: %w: %v", c.ID(), verrors.ErrRepo, err)
	}

	if c.raw.NumParents() == 0 {
		var files []string
		walker := object.NewTreeWalker(tree, true, nil)
		defer walker.Close()
		for {
			name, _, err := walker.Next()
			if err != nil {
				break
			}
			files = append(files, name)
		}
		c.files = files
		return c.files, nil
	}

	parent, err := c.raw.Parent(0)
	if err != nil {
		return nil, fmt.Errorf("resolving parent of %s: %w: %v", c.ID(), verrors.ErrRepo, err)
	}
	parentTree, err := parent.Tree()
	if err != nil {
		return nil, fmt.Errorf("resolving parent tree of %s: %w: %v", c.ID(), verrors.ErrRepo, err)
	}

	changes, err := object.DiffTree(parentTree, tree)
	if err != nil {
		return nil, fmt.Errorf("diffing %s: %w: %v", c.ID(), verrors.ErrRepo, err)
	}

	files := make([]string, 0, len(changes))
	for _, ch := range changes {
		name := ch.To.Name
		if name == "" {
			name = ch.From.Name
		}
		files = append(files, name)
	}
	c.files = files
	return c.files, nil
}
