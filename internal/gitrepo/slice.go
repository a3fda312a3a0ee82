package gitrepo

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/versio-mono/versio/internal/verrors"
)

// Slice is a read-only view of the repository as of a single commit.
type Slice struct {
	repo *Repo
	oid  string
	tree *object.Tree
}

// Oid returns the commit oid this slice is anchored at.
func (s *Slice) Oid() string { return s.oid }

// HasBlob reports whether path exists in this slice's tree.
func (s *Slice) HasBlob(path string) bool {
	_, err := s.tree.File(cleanPath(path))
	return err == nil
}

// Blob returns the text content of path in this slice's tree.
func (s *Slice) Blob(path string) (string, error) {
	path = cleanPath(path)
	f, err := s.tree.File(path)
	if err != nil {
		return "", fmt.Errorf("no blob at %s in %s: %w: %v", path, s.oid, verrors.ErrRepo, err)
	}
	content, err := f.Contents()
	if err != nil {
		return "", fmt.Errorf("reading blob %s in %s: %w: %v", path, s.oid, verrors.ErrRepo, err)
	}
	return content, nil
}

// Subdirs lists the immediate child directory names under root (or the tree
// root if root is empty) whose name matches regex.
func (s *Slice) Subdirs(root, pattern string) ([]string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling subdirs pattern %q: %w", pattern, verrors.ErrRepo)
	}

	tree := s.tree
	if root != "" {
		tree, err = s.tree.Tree(root)
		if err != nil {
			return nil, fmt.Errorf("no directory %s in %s: %w: %v", root, s.oid, verrors.ErrRepo, err)
		}
	}

	var names []string
	for _, entry := range tree.Entries {
		if !entry.Mode.IsFile() && re.MatchString(entry.Name) {
			names = append(names, entry.Name)
		}
	}
	return names, nil
}

// Slice re-slices this view at an earlier or later commit spec, used as the
// planner walks commit-by-commit.
func (s *Slice) Slice(spec string) (*Slice, error) {
	return s.repo.Slice(spec)
}

func cleanPath(p string) string { return strings.TrimPrefix(p, "./") }
