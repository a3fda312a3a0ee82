// Package state implements the FilesRead/StateRead unification over the
// current working tree and historical commit slices, and the StateWrite
// staged write+commit+tag transaction.
package state

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/versio-mono/versio/internal/config"
	"github.com/versio-mono/versio/internal/gitrepo"
	"github.com/versio-mono/versio/internal/verrors"
)

// Slicer is the narrow Repo view StateRead needs to produce historical
// slices.
type Slicer interface {
	Slice(spec string) (*gitrepo.Slice, error)
}

// CurrentFiles backs config.Source with direct filesystem reads, used for
// the working tree.
type CurrentFiles struct {
	Root string
}

func (c CurrentFiles) ReadFile(path string) (string, error) {
	data, err := os.ReadFile(filepath.Join(c.Root, path))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w: %v", path, verrors.ErrIO, err)
	}
	return string(data), nil
}

func (c CurrentFiles) Exists(path string) bool {
	_, err := os.Stat(filepath.Join(c.Root, path))
	return err == nil
}

// PrevFiles backs config.Source with reads from a historical commit slice.
type PrevFiles struct {
	Slice *gitrepo.Slice
}

func (p PrevFiles) ReadFile(path string) (string, error) {
	return p.Slice.Blob(path)
}

func (p PrevFiles) Exists(path string) bool {
	return p.Slice.HasBlob(path)
}

// CurrentState loads the manifest and file contents from the live working
// tree.
type CurrentState struct {
	Root   string
	Config *config.ConfigFile
}

// LoadCurrentState reads and validates `.versio.yaml` from root.
func LoadCurrentState(root string) (*CurrentState, error) {
	cfg, err := config.Load(CurrentFiles{Root: root})
	if err != nil {
		return nil, err
	}
	return &CurrentState{Root: root, Config: cfg}, nil
}

func (c *CurrentState) Source() config.Source { return CurrentFiles{Root: c.Root} }

// PrevState is the manifest and file contents as of an earlier commit,
// sliced lazily and re-sliceable as the planner walks commit-by-commit.
type PrevState struct {
	repo   Slicer
	slice  *gitrepo.Slice
	Config *config.ConfigFile
}

// SlicePrevState slices the repository at spec (a tag, oid, or other
// revision) and loads the manifest as of that commit. If isElseNone is true
// and spec cannot be resolved, this returns a state with an empty manifest
// instead of an error -- the "no previous state" fallback for a missing
// baseline tag.
func SlicePrevState(repo Slicer, spec string, isElseNone bool) (*PrevState, error) {
	slice, err := repo.Slice(spec)
	if err != nil {
		if isElseNone {
			return &PrevState{repo: repo, Config: config.Empty()}, nil
		}
		return nil, err
	}
	cfg, err := config.Load(PrevFiles{Slice: slice})
	if err != nil {
		return nil, err
	}
	return &PrevState{repo: repo, slice: slice, Config: cfg}, nil
}

func (p *PrevState) Source() config.Source {
	if p.slice == nil {
		return emptySource{}
	}
	return PrevFiles{Slice: p.slice}
}

// Oid returns the commit this slice is anchored at, or "" if it represents
// the "no previous state" fallback.
func (p *PrevState) Oid() string {
	if p.slice == nil {
		return ""
	}
	return p.slice.Oid()
}

// Advance re-slices this PrevState at a new commit spec, as the planner
// walks a PR's commits from oldest to newest and needs the historical
// manifest to reflect each commit's own project definitions.
func (p *PrevState) Advance(spec string) (*PrevState, error) {
	return SlicePrevState(p.repo, spec, false)
}

type emptySource struct{}

func (emptySource) ReadFile(path string) (string, error) {
	return "", fmt.Errorf("no file %s in empty state: %w", path, verrors.ErrIO)
}
func (emptySource) Exists(string) bool { return false }

// PickPath names a version-bearing file and the picker that locates the
// value within it, used by a Mark-update FileWrite.
type PickPath struct {
	File   string
	Picker config.Picker
}

// FileWrite is one staged write: either a whole-file overwrite or a
// pick-and-replace-span update.
type FileWrite struct {
	Path      string
	ProjectId config.ProjectId

	isMark  bool
	content string
	pick    PickPath
	value   string
}

// TagCommitter is the narrow Repo view StateWrite needs to materialize a
// commit and move tags.
type TagCommitter interface {
	Commit(message, authorName, authorEmail string) error
	UpdateTagHead(tag string) error
	UpdateTag(tag, oid string) error
}

// StateWrite accumulates file writes and pending tag operations across a
// plan traversal, committing them atomically and in strict order exactly
// once.
type StateWrite struct {
	root      string
	repo      TagCommitter
	writes    []FileWrite
	written   map[config.ProjectId]bool
	tagHead   []string
	tagCommit []tagAtOid
	tagLast   []tagLast

	AuthorName  string
	AuthorEmail string
	Message     string
}

type tagAtOid struct {
	tag string
	oid string
}

type tagLast struct {
	tag string
	id  config.ProjectId
}

// NewStateWrite returns an empty write buffer rooted at root, backed by repo
// for the commit+tag operations.
func NewStateWrite(root string, repo TagCommitter) *StateWrite {
	return &StateWrite{
		root:        root,
		repo:        repo,
		written:     map[config.ProjectId]bool{},
		AuthorName:  "versio",
		AuthorEmail: "versio@localhost",
		Message:     "chore: release",
	}
}

// QueueFileWrite stages a whole-file overwrite for project id.
func (s *StateWrite) QueueFileWrite(path, content string, id config.ProjectId) {
	s.writes = append(s.writes, FileWrite{Path: path, ProjectId: id, content: content})
	s.written[id] = true
}

// QueueMarkWrite stages a read-then-replace-span update for project id.
func (s *StateWrite) QueueMarkWrite(pick PickPath, value string, id config.ProjectId) {
	s.writes = append(s.writes, FileWrite{Path: pick.File, ProjectId: id, isMark: true, pick: pick, value: value})
	s.written[id] = true
}

// QueueTagHead stages a tag that unconditionally moves to the release
// commit.
func (s *StateWrite) QueueTagHead(tag string) {
	s.tagHead = append(s.tagHead, tag)
}

// QueueTagCommit stages a tag that moves to a specific, already-known oid.
func (s *StateWrite) QueueTagCommit(tag, oid string) {
	s.tagCommit = append(s.tagCommit, tagAtOid{tag: tag, oid: oid})
}

// QueueTagHeadOrLast stages a tag that moves to the release commit if
// project id was written in this release, else to its last-touching
// commit.
func (s *StateWrite) QueueTagHeadOrLast(tag string, id config.ProjectId) {
	s.tagLast = append(s.tagLast, tagLast{tag: tag, id: id})
}

// Commit executes the six-step ordered sequence: apply writes, commit if
// any occurred, apply tag_head, apply tag_head_or_last, apply tag_commit,
// and move prev_tag. lastCommits maps project id to the oid of its most
// recent touching commit, from LastCommitFinder, used to resolve
// tag_head_or_last for untouched projects.
func (s *StateWrite) Commit(prevTag string, lastCommits map[config.ProjectId]string, log func(format string, args ...any)) error {
	// Step 1: apply every file write in insertion order.
	wroteAny := false
	for _, w := range s.writes {
		if err := s.applyWrite(w); err != nil {
			return err
		}
		wroteAny = true
	}

	// Step 2: if any write occurred, create a single commit for all of it.
	if wroteAny {
		if err := s.repo.Commit(s.Message, s.AuthorName, s.AuthorEmail); err != nil {
			return err
		}
	}

	// Step 3: unconditional tag_head, applied to the new HEAD.
	for _, tag := range s.tagHead {
		if err := s.repo.UpdateTagHead(tag); err != nil {
			return err
		}
	}

	// Step 4: tag_head_or_last.
	for _, tl := range s.tagLast {
		if s.written[tl.id] {
			if err := s.repo.UpdateTagHead(tl.tag); err != nil {
				return err
			}
			continue
		}
		if oid, ok := lastCommits[tl.id]; ok {
			if err := s.repo.UpdateTag(tl.tag, oid); err != nil {
				return err
			}
			continue
		}
		if log != nil {
			log("tagging %s at HEAD: no last-touching commit known for project %d", tl.tag, tl.id)
		}
		if err := s.repo.UpdateTagHead(tl.tag); err != nil {
			return err
		}
	}

	// Step 5: tag_commit at a specific oid.
	for _, tc := range s.tagCommit {
		if err := s.repo.UpdateTag(tc.tag, tc.oid); err != nil {
			return err
		}
	}

	// Step 6: move prev_tag unconditionally, last.
	if err := s.repo.UpdateTagHead(prevTag); err != nil {
		return err
	}

	return nil
}

func (s *StateWrite) applyWrite(w FileWrite) error {
	fullPath := filepath.Join(s.root, w.Path)
	if w.isMark {
		data, err := os.ReadFile(filepath.Join(s.root, w.pick.File))
		if err != nil {
			return fmt.Errorf("reading %s: %w: %v", w.pick.File, verrors.ErrIO, err)
		}
		marked, err := w.pick.Picker.Scan(config.NamedData{Path: w.pick.File, Data: string(data)})
		if err != nil {
			return err
		}
		if err := marked.WriteNewValue(w.value); err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(s.root, w.pick.File), []byte(marked.Data), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w: %v", w.pick.File, verrors.ErrIO, err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w: %v", w.Path, verrors.ErrIO, err)
	}
	if err := os.WriteFile(fullPath, []byte(w.content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w: %v", w.Path, verrors.ErrIO, err)
	}
	return nil
}

// NormalizeRel strips a leading "./" the way config.Project.Covers does,
// keeping StateWrite's path handling consistent with coverage matching.
func NormalizeRel(p string) string {
	return strings.TrimPrefix(p, "./")
}
