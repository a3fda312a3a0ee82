package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/versio-mono/versio/internal/config"
	"github.com/versio-mono/versio/internal/verrors"
)

// PauseFileName is the process-wide lock file a paused release leaves
// behind; its presence refuses every command except resume/abort.
const PauseFileName = ".versio-paused"

// CommitState is the serialized form of a StateWrite buffer whose step 1
// (file writes) has already run, deferring steps 2-6 until resume.
type CommitState struct {
	PrevTag     string                     `json:"prev_tag"`
	Message     string                     `json:"message"`
	AuthorName  string                     `json:"author_name"`
	AuthorEmail string                     `json:"author_email"`
	Written     map[config.ProjectId]bool  `json:"written"`
	TagHead     []string                   `json:"tag_head"`
	TagCommit   []tagAtOidJSON             `json:"tag_commit"`
	TagLast     []tagLastJSON              `json:"tag_last"`
	LastCommits map[config.ProjectId]string `json:"last_commits"`
}

type tagAtOidJSON struct {
	Tag string `json:"tag"`
	Oid string `json:"oid"`
}

type tagLastJSON struct {
	Tag string         `json:"tag"`
	Id  config.ProjectId `json:"id"`
}

// Pause applies step 1 (every staged file write) and then serializes the
// remaining steps 2-6 to root/.versio-paused, failing if one already exists,
// per the "refuse concurrent releases" rule.
func Pause(root string, prevTag string, sw *StateWrite, lastCommits map[config.ProjectId]string) error {
	path := filepath.Join(root, PauseFileName)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("pause file %s already exists: %w", path, verrors.ErrPauseFileExists)
	}

	for _, w := range sw.writes {
		if err := sw.applyWrite(w); err != nil {
			return err
		}
	}

	cs := CommitState{
		PrevTag:     prevTag,
		Message:     sw.Message,
		AuthorName:  sw.AuthorName,
		AuthorEmail: sw.AuthorEmail,
		Written:     sw.written,
		LastCommits: lastCommits,
	}
	cs.TagHead = append(cs.TagHead, sw.tagHead...)
	for _, tc := range sw.tagCommit {
		cs.TagCommit = append(cs.TagCommit, tagAtOidJSON{Tag: tc.tag, Oid: tc.oid})
	}
	for _, tl := range sw.tagLast {
		cs.TagLast = append(cs.TagLast, tagLastJSON{Tag: tl.tag, Id: tl.id})
	}

	data, err := json.MarshalIndent(cs, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing pause state: %w: %v", verrors.ErrIO, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w: %v", path, verrors.ErrIO, err)
	}
	return nil
}

// PauseFileExists reports whether a pause file is present at root, used by
// every command's entry guard.
func PauseFileExists(root string) bool {
	_, err := os.Stat(filepath.Join(root, PauseFileName))
	return err == nil
}

// LoadPause reads and parses the pause file at root.
func LoadPause(root string) (*CommitState, error) {
	path := filepath.Join(root, PauseFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("no pause file at %s: %w: %v", path, verrors.ErrPauseFileMissing, err)
	}
	var cs CommitState
	if err := json.Unmarshal(data, &cs); err != nil {
		return nil, fmt.Errorf("parsing pause file %s: %w: %v", path, verrors.ErrIO, err)
	}
	return &cs, nil
}

// Resume re-plays steps 2-6 of StateWrite.commit (step 1's writes are
// already on disk from the original Pause call) and removes the pause file
// on success.
func Resume(root string, repo TagCommitter) (*CommitState, error) {
	cs, err := LoadPause(root)
	if err != nil {
		return nil, err
	}

	if len(cs.Written) > 0 {
		if err := repo.Commit(cs.Message, cs.AuthorName, cs.AuthorEmail); err != nil {
			return nil, err
		}
	}

	for _, tag := range cs.TagHead {
		if err := repo.UpdateTagHead(tag); err != nil {
			return nil, err
		}
	}

	for _, tl := range cs.TagLast {
		if cs.Written[tl.Id] {
			if err := repo.UpdateTagHead(tl.Tag); err != nil {
				return nil, err
			}
			continue
		}
		if oid, ok := cs.LastCommits[tl.Id]; ok {
			if err := repo.UpdateTag(tl.Tag, oid); err != nil {
				return nil, err
			}
			continue
		}
		if err := repo.UpdateTagHead(tl.Tag); err != nil {
			return nil, err
		}
	}

	for _, tc := range cs.TagCommit {
		if err := repo.UpdateTag(tc.Tag, tc.Oid); err != nil {
			return nil, err
		}
	}

	if err := repo.UpdateTagHead(cs.PrevTag); err != nil {
		return nil, err
	}

	if err := Abort(root); err != nil {
		return nil, err
	}
	return cs, nil
}

// Abort removes the pause file without applying any further state, used by
// the `abort` command and by a successful resume.
func Abort(root string) error {
	path := filepath.Join(root, PauseFileName)
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("removing %s: %w: %v", path, verrors.ErrPauseFileMissing, err)
	}
	return nil
}
