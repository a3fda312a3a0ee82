// Package mono binds the repo adapter, current state, OldTags index, and
// planner against a single on-disk repository, and exposes the
// plan/diff/set/forward/release/resume/abort operations the CLI drives.
package mono

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/versio-mono/versio/internal/changelog"
	"github.com/versio-mono/versio/internal/config"
	"github.com/versio-mono/versio/internal/gitrepo"
	"github.com/versio-mono/versio/internal/notes"
	"github.com/versio-mono/versio/internal/oldtags"
	"github.com/versio-mono/versio/internal/plan"
	"github.com/versio-mono/versio/internal/size"
	"github.com/versio-mono/versio/internal/state"
	"github.com/versio-mono/versio/internal/verrors"
)

// Mono is the façade a CLI command drives: one open repository, its current
// manifest, and the OldTags index built from it.
type Mono struct {
	Root    string
	Repo    *gitrepo.Repo
	Current *state.CurrentState
	Tags    *oldtags.OldTags

	Source changelog.ChangeSource
}

// githubTokenEnv is the environment variable that switches the change
// source from the local best-guess grouping to a hosted GitHub PR lookup.
const githubTokenEnv = "VERSIO_GITHUB_TOKEN"

// Open loads the repository at root, its current manifest, and builds the
// OldTags index by walking from HEAD back to the manifest's prev_tag. On
// any invocation, if a pause file exists, every entry point except Resume
// and Abort must refuse per the process-wide lock rule.
func Open(root string) (*Mono, error) {
	repo, err := gitrepo.Open(root)
	if err != nil {
		return nil, err
	}
	current, err := state.LoadCurrentState(root)
	if err != nil {
		return nil, err
	}
	tags, err := oldtags.Build(repo, current.Config.PrevTag(), current.Config.Projects)
	if err != nil {
		return nil, err
	}
	return &Mono{Root: root, Repo: repo, Current: current, Tags: tags, Source: defaultSource(repo)}, nil
}

// defaultSource picks GitHubSource when VERSIO_GITHUB_TOKEN is set and the
// origin remote can be resolved to a GitHub owner/repo pair, falling back to
// the local best-guess grouping otherwise.
func defaultSource(repo *gitrepo.Repo) changelog.ChangeSource {
	token := os.Getenv(githubTokenEnv)
	if token == "" {
		return changelog.BestGuessSource{}
	}
	owner, name, err := repo.RemoteOwnerRepo()
	if err != nil {
		log.Warnf("%s set but origin remote could not be resolved, falling back to local best-guess grouping: %v", githubTokenEnv, err)
		return changelog.BestGuessSource{}
	}
	return &changelog.GitHubSource{Owner: owner, Repo: name, Token: token}
}

// guardNotPaused refuses any operation other than Resume/Abort while a
// pause file is present.
func (m *Mono) guardNotPaused() error {
	if state.PauseFileExists(m.Root) {
		return fmt.Errorf("release is paused, run resume or abort: %w", verrors.ErrPauseFileExists)
	}
	return nil
}

// Plan runs the PlanBuilder over the configured change source's PR groups
// between the manifest's prev_tag and HEAD.
func (m *Mono) Plan() (*plan.Plan, error) {
	if err := m.guardNotPaused(); err != nil {
		return nil, err
	}
	changes, err := m.Source.Changes(m.Repo, "HEAD", m.Current.Config.PrevTag())
	if err != nil {
		return nil, err
	}
	builder := plan.NewBuilder(m.Repo, m.Current.Config, m.Current.Config.PrevTag())
	return builder.Build(changes)
}

// ProjectDiff is one project's current-vs-previous version comparison, used
// by the `diff` command.
type ProjectDiff struct {
	Id       config.ProjectId
	Name     string
	Previous string
	Current  string
	Changed  bool
}

// Diff annotates every project's current manifest value against its value
// in the PrevState slice at prev_tag.
func (m *Mono) Diff() ([]ProjectDiff, error) {
	if err := m.guardNotPaused(); err != nil {
		return nil, err
	}
	prev, err := state.SlicePrevState(m.Repo, m.Current.Config.PrevTag(), true)
	if err != nil {
		return nil, err
	}

	var diffs []ProjectDiff
	for _, p := range m.Current.Config.Projects {
		curVal, err := p.GetValue(m.Current.Source(), m.Tags)
		if err != nil {
			curVal = ""
		}
		var prevVal string
		if prevProj := prev.Config.Project(p.Id); prevProj != nil {
			prevVal, _ = prevProj.GetValue(prev.Source(), m.Tags)
		}
		diffs = append(diffs, ProjectDiff{
			Id: p.Id, Name: p.Name, Previous: prevVal, Current: curVal, Changed: prevVal != curVal,
		})
	}
	return diffs, nil
}

// SetById forces project id's version to val, queuing the write (or, for a
// tag-located project, just the tag) without computing a size from commits.
func (m *Mono) SetById(sw *state.StateWrite, id config.ProjectId, val string) error {
	if err := m.guardNotPaused(); err != nil {
		return err
	}
	p := m.Current.Config.Project(id)
	if p == nil {
		return fmt.Errorf("no project %d: %w", id, verrors.ErrNoSuchProject)
	}
	return m.writeProjectValue(sw, p, val)
}

// SetByName resolves name to a project id (allowing unambiguous substring
// match) and forces its version.
func (m *Mono) SetByName(sw *state.StateWrite, name, val string) error {
	id, err := m.Current.Config.FindUnique(name)
	if err != nil {
		return err
	}
	return m.SetById(sw, id, val)
}

// SetByOnly forces the sole project's version when the manifest declares
// exactly one, erroring otherwise.
func (m *Mono) SetByOnly(sw *state.StateWrite, val string) error {
	if len(m.Current.Config.Projects) != 1 {
		return fmt.Errorf("set requires exactly one project when no name is given: %w", verrors.ErrAmbiguousProject)
	}
	return m.SetById(sw, m.Current.Config.Projects[0].Id, val)
}

// ForwardById accepts the project's already-written current value as its
// release version without applying any size increment ("forward"
// semantics, §4.5).
func (m *Mono) ForwardById(sw *state.StateWrite, id config.ProjectId) error {
	if err := m.guardNotPaused(); err != nil {
		return err
	}
	p := m.Current.Config.Project(id)
	if p == nil {
		return fmt.Errorf("no project %d: %w", id, verrors.ErrNoSuchProject)
	}
	curVal, err := p.GetValue(m.Current.Source(), m.Tags)
	if err != nil {
		return err
	}
	return m.writeProjectValue(sw, p, curVal)
}

// writeProjectValue stages val as project p's release version. If val equals
// the value already on disk (the §4.5 "forward" case: the file is already at
// or ahead of the computed target, or an explicit set/forward reasserts the
// current value), the file is left untouched and the tag is queued as
// tag_head_or_last so it lands on the project's last-touching commit rather
// than being pulled onto HEAD; otherwise the file is rewritten and the tag is
// queued unconditionally at HEAD.
func (m *Mono) writeProjectValue(sw *state.StateWrite, p *config.Project, val string) error {
	curVal, err := p.GetValue(m.Current.Source(), m.Tags)
	if err != nil {
		curVal = ""
	}
	if versionsEqual(val, curVal) {
		sw.QueueTagHeadOrLast(p.TagName(val), p.Id)
		return nil
	}
	if p.Located.File != nil {
		sw.QueueMarkWrite(state.PickPath{File: p.FilePath(), Picker: p.Located.File.Picker}, val, p.Id)
	}
	sw.QueueTagHead(p.TagName(val))
	return nil
}

// versionsEqual compares two dotted-triple versions structurally when both
// parse, falling back to a literal string match otherwise, so that e.g.
// "1.2.0" and "1.2.0\n"-trimmed values compare equal regardless of
// incidental formatting differences.
func versionsEqual(a, b string) bool {
	if a == b {
		return true
	}
	va, errA := size.ParseVersion(a)
	vb, errB := size.ParseVersion(b)
	if errA != nil || errB != nil {
		return false
	}
	return va.Equal(vb)
}

// ReleaseOptions controls a release: whether all projects (including those
// with no computed increment) are tagged, whether writes are suppressed,
// and whether the release pauses after step 1 for manual inspection.
type ReleaseOptions struct {
	All   bool
	Dry   bool
	Pause bool
}

// ReleaseResult summarizes one release invocation's per-project outcome.
type ReleaseResult struct {
	Versions map[config.ProjectId]string
	Paused   bool
}

// Release drives the full pipeline: plan, compute each project's target
// version per §4.5's forward/new-project rules, write changelogs and
// version files, find last-touching commits for untouched projects, and
// commit+tag atomically -- or, if Pause is set, serialize the in-flight
// state and defer steps 2-6 until Resume.
func (m *Mono) Release(opts ReleaseOptions) (*ReleaseResult, error) {
	if err := m.guardNotPaused(); err != nil {
		return nil, err
	}

	p, err := m.Plan()
	if err != nil {
		return nil, err
	}

	prev, err := state.SlicePrevState(m.Repo, m.Current.Config.PrevTag(), true)
	if err != nil {
		return nil, err
	}

	sw := state.NewStateWrite(m.Root, m.Repo)
	result := &ReleaseResult{Versions: map[config.ProjectId]string{}}

	for _, proj := range m.Current.Config.Projects {
		incr, ok := p.Incrs[proj.Id]
		if !ok {
			continue
		}
		if incr.Size == size.None && !opts.All {
			continue
		}
		if incr.Size == size.Fail {
			return nil, fmt.Errorf("project %s computed a failing size: %w", proj.Name, verrors.ErrSizeFail)
		}

		target, err := m.targetVersion(proj, prev, incr)
		if err != nil {
			return nil, err
		}
		result.Versions[proj.Id] = target

		if opts.Dry {
			continue
		}

		if proj.ChangeLog() != "" && len(incr.ChangeLog) > 0 {
			section := notes.Render(target, incr.ChangeLog)
			existing := ""
			if m.Current.Source().Exists(proj.ChangeLog()) {
				existing, _ = m.Current.Source().ReadFile(proj.ChangeLog())
			}
			sw.QueueFileWrite(proj.ChangeLog(), notes.Prepend(existing, section), proj.Id)
		}

		if err := m.writeProjectValue(sw, proj, target); err != nil {
			return nil, err
		}
	}

	if opts.Dry {
		return result, nil
	}

	lastCommits, err := plan.FindLastCommits(m.Repo, m.Current.Config, m.Current.Config.PrevTag())
	if err != nil {
		return nil, err
	}

	if opts.Pause {
		if err := state.Pause(m.Root, m.Current.Config.PrevTag(), sw, lastCommits); err != nil {
			return nil, err
		}
		result.Paused = true
		return result, nil
	}

	if err := sw.Commit(m.Current.Config.PrevTag(), lastCommits, func(f string, a ...any) { log.Warnf(f, a...) }); err != nil {
		return nil, err
	}

	return result, nil
}

// targetVersion computes the §4.5 release semantics: a brand new project
// (absent from the previous state, or with no readable previous value)
// accepts the current value as-is; otherwise apply the size to the previous
// version, use the result if it exceeds the current on-disk value, else
// forward the current value unchanged if it already exceeds the previous
// one, else use the result.
func (m *Mono) targetVersion(proj *config.Project, prev *state.PrevState, incr *plan.Incr) (string, error) {
	curVal, err := proj.GetValue(m.Current.Source(), m.Tags)
	if err != nil {
		return "", err
	}
	curVer, err := size.ParseVersion(curVal)
	if err != nil {
		return "", err
	}

	prevProj := prev.Config.Project(proj.Id)
	if prevProj == nil {
		return curVer.String(), nil
	}
	prevVal, err := prevProj.GetValue(prev.Source(), m.Tags)
	if err != nil {
		return curVer.String(), nil
	}
	prevVer, err := size.ParseVersion(prevVal)
	if err != nil {
		return curVer.String(), nil
	}

	target, err := incr.Size.Apply(prevVer)
	if err != nil {
		return "", err
	}

	if curVer.LessThan(target) {
		return target.String(), nil
	}
	if curVer.GreaterThan(prevVer) {
		return curVer.String(), nil
	}
	return target.String(), nil
}

// Resume replays the deferred steps 2-6 of a paused release.
func (m *Mono) Resume() (*state.CommitState, error) {
	return state.Resume(m.Root, m.Repo)
}

// Abort discards a paused release without applying any of its deferred
// commit/tag steps.
func (m *Mono) Abort() error {
	return state.Abort(m.Root)
}

// ManifestPath is the absolute path to the repository's manifest file, used
// by the `info` command to report where it reads from.
func (m *Mono) ManifestPath() string {
	return filepath.Join(m.Root, config.ManifestFilename)
}
