package state

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/versio-mono/versio/internal/config"
)

func TestCurrentFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "VERSION"), []byte("1.2.3\n"), 0o644))

	cf := CurrentFiles{Root: dir}
	assert.True(t, cf.Exists("VERSION"))
	assert.False(t, cf.Exists("nope"))

	data, err := cf.ReadFile("VERSION")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3\n", data)

	_, err = cf.ReadFile("nope")
	assert.Error(t, err)
}

func TestLoadCurrentState(t *testing.T) {
	dir := t.TempDir()
	manifest := `
projects:
  - name: app
    id: 1
    includes: ["**/*"]
    located: {file: VERSION}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".versio.yaml"), []byte(manifest), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "VERSION"), []byte("1.0.0\n"), 0o644))

	cs, err := LoadCurrentState(dir)
	require.NoError(t, err)
	assert.Len(t, cs.Config.Projects, 1)

	src := cs.Source()
	assert.True(t, src.Exists("VERSION"))
}

// fakeTagCommitter is a minimal TagCommitter recording every operation in
// call order, letting StateWrite.Commit's step sequencing be asserted
// directly.
type fakeTagCommitter struct {
	calls   []string
	commits int
}

func (f *fakeTagCommitter) Commit(message, authorName, authorEmail string) error {
	f.commits++
	f.calls = append(f.calls, "commit:"+message)
	return nil
}

func (f *fakeTagCommitter) UpdateTagHead(tag string) error {
	f.calls = append(f.calls, "head:"+tag)
	return nil
}

func (f *fakeTagCommitter) UpdateTag(tag, oid string) error {
	f.calls = append(f.calls, fmt.Sprintf("oid:%s@%s", tag, oid))
	return nil
}

func TestStateWriteCommitOrdering(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "VERSION"), []byte("1.0.0\n"), 0o644))

	repo := &fakeTagCommitter{}
	sw := NewStateWrite(dir, repo)
	sw.QueueFileWrite("VERSION", "1.1.0\n", 1)
	sw.QueueTagHead("app-v1.1.0")
	sw.QueueTagHeadOrLast("lib-v0.2.0", 2)
	sw.QueueTagCommit("fixed-v1.0.0", "deadbeef")

	lastCommits := map[config.ProjectId]string{2: "c9"}
	err := sw.Commit("versio-prev", lastCommits, nil)
	require.NoError(t, err)

	require.Len(t, repo.calls, 5)
	assert.Equal(t, "commit:chore: release", repo.calls[0])
	assert.Equal(t, "head:app-v1.1.0", repo.calls[1])
	assert.Equal(t, "oid:lib-v0.2.0@c9", repo.calls[2])
	assert.Equal(t, "oid:fixed-v1.0.0@deadbeef", repo.calls[3])
	assert.Equal(t, "head:versio-prev", repo.calls[4])

	data, err := os.ReadFile(filepath.Join(dir, "VERSION"))
	require.NoError(t, err)
	assert.Equal(t, "1.1.0\n", string(data))
}

func TestStateWriteCommitSkippedWhenNoWrites(t *testing.T) {
	dir := t.TempDir()
	repo := &fakeTagCommitter{}
	sw := NewStateWrite(dir, repo)
	sw.QueueTagHead("app-v1.0.0")

	err := sw.Commit("versio-prev", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, repo.commits)
	require.Len(t, repo.calls, 2)
	assert.Equal(t, "head:app-v1.0.0", repo.calls[0])
	assert.Equal(t, "head:versio-prev", repo.calls[1])
}

func TestStateWriteTagHeadOrLastFallsBackToHead(t *testing.T) {
	dir := t.TempDir()
	repo := &fakeTagCommitter{}
	sw := NewStateWrite(dir, repo)
	sw.QueueTagHeadOrLast("untouched-v1.0.0", 3)

	var logged string
	err := sw.Commit("versio-prev", nil, func(format string, args ...any) {
		logged = fmt.Sprintf(format, args...)
	})
	require.NoError(t, err)

	assert.Contains(t, logged, "untouched-v1.0.0")
	assert.Equal(t, "head:untouched-v1.0.0", repo.calls[0])
}

func TestQueueMarkWriteUsesPicker(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "VERSION"), []byte("1.0.0\n"), 0o644))

	manifest := `
projects:
  - name: app
    id: 1
    includes: ["**/*"]
    located: {file: VERSION}
`
	cfg, err := config.Read(manifest)
	require.NoError(t, err)
	proj := cfg.Project(1)
	require.NotNil(t, proj)

	repo := &fakeTagCommitter{}
	sw := NewStateWrite(dir, repo)
	sw.QueueMarkWrite(PickPath{File: proj.Located.File.FilePath, Picker: proj.Located.File.Picker}, "2.0.0", 1)

	err = sw.Commit("versio-prev", nil, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "VERSION"))
	require.NoError(t, err)
	assert.Equal(t, "2.0.0\n", string(data))
}

func TestNormalizeRel(t *testing.T) {
	assert.Equal(t, "a/b.go", NormalizeRel("./a/b.go"))
	assert.Equal(t, "a/b.go", NormalizeRel("a/b.go"))
}
