package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/versio-mono/versio/internal/config"
)

func TestPauseRefusesIfAlreadyPaused(t *testing.T) {
	dir := t.TempDir()
	repo := &fakeTagCommitter{}
	sw := NewStateWrite(dir, repo)
	sw.QueueTagHead("app-v1.0.0")

	require.NoError(t, Pause(dir, "versio-prev", sw, nil))
	assert.True(t, PauseFileExists(dir))

	err := Pause(dir, "versio-prev", sw, nil)
	assert.Error(t, err)
}

func TestPauseResumeRoundTrip(t *testing.T) {
	dir := t.TempDir()
	repo := &fakeTagCommitter{}
	sw := NewStateWrite(dir, repo)
	sw.written[1] = true
	sw.QueueTagHead("app-v1.1.0")
	sw.QueueTagHeadOrLast("lib-v0.2.0", 2)
	sw.QueueTagCommit("fixed-v1.0.0", "deadbeef")

	lastCommits := map[config.ProjectId]string{2: "c9"}
	require.NoError(t, Pause(dir, "versio-prev", sw, lastCommits))

	cs, err := LoadPause(dir)
	require.NoError(t, err)
	assert.Equal(t, "versio-prev", cs.PrevTag)
	assert.True(t, cs.Written[1])

	resumeRepo := &fakeTagCommitter{}
	result, err := Resume(dir, resumeRepo)
	require.NoError(t, err)
	assert.Equal(t, "versio-prev", result.PrevTag)

	require.Len(t, resumeRepo.calls, 5)
	assert.Equal(t, "commit:chore: release", resumeRepo.calls[0])
	assert.Equal(t, "head:app-v1.1.0", resumeRepo.calls[1])
	assert.Equal(t, "oid:lib-v0.2.0@c9", resumeRepo.calls[2])
	assert.Equal(t, "oid:fixed-v1.0.0@deadbeef", resumeRepo.calls[3])
	assert.Equal(t, "head:versio-prev", resumeRepo.calls[4])

	assert.False(t, PauseFileExists(dir))
}

func TestAbortRemovesPauseFile(t *testing.T) {
	dir := t.TempDir()
	repo := &fakeTagCommitter{}
	sw := NewStateWrite(dir, repo)
	sw.QueueTagHead("app-v1.0.0")
	require.NoError(t, Pause(dir, "versio-prev", sw, nil))

	require.NoError(t, Abort(dir))
	assert.False(t, PauseFileExists(dir))
}

func TestLoadPauseMissingErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadPause(dir)
	assert.Error(t, err)
}
