package gitrepo

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initTestRepo builds a small on-disk repository with two commits and a tag,
// skipping the test if the git binary isn't available.
func initTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Skipf("git %v unavailable: %v\n%s", args, err, out)
		}
	}

	run("init", "-b", "main")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "Test User")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "VERSION"), []byte("0.1.0\n"), 0o644))
	run("add", ".")
	run("commit", "-m", "feat: first release")
	run("tag", "v0.1.0")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.go"), []byte("package app\n"), 0o644))
	run("add", ".")
	run("commit", "-m", "fix: add app file")

	return dir
}

func TestOpenAndBranchName(t *testing.T) {
	dir := initTestRepo(t)
	r, err := Open(dir)
	require.NoError(t, err)

	branch, err := r.BranchName()
	require.NoError(t, err)
	assert.Equal(t, "main", branch)
}

func TestRevparseAndTagNames(t *testing.T) {
	dir := initTestRepo(t)
	r, err := Open(dir)
	require.NoError(t, err)

	oid, err := r.RevparseOid("v0.1.0")
	require.NoError(t, err)
	assert.Len(t, oid, 40)

	names, err := r.TagNames("v*.*.*")
	require.NoError(t, err)
	assert.Equal(t, []string{"v0.1.0"}, names)

	_, err = r.RevparseOid("does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWalkHeadTo(t *testing.T) {
	dir := initTestRepo(t)
	r, err := Open(dir)
	require.NoError(t, err)

	oids, err := r.WalkHeadTo("v0.1.0")
	require.NoError(t, err)
	assert.Len(t, oids, 1)

	all, err := r.WalkHeadTo("")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCommitAndUpdateTag(t *testing.T) {
	dir := initTestRepo(t)
	r, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "VERSION"), []byte("0.2.0\n"), 0o644))
	require.NoError(t, r.Commit("chore: release", "versio", "versio@localhost"))
	require.NoError(t, r.UpdateTagHead("v0.2.0"))

	tagOid, err := r.RevparseOid("v0.2.0")
	require.NoError(t, err)

	headOid, err := r.RevparseOid("HEAD")
	require.NoError(t, err)
	assert.Equal(t, headOid, tagOid)

	v1Oid, err := r.RevparseOid("v0.1.0")
	require.NoError(t, err)
	require.NoError(t, r.UpdateTag("v0.1.0-refixed", v1Oid))
	refixedOid, err := r.RevparseOid("v0.1.0-refixed")
	require.NoError(t, err)
	assert.Equal(t, v1Oid, refixedOid)
}

func TestCommitsBetweenAndSlice(t *testing.T) {
	dir := initTestRepo(t)
	r, err := Open(dir)
	require.NoError(t, err)

	baseOid, err := r.RevparseOid("v0.1.0")
	require.NoError(t, err)
	headOid, err := r.RevparseOid("HEAD")
	require.NoError(t, err)

	commits, err := r.CommitsBetween(baseOid, headOid)
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, "fix", commits[0].Kind())
	assert.Equal(t, "fix: add app file", commits[0].Summary())

	files, err := commits[0].Files()
	require.NoError(t, err)
	assert.Contains(t, files, "app.go")

	slice, err := r.Slice("v0.1.0")
	require.NoError(t, err)
	assert.True(t, slice.HasBlob("VERSION"))
	assert.False(t, slice.HasBlob("app.go"))

	data, err := slice.Blob("VERSION")
	require.NoError(t, err)
	assert.Equal(t, "0.1.0\n", data)
}
