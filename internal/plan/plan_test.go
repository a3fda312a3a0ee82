package plan

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/versio-mono/versio/internal/changelog"
	"github.com/versio-mono/versio/internal/config"
	"github.com/versio-mono/versio/internal/gitrepo"
	"github.com/versio-mono/versio/internal/size"
)

const testManifest = `
options:
  prev_tag: versio-prev
sizes:
  use_angular: true
projects:
  - name: app
    id: 1
    includes: ["app/**"]
    located: {file: app/VERSION}
  - name: lib
    id: 2
    includes: ["lib/**"]
    located: {file: lib/VERSION}
    depends: [1]
`

// buildPlanRepo creates a repo with a baseline tag, then a feature commit
// touching only app/ and a fix commit touching only lib/.
func buildPlanRepo(t *testing.T) string {
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

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "app"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "lib"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".versio.yaml"), []byte(testManifest), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app", "VERSION"), []byte("1.0.0\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib", "VERSION"), []byte("1.0.0\n"), 0o644))
	run("add", ".")
	run("commit", "-m", "chore: initial")
	run("tag", "versio-prev")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "app", "main.go"), []byte("package main\n"), 0o644))
	run("add", ".")
	run("commit", "-m", "feat: add app entrypoint")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib", "helper.go"), []byte("package lib\n"), 0o644))
	run("add", ".")
	run("commit", "-m", "fix: add lib helper")

	return dir
}

func TestBuildComputesPerProjectSizeAndPropagation(t *testing.T) {
	dir := buildPlanRepo(t)
	r, err := gitrepo.Open(dir)
	require.NoError(t, err)

	cfg, err := config.Read(testManifest)
	require.NoError(t, err)

	head, err := r.RevparseOid("HEAD")
	require.NoError(t, err)
	base, err := r.RevparseOid("versio-prev")
	require.NoError(t, err)

	src := changelog.BestGuessSource{}
	changes, err := src.Changes(r, head, base)
	require.NoError(t, err)

	builder := NewBuilder(r, cfg, "versio-prev")
	p, err := builder.Build(changes)
	require.NoError(t, err)

	appIncr := p.Incrs[1]
	require.NotNil(t, appIncr)
	assert.Equal(t, size.Minor, appIncr.Size)

	// lib only gets a direct "fix" commit (patch), but depends on app, whose
	// minor increment must propagate and win under Max.
	libIncr := p.Incrs[2]
	require.NotNil(t, libIncr)
	assert.Equal(t, size.Minor, libIncr.Size)
}

func TestFindLastCommits(t *testing.T) {
	dir := buildPlanRepo(t)
	r, err := gitrepo.Open(dir)
	require.NoError(t, err)

	cfg, err := config.Read(testManifest)
	require.NoError(t, err)

	lastCommits, err := FindLastCommits(r, cfg, "versio-prev")
	require.NoError(t, err)

	require.Contains(t, lastCommits, config.ProjectId(1))
	require.Contains(t, lastCommits, config.ProjectId(2))
	assert.NotEmpty(t, lastCommits[1])
	assert.NotEmpty(t, lastCommits[2])
}
