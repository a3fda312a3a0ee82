package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/versio-mono/versio/internal/size"
	"github.com/versio-mono/versio/internal/verrors"
)

func TestReadMinimal(t *testing.T) {
	data := `
options:
  prev_tag: my-prev
projects:
  - name: app
    id: 1
    includes: ["**/*"]
    located:
      file: VERSION
`
	cf, err := Read(data)
	require.NoError(t, err)
	assert.Equal(t, "my-prev", cf.PrevTag())
	require.Len(t, cf.Projects, 1)
	assert.Equal(t, "app", cf.Projects[0].Name)
}

func TestReadDefaultsPrevTag(t *testing.T) {
	data := `
projects:
  - name: app
    id: 1
    includes: ["**/*"]
    located:
      file: VERSION
`
	cf, err := Read(data)
	require.NoError(t, err)
	assert.Equal(t, "versio-prev", cf.PrevTag())
}

func TestDuplicateIdRejected(t *testing.T) {
	data := `
projects:
  - name: a
    id: 1
    includes: ["a/**"]
    located: {file: a/VERSION}
  - name: b
    id: 1
    includes: ["b/**"]
    located: {file: b/VERSION}
`
	_, err := Read(data)
	assert.ErrorIs(t, err, verrors.ErrManifestInvalid)
}

func TestDuplicateNameRejected(t *testing.T) {
	data := `
projects:
  - name: a
    id: 1
    includes: ["a/**"]
    located: {file: a/VERSION}
  - name: a
    id: 2
    includes: ["b/**"]
    located: {file: b/VERSION}
`
	_, err := Read(data)
	assert.ErrorIs(t, err, verrors.ErrManifestInvalid)
}

func TestExcludesWithoutIncludesRejected(t *testing.T) {
	data := `
projects:
  - name: a
    id: 1
    excludes: ["a/vendor/**"]
    located: {file: a/VERSION}
`
	_, err := Read(data)
	assert.ErrorIs(t, err, verrors.ErrManifestInvalid)
}

func TestIllegalTagPrefixRejected(t *testing.T) {
	data := `
projects:
  - name: a
    id: 1
    tag_prefix: "9bad"
    includes: ["a/**"]
    located: {file: a/VERSION}
`
	_, err := Read(data)
	assert.ErrorIs(t, err, verrors.ErrManifestInvalid)
}

func TestCyclicDependsRejected(t *testing.T) {
	data := `
projects:
  - name: a
    id: 1
    includes: ["a/**"]
    depends: [2]
    located: {file: a/VERSION}
  - name: b
    id: 2
    includes: ["b/**"]
    depends: [1]
    located: {file: b/VERSION}
`
	_, err := Read(data)
	assert.ErrorIs(t, err, verrors.ErrManifestInvalid)
}

func TestAcyclicDependsAccepted(t *testing.T) {
	data := `
projects:
  - name: a
    id: 1
    includes: ["a/**"]
    located: {file: a/VERSION}
  - name: b
    id: 2
    includes: ["b/**"]
    depends: [1]
    located: {file: b/VERSION}
`
	cf, err := Read(data)
	require.NoError(t, err)
	assert.Len(t, cf.Projects, 2)
}

func TestFindUnique(t *testing.T) {
	data := `
projects:
  - name: frontend-app
    id: 1
    includes: ["a/**"]
    located: {file: a/VERSION}
  - name: backend-app
    id: 2
    includes: ["b/**"]
    located: {file: b/VERSION}
`
	cf, err := Read(data)
	require.NoError(t, err)

	id, err := cf.FindUnique("frontend")
	require.NoError(t, err)
	assert.Equal(t, ProjectId(1), id)

	_, err = cf.FindUnique("app")
	assert.ErrorIs(t, err, verrors.ErrAmbiguousProject)

	_, err = cf.FindUnique("nonexistent")
	assert.ErrorIs(t, err, verrors.ErrNoSuchProject)
}

func TestSizeAngularDefaults(t *testing.T) {
	data := `
sizes:
  use_angular: true
projects:
  - name: a
    id: 1
    includes: ["a/**"]
    located: {file: a/VERSION}
`
	cf, err := Read(data)
	require.NoError(t, err)

	s, err := cf.Size("feat")
	require.NoError(t, err)
	assert.Equal(t, size.Minor, s)

	s, err = cf.Size("fix")
	require.NoError(t, err)
	assert.Equal(t, size.Patch, s)
}

func TestSizeBreakingBang(t *testing.T) {
	data := `
sizes:
  minor: [feat]
projects:
  - name: a
    id: 1
    includes: ["a/**"]
    located: {file: a/VERSION}
`
	cf, err := Read(data)
	require.NoError(t, err)

	s, err := cf.Size("feat!")
	require.NoError(t, err)
	assert.Equal(t, size.Major, s)
}

func TestSizeWildcardFallback(t *testing.T) {
	data := `
sizes:
  patch: ["*"]
projects:
  - name: a
    id: 1
    includes: ["a/**"]
    located: {file: a/VERSION}
`
	cf, err := Read(data)
	require.NoError(t, err)

	s, err := cf.Size("whatever")
	require.NoError(t, err)
	assert.Equal(t, size.Patch, s)
}

func TestSizeUnknownKindErrors(t *testing.T) {
	data := `
projects:
  - name: a
    id: 1
    includes: ["a/**"]
    located: {file: a/VERSION}
`
	cf, err := Read(data)
	require.NoError(t, err)

	_, err = cf.Size("mystery")
	assert.ErrorIs(t, err, verrors.ErrUnknownCommitKind)
}

func TestProjectCovers(t *testing.T) {
	data := `
projects:
  - name: a
    id: 1
    root: services/a
    includes: ["**/*.go"]
    excludes: ["**/*_test.go"]
    located: {file: VERSION}
`
	cf, err := Read(data)
	require.NoError(t, err)
	p := cf.Project(1)

	covers, err := p.Covers("services/a/main.go")
	require.NoError(t, err)
	assert.True(t, covers)

	covers, err = p.Covers("services/a/main_test.go")
	require.NoError(t, err)
	assert.False(t, covers)

	covers, err = p.Covers("services/b/main.go")
	require.NoError(t, err)
	assert.False(t, covers)
}
