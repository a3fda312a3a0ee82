package size

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/versio-mono/versio/internal/verrors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Size
	}{
		{"major", Major},
		{"minor", Minor},
		{"patch", Patch},
		{"none", None},
		{"fail", Fail},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := Parse("bogus")
	assert.ErrorIs(t, err, verrors.ErrManifestInvalid)
}

func TestOrdering(t *testing.T) {
	assert.True(t, Fail > Major)
	assert.True(t, Major > Minor)
	assert.True(t, Minor > Patch)
	assert.True(t, Patch > None)
}

func TestMax(t *testing.T) {
	assert.Equal(t, Major, Max(Major, Minor))
	assert.Equal(t, Major, Max(Minor, Major))
	assert.Equal(t, None, Max(None, None))
}

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion("1.2.3")
	require.NoError(t, err)
	assert.Equal(t, Version{Major: 1, Minor: 2, Patch: 3}, v)
	assert.Equal(t, "1.2.3", v.String())

	_, err = ParseVersion("1.2")
	assert.ErrorIs(t, err, verrors.ErrVersionParse)

	_, err = ParseVersion("a.b.c")
	assert.ErrorIs(t, err, verrors.ErrVersionParse)
}

func TestVersionOrdering(t *testing.T) {
	v1 := Version{Major: 1, Minor: 0, Patch: 0}
	v2 := Version{Major: 1, Minor: 1, Patch: 0}
	assert.True(t, v1.LessThan(v2))
	assert.True(t, v2.GreaterThan(v1))
	assert.True(t, v1.Equal(v1))
}

func TestApply(t *testing.T) {
	v := Version{Major: 1, Minor: 2, Patch: 3}

	major, err := Major.Apply(v)
	require.NoError(t, err)
	assert.Equal(t, Version{Major: 2, Minor: 0, Patch: 0}, major)

	minor, err := Minor.Apply(v)
	require.NoError(t, err)
	assert.Equal(t, Version{Major: 1, Minor: 3, Patch: 0}, minor)

	patch, err := Patch.Apply(v)
	require.NoError(t, err)
	assert.Equal(t, Version{Major: 1, Minor: 2, Patch: 4}, patch)

	none, err := None.Apply(v)
	require.NoError(t, err)
	assert.Equal(t, v, none)

	_, err = Fail.Apply(v)
	assert.ErrorIs(t, err, verrors.ErrSizeFail)
}

func TestLessThanStrings(t *testing.T) {
	less, err := LessThan("1.0.0", "1.0.1")
	require.NoError(t, err)
	assert.True(t, less)

	less, err = LessThan("2.0.0", "1.9.9")
	require.NoError(t, err)
	assert.False(t, less)
}

func TestApplyString(t *testing.T) {
	out, err := ApplyString(Minor, "1.2.3")
	require.NoError(t, err)
	assert.Equal(t, "1.3.0", out)
}
