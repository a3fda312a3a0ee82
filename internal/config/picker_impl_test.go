package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONPickerFind(t *testing.T) {
	p := &jsonPicker{path: "package.version"}
	data := `{"package": {"name": "thing", "version": "1.2.3"}}`

	mark, err := p.Find(data)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", mark.Value)
	assert.Equal(t, "1.2.3", data[mark.Start:mark.Start+len(mark.Value)])
}

func TestTOMLPickerFind(t *testing.T) {
	p := &tomlPicker{path: "package.version"}
	data := "[package]\nname = \"thing\"\nversion = \"1.2.3\"\n"

	mark, err := p.Find(data)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", mark.Value)
}

func TestYAMLPickerFind(t *testing.T) {
	p := &yamlPicker{path: "package.version"}
	data := "package:\n  name: thing\n  version: 1.2.3\n"

	mark, err := p.Find(data)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", mark.Value)
	assert.Equal(t, "1.2.3", data[mark.Start:mark.Start+len(mark.Value)])
}

func TestXMLPickerFind(t *testing.T) {
	p := &xmlPicker{path: "project.version"}
	data := "<project><name>thing</name><version>1.2.3</version></project>"

	mark, err := p.Find(data)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", mark.Value)
	assert.Equal(t, "1.2.3", data[mark.Start:mark.Start+len(mark.Value)])
}

func TestLinePickerFind(t *testing.T) {
	p := &linePicker{pattern: `version\s*=\s*"(\d+\.\d+\.\d+)"`}
	data := "some header\nversion = \"1.2.3\"\ntrailer\n"

	mark, err := p.Find(data)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", mark.Value)
}

func TestFilePickerFind(t *testing.T) {
	p := &filePicker{}
	mark, err := p.Find("1.2.3\n")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", mark.Value)
	assert.Equal(t, 0, mark.Start)
}

func TestMarkedDataWriteNewValue(t *testing.T) {
	p := &filePicker{}
	named := NamedData{Path: "VERSION", Data: "1.2.3\n"}

	marked, err := p.Scan(named)
	require.NoError(t, err)

	err = marked.WriteNewValue("1.3.0")
	require.NoError(t, err)
	assert.Equal(t, "1.3.0\n", marked.Data)
	assert.Equal(t, "1.3.0", marked.Value())
}

func TestNewMarkRejectsNonVersion(t *testing.T) {
	_, err := NewMark("not-a-version", 0)
	assert.Error(t, err)
}
