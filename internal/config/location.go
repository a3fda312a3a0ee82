package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/versio-mono/versio/internal/verrors"
)

// Location is the untagged union of where a project's version lives: a file
// (read/written through a Picker) or a tag (version is read back out of the
// project's own tag_prefix history).
type Location struct {
	File *FileLocation
	Tag  *TagLocation
}

// UnmarshalYAML distinguishes FileLocation ("file:" key present) from
// TagLocation ("tags:" key present), mirroring the source's `#[serde(untagged)]`
// enum by inspecting which key is present rather than trying both variants.
func (l *Location) UnmarshalYAML(node *yaml.Node) error {
	var probe struct {
		File *string   `yaml:"file"`
		Tags yaml.Node `yaml:"tags"`
	}
	if err := node.Decode(&probe); err != nil {
		return fmt.Errorf("parsing located: %w: %v", verrors.ErrManifestParse, err)
	}

	if probe.File != nil {
		var fl FileLocation
		if err := node.Decode(&fl); err != nil {
			return fmt.Errorf("parsing file location: %w: %v", verrors.ErrManifestParse, err)
		}
		l.File = &fl
		return nil
	}

	if probe.Tags.Kind != 0 {
		var tl TagLocation
		if err := node.Decode(&tl); err != nil {
			return fmt.Errorf("parsing tag location: %w: %v", verrors.ErrManifestParse, err)
		}
		l.Tag = &tl
		return nil
	}

	return fmt.Errorf("located must be a file or tags location: %w", verrors.ErrManifestInvalid)
}

// FileLocation names a version-bearing file and how to find the value in it.
type FileLocation struct {
	FilePath string `yaml:"file"`
	Picker   Picker `yaml:",inline"`
}

// UnmarshalYAML decodes the file path and then hands the whole node to the
// Picker union so it can pick json/yaml/toml/xml/pattern/file style.
func (f *FileLocation) UnmarshalYAML(node *yaml.Node) error {
	var probe struct {
		File string `yaml:"file"`
	}
	if err := node.Decode(&probe); err != nil {
		return err
	}
	f.FilePath = probe.File

	picker, err := decodePicker(node)
	if err != nil {
		return err
	}
	f.Picker = picker
	return nil
}

// TagLocation means the project's version is read back out of its own
// tag_prefix history rather than a file. Resolves the source's open question
// (§9): get_mark_value returns the latest tag's version, stripped of prefix.
type TagLocation struct {
	DefaultTag string `yaml:"-"`
	MajorTag   int    `yaml:"-"`
}

func (t *TagLocation) UnmarshalYAML(node *yaml.Node) error {
	var spec struct {
		Tags struct {
			Default string `yaml:"default"`
			Major   *int   `yaml:"major"`
		} `yaml:"tags"`
	}
	if err := node.Decode(&spec); err != nil {
		return fmt.Errorf("parsing tag location: %w: %v", verrors.ErrManifestParse, err)
	}
	t.DefaultTag = spec.Tags.Default
	if spec.Tags.Major != nil {
		t.MajorTag = *spec.Tags.Major
	}
	return nil
}
