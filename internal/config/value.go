package config

import (
	"fmt"
	"path"
	"strings"

	"github.com/versio-mono/versio/internal/verrors"
)

// OldTagsReader is the narrow view of the OldTags index a Project needs to
// resolve a TagLocation's current value, kept local to avoid an import cycle
// with internal/oldtags.
type OldTagsReader interface {
	Latest(id ProjectId) (string, bool)
}

// FilePath returns the project-root-joined path to the located file, or ""
// if this project is tag-located.
func (p *Project) FilePath() string {
	if p.Located.File == nil {
		return ""
	}
	if p.Root == "" {
		return p.Located.File.FilePath
	}
	return path.Join(p.Root, p.Located.File.FilePath)
}

// GetValue reads the project's current version, either from its file (via
// the Picker) or, for a TagLocation, from the latest old tag bearing this
// project's tag_prefix -- resolving the source's `TagLocation::get_mark_value`
// stub per the documented interpretation: "return latest(project_id)
// stripped of any prefix, else error."
func (p *Project) GetValue(src Source, tags OldTagsReader) (string, error) {
	if p.Located.File != nil {
		data, err := src.ReadFile(p.FilePath())
		if err != nil {
			return "", fmt.Errorf("no file at %s: %w", p.FilePath(), err)
		}
		mark, err := p.Located.File.Picker.Find(data)
		if err != nil {
			return "", fmt.Errorf("can't mark %s: %w", p.FilePath(), err)
		}
		return mark.Value, nil
	}

	tag, ok := tags.Latest(p.Id)
	if !ok {
		return "", fmt.Errorf("no tag found for project %d: %w", p.Id, verrors.ErrPickerNotFound)
	}
	return stripTagPrefix(tag, p.TagPrefix), nil
}

func stripTagPrefix(tag, prefix string) string {
	var withoutPrefix string
	if prefix == "" {
		withoutPrefix = tag
	} else {
		withoutPrefix = strings.TrimPrefix(tag, prefix+"-")
	}
	return strings.TrimPrefix(withoutPrefix, "v")
}

// TagName builds the Git tag name this project uses for version val, per its
// tag_prefix ("" => "vM.m.p", else "{prefix}-vM.m.p").
func (p *Project) TagName(val string) string {
	if p.TagPrefix == "" {
		return "v" + val
	}
	return p.TagPrefix + "-v" + val
}
