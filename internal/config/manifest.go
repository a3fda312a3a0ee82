// Package config implements the `.versio.yaml` manifest schema: projects,
// their version locations, coverage globs, the commit-kind → size table, and
// the validation (including dependency-cycle detection) the source repo left
// as a TODO.
package config

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/versio-mono/versio/internal/size"
	"github.com/versio-mono/versio/internal/verrors"
)

// ManifestFilename is the name of the manifest file at the repository root.
const ManifestFilename = ".versio.yaml"

// ProjectId is an opaque identifier, unique within a manifest and stable
// across renames.
type ProjectId int

// Source is the narrow read interface config needs from whichever state
// (current working tree or a historical slice) is loading it.
type Source interface {
	ReadFile(path string) (string, error)
	Exists(path string) bool
}

// Options holds manifest-wide settings.
type Options struct {
	PrevTag string `yaml:"prev_tag"`
}

// ConfigFile is the parsed, validated `.versio.yaml` manifest.
type ConfigFile struct {
	Options  Options            `yaml:"options"`
	Projects []*Project         `yaml:"projects"`
	Sizes    map[string]size.Size `yaml:"-"`
}

// rawConfigFile mirrors the on-disk shape before size-table post-processing.
type rawConfigFile struct {
	Options  *rawOptions `yaml:"options"`
	Projects []*Project  `yaml:"projects"`
	Sizes    yaml.Node   `yaml:"sizes"`
}

type rawOptions struct {
	PrevTag string `yaml:"prev_tag"`
}

var tagPrefixPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// Empty returns a manifest with no projects, the default prev_tag, and an
// empty size table -- used when no manifest file is present.
func Empty() *ConfigFile {
	return &ConfigFile{Options: Options{PrevTag: "versio-prev"}, Sizes: map[string]size.Size{}}
}

// Load reads and validates the manifest from src, or returns Empty() if the
// manifest file does not exist.
func Load(src Source) (*ConfigFile, error) {
	if !src.Exists(ManifestFilename) {
		return Empty(), nil
	}
	data, err := src.ReadFile(ManifestFilename)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", ManifestFilename, err)
	}
	return Read(data)
}

// Read parses and validates manifest YAML text.
func Read(data string) (*ConfigFile, error) {
	var raw rawConfigFile
	dec := yaml.NewDecoder(strings.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing manifest: %w: %v", verrors.ErrManifestParse, err)
	}

	cf := &ConfigFile{Projects: raw.Projects}
	if raw.Options != nil {
		cf.Options = Options{PrevTag: raw.Options.PrevTag}
	}
	if cf.Options.PrevTag == "" {
		cf.Options.PrevTag = "versio-prev"
	}

	sizes, err := deserializeSizes(raw.Sizes)
	if err != nil {
		return nil, err
	}
	cf.Sizes = sizes

	if err := cf.validate(); err != nil {
		return nil, err
	}
	return cf, nil
}

// PrevTag names the tag marking the last release.
func (c *ConfigFile) PrevTag() string { return c.Options.PrevTag }

// Project looks up a project by id.
func (c *ConfigFile) Project(id ProjectId) *Project {
	for _, p := range c.Projects {
		if p.Id == id {
			return p
		}
	}
	return nil
}

// FindUnique resolves a (possibly partial, via substring match) project name
// to a single project id, erroring if zero or more than one project matches.
func (c *ConfigFile) FindUnique(name string) (ProjectId, error) {
	var found []ProjectId
	for _, p := range c.Projects {
		if name == "" || strings.Contains(p.Name, name) {
			found = append(found, p.Id)
		}
	}
	if len(found) == 0 {
		return 0, fmt.Errorf("no project named %q: %w", name, verrors.ErrNoSuchProject)
	}
	if len(found) > 1 {
		return 0, fmt.Errorf("multiple projects named %q: %w", name, verrors.ErrAmbiguousProject)
	}
	return found[0], nil
}

// Size resolves a commit-kind token to a Size per the `!`-breaking and
// `*`-fallback rules.
func (c *ConfigFile) Size(kind string) (size.Size, error) {
	k := strings.TrimSpace(kind)
	if len(k) > 0 && k[len(k)-1] == '!' {
		return size.Major, nil
	}
	if s, ok := c.Sizes[k]; ok {
		return s, nil
	}
	if s, ok := c.Sizes["*"]; ok {
		return s, nil
	}
	return size.None, fmt.Errorf("unknown kind %q: %w", kind, verrors.ErrUnknownCommitKind)
}

// validate checks id/name/tag_prefix uniqueness, excludes-without-includes,
// legal tag_prefix, and (resolving the original's TODO) acyclicity of the
// depends graph.
func (c *ConfigFile) validate() error {
	ids := map[ProjectId]bool{}
	names := map[string]bool{}
	prefixes := map[string]bool{}

	for _, p := range c.Projects {
		if ids[p.Id] {
			return fmt.Errorf("id %d is duplicated: %w", p.Id, verrors.ErrManifestInvalid)
		}
		ids[p.Id] = true

		if names[p.Name] {
			return fmt.Errorf("name %s is duplicated: %w", p.Name, verrors.ErrManifestInvalid)
		}
		names[p.Name] = true

		if p.TagPrefix != "" {
			if prefixes[p.TagPrefix] {
				return fmt.Errorf("tag_prefix %s is duplicated: %w", p.TagPrefix, verrors.ErrManifestInvalid)
			}
			if !legalTagPrefix(p.TagPrefix) {
				return fmt.Errorf("illegal tag_prefix %q: %w", p.TagPrefix, verrors.ErrManifestInvalid)
			}
			prefixes[p.TagPrefix] = true
		}

		if len(p.Excludes) > 0 && len(p.Includes) == 0 {
			return fmt.Errorf("project %d has excludes but no includes: %w", p.Id, verrors.ErrManifestInvalid)
		}
	}

	if err := c.checkAcyclic(); err != nil {
		return err
	}

	return nil
}

func legalTagPrefix(prefix string) bool {
	return prefix == "" || tagPrefixPattern.MatchString(prefix)
}

// checkAcyclic runs a three-color DFS over the depends graph, failing with
// ErrManifestInvalid on any cycle.
func (c *ConfigFile) checkAcyclic() error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[ProjectId]int, len(c.Projects))
	for _, p := range c.Projects {
		color[p.Id] = white
	}

	var visit func(id ProjectId) error
	visit = func(id ProjectId) error {
		color[id] = gray
		proj := c.Project(id)
		if proj != nil {
			for _, dep := range proj.Depends {
				switch color[dep] {
				case gray:
					return fmt.Errorf("dependency cycle through project %d: %w", dep, verrors.ErrManifestInvalid)
				case white:
					if err := visit(dep); err != nil {
						return err
					}
				}
			}
		}
		color[id] = black
		return nil
	}

	for _, p := range c.Projects {
		if color[p.Id] == white {
			if err := visit(p.Id); err != nil {
				return err
			}
		}
	}
	return nil
}

func deserializeSizes(node yaml.Node) (map[string]size.Size, error) {
	result := map[string]size.Size{}
	if node.Kind == 0 {
		return result, nil
	}

	var raw map[string]yaml.Node
	if err := node.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parsing sizes: %w: %v", verrors.ErrManifestParse, err)
	}

	usingAngular := false
	for key, val := range raw {
		if key == "use_angular" {
			if err := val.Decode(&usingAngular); err != nil {
				return nil, fmt.Errorf("parsing use_angular: %w: %v", verrors.ErrManifestParse, err)
			}
			continue
		}
		s, err := size.Parse(key)
		if err != nil {
			return nil, fmt.Errorf("unrecognized sizes key %q: %w", key, verrors.ErrManifestInvalid)
		}
		var kinds []string
		if err := val.Decode(&kinds); err != nil {
			return nil, fmt.Errorf("parsing kinds for %q: %w: %v", key, verrors.ErrManifestParse, err)
		}
		for _, kind := range kinds {
			if _, dup := result[kind]; dup {
				return nil, fmt.Errorf("duplicated kind %q: %w", kind, verrors.ErrManifestInvalid)
			}
			result[kind] = s
		}
	}

	if usingAngular {
		insertIfMissing(result, "feat", size.Minor)
		insertIfMissing(result, "fix", size.Patch)
		insertIfMissing(result, "docs", size.None)
		insertIfMissing(result, "style", size.None)
		insertIfMissing(result, "refactor", size.None)
		insertIfMissing(result, "perf", size.None)
		insertIfMissing(result, "test", size.None)
		insertIfMissing(result, "chore", size.None)
		insertIfMissing(result, "build", size.None)
	}

	return result, nil
}

func insertIfMissing(m map[string]size.Size, key string, val size.Size) {
	if _, ok := m[key]; !ok {
		m[key] = val
	}
}
