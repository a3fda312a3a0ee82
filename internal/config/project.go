package config

import (
	"fmt"
	"path"
	"strings"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"

	"github.com/versio-mono/versio/internal/verrors"
)

// Project is a single versioned unit within the manifest.
type Project struct {
	Name          string      `yaml:"name"`
	Id            ProjectId   `yaml:"id"`
	Root          string      `yaml:"root"`
	Includes      []string    `yaml:"includes"`
	Excludes      []string    `yaml:"excludes"`
	Depends       []ProjectId `yaml:"depends"`
	ChangeLogPath string      `yaml:"change_log"`
	TagPrefix     string      `yaml:"tag_prefix"`
	Located       Location    `yaml:"located"`

	coverIncludes []glob.Glob
	coverExcludes []glob.Glob
}

// UnmarshalYAML lets Project compile its coverage globs once, right after
// decode, instead of lazily on every Covers call.
func (p *Project) UnmarshalYAML(node *yaml.Node) error {
	type plain Project
	var raw plain
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*p = Project(raw)
	return p.compileGlobs()
}

func (p *Project) compileGlobs() error {
	p.coverIncludes = nil
	p.coverExcludes = nil
	for _, pat := range p.Includes {
		for _, v := range superVariants(p.rootedPattern(pat)) {
			g, err := glob.Compile(v, '/')
			if err != nil {
				return fmt.Errorf("compiling include pattern %q for project %d: %w", pat, p.Id, verrors.ErrManifestInvalid)
			}
			p.coverIncludes = append(p.coverIncludes, g)
		}
	}
	for _, pat := range p.Excludes {
		for _, v := range superVariants(p.rootedPattern(pat)) {
			g, err := glob.Compile(v, '/')
			if err != nil {
				return fmt.Errorf("compiling exclude pattern %q for project %d: %w", pat, p.Id, verrors.ErrManifestInvalid)
			}
			p.coverExcludes = append(p.coverExcludes, g)
		}
	}
	return nil
}

// superVariants expands every "**/" path segment of pat into both its
// literal form and an empty one, so "**/" also matches zero directories
// ("a/**/*.go" covers "a/main.go" as well as "a/b/main.go").
func superVariants(pat string) []string {
	i := strings.Index(pat, "**/")
	if i < 0 {
		return []string{pat}
	}
	var out []string
	for _, rest := range superVariants(pat[i+3:]) {
		out = append(out, pat[:i+3]+rest)
		if i == 0 || pat[i-1] == '/' {
			out = append(out, pat[:i]+rest)
		}
	}
	return out
}

// rootedPattern joins a coverage glob with the project's root, if any.
func (p *Project) rootedPattern(pat string) string {
	if p.Root == "" {
		return pat
	}
	return path.Join(p.Root, pat)
}

// ChangeLog returns the project's changelog path, rooted if the project has
// a root.
func (p *Project) ChangeLog() string {
	if p.ChangeLogPath == "" {
		return ""
	}
	if p.Root == "" {
		return p.ChangeLogPath
	}
	return path.Join(p.Root, p.ChangeLogPath)
}

// Covers reports whether path is covered by this project: no exclude glob
// matches, and at least one include glob matches. All globs are rooted at
// the project's root and require literal path separators.
func (p *Project) Covers(filePath string) (bool, error) {
	clean := strings.TrimPrefix(filePath, "./")
	for _, g := range p.coverExcludes {
		if g.Match(clean) {
			return false, nil
		}
	}
	for _, g := range p.coverIncludes {
		if g.Match(clean) {
			return true, nil
		}
	}
	return false, nil
}

// CheckExcludes ensures the project never has excludes without includes; the
// manifest validator also runs this, but it is exposed for per-project
// `check` style callers.
func (p *Project) CheckExcludes() error {
	if len(p.Excludes) > 0 && len(p.Includes) == 0 {
		return fmt.Errorf("project %d has excludes, but no includes: %w", p.Id, verrors.ErrManifestInvalid)
	}
	return nil
}
