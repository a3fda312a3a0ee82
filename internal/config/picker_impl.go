package config

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/versio-mono/versio/internal/verrors"
)

// decodePicker inspects a located-file YAML node for the picker-selecting
// key (json/yaml/toml/xml/pattern, or none for a whole-file picker) and
// builds the matching concrete Picker, mirroring the source's untagged
// `Picker` enum.
func decodePicker(node *yaml.Node) (Picker, error) {
	var probe struct {
		JSON    *string `yaml:"json"`
		YAML    *string `yaml:"yaml"`
		TOML    *string `yaml:"toml"`
		XML     *string `yaml:"xml"`
		Pattern *string `yaml:"pattern"`
	}
	if err := node.Decode(&probe); err != nil {
		return nil, fmt.Errorf("parsing picker: %w: %v", verrors.ErrManifestParse, err)
	}

	switch {
	case probe.JSON != nil:
		return &jsonPicker{path: *probe.JSON}, nil
	case probe.YAML != nil:
		return &yamlPicker{path: *probe.YAML}, nil
	case probe.TOML != nil:
		return &tomlPicker{path: *probe.TOML}, nil
	case probe.XML != nil:
		return &xmlPicker{path: *probe.XML}, nil
	case probe.Pattern != nil:
		return &linePicker{pattern: *probe.Pattern}, nil
	default:
		return &filePicker{}, nil
	}
}

func splitPath(path string) []string { return strings.Split(path, ".") }

// locateQuoted finds the byte offset of value immediately following key in a
// `"key"<sep>"value"`-shaped document (JSON or TOML), used because neither
// encoding/json nor go-toml/v2 report source byte offsets for scalar values.
func locateQuoted(data, key, value string) (int, error) {
	last := key
	if idx := strings.LastIndex(key, "."); idx >= 0 {
		last = key[idx+1:]
	}
	re := regexp.MustCompile(regexp.QuoteMeta(last) + `"?\s*[:=]\s*"` + regexp.QuoteMeta(value) + `"`)
	loc := re.FindStringIndex(data)
	if loc == nil {
		return 0, fmt.Errorf("can't locate %s=%s: %w", key, value, verrors.ErrPickerNotFound)
	}
	valueStart := loc[1] - len(value) - 1
	return valueStart, nil
}

type jsonPicker struct{ path string }

func (p *jsonPicker) Find(data string) (Mark, error) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return Mark{}, fmt.Errorf("parsing json: %w: %v", verrors.ErrPickerNotFound, err)
	}
	value, err := walkMap(doc, splitPath(p.path))
	if err != nil {
		return Mark{}, err
	}
	start, err := locateQuoted(data, p.path, value)
	if err != nil {
		return Mark{}, err
	}
	return NewMark(value, start)
}

func (p *jsonPicker) Scan(data NamedData) (MarkedData, error) { return scanViaFind(p, data) }

type tomlPicker struct{ path string }

func (p *tomlPicker) Find(data string) (Mark, error) {
	var doc map[string]any
	if err := toml.Unmarshal([]byte(data), &doc); err != nil {
		return Mark{}, fmt.Errorf("parsing toml: %w: %v", verrors.ErrPickerNotFound, err)
	}
	value, err := walkMap(doc, splitPath(p.path))
	if err != nil {
		return Mark{}, err
	}
	start, err := locateQuoted(data, p.path, value)
	if err != nil {
		return Mark{}, err
	}
	return NewMark(value, start)
}

func (p *tomlPicker) Scan(data NamedData) (MarkedData, error) { return scanViaFind(p, data) }

// xmlPicker extracts the text content of the first element named by the last
// segment of its dotted tag path; the parent segments are not checked.
// encoding/xml is used only for well-formedness; there is no corresponding
// ecosystem value-locator in the retrieval pack (see DESIGN.md).
type xmlPicker struct{ path string }

func (p *xmlPicker) Find(data string) (Mark, error) {
	dec := xml.NewDecoder(strings.NewReader(data))
	for {
		if _, err := dec.Token(); err == io.EOF {
			break
		} else if err != nil {
			return Mark{}, fmt.Errorf("parsing xml: %w: %v", verrors.ErrPickerNotFound, err)
		}
	}
	segs := splitPath(p.path)
	tag := segs[len(segs)-1]
	re := regexp.MustCompile(`<` + regexp.QuoteMeta(tag) + `(?:\s[^>]*)?>([^<]+)</` + regexp.QuoteMeta(tag) + `>`)
	loc := re.FindStringSubmatchIndex(data)
	if loc == nil || loc[2] < 0 {
		return Mark{}, fmt.Errorf("can't locate xml element %s: %w", p.path, verrors.ErrPickerNotFound)
	}
	value := data[loc[2]:loc[3]]
	return NewMark(value, loc[2])
}

func (p *xmlPicker) Scan(data NamedData) (MarkedData, error) { return scanViaFind(p, data) }

// yamlPicker walks a yaml.Node tree to get both the value and its exact
// line/column, which yaml.v3 reports -- the one format where we can avoid the
// regexp-relocation trick used by json/toml/xml.
type yamlPicker struct{ path string }

func (p *yamlPicker) Find(data string) (Mark, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(data), &doc); err != nil {
		return Mark{}, fmt.Errorf("parsing yaml: %w: %v", verrors.ErrPickerNotFound, err)
	}
	if len(doc.Content) == 0 {
		return Mark{}, fmt.Errorf("empty yaml document: %w", verrors.ErrPickerNotFound)
	}
	node := doc.Content[0]
	for _, seg := range splitPath(p.path) {
		node = findMappingValue(node, seg)
		if node == nil {
			return Mark{}, fmt.Errorf("can't locate yaml path %s: %w", p.path, verrors.ErrPickerNotFound)
		}
	}
	start := lineColToOffset(data, node.Line, node.Column)
	return NewMark(node.Value, start)
}

func (p *yamlPicker) Scan(data NamedData) (MarkedData, error) { return scanViaFind(p, data) }

func findMappingValue(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

func lineColToOffset(data string, line, col int) int {
	curLine := 1
	offset := 0
	for offset < len(data) && curLine < line {
		if data[offset] == '\n' {
			curLine++
		}
		offset++
	}
	return offset + col - 1
}

func walkMap(doc any, path []string) (string, error) {
	var cur any = doc
	for _, seg := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return "", fmt.Errorf("path segment %q is not an object: %w", seg, verrors.ErrPickerNotFound)
		}
		next, ok := m[seg]
		if !ok {
			return "", fmt.Errorf("no such key %q: %w", seg, verrors.ErrPickerNotFound)
		}
		cur = next
	}
	return stringify(cur)
}

func stringify(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(t), nil
	default:
		return "", fmt.Errorf("value is not a scalar: %w", verrors.ErrPickerNotFound)
	}
}

// linePicker finds a single capture group via a regular expression.
type linePicker struct{ pattern string }

func (p *linePicker) Find(data string) (Mark, error) {
	re, err := regexp.Compile(p.pattern)
	if err != nil {
		return Mark{}, fmt.Errorf("compiling pattern %q: %w", p.pattern, verrors.ErrManifestInvalid)
	}
	loc := re.FindStringSubmatchIndex(data)
	if loc == nil {
		return Mark{}, fmt.Errorf("no match for %q: %w", p.pattern, verrors.ErrPickerNotFound)
	}
	if len(loc) < 4 || loc[2] < 0 {
		return Mark{}, fmt.Errorf("no capture group in %q: %w", p.pattern, verrors.ErrPickerNotFound)
	}
	value := data[loc[2]:loc[3]]
	return NewMark(value, loc[2])
}

func (p *linePicker) Scan(data NamedData) (MarkedData, error) { return scanViaFind(p, data) }

// filePicker treats the whole (right-trimmed) file content as the value.
type filePicker struct{}

func (p *filePicker) Find(data string) (Mark, error) {
	value := strings.TrimRight(data, " \t\r\n")
	return NewMark(value, 0)
}

func (p *filePicker) Scan(data NamedData) (MarkedData, error) { return scanViaFind(p, data) }
