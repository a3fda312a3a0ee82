package config

import (
	"fmt"
	"regexp"

	"github.com/versio-mono/versio/internal/verrors"
)

var markValuePattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// Mark is a located value within a text blob: the value itself, and the byte
// offset at which it starts.
type Mark struct {
	Value string
	Start int
}

// NewMark validates that value looks like a dotted-triple version before
// wrapping it as a Mark.
func NewMark(value string, start int) (Mark, error) {
	if !markValuePattern.MatchString(value) {
		return Mark{}, fmt.Errorf("marked value %q is not a version: %w", value, verrors.ErrPickerNotFound)
	}
	return Mark{Value: value, Start: start}, nil
}

// NamedData is a text blob and the path it came from, used for in-place scans
// that will later be written back.
type NamedData struct {
	Path string
	Data string
}

// Mark pairs this blob with an already-located Mark, producing data that can
// be rewritten in place.
func (n NamedData) Mark(m Mark) MarkedData {
	return MarkedData{NamedData: n, mark: m}
}

// MarkedData is a text blob with a located, rewritable value span.
type MarkedData struct {
	NamedData
	mark Mark
}

// Value returns the currently marked value.
func (m *MarkedData) Value() string { return m.mark.Value }

// WriteNewValue replaces the marked byte span [start, start+len(value)) with
// newVal, updating both the blob's Data and the tracked mark in place.
func (m *MarkedData) WriteNewValue(newVal string) error {
	start := m.mark.Start
	end := start + len(m.mark.Value)
	if start < 0 || end > len(m.Data) {
		return fmt.Errorf("mark span out of bounds for %s: %w", m.Path, verrors.ErrPickerNotFound)
	}
	m.Data = m.Data[:start] + newVal + m.Data[end:]
	m.mark.Value = newVal
	return nil
}

// Picker locates a version value within a text blob, either for a read-only
// get (Find) or a read-then-replace write (Scan + WriteNewValue).
type Picker interface {
	Find(data string) (Mark, error)
	Scan(data NamedData) (MarkedData, error)
}

// scanViaFind is the common Scan implementation shared by every Picker: Find
// the mark in the raw text, then wrap it with the NamedData.
func scanViaFind(p Picker, data NamedData) (MarkedData, error) {
	mark, err := p.Find(data.Data)
	if err != nil {
		return MarkedData{}, err
	}
	return data.Mark(mark), nil
}
