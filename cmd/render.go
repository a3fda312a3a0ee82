package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// renderMarkdown pretty-prints md through glamour when stdout is a
// terminal, falling back to the plain text for redirected output, mirroring
// the teacher's changelog-to-terminal renderer.
func renderMarkdown(md string) (string, error) {
	isTerminal := term.IsTerminal(int(os.Stdout.Fd()))
	if !isTerminal {
		return md, nil
	}

	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width == 0 {
		width = 80
	}
	if width > 120 {
		width = 120
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithEnvironmentConfig(),
		glamour.WithWordWrap(width),
		glamour.WithPreservedNewLines(),
	)
	if err != nil {
		return "", fmt.Errorf("creating terminal renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return out, nil
}

// releaseSummaryMarkdown builds a Markdown bulleted list of each project's computed
// version, used as the body renderMarkdown pretty-prints for `release`.
func releaseSummaryMarkdown(rows []string) string {
	var b strings.Builder
	b.WriteString("## Release summary\n\n")
	for _, row := range rows {
		fmt.Fprintf(&b, "- %s\n", row)
	}
	return b.String()
}
