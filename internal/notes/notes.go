// Package notes renders a project's plan.ChangeLog into Markdown release
// notes, grouped by conventional-commit type into the same emoji-headed
// sections the original changelog generator used.
package notes

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/versio-mono/versio/internal/plan"
)

// commitGroup maps a conventional-commit type prefix to the Markdown
// section it renders under; Skip entries are dropped entirely (e.g.
// release/ignore chores).
type commitGroup struct {
	Message string
	Group   string
	Skip    bool
}

var commitGroups = []commitGroup{
	{Message: "^feat", Group: "✨ Features"},
	{Message: "^fix", Group: "🐛 Fixes"},
	{Message: "^docs", Group: "📖 Documentation"},
	{Message: "^perf", Group: "⚡️Performance"},
	{Message: "^refactor", Group: "✏️ Refactor"},
	{Message: "^revert", Group: "↩️ Revert"},
	{Message: "^style", Group: "Styling"},
	{Message: "^test", Group: "🧪 Testing"},
	{Message: "^build\\(deps\\)", Group: "⚙️ Dependencies"},
	{Message: "^build\\(deps-dev\\)", Group: "⚙️ Dev Dependencies"},
	{Message: "^build", Group: "🛠️ Build System"},
	{Message: "^ci", Group: "🔄 Continuous Integration"},
	{Message: "^chore\\(release\\)", Skip: true},
	{Message: "^chore\\(ignore\\)", Skip: true},
	{Message: "^chore", Group: "Miscellaneous Tasks"},
}

// Render builds the Markdown body for one project's release, given its
// ChangeLog entries and the version being released.
func Render(version string, entries []plan.ChangeLogEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## [%s] - %s\n", version, time.Now().Format("2006-01-02"))

	grouped := map[string][]string{}
	var breaking []string

	for _, entry := range entries {
		for _, c := range entry.Pr.Commits {
			if !c.Included() {
				continue
			}
			line, group, isBreaking, skip := classify(c.Message)
			if skip {
				continue
			}
			if isBreaking {
				breaking = append(breaking, line)
			} else {
				grouped[group] = append(grouped[group], line)
			}
		}
	}

	if len(breaking) > 0 {
		b.WriteString("\n### \U0001F4A5 Breaking Changes\n\n")
		for _, line := range breaking {
			fmt.Fprintf(&b, "- %s\n", line)
		}
	}

	for _, g := range commitGroups {
		if g.Skip {
			continue
		}
		lines := grouped[g.Group]
		if len(lines) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n### %s\n\n", g.Group)
		for _, line := range lines {
			fmt.Fprintf(&b, "- %s\n", line)
		}
	}

	return b.String()
}

// classify matches a commit's title against the commitGroups table,
// extracting its scope, capitalizing the first remaining word, and flagging
// breaking-change markers the same way the original generator did.
func classify(title string) (line, group string, isBreaking, skip bool) {
	isBreaking = strings.Contains(title, "!:") ||
		strings.Contains(strings.ToLower(title), "breaking change:") ||
		strings.Contains(strings.ToLower(title), "breaking-change:")

	for _, g := range commitGroups {
		re := regexp.MustCompile(g.Message + `(\(.*\))?!?:.`)
		matches := re.FindStringSubmatch(title)
		if len(matches) == 0 {
			continue
		}
		if g.Skip {
			return "", "", false, true
		}

		var scope string
		if len(matches) > 1 && matches[1] != "" {
			rawScope := strings.TrimSuffix(strings.TrimPrefix(matches[1], "("), ")")
			scope = fmt.Sprintf("(**%s**)", strings.ToLower(rawScope))
		}

		cleaned := re.ReplaceAllString(title, "")
		words := strings.Fields(cleaned)
		if len(words) > 0 {
			words[0] = cases.Title(language.Und, cases.NoLower).String(words[0])
		}
		msg := strings.TrimSpace(strings.Join(append([]string{scope}, words...), " "))
		return msg, g.Group, isBreaking, false
	}

	return strings.TrimSpace(title), "Miscellaneous Tasks", isBreaking, false
}

// Prepend inserts a newly rendered section at the top of an existing
// changelog document's body, just under its "# Changelog" header, matching
// the original generator's newest-first ordering.
func Prepend(existing, newSection string) string {
	const header = "# Changelog\n"
	trimmed := strings.TrimPrefix(existing, header)
	return header + "\n" + newSection + trimmed
}
