// internal/artifacts/artifacts.go
package artifacts

import (
	"fmt"
	"strings"

	"vibe-transmuter/internal/spec"
)

// Bundle carries every artifact rendered from one CanonicalSpec.
type Bundle struct {
	NonDevReport  string          `json:"nonDevReport"`
	DevReport     string          `json:"devReport"`
	MasterPrompt  string          `json:"masterPrompt"`
	ThinkingTrace string          `json:"thinkingTrace"`
	Glossary      []GlossaryEntry `json:"glossary"`
}

// Build renders all artifacts. It only reads s.
func Build(s spec.CanonicalSpec) Bundle {
	return Bundle{
		NonDevReport:  NonDevReport(s),
		DevReport:     DevReport(s),
		MasterPrompt:  MasterPrompt(s),
		ThinkingTrace: ThinkingTrace(s),
		Glossary:      Glossary(s),
	}
}

type doc struct {
	b strings.Builder
}

func (d *doc) heading(level int, title string) {
	if d.b.Len() > 0 {
		d.b.WriteString("\n")
	}
	d.b.WriteString(strings.Repeat("#", level))
	d.b.WriteString(" ")
	d.b.WriteString(title)
	d.b.WriteString("\n\n")
}

func (d *doc) line(format string, args ...interface{}) {
	d.b.WriteString(fmt.Sprintf(format, args...))
	d.b.WriteString("\n")
}

func (d *doc) bullets(items []string, empty string) {
	if len(items) == 0 {
		d.line("- %s", empty)
		return
	}
	for _, item := range items {
		d.line("- %s", item)
	}
}

func (d *doc) numbered(items []string) {
	for i, item := range items {
		d.line("%d. %s", i+1, item)
	}
}

func (d *doc) table(header []string, rows [][]string) {
	d.line("| %s |", strings.Join(header, " | "))
	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	d.line("| %s |", strings.Join(sep, " | "))
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = escapeCell(c)
		}
		d.line("| %s |", strings.Join(cells, " | "))
	}
}

func (d *doc) String() string {
	return d.b.String()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func roleLines(roles []spec.Role) []string {
	lines := make([]string, 0, len(roles))
	for _, r := range roles {
		switch {
		case r.Role == "":
			lines = append(lines, r.Description)
		case r.Description == "":
			lines = append(lines, r.Role)
		default:
			lines = append(lines, fmt.Sprintf("**%s**: %s", r.Role, r.Description))
		}
	}
	return lines
}
