package analyzer

import (
	"fmt"
	"strings"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/analysis"
)

// limits bound the size of a report for a detail level.
type limits struct {
	depth int
	items int
}

func limitsFor(level string) limits {
	switch level {
	case analysis.DetailMinimal:
		return limits{depth: 2, items: 25}
	case analysis.DetailComprehensive:
		return limits{depth: 5, items: 400}
	default:
		return limits{depth: 3, items: 100}
	}
}

// doc accumulates a Markdown report.
type doc struct {
	sb strings.Builder
}

func (d *doc) title(s string) {
	fmt.Fprintf(&d.sb, "# %s\n\n", s)
}

func (d *doc) section(s string) {
	fmt.Fprintf(&d.sb, "## %s\n\n", s)
}

func (d *doc) para(format string, args ...any) {
	fmt.Fprintf(&d.sb, format, args...)
	d.sb.WriteString("\n\n")
}

func (d *doc) bullet(format string, args ...any) {
	d.sb.WriteString("- ")
	fmt.Fprintf(&d.sb, format, args...)
	d.sb.WriteString("\n")
}

func (d *doc) end() {
	d.sb.WriteString("\n")
}

func (d *doc) table(header []string, rows [][]string) {
	d.sb.WriteString("| " + strings.Join(header, " | ") + " |\n")
	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	d.sb.WriteString("| " + strings.Join(sep, " | ") + " |\n")
	for _, r := range rows {
		for i := range r {
			r[i] = strings.ReplaceAll(r[i], "|", `\|`)
		}
		d.sb.WriteString("| " + strings.Join(r, " | ") + " |\n")
	}
	d.sb.WriteString("\n")
}

func (d *doc) code(lang, body string) {
	fmt.Fprintf(&d.sb, "```%s\n%s\n```\n\n", lang, strings.TrimRight(body, "\n"))
}

// truncated notes how many entries were left out.
func (d *doc) truncated(shown, total int) {
	if total > shown {
		d.para("_%d more not shown._", total-shown)
	}
}

func (d *doc) content() analysis.Content {
	return analysis.Content{Format: analysis.FormatMarkdown, Body: strings.TrimRight(d.sb.String(), "\n") + "\n"}
}

func loc(file string, line int) string {
	return fmt.Sprintf("`%s:%d`", file, line)
}
