package generator

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// section returns the body under the "## heading" line of md, up to the next
// heading of the same or higher level. It returns "" when the heading is absent.
func section(md, heading string) string {
	lines := strings.Split(md, "\n")
	start := -1
	for i, l := range lines {
		if strings.TrimSpace(l) == "## "+heading {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return ""
	}
	end := len(lines)
	fenced := false
	for i := start; i < len(lines); i++ {
		if strings.HasPrefix(lines[i], "```") {
			fenced = !fenced
		}
		if !fenced && (strings.HasPrefix(lines[i], "## ") || strings.HasPrefix(lines[i], "# ")) {
			end = i
			break
		}
	}
	return strings.TrimSpace(strings.Join(lines[start:end], "\n"))
}

// stripTitle drops a leading "# " title line.
func stripTitle(md string) string {
	md = strings.TrimSpace(md)
	if strings.HasPrefix(md, "# ") {
		if _, rest, ok := strings.Cut(md, "\n"); ok {
			return strings.TrimSpace(rest)
		}
		return ""
	}
	return md
}

// demote pushes every heading outside code fences down by levels.
func demote(md string, levels int) string {
	prefix := strings.Repeat("#", levels)
	lines := strings.Split(md, "\n")
	fenced := false
	for i, l := range lines {
		if strings.HasPrefix(l, "```") {
			fenced = !fenced
			continue
		}
		if !fenced && strings.HasPrefix(l, "#") {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n")
}

// embed renders a whole analyzer report as a subsection body.
func embed(md string, levels int) string {
	return demote(stripTitle(md), levels)
}

// sectionOr returns the named section of md, or the whole report when the
// report does not use that heading (for example when a model wrote it).
func sectionOr(md, heading string, levels int) string {
	if s := section(md, heading); s != "" {
		return s
	}
	return embed(md, levels)
}

// firstParagraph returns the first block of text that is not a heading,
// list, table or code fence.
func firstParagraph(md string) string {
	for _, block := range strings.Split(stripTitle(md), "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		switch block[0] {
		case '#', '-', '*', '|', '`':
			if !strings.HasPrefix(block, "**") {
				continue
			}
		}
		return block
	}
	return ""
}

// bullets returns the top-level list items of md.
func bullets(md string) []string {
	var items []string
	for _, l := range strings.Split(md, "\n") {
		if strings.HasPrefix(l, "- ") {
			items = append(items, strings.TrimSpace(l[2:]))
		}
	}
	return items
}

// tableRows returns the data rows of the first Markdown table in md.
func tableRows(md string) [][]string {
	var rows [][]string
	seen := 0
	for _, l := range strings.Split(md, "\n") {
		l = strings.TrimSpace(l)
		if !strings.HasPrefix(l, "|") {
			if seen > 0 {
				break
			}
			continue
		}
		seen++
		if seen <= 2 {
			continue
		}
		rows = append(rows, splitRow(l))
	}
	return rows
}

func splitRow(line string) []string {
	const placeholder = "\x00"
	line = strings.ReplaceAll(line, `\|`, placeholder)
	line = strings.TrimSuffix(strings.TrimPrefix(line, "|"), "|")
	cells := strings.Split(line, "|")
	for i := range cells {
		cells[i] = strings.ReplaceAll(strings.TrimSpace(cells[i]), placeholder, "|")
	}
	return cells
}

var codeSpanRe = regexp.MustCompile("`([^`]+)`")

// codeSpan returns the text of the first inline code span in s, or s.
func codeSpan(s string) string {
	if m := codeSpanRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

// anchor returns the GitHub heading anchor for title.
func anchor(title string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_':
			sb.WriteRune(r)
		case r == ' ':
			sb.WriteByte('-')
		}
	}
	return sb.String()
}

// truncateLines caps s at max lines, replacing the tail with a marker line.
func truncateLines(s string, max int) (string, bool) {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if max <= 0 || len(lines) <= max {
		return strings.TrimRight(s, "\n") + "\n", false
	}
	kept := lines[:max-1]
	omitted := len(lines) - len(kept)
	kept = append(kept, fmt.Sprintf("<!-- %d lines omitted; see .ai/docs for the full analysis -->", omitted))
	return strings.Join(kept, "\n") + "\n", true
}

// writer accumulates a Markdown document.
type writer struct {
	sb strings.Builder
}

func (w *writer) heading(level int, s string) {
	fmt.Fprintf(&w.sb, "%s %s\n\n", strings.Repeat("#", level), s)
}

func (w *writer) para(format string, args ...any) {
	fmt.Fprintf(&w.sb, format, args...)
	w.sb.WriteString("\n\n")
}

func (w *writer) block(s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	w.sb.WriteString(s)
	w.sb.WriteString("\n\n")
}

func (w *writer) list(items []string) {
	if len(items) == 0 {
		return
	}
	for _, it := range items {
		w.sb.WriteString("- " + it + "\n")
	}
	w.sb.WriteString("\n")
}

func (w *writer) String() string {
	return strings.TrimRight(w.sb.String(), "\n") + "\n"
}
