package report

import (
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/analysis"
)

var (
	primaryColor = lipgloss.Color("#A78BFA") // violet-400
	successColor = lipgloss.Color("#10B981")
	warningColor = lipgloss.Color("#F59E0B")
	errorColor   = lipgloss.Color("#F87171") // red-400
	mutedColor   = lipgloss.Color("#9CA3AF")
	borderColor  = lipgloss.Color("#6B7280")
)

type styles struct {
	title     lipgloss.Style
	header    lipgloss.Style
	cell      lipgloss.Style
	border    lipgloss.Style
	muted     lipgloss.Style
	succeeded lipgloss.Style
	failed    lipgloss.Style
	skipped   lipgloss.Style
}

// newStyles binds the palette to a renderer for w, so writers that are not
// terminals get plain text.
func newStyles(w io.Writer) styles {
	re := lipgloss.NewRenderer(w)
	cell := re.NewStyle().Padding(0, 1)
	return styles{
		title:     re.NewStyle().Bold(true).Foreground(primaryColor),
		header:    cell.Bold(true).Foreground(primaryColor),
		cell:      cell,
		border:    re.NewStyle().Foreground(borderColor),
		muted:     re.NewStyle().Foreground(mutedColor).Italic(true),
		succeeded: cell.Foreground(successColor),
		failed:    cell.Foreground(errorColor).Bold(true),
		skipped:   cell.Foreground(warningColor),
	}
}

func (s styles) status(st analysis.Status) lipgloss.Style {
	switch st {
	case analysis.StatusSucceeded:
		return s.succeeded
	case analysis.StatusFailed:
		return s.failed
	default:
		return s.skipped
	}
}
