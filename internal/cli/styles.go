// Package cli renders the network for a terminal and runs the interactive
// menu. Output goes to an io.Writer so the menu can be driven from tests.
package cli

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	ColorOK      = lipgloss.Color("#2ECC71")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorAlert   = lipgloss.Color("#E74C3C")
	ColorHeading = lipgloss.Color("#2CD7C7")
	ColorReport  = lipgloss.Color("#C678DD")
	ColorMuted   = lipgloss.Color("#5C6370")
)

// Styles groups the styles used by the renderer
type Styles struct {
	Heading lipgloss.Style
	OK      lipgloss.Style
	Warning lipgloss.Style
	Alert   lipgloss.Style
	Report  lipgloss.Style
	Muted   lipgloss.Style
	Rule    lipgloss.Style
	Box     lipgloss.Style
}

// NewStyles builds styles for w. Color is dropped automatically when w is not
// a terminal.
func NewStyles(w io.Writer) Styles {
	r := lipgloss.NewRenderer(w)
	return Styles{
		Heading: r.NewStyle().Bold(true).Foreground(ColorHeading),
		OK:      r.NewStyle().Bold(true).Foreground(ColorOK),
		Warning: r.NewStyle().Bold(true).Foreground(ColorWarning),
		Alert:   r.NewStyle().Bold(true).Foreground(ColorAlert),
		Report:  r.NewStyle().Bold(true).Foreground(ColorReport),
		Muted:   r.NewStyle().Foreground(ColorMuted),
		Rule:    r.NewStyle().Foreground(ColorMuted),
		Box: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorHeading).
			Padding(0, 1),
	}
}
