package tui

import "github.com/charmbracelet/lipgloss"

const (
	colorAccent     = "33"
	colorSuspicious = "203"
	colorNormal     = "42"
	colorWarn       = "220"
	colorSubtle     = "244"
	colorText       = "252"
)

type Styles struct {
	Title      lipgloss.Style
	Stat       lipgloss.Style
	Suspicious lipgloss.Style
	Normal     lipgloss.Style
	FilterOn   lipgloss.Style
	FilterOff  lipgloss.Style
	Empty      lipgloss.Style
	Help       lipgloss.Style
	Form       lipgloss.Style
	Toast      map[string]lipgloss.Style
}

func DefaultStyles() Styles {
	toast := lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(lipgloss.Color("16"))
	return Styles{
		Title:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorAccent)),
		Stat:       lipgloss.NewStyle().Foreground(lipgloss.Color(colorText)).PaddingRight(2),
		Suspicious: lipgloss.NewStyle().Foreground(lipgloss.Color(colorSuspicious)).Bold(true),
		Normal:     lipgloss.NewStyle().Foreground(lipgloss.Color(colorNormal)),
		FilterOn:   lipgloss.NewStyle().Padding(0, 1).Background(lipgloss.Color(colorAccent)).Foreground(lipgloss.Color("230")),
		FilterOff:  lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color(colorSubtle)),
		Empty:      lipgloss.NewStyle().Foreground(lipgloss.Color(colorSubtle)).Italic(true).Padding(1, 2),
		Help:       lipgloss.NewStyle().Foreground(lipgloss.Color(colorSubtle)),
		Form:       lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color(colorAccent)).Padding(0, 1),
		Toast: map[string]lipgloss.Style{
			"success": toast.Background(lipgloss.Color(colorNormal)),
			"warning": toast.Background(lipgloss.Color(colorWarn)),
			"error":   toast.Background(lipgloss.Color(colorSuspicious)),
		},
	}
}
