package tui

import "github.com/charmbracelet/lipgloss"

type Styles struct {
	Title    lipgloss.Style
	Pane     lipgloss.Style
	Focused  lipgloss.Style
	Header   lipgloss.Style
	Cursor   lipgloss.Style
	Disabled lipgloss.Style
	Error    lipgloss.Style
	Help     lipgloss.Style
}

func DefaultStyles() Styles {
	accent := lipgloss.Color("#7D56F4")
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(accent).
			Padding(0, 1),
		Pane: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),
		Focused: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1),
		Header:   lipgloss.NewStyle().Bold(true).Underline(true),
		Cursor:   lipgloss.NewStyle().Foreground(accent).Bold(true),
		Disabled: lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87")).Bold(true),
		Help:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}
