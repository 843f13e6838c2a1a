// Package themes holds the visual styles of the console chat.
package themes

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual style for the console chat.
type Theme struct {
	Title       lipgloss.Style
	Subtitle    lipgloss.Style
	UserLabel   lipgloss.Style
	BotLabel    lipgloss.Style
	UserMessage lipgloss.Style
	BotMessage  lipgloss.Style
	Timestamp   lipgloss.Style
	StatusError lipgloss.Style
	StatusInfo  lipgloss.Style
	BorderedBox lipgloss.Style
	Primary     lipgloss.Color
	Muted       lipgloss.Color
	Border      lipgloss.Color
	Error       lipgloss.Color
	Success     lipgloss.Color
}

// Default is the default theme.
var Default = Theme{
	Primary: lipgloss.Color("#25d366"),
	Muted:   lipgloss.Color("#737373"),
	Border:  lipgloss.Color("#404040"),
	Error:   lipgloss.Color("#ef4444"),
	Success: lipgloss.Color("#10b981"),

	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#fafafa")).
		Background(lipgloss.Color("#075e54")).
		Padding(0, 1),
	Subtitle: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#a3a3a3")),
	UserLabel: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#a78bfa")),
	BotLabel: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#25d366")),
	UserMessage: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#fafafa")).
		PaddingLeft(2),
	BotMessage: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#e5e5e5")).
		PaddingLeft(2),
	Timestamp: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#737373")),
	StatusError: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#ef4444")).
		Bold(true),
	StatusInfo: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#3b82f6")),
	BorderedBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#404040")).
		Padding(0, 1),
}
