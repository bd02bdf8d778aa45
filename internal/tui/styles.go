package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorMuted  = lipgloss.Color("#7E8C80")
	colorText   = lipgloss.Color("#D6E0D3")
	colorAccent = lipgloss.Color("#D08C60")
	colorBase   = lipgloss.Color("#1F1B18")
	colorGreen  = lipgloss.Color("#a6e3a1")
	colorRed    = lipgloss.Color("#f38ba8")
	colorYellow = lipgloss.Color("#f9e2af")
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(colorMuted)

	dayStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Width(11)

	dishStyle = lipgloss.NewStyle().
			Foreground(colorText)

	emptyStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Italic(true)

	cursorStyle = lipgloss.NewStyle().
			Foreground(colorBase).
			Background(colorAccent)

	pickedStyle = lipgloss.NewStyle().
			Foreground(colorBase).
			Background(colorYellow).
			Bold(true)

	noteStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			PaddingLeft(13)

	badgeStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	unavailableStyle = lipgloss.NewStyle().
				Foreground(colorRed).
				Strikethrough(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Padding(0, 1)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(colorAccent)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	footerStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(colorMuted)
)
