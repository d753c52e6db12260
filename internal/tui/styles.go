package tui

import "github.com/charmbracelet/lipgloss"

const (
	primaryColor   = "#DC2626"
	secondaryColor = "#10B981"
	warningColor   = "#F59E0B"
	errorColor     = "#EF4444"
	dimColor       = "#6B7280"
)

var (
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(primaryColor)).
			Padding(1, 2)

	TitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(primaryColor)).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(dimColor))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(secondaryColor))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(errorColor))

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(warningColor))

	PhaseStyle = lipgloss.NewStyle().
			Background(lipgloss.Color(primaryColor)).
			Foreground(lipgloss.Color("#FFFFFF")).
			Padding(0, 1)

	HelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(dimColor)).
			MarginTop(1)
)
