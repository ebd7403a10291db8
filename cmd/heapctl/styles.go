package main

import "github.com/charmbracelet/lipgloss"

var (
	// Color palette
	primaryColor = lipgloss.Color("#7D56F4")
	successColor = lipgloss.Color("#04B575")
	errorColor   = lipgloss.Color("#FF4B4B")
	mutedColor   = lipgloss.Color("#666666")

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	passStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(successColor)

	failStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(errorColor)

	freeStyle = lipgloss.NewStyle().
			Foreground(successColor)

	allocatedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)
)

// styled renders text with s unless colors are disabled.
func styled(s lipgloss.Style, text string) string {
	if noColor {
		return text
	}
	return s.Render(text)
}
