package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	controlStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	cursorStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	completedStyle = lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("8"))
	metaStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).PaddingLeft(6)
	busyStyle      = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("11"))
	emptyStyle     = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("8"))
	toastStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("11")).Padding(0, 1)
	fadingStyle    = toastStyle.BorderForeground(lipgloss.Color("8")).Foreground(lipgloss.Color("8")).Faint(true)
)
