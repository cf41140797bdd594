// Package ui holds the terminal styles of the chat client.
package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	Primary = lipgloss.Color("#38BDF8") // Sky
	Success = lipgloss.Color("#10B981") // Emerald
	Warning = lipgloss.Color("#F59E0B") // Amber
	Error   = lipgloss.Color("#EF4444") // Red
	Muted   = lipgloss.Color("#6B7280") // Gray
)

var (
	// MessageBoxStyle frames each incoming relay message, the way the
	// original terminal client drew its ASCII box.
	MessageBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(0, 1).
			Width(44)

	NoticeBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Warning).
			Padding(0, 1).
			Width(44)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Success).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(Muted)
)

func MessageBox(msg string) string { return MessageBoxStyle.Render(msg) }

func NoticeBox(msg string) string { return NoticeBoxStyle.Render(msg) }

func PrintError(msg string) {
	fmt.Println(ErrorStyle.Render("Error: " + msg))
}
