package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func modalBodyWidth(width int) int {
	w := width - 8
	if w > 64 {
		w = 64
	}
	if w < 24 {
		w = 24
	}
	return w
}

func renderModalBox(width int, title string, content string) string {
	bodyW := modalBodyWidth(width)
	header := lipgloss.NewStyle().
		Bold(true).
		Width(bodyW).
		Background(colorModalHeader).
		Foreground(colorSurfaceFg).
		Render(title)
	body := lipgloss.NewStyle().Width(bodyW).Render(content)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorCardBorder).
		Padding(0, 1).
		Render(header + "\n\n" + body)
}

func renderConfirmModal(width int, title string, body string) string {
	help := styleMuted().Render("y: confirm   n/esc: cancel")
	return renderModalBox(width, title, strings.Join([]string{body, "", help}, "\n"))
}
