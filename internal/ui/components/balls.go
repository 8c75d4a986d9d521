package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Balls renders lottery numbers as colored two digit tokens. special is
// appended after a separator when non-nil.
func Balls(numbers []int, special *int, ball, specialColor lipgloss.TerminalColor) string {
	if len(numbers) == 0 && special == nil {
		return lipgloss.NewStyle().Foreground(bodyColor).Render("-")
	}

	style := lipgloss.NewStyle().Foreground(ball).Bold(true)
	parts := make([]string, 0, len(numbers)+2)
	for _, n := range numbers {
		parts = append(parts, style.Render(fmt.Sprintf("%02d", n)))
	}
	if special != nil {
		parts = append(parts,
			lipgloss.NewStyle().Foreground(bodyColor).Render("+"),
			lipgloss.NewStyle().Foreground(specialColor).Bold(true).Render(fmt.Sprintf("%02d", *special)))
	}
	return strings.Join(parts, " ")
}
