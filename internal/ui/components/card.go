package components

import (
	"github.com/charmbracelet/lipgloss"
)

// Card status values
const (
	StatusInfo    = "info"
	StatusSuccess = "success"
	StatusWarning = "warning"
	StatusError   = "error"
)

var (
	successColor = lipgloss.AdaptiveColor{Light: "#10B981", Dark: "#34D399"}
	warningColor = lipgloss.AdaptiveColor{Light: "#F59E0B", Dark: "#FBBF24"}
	errorColor   = lipgloss.AdaptiveColor{Light: "#EF4444", Dark: "#F87171"}
	infoColor    = lipgloss.AdaptiveColor{Light: "#3B82F6", Dark: "#60A5FA"}
	bodyColor    = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
)

// StatsCard is a small boxed figure with a title and description
type StatsCard struct {
	Title       string
	Value       string
	Description string
	Status      string
	Icon        string
	Width       int
}

// NewStatsCard creates a new stats card
func NewStatsCard(title, value, description string) *StatsCard {
	return &StatsCard{
		Title:       title,
		Value:       value,
		Description: description,
		Status:      StatusInfo,
		Width:       24,
	}
}

// SetStatus sets the status color of the card
func (s *StatsCard) SetStatus(status string) *StatsCard {
	s.Status = status
	return s
}

// SetIcon sets the icon for the card
func (s *StatsCard) SetIcon(icon string) *StatsCard {
	s.Icon = icon
	return s
}

// Render renders the stats card
func (s *StatsCard) Render() string {
	var c lipgloss.AdaptiveColor
	switch s.Status {
	case StatusSuccess:
		c = successColor
	case StatusWarning:
		c = warningColor
	case StatusError:
		c = errorColor
	case StatusInfo:
		c = infoColor
	default:
		c = bodyColor
	}

	title := lipgloss.NewStyle().Foreground(infoColor).Bold(true).Render(s.Title)
	if s.Icon != "" {
		title = s.Icon + " " + title
	}

	rows := []string{title, lipgloss.NewStyle().Foreground(c).Bold(true).Render(s.Value)}
	if s.Description != "" {
		rows = append(rows, lipgloss.NewStyle().Foreground(bodyColor).Render(s.Description))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(bodyColor).
		Padding(0, 1).
		Width(s.Width).
		Render(lipgloss.JoinVertical(lipgloss.Center, rows...))
}

// Row renders cards side by side
func Row(cards ...*StatsCard) string {
	rendered := make([]string, 0, len(cards))
	for _, c := range cards {
		if c != nil {
			rendered = append(rendered, c.Render())
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}
