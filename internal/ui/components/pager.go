package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Pager is the page navigation bar under the history table
type Pager struct {
	Current int
	Total   int
	Window  []int
	HasPrev bool
	HasNext bool

	Active   lipgloss.Style
	Normal   lipgloss.Style
	Disabled lipgloss.Style
}

// Render draws "‹ prev  1 [2] 3  next ›"; disabled controls are faint.
func (p Pager) Render() string {
	if p.Total <= 0 {
		return ""
	}

	prev, next := p.Normal, p.Normal
	if !p.HasPrev {
		prev = p.Disabled
	}
	if !p.HasNext {
		next = p.Disabled
	}

	parts := make([]string, 0, len(p.Window)+2)
	parts = append(parts, prev.Render("‹ prev"))
	for _, n := range p.Window {
		if n == p.Current {
			parts = append(parts, p.Active.Render(fmt.Sprintf("[%d]", n)))
			continue
		}
		parts = append(parts, p.Normal.Render(fmt.Sprintf("%d", n)))
	}
	parts = append(parts, next.Render("next ›"))

	return strings.Join(parts, "  ")
}
