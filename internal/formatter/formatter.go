package formatter

import (
	"fmt"

	"github.com/yildizm/LottoView/internal/lottery"
)

// Formatter renders service responses for the one-shot commands
type Formatter interface {
	Latest(analysis *lottery.LatestAnalysis) ([]byte, error)
	History(page *lottery.HistoryPage) ([]byte, error)
	Outcome(outcome *lottery.UpdateOutcome) ([]byte, error)
	Statistics(stats *lottery.Statistics) ([]byte, error)
	Health(health *lottery.Health) ([]byte, error)
	Status(status *Status) ([]byte, error)
}

// Status combines the health check with the latest analysis. Each half is
// either a value or the normalized failure message.
type Status struct {
	BaseURL     string                  `json:"base_url"`
	Health      *lottery.Health         `json:"health,omitempty"`
	HealthError string                  `json:"health_error,omitempty"`
	Latest      *lottery.LatestAnalysis `json:"latest,omitempty"`
	LatestError string                  `json:"latest_error,omitempty"`
}

// New returns the formatter for format ("text" or "json")
func New(format string, color bool) (Formatter, error) {
	switch format {
	case "", "text":
		return NewTerminal(color), nil
	case "json":
		return NewJSON(), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s (must be one of: text, json)", format)
	}
}
