package formatter

import (
	"encoding/json"

	"github.com/yildizm/LottoView/internal/lottery"
)

// jsonFormatter formats output as JSON
type jsonFormatter struct{}

// NewJSON creates a new JSON formatter
func NewJSON() Formatter {
	return &jsonFormatter{}
}

// HistoryOutput adds the derived page count to a history page
type HistoryOutput struct {
	*lottery.HistoryPage
	TotalPages int `json:"total_pages"`
}

func (f *jsonFormatter) Latest(a *lottery.LatestAnalysis) ([]byte, error) {
	return marshal(a)
}

func (f *jsonFormatter) History(p *lottery.HistoryPage) ([]byte, error) {
	return marshal(HistoryOutput{HistoryPage: p, TotalPages: p.TotalPages()})
}

func (f *jsonFormatter) Outcome(o *lottery.UpdateOutcome) ([]byte, error) {
	return marshal(o)
}

func (f *jsonFormatter) Statistics(s *lottery.Statistics) ([]byte, error) {
	return marshal(s)
}

func (f *jsonFormatter) Health(h *lottery.Health) ([]byte, error) {
	return marshal(h)
}

func (f *jsonFormatter) Status(s *Status) ([]byte, error) {
	return marshal(s)
}

func marshal(v interface{}) ([]byte, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}
