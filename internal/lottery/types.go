// Package lottery holds the data shapes exchanged with the draw analysis
// service. Values are immutable once decoded; nothing in this package
// interprets recommendation contents.
package lottery

// DrawRecord is a single drawing, identified by its period number.
type DrawRecord struct {
	Period        Period `json:"period"`
	DrawDate      Date   `json:"draw_date"`
	Numbers       []int  `json:"numbers"` // draw order
	SpecialNumber *int   `json:"special_number,omitempty"`
}

// HistoryPage is one page of the draw history.
type HistoryPage struct {
	Items      []DrawRecord `json:"items"`
	PageIndex  int          `json:"page"`
	PageSize   int          `json:"per_page"`
	TotalCount int          `json:"total"`
}

// TotalPages returns ceil(TotalCount / PageSize).
func (p *HistoryPage) TotalPages() int {
	return TotalPages(p.TotalCount, p.PageSize)
}

// historyResponse is the wire shape of GET /api/history.
type historyResponse struct {
	Data    []DrawRecord `json:"data"`
	Total   int          `json:"total"`
	Page    int          `json:"page"`
	PerPage int          `json:"per_page"`
}

// LatestAnalysis is the latest draw plus the service's recommendations.
type LatestAnalysis struct {
	LatestPeriod             Period          `json:"latest_period"`
	LatestDate               Date            `json:"latest_date"`
	LatestNumbers            []int           `json:"latest_numbers"`
	LatestSpecial            *int            `json:"latest_special,omitempty"`
	RecommendedAvoidNumbers  []int           `json:"recommended_avoid_numbers"`
	RecommendedAvoidSets     [][]int         `json:"recommended_avoid_sets"`
	RecommendedLikelyNumbers []int           `json:"recommended_likely_numbers,omitempty"`
	RecommendedLikelySets    [][]int         `json:"recommended_likely_sets,omitempty"`
	AnalysisSummary          AnalysisSummary `json:"analysis_summary"`
}

// MaxRecommendationSets caps how many avoid sets are kept from a response.
const MaxRecommendationSets = 10

// AnalysisSummary describes the data the recommendations were computed from.
type AnalysisSummary struct {
	TotalPeriods int       `json:"total_periods"`
	LastUpdate   Timestamp `json:"last_update"`
}

// UpdateOutcome is the result of a manual refresh from the upstream source.
// Success=false is a completed round trip carrying a negative result.
type UpdateOutcome struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	UpdatedCount int    `json:"updated_count"`
	LastPeriod   string `json:"last_period,omitempty"`
}

// Statistics is passed through to the CLI unchanged.
type Statistics struct {
	TotalPeriods     int                    `json:"total_periods"`
	NumberFrequency  map[string]int         `json:"number_frequency"`
	SpecialFrequency map[string]int         `json:"special_frequency"`
	AverageFrequency float64                `json:"average_frequency"`
	DateRange        map[string]interface{} `json:"date_range"`
}

// Health is the body of GET /health.
type Health struct {
	Status     string    `json:"status"`
	Timestamp  Timestamp `json:"timestamp"`
	Database   string    `json:"database,omitempty"`
	TotalDraws int       `json:"total_draws,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Healthy reports whether the service described itself as healthy.
func (h *Health) Healthy() bool {
	return h != nil && h.Status == "healthy"
}

// TotalPages returns ceil(total / size), or 0 when size is not positive.
func TotalPages(total, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}
