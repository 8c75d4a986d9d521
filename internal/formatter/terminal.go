package formatter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/yildizm/LottoView/internal/emoji"
	"github.com/yildizm/LottoView/internal/lottery"
	"github.com/yildizm/go-termfmt"
)

const topFrequencies = 10

// terminalFormatter formats output as plain text for terminal display using go-termfmt
type terminalFormatter struct {
	opts *termfmt.TerminalOptions

	good  *color.Color
	bad   *color.Color
	faint *color.Color
	title *color.Color
}

// NewTerminal creates a new terminal formatter with optional color support
func NewTerminal(useColor bool) Formatter {
	opts := termfmt.DefaultOptions()
	opts.Color = useColor
	opts.Emoji = !emoji.IsEmojiDisabled()

	f := &terminalFormatter{
		opts:  opts,
		good:  color.New(color.FgGreen, color.Bold),
		bad:   color.New(color.FgRed, color.Bold),
		faint: color.New(color.Faint),
		title: color.New(color.Bold, color.Underline),
	}
	for _, c := range []*color.Color{f.good, f.bad, f.faint, f.title} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return f
}

func (f *terminalFormatter) Latest(a *lottery.LatestAnalysis) ([]byte, error) {
	var b strings.Builder

	f.writeHeader(&b, "Latest Draw "+a.LatestPeriod.String())
	f.writeDraw(&b, a)
	f.writeRecommendations(&b, emoji.Prefix("avoid")+"Recommended to Avoid", a.RecommendedAvoidNumbers, a.RecommendedAvoidSets)
	if len(a.RecommendedLikelyNumbers) > 0 || len(a.RecommendedLikelySets) > 0 {
		f.writeRecommendations(&b, emoji.Prefix("likely")+"Likely to Appear", a.RecommendedLikelyNumbers, a.RecommendedLikelySets)
	}
	f.writeSummary(&b, a.AnalysisSummary)

	return []byte(b.String()), nil
}

// writeHeader writes a box-drawn header
func (f *terminalFormatter) writeHeader(b *strings.Builder, header string) {
	width := len([]rune(header))
	b.WriteString("╔" + strings.Repeat("═", width+2) + "╗\n")
	b.WriteString("║ " + header + " ║\n")
	b.WriteString("╚" + strings.Repeat("═", width+2) + "╝\n\n")
}

func (f *terminalFormatter) writeDraw(b *strings.Builder, a *lottery.LatestAnalysis) {
	b.WriteString(emoji.Prefix("calendar") + "Draw\n")
	items := []termfmt.TreeItem{
		{Label: "Period", Value: a.LatestPeriod.String()},
		{Label: "Date", Value: dateOrDash(a.LatestDate)},
		{Label: "Numbers", Value: formatBalls(a.LatestNumbers)},
		{Label: "Special", Value: formatSpecial(a.LatestSpecial), Last: true},
	}
	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n\n")
}

func (f *terminalFormatter) writeRecommendations(b *strings.Builder, title string, numbers []int, sets [][]int) {
	b.WriteString(title + "\n")

	sets = capSets(sets, lottery.MaxRecommendationSets)
	children := make([]termfmt.TreeItem, 0, len(sets))
	for i, set := range sets {
		children = append(children, termfmt.TreeItem{
			Label: fmt.Sprintf("Set %d", i+1),
			Value: formatBalls(set),
			Last:  i == len(sets)-1,
		})
	}

	items := []termfmt.TreeItem{
		{Label: "Numbers", Value: formatBalls(numbers)},
		{Label: "Sets", Value: strconv.Itoa(len(sets)), Children: children, Last: true},
	}
	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n\n")
}

func (f *terminalFormatter) writeSummary(b *strings.Builder, s lottery.AnalysisSummary) {
	b.WriteString(termfmt.GetEmoji("statistics", f.opts) + " Analysis\n")
	items := []termfmt.TreeItem{
		{Label: "Periods analysed", Value: formatNumber(s.TotalPeriods)},
		{Label: "Last update", Value: timestampOrDash(s.LastUpdate), Last: true},
	}
	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n")
}

func (f *terminalFormatter) History(p *lottery.HistoryPage) ([]byte, error) {
	var b strings.Builder

	_, _ = f.title.Fprintf(&b, "%sDraw History", emoji.Prefix("history"))
	_, _ = f.faint.Fprintf(&b, " - page %d of %d, %s draws\n\n",
		p.PageIndex, max(1, p.TotalPages()), formatNumber(p.TotalCount))

	if len(p.Items) == 0 {
		_, _ = f.faint.Fprint(&b, " no draws\n")
		return []byte(b.String()), nil
	}

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow("PERIOD", "DATE", "NUMBERS", "SPECIAL")
	for _, d := range p.Items {
		tbl.AddRow(d.Period.String(), dateOrDash(d.DrawDate), formatBalls(d.Numbers), formatSpecial(d.SpecialNumber))
	}
	b.WriteString(tbl.String() + "\n")

	return []byte(b.String()), nil
}

func (f *terminalFormatter) Outcome(o *lottery.UpdateOutcome) ([]byte, error) {
	var b strings.Builder

	if !o.Success {
		msg := o.Message
		if msg == "" {
			msg = "update was not applied"
		}
		_, _ = f.bad.Fprintf(&b, "%s%s\n", emoji.Prefix("error"), msg)
		return []byte(b.String()), nil
	}

	_, _ = f.good.Fprintf(&b, "%s%s, %d draws updated\n", emoji.Prefix("success"), o.Message, o.UpdatedCount)
	if o.LastPeriod != "" {
		_, _ = f.faint.Fprintf(&b, "last period: %s\n", o.LastPeriod)
	}
	return []byte(b.String()), nil
}

func (f *terminalFormatter) Statistics(s *lottery.Statistics) ([]byte, error) {
	var b strings.Builder

	f.writeHeader(&b, "Draw Statistics")

	items := []termfmt.TreeItem{
		{Label: "Periods", Value: formatNumber(s.TotalPeriods)},
		{Label: "Average frequency", Value: fmt.Sprintf("%.2f", s.AverageFrequency)},
	}
	if from, to := dateRange(s.DateRange); from != "" || to != "" {
		items = append(items, termfmt.TreeItem{Label: "Range", Value: from + " → " + to})
	}
	items[len(items)-1].Last = true
	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n\n")

	f.writeFrequencies(&b, "Most frequent numbers", s.NumberFrequency)
	if len(s.SpecialFrequency) > 0 {
		f.writeFrequencies(&b, "Most frequent special numbers", s.SpecialFrequency)
	}
	return []byte(b.String()), nil
}

func (f *terminalFormatter) writeFrequencies(b *strings.Builder, title string, freq map[string]int) {
	_, _ = f.title.Fprintln(b, title)

	ranked := rankFrequencies(freq)
	if len(ranked) > topFrequencies {
		ranked = ranked[:topFrequencies]
	}

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow("NUMBER", "COUNT")
	for _, e := range ranked {
		tbl.AddRow(e.number, strconv.Itoa(e.count))
	}
	b.WriteString(tbl.String() + "\n\n")
}

func (f *terminalFormatter) Health(h *lottery.Health) ([]byte, error) {
	var b strings.Builder
	f.writeHealth(&b, h, "")
	return []byte(b.String()), nil
}

func (f *terminalFormatter) writeHealth(b *strings.Builder, h *lottery.Health, failure string) {
	if h == nil {
		_, _ = f.bad.Fprintf(b, "%sunreachable: %s\n", emoji.Prefix("health"), failure)
		return
	}

	c := f.good
	if !h.Healthy() {
		c = f.bad
	}
	_, _ = c.Fprintf(b, "%s%s\n", emoji.Prefix("health"), h.Status)

	var items []termfmt.TreeItem
	if h.Database != "" {
		items = append(items, termfmt.TreeItem{Label: "Database", Value: h.Database})
	}
	if h.TotalDraws > 0 {
		items = append(items, termfmt.TreeItem{Label: "Draws", Value: formatNumber(h.TotalDraws)})
	}
	if h.Error != "" {
		items = append(items, termfmt.TreeItem{Label: "Error", Value: h.Error})
	}
	if !h.Timestamp.IsZero() {
		items = append(items, termfmt.TreeItem{Label: "Checked", Value: h.Timestamp.Format(time.DateTime)})
	}
	if len(items) > 0 {
		items[len(items)-1].Last = true
		b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n")
	}
}

func (f *terminalFormatter) Status(s *Status) ([]byte, error) {
	var b strings.Builder

	_, _ = f.title.Fprintln(&b, "Service")
	_, _ = f.faint.Fprintln(&b, s.BaseURL)
	f.writeHealth(&b, s.Health, s.HealthError)
	b.WriteString("\n")

	if s.Latest == nil {
		_, _ = f.bad.Fprintf(&b, "%slatest analysis: %s\n", emoji.Prefix("error"), s.LatestError)
		return []byte(b.String()), nil
	}
	f.writeDraw(&b, s.Latest)
	return []byte(b.String()), nil
}

type frequency struct {
	number string
	count  int
}

// rankFrequencies orders by count descending, then by number ascending
func rankFrequencies(freq map[string]int) []frequency {
	out := make([]frequency, 0, len(freq))
	for n, c := range freq {
		out = append(out, frequency{number: n, count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		a, errA := strconv.Atoi(out[i].number)
		b, errB := strconv.Atoi(out[j].number)
		if errA == nil && errB == nil {
			return a < b
		}
		return out[i].number < out[j].number
	})
	return out
}

func dateRange(m map[string]interface{}) (string, string) {
	get := func(key string) string {
		if v, ok := m[key]; ok && v != nil {
			return fmt.Sprint(v)
		}
		return ""
	}
	return get("start"), get("end")
}

func dateOrDash(d lottery.Date) string {
	if d.IsZero() {
		return "-"
	}
	return d.String()
}

func timestampOrDash(t lottery.Timestamp) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.DateTime)
}
