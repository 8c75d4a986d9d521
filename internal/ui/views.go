package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/yildizm/LottoView/internal/emoji"
	"github.com/yildizm/LottoView/internal/fetch"
	"github.com/yildizm/LottoView/internal/lottery"
	"github.com/yildizm/LottoView/internal/router"
	"github.com/yildizm/LottoView/internal/ui/components"
	"github.com/yildizm/LottoView/internal/update"
)

// View renders the active screen
func (m *App) View() string {
	var body string
	switch m.router.Active() {
	case router.History:
		body = m.renderHistory()
	default:
		body = m.renderHome()
	}

	sections := []string{m.renderHeader(), "", body, ""}
	if m.addressing {
		sections = append(sections, m.address.View())
	}
	sections = append(sections, m.help.View(m.keys))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *App) renderHeader() string {
	title := m.styles.Title.Render(emoji.Prefix("ticket") + "LottoView")
	location := m.styles.Muted.Render(m.api().BaseURL() + " " + m.router.Location().String())
	return lipgloss.JoinHorizontal(lipgloss.Center, title, " ", m.renderHealthBadge(), " ", location)
}

func (m *App) renderHealthBadge() string {
	state := m.health.State()
	switch state.Status {
	case fetch.Loading, fetch.Idle:
		return m.spinner.View()
	case fetch.Failure:
		return m.styles.Error.Render("● offline")
	}

	h := state.Data
	if h == nil {
		return m.styles.Muted.Render("● unknown")
	}
	if !h.Healthy() {
		return m.styles.Warning.Render("● " + h.Status)
	}
	badge := "● online"
	if h.TotalDraws > 0 {
		badge += fmt.Sprintf(" (%d draws)", h.TotalDraws)
	}
	return m.styles.Success.Render(badge)
}

func (m *App) renderHome() string {
	state := m.home.State()
	analysis, ok := m.home.Data()

	var rows []string
	switch {
	case state.Status == fetch.Failure:
		rows = append(rows, m.renderFailure(state.Err))
	case !ok:
		rows = append(rows, m.spinner.View()+" "+m.styles.Muted.Render("loading the latest analysis..."))
	}

	if ok && state.Status != fetch.Failure {
		rows = append(rows, m.renderAnalysis(analysis))
	}

	rows = append(rows, "", m.renderUpdateControl())
	if msg := m.updater.Message(); msg.Visible() {
		style := m.styles.Success
		if msg.Kind == update.Failed {
			style = m.styles.Error
		}
		rows = append(rows, style.Render(msg.Text))
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *App) renderAnalysis(a *lottery.LatestAnalysis) string {
	heading := m.styles.Header.Render(fmt.Sprintf("%sLatest draw %s", emoji.Prefix("calendar"), a.LatestPeriod))
	if !a.LatestDate.IsZero() {
		heading += m.styles.Muted.Render("  " + a.LatestDate.String())
	}
	if m.home.State().Status == fetch.Loading {
		heading += " " + m.spinner.View()
	}

	rows := []string{
		heading,
		"  " + m.balls(a.LatestNumbers, a.LatestSpecial),
		"",
		m.renderRecommendations(emoji.Prefix("avoid")+"Recommended to avoid", a.RecommendedAvoidNumbers, a.RecommendedAvoidSets),
	}
	if len(a.RecommendedLikelyNumbers) > 0 || len(a.RecommendedLikelySets) > 0 {
		rows = append(rows, "", m.renderRecommendations(emoji.Prefix("likely")+"Likely to appear", a.RecommendedLikelyNumbers, a.RecommendedLikelySets))
	}

	summary := components.NewStatsCard("Periods analysed", strconv.Itoa(a.AnalysisSummary.TotalPeriods), "").
		SetIcon(emoji.GetEmoji("statistics"))
	cards := []*components.StatsCard{summary}
	if !a.AnalysisSummary.LastUpdate.IsZero() {
		cards = append(cards, components.NewStatsCard("Last update", a.AnalysisSummary.LastUpdate.Format(time.DateTime), "").
			SetIcon(emoji.GetEmoji("clock")))
	}
	rows = append(rows, "", components.Row(cards...))

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *App) renderRecommendations(title string, numbers []int, sets [][]int) string {
	rows := []string{m.styles.Subheader.Render(title), "  " + m.balls(numbers, nil)}

	if len(sets) > lottery.MaxRecommendationSets {
		sets = sets[:lottery.MaxRecommendationSets]
	}
	for i, set := range sets {
		rows = append(rows, fmt.Sprintf("  %s %s", m.styles.Muted.Render(fmt.Sprintf("%2d.", i+1)), m.balls(set, nil)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *App) renderUpdateControl() string {
	if m.updater.Busy() {
		return m.styles.Disabled.Render("[u] updating...") + " " + m.spinner.View()
	}
	return m.styles.Selected.Render(" [u] " + emoji.Prefix("update") + "Update draws ")
}

func (m *App) renderHistory() string {
	state := m.draws.State()
	page, ok := m.draws.Data()

	heading := m.styles.Header.Render(emoji.Prefix("history") + "Draw history")
	if m.draws.TotalPages() > 0 {
		heading += m.styles.Muted.Render(fmt.Sprintf("  page %d of %d, total %d draws",
			m.draws.CurrentPage(), m.draws.TotalPages(), m.draws.TotalCount()))
	}
	if state.Status == fetch.Loading {
		heading += " " + m.spinner.View()
	}

	rows := []string{heading, ""}
	switch {
	case state.Status == fetch.Failure:
		rows = append(rows, m.renderFailure(state.Err))
	case !ok:
		rows = append(rows, m.styles.Muted.Render("loading draws..."))
	case len(page.Items) == 0:
		rows = append(rows, m.styles.Muted.Render("no draws recorded yet"))
	default:
		rows = append(rows, m.renderDrawTable(page.Items), "", m.renderPager())
	}

	if m.verbose {
		rows = append(rows, "", m.styles.Muted.Render(fmt.Sprintf("debug: status=%s seq=%d requested=%d current=%d size=%d total=%d pages=%d",
			state.Status, m.draws.Seq(), m.draws.RequestedPage(), m.draws.CurrentPage(),
			m.draws.PageSize(), m.draws.TotalCount(), m.draws.TotalPages())))
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *App) renderDrawTable(items []lottery.DrawRecord) string {
	periodCol := lipgloss.NewStyle().Width(10)
	dateCol := lipgloss.NewStyle().Width(12)

	rows := []string{m.styles.Subheader.Render(periodCol.Render("PERIOD") + dateCol.Render("DATE") + "NUMBERS")}
	for _, d := range items {
		date := "-"
		if !d.DrawDate.IsZero() {
			date = d.DrawDate.String()
		}
		rows = append(rows, periodCol.Render(d.Period.String())+dateCol.Render(date)+m.balls(d.Numbers, d.SpecialNumber))
	}
	return strings.Join(rows, "\n")
}

func (m *App) renderPager() string {
	return components.Pager{
		Current:  m.draws.CurrentPage(),
		Total:    m.draws.TotalPages(),
		Window:   m.draws.PageWindow(m.pageWindow),
		HasPrev:  m.draws.HasPrev(),
		HasNext:  m.draws.HasNext(),
		Active:   m.styles.Selected,
		Normal:   m.styles.Header,
		Disabled: m.styles.Disabled,
	}.Render()
}

func (m *App) renderFailure(text string) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		m.styles.Error.Render(emoji.Prefix("error")+text),
		m.styles.Muted.Render("press r to retry"),
	)
}

func (m *App) balls(numbers []int, special *int) string {
	return components.Balls(numbers, special, m.styles.Theme.Ball, m.styles.Theme.Special)
}
