package ui

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yildizm/LottoView/internal/config"
	"github.com/yildizm/LottoView/internal/emoji"
	"github.com/yildizm/LottoView/internal/fetch"
	"github.com/yildizm/LottoView/internal/gateway"
	"github.com/yildizm/LottoView/internal/router"
	"github.com/yildizm/LottoView/internal/update"
)

// cmdTimeout bounds how long the driver waits on one command. Ticks longer
// than this (message expiry in these tests) are dropped.
const cmdTimeout = 300 * time.Millisecond

type fakeService struct {
	totalDraws   int
	latestCalls  atomic.Int32
	historyCalls atomic.Int32
	latestFails  atomic.Bool
	update       http.HandlerFunc
}

func (s *fakeService) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/latest-number", func(w http.ResponseWriter, r *http.Request) {
		n := s.latestCalls.Add(1)
		if s.latestFails.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeJSON(t, w, map[string]interface{}{
			"latest_period":             114000 + int(n),
			"latest_date":               "2025-06-30",
			"latest_numbers":            []int{3, 11, 17, 22, 31, 38},
			"latest_special":            7,
			"recommended_avoid_numbers": []int{1, 2},
			"recommended_avoid_sets":    [][]int{{1, 2, 4, 5, 6, 8}},
			"analysis_summary":          map[string]interface{}{"total_periods": 1200},
		})
	})
	mux.HandleFunc("/api/history", func(w http.ResponseWriter, r *http.Request) {
		s.historyCalls.Add(1)
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		var items []map[string]interface{}
		for i := (page - 1) * limit; i < page*limit && i < s.totalDraws; i++ {
			items = append(items, map[string]interface{}{
				"period":    114100 - i,
				"draw_date": "2025-06-01",
				"numbers":   []int{1, 2, 3, 4, 5, 6},
			})
		}
		writeJSON(t, w, map[string]interface{}{
			"data": items, "total": s.totalDraws, "page": page, "per_page": limit,
		})
	})
	mux.HandleFunc("/api/update", func(w http.ResponseWriter, r *http.Request) {
		s.update(w, r)
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]interface{}{"status": "healthy", "total_draws": s.totalDraws})
	})
	return mux
}

func writeJSON(t *testing.T, w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	assert.NoError(t, json.NewEncoder(w).Encode(v))
}

func newService(t *testing.T, svc *fakeService) *gateway.Client {
	t.Helper()
	srv := httptest.NewServer(svc.handler(t))
	t.Cleanup(srv.Close)

	c, err := gateway.New(gateway.Config{BaseURL: srv.URL}, gateway.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c
}

// driver runs commands the way the bubbletea runtime would, feeding each
// message back into the app.
type driver struct {
	t   *testing.T
	app *App
}

func start(t *testing.T, opts Options) *driver {
	t.Helper()
	emoji.SetEmojiDisabled(true)
	t.Cleanup(func() { emoji.SetEmojiDisabled(false) })

	if opts.PageSize == 0 {
		opts.PageSize = 10
	}
	if opts.MessageTTL == 0 {
		opts.MessageTTL = time.Minute
	}
	d := &driver{t: t, app: New(opts)}
	t.Cleanup(d.app.Close)
	d.run(d.app.Init())
	return d
}

func (d *driver) run(cmd tea.Cmd) {
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}

		msg, ok := execute(c)
		if !ok {
			continue
		}
		switch msg := msg.(type) {
		case nil, spinner.TickMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			_, next := d.app.Update(msg)
			queue = append(queue, next)
		}
	}
}

func (d *driver) press(keys string) {
	for _, r := range keys {
		d.key(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func (d *driver) key(msg tea.KeyMsg) {
	_, cmd := d.app.Update(msg)
	d.run(cmd)
}

func execute(cmd tea.Cmd) (tea.Msg, bool) {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg, true
	case <-time.After(cmdTimeout):
		return nil, false
	}
}

func TestHistoryPagination(t *testing.T) {
	svc := &fakeService{totalDraws: 25}
	d := start(t, Options{Backend: newService(t, svc), Location: "/history"})

	require.Equal(t, router.History, d.app.Active())
	require.Equal(t, fetch.Success, d.app.draws.State().Status)
	assert.Equal(t, 1, d.app.draws.CurrentPage())
	assert.False(t, d.app.draws.HasPrev())

	d.press("n")

	assert.Equal(t, 2, d.app.draws.CurrentPage())
	assert.Equal(t, 3, d.app.draws.TotalPages())
	assert.True(t, d.app.draws.HasPrev())
	assert.True(t, d.app.draws.HasNext())

	view := d.app.View()
	assert.Contains(t, view, "page 2 of 3, total 25 draws")
	assert.Contains(t, view, "[2]")
	assert.Contains(t, view, "114090")
	assert.NotContains(t, view, "114100")
}

func TestHistoryPageOutOfRangeIsIgnored(t *testing.T) {
	svc := &fakeService{totalDraws: 25}
	d := start(t, Options{Backend: newService(t, svc), Location: "/history"})
	calls := svc.historyCalls.Load()

	d.press("p9")

	assert.Equal(t, calls, svc.historyCalls.Load())
	assert.Equal(t, 1, d.app.draws.CurrentPage())

	d.press("3")
	assert.Equal(t, 3, d.app.draws.CurrentPage())
	assert.False(t, d.app.draws.HasNext())
}

func TestEmptyHistory(t *testing.T) {
	svc := &fakeService{}
	d := start(t, Options{Backend: newService(t, svc), Location: "/history"})

	assert.Contains(t, d.app.View(), "no draws recorded yet")
}

func TestFailedUpdateKeepsHomeData(t *testing.T) {
	svc := &fakeService{totalDraws: 25, update: func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = fmt.Fprint(w, `{"detail":"source unavailable"}`)
	}}
	d := start(t, Options{Backend: newService(t, svc)})

	require.Equal(t, router.Home, d.app.Active())
	before, ok := d.app.home.Data()
	require.True(t, ok)

	d.press("u")

	msg := d.app.updater.Message()
	assert.Equal(t, update.Failed, msg.Kind)
	assert.Contains(t, msg.Text, "source unavailable")
	assert.Contains(t, d.app.View(), "source unavailable")

	after, _ := d.app.home.Data()
	assert.Same(t, before, after)
	assert.Equal(t, int32(1), svc.latestCalls.Load(), "a failed update must not refresh")
}

func TestSuccessfulUpdateRefreshesHome(t *testing.T) {
	svc := &fakeService{totalDraws: 25, update: func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		_, _ = fmt.Fprint(w, `{"success":true,"message":"Fetched","updated_count":2}`)
	}}
	d := start(t, Options{Backend: newService(t, svc)})

	d.press("u")

	assert.Contains(t, d.app.updater.Message().Text, "Fetched, 2 draws updated")
	assert.Equal(t, int32(2), svc.latestCalls.Load())
	latest, _ := d.app.home.Data()
	assert.Equal(t, "114002", latest.LatestPeriod.String())
}

func TestUpdateIgnoredWhileBusy(t *testing.T) {
	svc := &fakeService{update: func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"success":false,"message":"no new draws"}`)
	}}
	d := start(t, Options{Backend: newService(t, svc)})

	_, first := d.app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("u")})
	require.NotNil(t, first)
	assert.True(t, d.app.updater.Busy())
	assert.Contains(t, d.app.View(), "updating...")

	_, second := d.app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("u")})
	assert.Nil(t, second)

	d.run(first)
	assert.False(t, d.app.updater.Busy())
	assert.Contains(t, d.app.updater.Message().Text, "no new draws")
}

func TestMessageExpires(t *testing.T) {
	svc := &fakeService{update: func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"success":false,"message":"no new draws"}`)
	}}
	d := start(t, Options{Backend: newService(t, svc), MessageTTL: 20 * time.Millisecond})

	d.press("u")

	assert.False(t, d.app.updater.Message().Visible())
}

func TestNavigation(t *testing.T) {
	svc := &fakeService{totalDraws: 5}
	d := start(t, Options{Backend: newService(t, svc)})
	require.Equal(t, router.Home, d.app.Active())

	d.press("h")
	assert.Equal(t, router.History, d.app.Active())
	assert.Equal(t, router.HistoryPath, d.app.router.Location().Path)
	assert.Equal(t, fetch.Success, d.app.draws.State().Status)

	d.press("b")
	assert.Equal(t, router.Home, d.app.Active())
	assert.Equal(t, int32(2), svc.latestCalls.Load(), "returning home reloads the analysis")

	d.press("f")
	assert.Equal(t, router.History, d.app.Active())

	d.key(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, router.Home, d.app.Active())
}

func TestAddressBar(t *testing.T) {
	svc := &fakeService{totalDraws: 5}
	d := start(t, Options{Backend: newService(t, svc)})

	d.press("g")
	require.True(t, d.app.addressing)
	assert.Contains(t, d.app.View(), "location: ")

	d.app.address.SetValue("/#/history")
	d.key(tea.KeyMsg{Type: tea.KeyEnter})

	assert.False(t, d.app.addressing)
	assert.Equal(t, router.History, d.app.Active())
	assert.Equal(t, "#/history", d.app.router.Location().Hash)

	// keys typed into the bar do not navigate
	d.press("g")
	d.press("h")
	d.key(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, router.History, d.app.Active())
}

func TestFetchFailureAndRetry(t *testing.T) {
	svc := &fakeService{}
	svc.latestFails.Store(true)
	d := start(t, Options{Backend: newService(t, svc)})

	assert.Equal(t, fetch.Failure, d.app.home.State().Status)
	view := d.app.View()
	assert.Contains(t, view, "failed to load the latest analysis")
	assert.Contains(t, view, "press r to retry")

	svc.latestFails.Store(false)
	d.press("r")
	assert.Equal(t, fetch.Success, d.app.home.State().Status)
}

func TestConfigReload(t *testing.T) {
	first := newService(t, &fakeService{})
	second := newService(t, &fakeService{})

	cfg := config.DefaultConfig()
	cfg.SetBaseURL(second.BaseURL())
	cfg.Update.MessageTTL = 5 * time.Second
	cfg.Router.StrictMatch = true

	reloads := make(chan config.Reload, 2)
	reloads <- config.Reload{Err: fmt.Errorf("broken file")}
	reloads <- config.Reload{Config: cfg}

	d := start(t, Options{
		Backend:  first,
		Location: "/draw-history",
		Reloads:  reloads,
		Connect: func(c *config.Config) (Backend, error) {
			client, err := gateway.New(gateway.Config{BaseURL: c.BaseURL()})
			if err != nil {
				return nil, err
			}
			return client, nil
		},
	})

	assert.Equal(t, second.BaseURL(), d.app.api().BaseURL())
	assert.Equal(t, 5*time.Second, d.app.updater.TTL())
	assert.True(t, d.app.router.Policy().Strict)
	assert.Equal(t, router.Home, d.app.Active(), "strict matching drops the keyword rule")
}
