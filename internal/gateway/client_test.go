package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordedCall struct {
	op      string
	outcome string
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (r *fakeRecorder) ObserveRequest(op, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recordedCall{op: op, outcome: outcome})
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *fakeRecorder) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	rec := &fakeRecorder{}
	c, err := New(Config{BaseURL: srv.URL}, WithHTTPClient(srv.Client()), WithRecorder(rec))
	require.NoError(t, err)
	return c, rec
}

func TestNewValidatesBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{"empty", "", true},
		{"no scheme", "localhost:8000", true},
		{"ftp", "ftp://example.com", true},
		{"http", "http://localhost:8000", false},
		{"https with path", "https://example.com/lotto", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(Config{BaseURL: tt.baseURL})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHistoryRequest(t *testing.T) {
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/history", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"period":"114054","draw_date":"2025-06-30","numbers":[3,11,17,22,31,38],"special_number":7}],"total":25,"page":2,"per_page":10}`))
	})

	page, err := c.History(context.Background(), 2, 10)
	require.NoError(t, err)

	assert.Equal(t, 2, page.PageIndex)
	assert.Equal(t, 25, page.TotalCount)
	assert.Equal(t, 3, page.TotalPages())
	require.Len(t, page.Items, 1)
	assert.Equal(t, "114054", page.Items[0].Period.String())
	assert.Equal(t, []recordedCall{{op: "history", outcome: "success"}}, rec.calls)
}

func TestRequestIDIsUniquePerCall(t *testing.T) {
	var (
		mu  sync.Mutex
		ids []string
	)
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		ids = append(ids, r.Header.Get("X-Request-ID"))
		mu.Unlock()
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})

	for i := 0; i < 2; i++ {
		_, err := c.Health(context.Background())
		require.NoError(t, err)
	}
	require.Len(t, ids, 2)
	assert.NotEqual(t, ids[0], ids[1])
}

func TestBaseURLWithPathPrefix(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/lotto/api/latest-number", r.URL.Path)
		_, _ = w.Write([]byte(`{"latest_period":"114054","latest_numbers":[1,2,3,4,5,6]}`))
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL + "/lotto"}, WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	got, err := c.LatestAnalysis(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, got.LatestNumbers)
}

func TestUpdateBusinessFailureIsNotAnError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		_, _ = w.Write([]byte(`{"success":false,"message":"no new draws","updated_count":0}`))
	})

	out, err := c.Update(context.Background())
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, "no new draws", out.Message)
}

func TestFailureMessages(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		call     func(*Client) error
		wantKind Kind
		wantMsg  string
	}{
		{
			name:     "detail string",
			status:   http.StatusServiceUnavailable,
			body:     `{"detail":"source unavailable"}`,
			call:     func(c *Client) error { _, err := c.Update(context.Background()); return err },
			wantKind: KindStatus,
			wantMsg:  "source unavailable",
		},
		{
			name:     "detail list",
			status:   http.StatusUnprocessableEntity,
			body:     `{"detail":[{"loc":["query","page"],"msg":"page must be positive"},{"msg":"limit too large"}]}`,
			call:     func(c *Client) error { _, err := c.History(context.Background(), 0, 1000); return err },
			wantKind: KindStatus,
			wantMsg:  "page must be positive; limit too large",
		},
		{
			name:     "message field",
			status:   http.StatusInternalServerError,
			body:     `{"message":"database locked"}`,
			call:     func(c *Client) error { _, err := c.Statistics(context.Background()); return err },
			wantKind: KindStatus,
			wantMsg:  "database locked",
		},
		{
			name:     "blank detail falls back",
			status:   http.StatusInternalServerError,
			body:     `{"detail":"  "}`,
			call:     func(c *Client) error { _, err := c.LatestAnalysis(context.Background()); return err },
			wantKind: KindStatus,
			wantMsg:  "failed to load the latest analysis",
		},
		{
			name:     "html body falls back",
			status:   http.StatusBadGateway,
			body:     `<html>bad gateway</html>`,
			call:     func(c *Client) error { _, err := c.History(context.Background(), 1, 10); return err },
			wantKind: KindStatus,
			wantMsg:  "failed to load draw history",
		},
		{
			name:     "health without detail",
			status:   http.StatusServiceUnavailable,
			body:     ``,
			call:     func(c *Client) error { _, err := c.Health(context.Background()); return err },
			wantKind: KindStatus,
			wantMsg:  ConnectivityMessage,
		},
		{
			name:     "malformed success body",
			status:   http.StatusOK,
			body:     `{"data": "nope"`,
			call:     func(c *Client) error { _, err := c.History(context.Background(), 1, 10); return err },
			wantKind: KindDecode,
			wantMsg:  "failed to load draw history",
		},
		{
			name:     "wrong shape on update",
			status:   http.StatusOK,
			body:     `{"success":"yes"}`,
			call:     func(c *Client) error { _, err := c.Update(context.Background()); return err },
			wantKind: KindDecode,
			wantMsg:  "update failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			err := tt.call(c)
			require.Error(t, err)

			var f *Failure
			require.True(t, errors.As(err, &f))
			assert.Equal(t, tt.wantKind, f.Kind)
			assert.Equal(t, tt.wantMsg, Message(err))
			assert.Equal(t, tt.wantMsg, f.UserMessage())
		})
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	rec := &fakeRecorder{}
	c, err := New(Config{BaseURL: url, Timeout: time.Second}, WithRecorder(rec))
	require.NoError(t, err)

	_, err = c.Health(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))
	assert.Equal(t, ConnectivityMessage, Message(err))

	_, err = c.History(context.Background(), 1, 10)
	require.Error(t, err)
	assert.Equal(t, "failed to load draw history: "+ConnectivityMessage, Message(err))
	assert.False(t, errors.Is(err, ErrStatus))

	assert.Equal(t, []recordedCall{
		{op: "health", outcome: "transport"},
		{op: "history", outcome: "transport"},
	}, rec.calls)
}

func TestCancelledContext(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.LatestAnalysis(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.True(t, errors.Is(err, ErrTransport))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "plain", Message(errors.New("plain")))

	wrapped := errors.Join(errors.New("context"), &Failure{Op: OpUpdate, Kind: KindStatus, Message: "source unavailable"})
	assert.Equal(t, "source unavailable", Message(wrapped))
}
