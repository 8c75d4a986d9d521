// Package fetch implements the load/retry/paginate state machine shared by
// every screen. A Controller never performs I/O on the event loop: Load and
// friends return a tea.Cmd, and the resulting ResultMsg is handed back to
// Apply, which discards completions that are no longer the latest request.
package fetch

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/yildizm/LottoView/internal/logger"
	"github.com/yildizm/LottoView/internal/lottery"
)

// Status of a controller.
type Status int

const (
	Idle Status = iota
	Loading
	Success
	Failure
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "unknown"
	}
}

// State is a snapshot of a controller. Data is meaningful only when Status is
// Success, Err only when Status is Failure.
type State[T any] struct {
	Status Status
	Data   T
	Err    string
}

// PageFunc fetches one page and reports the total item count.
type PageFunc[T any] func(ctx context.Context, page, size int) (T, int, error)

// ResultMsg carries a finished fetch back to the event loop.
type ResultMsg[T any] struct {
	ID    string
	Seq   uint64
	Page  int
	Data  T
	Total int
	Err   error
}

// Recorder receives one observation per completion. metrics.Collector
// satisfies it.
type Recorder interface {
	ObserveCompletion(controller, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveCompletion(string, string) {}

// Controller owns the fetch state of a single screen. It must only be used
// from the event loop.
type Controller[T any] struct {
	id       string
	fn       PageFunc[T]
	pageSize int
	paged    bool

	seq           uint64
	requestedPage int
	currentPage   int
	totalCount    int
	totalPages    int

	state    State[T]
	last     T
	hasLast  bool
	log      *logger.Logger
	recorder Recorder
	ctx      context.Context
}

// Option customizes a Controller.
type Option func(*options)

type options struct {
	log      *logger.Logger
	recorder Recorder
	ctx      context.Context
}

// WithLogger sets the logger used for transition records.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithRecorder sets the metrics sink.
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithContext sets the context passed to every fetch.
func WithContext(ctx context.Context) Option {
	return func(o *options) { o.ctx = ctx }
}

func buildOptions(opts []Option) options {
	o := options{log: logger.Nop(), recorder: nopRecorder{}, ctx: context.Background()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New creates a paginated controller. pageSize must be positive.
func New[T any](id string, fn PageFunc[T], pageSize int, opts ...Option) *Controller[T] {
	if pageSize < 1 {
		pageSize = 1
	}
	o := buildOptions(opts)
	return &Controller[T]{
		id:       id,
		fn:       fn,
		pageSize: pageSize,
		paged:    true,
		log:      o.log,
		recorder: o.recorder,
		ctx:      o.ctx,
	}
}

// NewSingle creates the degenerate variant: page fixed at 1, no pagination.
func NewSingle[T any](id string, fn func(ctx context.Context) (T, error), opts ...Option) *Controller[T] {
	c := New(id, func(ctx context.Context, _, _ int) (T, int, error) {
		v, err := fn(ctx)
		return v, 0, err
	}, 1, opts...)
	c.paged = false
	return c
}

// ID returns the controller name used in messages, logs and metrics.
func (c *Controller[T]) ID() string { return c.id }

// Load transitions to Loading and returns the command that performs the
// fetch. Pages below 1 are coerced to 1; pages beyond TotalPages are issued
// anyway since the service is authoritative.
func (c *Controller[T]) Load(page int) tea.Cmd {
	if page < 1 || !c.paged {
		page = 1
	}

	c.seq++
	seq := c.seq
	c.requestedPage = page
	c.state.Status = Loading
	c.state.Err = ""

	c.log.DebugWithFields("fetch issued", []logger.Field{
		logger.F("controller", c.id),
		logger.F("seq", seq),
		logger.F("page", page),
	})

	fn, ctx, size, id := c.fn, c.ctx, c.pageSize, c.id
	return func() tea.Msg {
		data, total, err := fn(ctx, page, size)
		return ResultMsg[T]{ID: id, Seq: seq, Page: page, Data: data, Total: total, Err: err}
	}
}

// GoToPage loads page if it lies within [1, TotalPages]; otherwise it returns
// nil and leaves the controller untouched.
func (c *Controller[T]) GoToPage(page int) tea.Cmd {
	if !c.paged || page < 1 || page > c.totalPages {
		return nil
	}
	return c.Load(page)
}

// Retry re-issues the last requested page.
func (c *Controller[T]) Retry() tea.Cmd {
	page := c.requestedPage
	if page < 1 {
		page = 1
	}
	return c.Load(page)
}

// Apply records msg if it belongs to this controller and answers the most
// recently issued request. It reports whether the state changed.
func (c *Controller[T]) Apply(msg ResultMsg[T]) bool {
	if msg.ID != c.id {
		return false
	}
	if msg.Seq != c.seq {
		c.log.DebugWithFields("stale fetch discarded", []logger.Field{
			logger.F("controller", c.id),
			logger.F("seq", msg.Seq),
			logger.F("latest", c.seq),
		})
		c.recorder.ObserveCompletion(c.id, "stale")
		return false
	}

	if msg.Err != nil {
		var zero T
		c.state = State[T]{Status: Failure, Data: zero, Err: errorMessage(msg.Err)}
		c.log.DebugWithFields("fetch failed", []logger.Field{
			logger.F("controller", c.id),
			logger.F("seq", msg.Seq),
			logger.Error(msg.Err),
		})
		c.recorder.ObserveCompletion(c.id, "failure")
		return true
	}

	c.state = State[T]{Status: Success, Data: msg.Data}
	c.last = msg.Data
	c.hasLast = true
	c.currentPage = msg.Page
	if c.paged {
		c.totalCount = msg.Total
		c.totalPages = lottery.TotalPages(msg.Total, c.pageSize)
	}

	c.log.DebugWithFields("fetch succeeded", []logger.Field{
		logger.F("controller", c.id),
		logger.F("seq", msg.Seq),
		logger.F("page", msg.Page),
		logger.F("total_pages", c.totalPages),
	})
	c.recorder.ObserveCompletion(c.id, "success")
	return true
}

// State returns the current snapshot.
func (c *Controller[T]) State() State[T] { return c.state }

// Data returns the result of the last successful load, which survives later
// Loading and Failure transitions.
func (c *Controller[T]) Data() (T, bool) { return c.last, c.hasLast }

// Seq returns the sequence number of the most recently issued request.
func (c *Controller[T]) Seq() uint64 { return c.seq }

// PageSize returns the page size requested on every load.
func (c *Controller[T]) PageSize() int { return c.pageSize }

// RequestedPage is the page of the most recent Load.
func (c *Controller[T]) RequestedPage() int { return c.requestedPage }

// CurrentPage is the page of the last successful load, 0 before any.
func (c *Controller[T]) CurrentPage() int { return c.currentPage }

// TotalCount as reported by the last successful load.
func (c *Controller[T]) TotalCount() int { return c.totalCount }

// TotalPages is 0 until the first successful load.
func (c *Controller[T]) TotalPages() int { return c.totalPages }

func (c *Controller[T]) HasPrev() bool {
	return c.totalPages > 0 && c.currentPage > 1
}

func (c *Controller[T]) HasNext() bool {
	return c.totalPages > 0 && c.currentPage < c.totalPages
}

// PageWindow returns up to n consecutive page numbers starting two before the
// current page.
func (c *Controller[T]) PageWindow(n int) []int {
	if c.totalPages == 0 || n < 1 {
		return nil
	}
	start := c.currentPage - 2
	if start < 1 {
		start = 1
	}
	pages := make([]int, 0, n)
	for p := start; p <= c.totalPages && len(pages) < n; p++ {
		pages = append(pages, p)
	}
	return pages
}

// userMessage is implemented by gateway failures.
type userMessage interface {
	UserMessage() string
}

func errorMessage(err error) string {
	var um userMessage
	if errors.As(err, &um) {
		return um.UserMessage()
	}
	return err.Error()
}
