// Package update sequences a manual refresh from the upstream source: write,
// then re-read the home analysis, then show an outcome message that clears
// itself after a fixed delay.
package update

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/yildizm/LottoView/internal/emoji"
	"github.com/yildizm/LottoView/internal/logger"
	"github.com/yildizm/LottoView/internal/lottery"
)

// DefaultTTL is how long an outcome message stays visible.
const DefaultTTL = 3000 * time.Millisecond

// Kind classifies the visible message for styling.
type Kind int

const (
	None Kind = iota
	Succeeded
	Failed
)

// Message is the outcome shown to the user. The zero value means nothing is
// shown.
type Message struct {
	Text string
	Kind Kind
}

// Visible reports whether there is a message to render.
func (m Message) Visible() bool { return m.Text != "" }

// SubmitFunc performs the write. gateway.Client.Update satisfies it.
type SubmitFunc func(ctx context.Context) (*lottery.UpdateOutcome, error)

// RefreshFunc returns the command that re-reads the home analysis.
type RefreshFunc func() tea.Cmd

// DoneMsg carries the result of the write back to the event loop.
type DoneMsg struct {
	gen     uint64
	Outcome *lottery.UpdateOutcome
	Err     error
}

// ExpireMsg asks the orchestrator to clear the message set by generation gen.
type ExpireMsg struct {
	gen uint64
}

// Recorder receives one observation per finished update.
type Recorder interface {
	ObserveUpdate(result string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveUpdate(string) {}

// Orchestrator owns the outcome message and its expiry. It does not reject
// overlapping Perform calls: the triggering control must check Busy first,
// so at most one update is in flight at a time.
type Orchestrator struct {
	submit  SubmitFunc
	refresh RefreshFunc
	ttl     time.Duration
	ctx     context.Context

	gen      uint64
	inFlight bool
	message  Message

	log      *logger.Logger
	recorder Recorder
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithTTL overrides DefaultTTL.
func WithTTL(d time.Duration) Option {
	return func(o *Orchestrator) { o.SetTTL(d) }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// WithRecorder sets the metrics sink.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithContext sets the context passed to submit.
func WithContext(ctx context.Context) Option {
	return func(o *Orchestrator) { o.ctx = ctx }
}

// New creates an Orchestrator. refresh may be nil.
func New(submit SubmitFunc, refresh RefreshFunc, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		submit:   submit,
		refresh:  refresh,
		ttl:      DefaultTTL,
		ctx:      context.Background(),
		log:      logger.Nop(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SetTTL changes the delay for messages set from now on. Non-positive values
// restore DefaultTTL.
func (o *Orchestrator) SetTTL(d time.Duration) {
	if d <= 0 {
		d = DefaultTTL
	}
	o.ttl = d
}

// TTL returns the current message delay.
func (o *Orchestrator) TTL() time.Duration { return o.ttl }

// SetSubmit replaces the write function, e.g. after the gateway was rebuilt.
func (o *Orchestrator) SetSubmit(submit SubmitFunc) { o.submit = submit }

// Message returns what should currently be displayed.
func (o *Orchestrator) Message() Message { return o.message }

// Busy reports whether an update is in flight.
func (o *Orchestrator) Busy() bool { return o.inFlight }

// Perform clears the current message immediately and returns the command that
// runs the write. Any pending expiry from an earlier call becomes stale.
func (o *Orchestrator) Perform() tea.Cmd {
	o.message = Message{}
	o.gen++
	o.inFlight = true

	gen, submit, ctx := o.gen, o.submit, o.ctx
	o.log.Debug("update started (gen %d)", gen)

	return func() tea.Msg {
		outcome, err := submit(ctx)
		return DoneMsg{gen: gen, Outcome: outcome, Err: err}
	}
}

// Update handles DoneMsg and ExpireMsg; other messages are ignored.
func (o *Orchestrator) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case DoneMsg:
		return o.handleDone(msg)
	case ExpireMsg:
		o.handleExpire(msg)
	}
	return nil
}

func (o *Orchestrator) handleDone(msg DoneMsg) tea.Cmd {
	if msg.gen != o.gen {
		return nil
	}
	o.inFlight = false

	var refresh tea.Cmd
	switch {
	case msg.Err != nil:
		o.message = Message{
			Text: fmt.Sprintf("%sUpdate failed: %s", emoji.Prefix("error"), failureText(msg.Err)),
			Kind: Failed,
		}
		o.recorder.ObserveUpdate("failure")
		o.log.Warn("update failed: %v", msg.Err)
	case msg.Outcome == nil || !msg.Outcome.Success:
		text := "update was not applied"
		if msg.Outcome != nil && msg.Outcome.Message != "" {
			text = msg.Outcome.Message
		}
		o.message = Message{Text: emoji.Prefix("error") + text, Kind: Failed}
		o.recorder.ObserveUpdate("rejected")
		o.log.Info("update rejected: %s", text)
	default:
		o.message = Message{
			Text: fmt.Sprintf("%s%s, %d draws updated", emoji.Prefix("success"), msg.Outcome.Message, msg.Outcome.UpdatedCount),
			Kind: Succeeded,
		}
		o.recorder.ObserveUpdate("success")
		o.log.Info("update applied: %d draws", msg.Outcome.UpdatedCount)
		if o.refresh != nil {
			refresh = o.refresh()
		}
	}

	gen := o.gen
	expire := tea.Tick(o.ttl, func(time.Time) tea.Msg {
		return ExpireMsg{gen: gen}
	})
	return tea.Batch(refresh, expire)
}

func (o *Orchestrator) handleExpire(msg ExpireMsg) {
	if msg.gen != o.gen || o.inFlight {
		return
	}
	o.message = Message{}
}

type userMessage interface {
	UserMessage() string
}

func failureText(err error) string {
	var um userMessage
	if errors.As(err, &um) {
		return um.UserMessage()
	}
	return err.Error()
}
