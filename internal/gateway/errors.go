package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Kind categorizes why a call failed. Callers render Failure.Message and
// should not branch on Kind for display.
type Kind string

const (
	// KindTransport indicates the request never produced a response
	KindTransport Kind = "transport"

	// KindStatus indicates a non-2xx response
	KindStatus Kind = "status"

	// KindDecode indicates a response body that could not be decoded
	KindDecode Kind = "decode"
)

// Operation names one backend call.
type Operation string

const (
	OpLatestAnalysis Operation = "latest-analysis"
	OpHistory        Operation = "history"
	OpUpdate         Operation = "update"
	OpStatistics     Operation = "statistics"
	OpHealth         Operation = "health"
)

// ConnectivityMessage is shown when the service cannot be reached at all.
const ConnectivityMessage = "unable to reach the lottery service"

var fallbackMessages = map[Operation]string{
	OpLatestAnalysis: "failed to load the latest analysis",
	OpHistory:        "failed to load draw history",
	OpUpdate:         "update failed",
	OpStatistics:     "failed to load statistics",
	OpHealth:         ConnectivityMessage,
}

// Failure is the single error shape returned by every Client method.
type Failure struct {
	// Op is the operation that failed
	Op Operation

	// Kind categorizes the failure
	Kind Kind

	// Message is the normalized, human-readable description
	Message string

	// Cause is the underlying error, if any
	Cause error

	status int
}

// Error implements the error interface
func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Op, f.Message)
}

// Unwrap returns the underlying error
func (f *Failure) Unwrap() error {
	return f.Cause
}

// Is matches another *Failure of the same kind
func (f *Failure) Is(target error) bool {
	if t, ok := target.(*Failure); ok {
		return f.Kind == t.Kind && (t.Op == "" || t.Op == f.Op)
	}
	return false
}

// UserMessage returns the text meant for display.
func (f *Failure) UserMessage() string {
	return f.Message
}

// Sentinels for errors.Is.
var (
	ErrTransport = &Failure{Kind: KindTransport}
	ErrStatus    = &Failure{Kind: KindStatus}
	ErrDecode    = &Failure{Kind: KindDecode}
)

// Message returns the normalized message of err. Errors that did not come
// from the gateway fall back to err.Error().
func Message(err error) string {
	if err == nil {
		return ""
	}
	var f *Failure
	if errors.As(err, &f) {
		return f.Message
	}
	return err.Error()
}

func transportFailure(op Operation, cause error) *Failure {
	msg := ConnectivityMessage
	if op != OpHealth {
		msg = fallbackMessages[op] + ": " + ConnectivityMessage
	}
	return &Failure{Op: op, Kind: KindTransport, Message: msg, Cause: cause}
}

func statusFailure(op Operation, status int, body []byte) *Failure {
	msg := diagnostic(body)
	if msg == "" {
		msg = fallbackMessages[op]
	}
	return &Failure{
		Op:      op,
		Kind:    KindStatus,
		Message: msg,
		Cause:   fmt.Errorf("unexpected status %d", status),
		status:  status,
	}
}

func decodeFailure(op Operation, cause error) *Failure {
	return &Failure{Op: op, Kind: KindDecode, Message: fallbackMessages[op], Cause: cause}
}

// diagnostic extracts a server-supplied explanation from an error body.
// FastAPI uses "detail", either a string or a list of {"msg": ...}.
func diagnostic(body []byte) string {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	for _, key := range []string{"detail", "message", "error"} {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
			continue
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(raw, &items); err == nil {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if it.Msg != "" {
					msgs = append(msgs, it.Msg)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
	}
	return ""
}
