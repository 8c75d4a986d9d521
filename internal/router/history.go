package router

import (
	"net/url"
	"strings"
)

// EventKind identifies an environment notification.
type EventKind int

const (
	// PopState fires when back/forward moves to another entry.
	PopState EventKind = iota
	// HashChange fires when the hash of the current location changes.
	HashChange
	// Load fires when a location is entered directly, like an address bar.
	Load
)

func (k EventKind) String() string {
	switch k {
	case PopState:
		return "popstate"
	case HashChange:
		return "hashchange"
	case Load:
		return "load"
	default:
		return "unknown"
	}
}

// Event is delivered to subscribers after the location changed.
type Event struct {
	Kind     EventKind
	Location Signal
}

// Environment is the navigation state a Router reads and writes. PushState
// never notifies subscribers.
type Environment interface {
	Location() Signal
	PushState(path string)
	Subscribe(fn func(Event)) (unsubscribe func())
}

// SessionHistory is an in-memory Environment with a back/forward stack. It is
// not safe for concurrent use; subscribers run synchronously in delivery
// order.
type SessionHistory struct {
	entries []Signal
	cursor  int

	subs   map[int]func(Event)
	order  []int
	nextID int
}

// NewSessionHistory starts a history at the given location.
func NewSessionHistory(initial Signal) *SessionHistory {
	return &SessionHistory{
		entries: []Signal{normalize(initial)},
		subs:    make(map[int]func(Event)),
	}
}

// ParseLocation splits raw into path and hash. Absolute URLs, bare paths and
// bare hashes ("#/history") are accepted; an empty path becomes "/".
func ParseLocation(raw string) Signal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Signal{Path: HomePath}
	}
	u, err := url.Parse(raw)
	if err != nil {
		path, hash, _ := strings.Cut(raw, "#")
		if hash != "" {
			hash = "#" + hash
		}
		return normalize(Signal{Path: path, Hash: hash})
	}
	sig := Signal{Path: u.EscapedPath()}
	if u.Fragment != "" {
		sig.Hash = "#" + u.Fragment
	}
	return normalize(sig)
}

// String renders the location the way an address bar would.
func (s Signal) String() string {
	return s.Path + s.Hash
}

func normalize(s Signal) Signal {
	if s.Path == "" {
		s.Path = HomePath
	} else if !strings.HasPrefix(s.Path, "/") {
		s.Path = "/" + s.Path
	}
	if s.Hash == "#" {
		s.Hash = ""
	} else if s.Hash != "" && !strings.HasPrefix(s.Hash, "#") {
		s.Hash = "#" + s.Hash
	}
	return s
}

func (h *SessionHistory) Location() Signal {
	return h.entries[h.cursor]
}

// PushState discards forward entries and appends path with an empty hash.
func (h *SessionHistory) PushState(path string) {
	h.push(normalize(Signal{Path: path}))
}

func (h *SessionHistory) push(sig Signal) {
	h.entries = append(h.entries[:h.cursor+1], sig)
	h.cursor = len(h.entries) - 1
}

// Len returns the number of entries.
func (h *SessionHistory) Len() int { return len(h.entries) }

// Index returns the position of the current entry.
func (h *SessionHistory) Index() int { return h.cursor }

func (h *SessionHistory) CanGoBack() bool    { return h.cursor > 0 }
func (h *SessionHistory) CanGoForward() bool { return h.cursor < len(h.entries)-1 }

// Back moves one entry back. It reports false at the start of the history.
func (h *SessionHistory) Back() bool {
	if !h.CanGoBack() {
		return false
	}
	h.traverse(h.cursor - 1)
	return true
}

// Forward moves one entry forward. It reports false at the end.
func (h *SessionHistory) Forward() bool {
	if !h.CanGoForward() {
		return false
	}
	h.traverse(h.cursor + 1)
	return true
}

func (h *SessionHistory) traverse(to int) {
	from := h.entries[h.cursor]
	h.cursor = to
	cur := h.entries[h.cursor]

	h.emit(Event{Kind: PopState, Location: cur})
	if cur.Hash != from.Hash {
		h.emit(Event{Kind: HashChange, Location: cur})
	}
}

// SetHash adds an entry with the current path and hash, then fires
// HashChange. Setting the current hash again does nothing.
func (h *SessionHistory) SetHash(hash string) {
	cur := h.Location()
	next := normalize(Signal{Path: cur.Path, Hash: hash})
	if next.Hash == cur.Hash {
		return
	}
	h.push(next)
	h.emit(Event{Kind: HashChange, Location: next})
}

// Go enters raw as if typed into the address bar.
func (h *SessionHistory) Go(raw string) {
	sig := ParseLocation(raw)
	h.push(sig)
	h.emit(Event{Kind: Load, Location: sig})
}

func (h *SessionHistory) Subscribe(fn func(Event)) func() {
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	h.order = append(h.order, id)

	return func() {
		delete(h.subs, id)
		for i, v := range h.order {
			if v == id {
				h.order = append(h.order[:i], h.order[i+1:]...)
				break
			}
		}
	}
}

func (h *SessionHistory) emit(ev Event) {
	ids := append([]int(nil), h.order...)
	for _, id := range ids {
		if fn, ok := h.subs[id]; ok {
			fn(ev)
		}
	}
}
