// Package router decides which top-level view is active from the navigation
// signals of a browser-like environment and keeps those signals consistent
// when the application navigates on its own.
package router

import "strings"

const (
	HomePath    = "/"
	HistoryPath = "/history"
	HistoryHash = "#/history"

	historyKeyword = "history"
)

// View is a top-level screen.
type View int

const (
	Home View = iota
	History
)

func (v View) String() string {
	switch v {
	case History:
		return "history"
	default:
		return "home"
	}
}

// PathFor returns the canonical path of v.
func PathFor(v View) string {
	if v == History {
		return HistoryPath
	}
	return HomePath
}

// Signal is the (path, hash) pair sampled from the environment.
type Signal struct {
	Path string
	Hash string
}

// Rule names the resolution rule that selected a view.
type Rule string

const (
	RuleHistoryPath Rule = "history-path"
	RuleHistoryHash Rule = "history-hash"
	RuleSubstring   Rule = "path-contains-history"
	RuleDefault     Rule = "default"
)

// Policy is the ordered rule list used by Resolve. Strict disables the
// substring rule.
type Policy struct {
	Strict bool
}

// Resolve applies, in order: exact history path, exact history hash, path
// containing the history keyword (unless Strict), then Home.
func (p Policy) Resolve(sig Signal) (View, Rule) {
	switch {
	case sig.Path == HistoryPath:
		return History, RuleHistoryPath
	case sig.Hash == HistoryHash:
		return History, RuleHistoryHash
	case !p.Strict && strings.Contains(sig.Path, historyKeyword):
		return History, RuleSubstring
	default:
		return Home, RuleDefault
	}
}

// ResolveView resolves sig with the permissive default policy.
func ResolveView(sig Signal) View {
	v, _ := Policy{}.Resolve(sig)
	return v
}
