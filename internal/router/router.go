package router

import (
	"github.com/yildizm/LottoView/internal/logger"
)

// Router is the single owner of the active view. Navigation state in the
// Environment is only written through Navigate.
type Router struct {
	env    Environment
	policy Policy
	active View

	listeners   []func(from, to View)
	unsubscribe func()
	log         *logger.Logger
}

// Option customizes a Router.
type Option func(*Router)

// WithPolicy sets the resolution policy.
func WithPolicy(p Policy) Option {
	return func(r *Router) { r.policy = p }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(r *Router) { r.log = l }
}

// New resolves the initial view from env and subscribes to its
// notifications. Call Close to unsubscribe.
func New(env Environment, opts ...Option) *Router {
	r := &Router{env: env, log: logger.Nop()}
	for _, opt := range opts {
		opt(r)
	}

	r.active = r.resolve("init")
	r.unsubscribe = env.Subscribe(r.handleEvent)
	return r
}

// Active returns the current view.
func (r *Router) Active() View { return r.active }

// Location returns the current navigation signal.
func (r *Router) Location() Signal { return r.env.Location() }

// Policy returns the resolution policy in effect.
func (r *Router) Policy() Policy { return r.policy }

// SetPolicy swaps the policy and re-resolves the current location.
func (r *Router) SetPolicy(p Policy) {
	r.policy = p
	r.set(r.resolve("policy"))
}

// OnChange registers fn to run after every change of the active view.
func (r *Router) OnChange(fn func(from, to View)) {
	r.listeners = append(r.listeners, fn)
}

// Navigate pushes the canonical entry for target and activates it. It does
// not push when the current entry already is that canonical entry.
func (r *Router) Navigate(target View) {
	path := PathFor(target)
	if loc := r.env.Location(); loc.Path != path || loc.Hash != "" {
		r.env.PushState(path)
	}

	r.log.DebugWithFields("navigate", []logger.Field{
		logger.F("from", r.active.String()),
		logger.F("to", target.String()),
	})
	r.set(target)
}

// Close stops observing the environment.
func (r *Router) Close() {
	if r.unsubscribe != nil {
		r.unsubscribe()
		r.unsubscribe = nil
	}
}

func (r *Router) handleEvent(ev Event) {
	r.set(r.resolve(ev.Kind.String()))
}

func (r *Router) resolve(trigger string) View {
	sig := r.env.Location()
	v, rule := r.policy.Resolve(sig)

	fields := []logger.Field{
		logger.F("trigger", trigger),
		logger.F("path", sig.Path),
		logger.F("hash", sig.Hash),
		logger.F("view", v.String()),
		logger.F("rule", string(rule)),
	}
	if rule == RuleSubstring {
		r.log.DebugWithFields("view resolved by keyword match; use /history or #/history", fields)
	} else {
		r.log.DebugWithFields("view resolved", fields)
	}
	return v
}

func (r *Router) set(v View) {
	if v == r.active {
		return
	}
	from := r.active
	r.active = v
	for _, fn := range r.listeners {
		fn(from, v)
	}
}
