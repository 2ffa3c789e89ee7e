package runtime

import (
	"log/slog"
	"time"

	"github.com/aretw0/loanflow/pkg/actions"
	"github.com/aretw0/loanflow/pkg/domain"
	"github.com/aretw0/loanflow/pkg/session"
)

// Option configures the Engine.
type Option func(*Engine)

// WithSessions sets the session manager used for locking and persistence.
func WithSessions(m *session.Manager) Option {
	return func(e *Engine) { e.sessions = m }
}

// WithActions sets the action registry.
func WithActions(r *actions.Registry) Option {
	return func(e *Engine) { e.actions = r }
}

// WithPacer sets the inter-message pacing.
func WithPacer(p Pacer) Option {
	return func(e *Engine) { e.pacer = p }
}

// WithEmitter streams messages as they are produced.
func WithEmitter(em Emitter) Option {
	return func(e *Engine) { e.emitter = em }
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(h domain.LifecycleHooks) Option {
	return func(e *Engine) { e.hooks = h }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock fixes the time source for events and idle sweeping.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIdleTTL sets how long an untouched session stays in memory. Zero keeps
// sessions until they finish.
func WithIdleTTL(d time.Duration) Option {
	return func(e *Engine) { e.idleTTL = d }
}
