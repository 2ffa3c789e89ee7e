package loanflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/loanflow/internal/logging"
	"github.com/aretw0/loanflow/internal/runtime"
	"github.com/aretw0/loanflow/pkg/actions"
	"github.com/aretw0/loanflow/pkg/adapters/memory"
	"github.com/aretw0/loanflow/pkg/domain"
	"github.com/aretw0/loanflow/pkg/flow"
	"github.com/aretw0/loanflow/pkg/ports"
	"github.com/aretw0/loanflow/pkg/quote"
	"github.com/aretw0/loanflow/pkg/session"
)

// Version is stamped at build time with -ldflags "-X github.com/aretw0/loanflow.Version=...".
var Version = "dev"

// Pacer schedules the gap between assistant messages.
type Pacer = runtime.Pacer

// Emitter receives assistant messages as they are paced.
type Emitter = runtime.Emitter

// EmitterFunc adapts a function to Emitter.
type EmitterFunc = runtime.EmitterFunc

// NoDelay emits messages back to back.
var NoDelay = runtime.NoDelay

// Engine is the high-level entry point for the loanflow library.
// It wires the step graph, the built-in actions and the session store into a
// dialogue engine and implements ports.Conversation.
type Engine struct {
	runtime    *runtime.Engine
	graph      *domain.Graph
	calculator *quote.Calculator
	registry   ports.Registry
	store      ports.SnapshotStore
	logger     *slog.Logger
}

type settings struct {
	graph      *domain.Graph
	calculator *quote.Calculator
	registry   ports.Registry
	submitter  ports.Submitter
	leads      ports.LeadSink
	store      ports.SnapshotStore
	locker     ports.DistributedLocker
	pacer      Pacer
	emitter    Emitter
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	now        func() time.Time
	idleTTL    time.Duration
}

// Option defines a functional option for configuring the Engine.
type Option func(*settings)

// WithGraph replaces the asset-finance graph.
func WithGraph(g *domain.Graph) Option {
	return func(s *settings) { s.graph = g }
}

// WithCalculator prices quotes with c. Its rate table also limits the asset
// conditions offered by the default graph.
func WithCalculator(c *quote.Calculator) Option {
	return func(s *settings) { s.calculator = c }
}

// WithRegistry sets the business registry. Defaults to the built-in fixture.
func WithRegistry(r ports.Registry) Option {
	return func(s *settings) { s.registry = r }
}

// WithSubmitter sets where completed applications go.
func WithSubmitter(sub ports.Submitter) Option {
	return func(s *settings) { s.submitter = sub }
}

// WithLeadSink sets where captured leads go.
func WithLeadSink(l ports.LeadSink) Option {
	return func(s *settings) { s.leads = l }
}

// WithStore persists snapshots so sessions can be resumed. Without it nothing
// outlives the process.
func WithStore(store ports.SnapshotStore) Option {
	return func(s *settings) { s.store = store }
}

// WithLocker serializes turns of a session across processes. Each turn
// starts from the stored snapshot, so processes sharing a store take turns on
// the same state.
func WithLocker(l ports.DistributedLocker) Option {
	return func(s *settings) { s.locker = l }
}

// WithPacer sets the message cadence. Defaults to NoDelay.
func WithPacer(p Pacer) Option {
	return func(s *settings) { s.pacer = p }
}

// WithPacing waits d between consecutive messages.
func WithPacing(d time.Duration) Option {
	return func(s *settings) { s.pacer = runtime.Fixed(d) }
}

// WithEmitter streams messages as they are paced.
func WithEmitter(em Emitter) Option {
	return func(s *settings) { s.emitter = em }
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *settings) { s.hooks = hooks }
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithClock fixes the time source for eligibility and, in the default graph,
// director date-of-birth checks.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// WithIdleTTL sets how long an untouched session is kept in memory before
// later turns read it back from the store. Defaults to 30 minutes.
func WithIdleTTL(d time.Duration) Option {
	return func(s *settings) { s.idleTTL = d }
}

// New initializes a loanflow Engine. With no options it runs the asset-finance
// flow against the fixture registry, an in-memory outbox and no persistence.
func New(opts ...Option) (*Engine, error) {
	s := &settings{
		logger:  logging.NewNop(),
		now:     time.Now,
		pacer:   runtime.NoDelay,
		idleTTL: runtime.DefaultIdleTTL,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.calculator == nil {
		s.calculator = quote.New()
	}
	if s.registry == nil {
		s.registry = memory.Fixture(s.now())
	}
	if s.submitter == nil || s.leads == nil {
		outbox := memory.NewOutbox()
		if s.submitter == nil {
			s.submitter = outbox
		}
		if s.leads == nil {
			s.leads = outbox
		}
	}
	if s.graph == nil {
		s.graph = flow.New(flow.WithRates(s.calculator.Rates()), flow.WithClock(s.now))
	}
	if err := s.graph.Validate(); err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}

	registry := actions.Default(
		actions.WithRegistry(s.registry),
		actions.WithCalculator(s.calculator),
		actions.WithSubmitter(s.submitter),
		actions.WithLeadSink(s.leads),
		actions.WithClock(s.now),
		actions.WithLogger(s.logger),
	)
	if err := checkActions(s.graph, registry); err != nil {
		return nil, err
	}

	sessionOpts := []session.Option{session.WithLogger(s.logger)}
	if s.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(s.locker))
	}

	runtimeOpts := []runtime.Option{
		runtime.WithActions(registry),
		runtime.WithSessions(session.NewManager(s.store, sessionOpts...)),
		runtime.WithPacer(s.pacer),
		runtime.WithLifecycleHooks(s.hooks),
		runtime.WithLogger(s.logger),
		runtime.WithClock(s.now),
		runtime.WithIdleTTL(s.idleTTL),
	}
	if s.emitter != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithEmitter(s.emitter))
	}

	return &Engine{
		runtime:    runtime.NewEngine(s.graph, runtimeOpts...),
		graph:      s.graph,
		calculator: s.calculator,
		registry:   s.registry,
		store:      s.store,
		logger:     s.logger,
	}, nil
}

// checkActions reports steps naming an action nobody registered.
func checkActions(g *domain.Graph, r *actions.Registry) error {
	for _, id := range g.IDs() {
		step, _ := g.Step(id)
		if step.Action != "" && !r.Has(step.Action) {
			return fmt.Errorf("step %q uses unknown action %q", id, step.Action)
		}
	}
	return nil
}

// Start begins sessionID, offering to resume a stored snapshot if one exists.
func (e *Engine) Start(ctx context.Context, sessionID string) (*domain.Turn, error) {
	return e.runtime.Start(ctx, sessionID)
}

// Answer delivers raw to the step sessionID is waiting on.
func (e *Engine) Answer(ctx context.Context, sessionID, raw string) (*domain.Turn, error) {
	return e.runtime.Answer(ctx, sessionID, raw)
}

// Reset discards the progress of sessionID and restarts at the entry step.
func (e *Engine) Reset(ctx context.Context, sessionID string) (*domain.Turn, error) {
	return e.runtime.Reset(ctx, sessionID)
}

// Snapshot returns the current step and record of sessionID.
func (e *Engine) Snapshot(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	return e.runtime.Snapshot(ctx, sessionID)
}

// Inspect returns the step ids of the graph in registration order.
func (e *Engine) Inspect() []string {
	return e.runtime.Inspect()
}

// Graph returns the step graph the engine runs.
func (e *Engine) Graph() *domain.Graph { return e.graph }

// Calculator returns the quote calculator used by the calculateQuote action.
func (e *Engine) Calculator() *quote.Calculator { return e.calculator }

// Registry returns the business registry used by the lookup actions.
func (e *Engine) Registry() ports.Registry { return e.registry }

// Store returns the snapshot store, or nil when nothing is persisted.
func (e *Engine) Store() ports.SnapshotStore { return e.store }

var _ ports.Conversation = (*Engine)(nil)
