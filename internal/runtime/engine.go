package runtime

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/loanflow/internal/logging"
	"github.com/aretw0/loanflow/pkg/abn"
	"github.com/aretw0/loanflow/pkg/actions"
	"github.com/aretw0/loanflow/pkg/domain"
	"github.com/aretw0/loanflow/pkg/session"
	"github.com/aretw0/loanflow/pkg/validate"
)

// ResumeStepID is the pseudo-step that offers to continue a stored snapshot.
const ResumeStepID = "resume"

// Canonical answers of the resume offer.
const (
	ResumeYes = "resume"
	ResumeNo  = "restart"
)

// User-facing messages produced by the engine itself.
const (
	MsgChooseOption  = "Please choose one of the options."
	MsgNotUnderstood = "Sorry, I didn't catch that. Could you try again?"
)

var resumeOptions = []domain.Option{
	{Label: "Resume", Value: ResumeYes},
	{Label: "Start over", Value: ResumeNo},
}

// DefaultIdleTTL is how long an untouched live session is kept in memory.
const DefaultIdleTTL = 30 * time.Minute

// conversation is the in-memory state of one live session. It is used while
// it matches the stored revision, and in place of the store when the store
// cannot be read.
type conversation struct {
	stepID   string
	app      *domain.Application
	phase    domain.Phase
	input    domain.InputKind
	options  []domain.Option
	outcome  domain.Outcome
	offer    *domain.Snapshot
	revision string
	seen     time.Time
}

// Engine drives conversations through a step graph.
type Engine struct {
	graph    *domain.Graph
	sessions *session.Manager
	actions  *actions.Registry
	pacer    Pacer
	emitter  Emitter
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	now      func() time.Time
	idleTTL  time.Duration

	mu    sync.Mutex
	live  map[string]*conversation
	swept time.Time
}

// NewEngine creates an engine for graph. Without WithSessions nothing is persisted.
func NewEngine(graph *domain.Graph, opts ...Option) *Engine {
	e := &Engine{
		graph:   graph,
		actions: actions.NewRegistry(),
		pacer:   NoDelay,
		logger:  logging.NewNop(),
		now:     time.Now,
		idleTTL: DefaultIdleTTL,
		live:    make(map[string]*conversation),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.sessions == nil {
		e.sessions = session.NewManager(nil, session.WithLogger(e.logger))
	}
	return e
}

// Inspect returns the step ids of the graph in registration order.
func (e *Engine) Inspect() []string {
	return e.graph.IDs()
}

// Start begins sessionID. A session live in this process and not moved on
// by another is re-prompted where it stands; a stored, unfinished snapshot is
// offered for resumption; otherwise the conversation starts at the entry step
// with an empty record.
func (e *Engine) Start(ctx context.Context, sessionID string) (*domain.Turn, error) {
	return e.turn(ctx, sessionID, func(ctx context.Context, t *turn) error {
		snap, err := e.read(ctx, sessionID)
		if c := e.synced(sessionID, snap, err); c != nil && c.phase == domain.PhaseAwaitingInput {
			t.c = c
			return e.represent(ctx, t)
		}

		if snap != nil {
			if e.resumable(snap) {
				e.logger.Info("Offering resume", "session_id", sessionID, "step_id", snap.StepID)
				t.c = &conversation{app: domain.NewApplication(), offer: snap, revision: snap.Revision}
				return e.offerResume(ctx, t)
			}
			e.clear(ctx, sessionID)
		}

		t.c = &conversation{app: domain.NewApplication()}
		return e.enter(ctx, t, e.graph.Entry())
	})
}

// Answer delivers raw to the step sessionID is waiting on.
func (e *Engine) Answer(ctx context.Context, sessionID, raw string) (*domain.Turn, error) {
	return e.turn(ctx, sessionID, func(ctx context.Context, t *turn) error {
		snap, err := e.read(ctx, sessionID)
		c := e.synced(sessionID, snap, err)
		if c == nil {
			e.forget(sessionID)
			if snap != nil {
				c = e.restore(snap)
			}
		}
		if c == nil {
			return domain.ErrNotAwaitingInput
		}

		switch c.phase {
		case domain.PhaseTerminal:
			return domain.ErrSessionTerminal
		case domain.PhaseHalted:
			return domain.ErrSessionHalted
		case domain.PhaseAwaitingInput:
		default:
			return domain.ErrNotAwaitingInput
		}

		t.c = c
		if c.offer != nil {
			return e.answerResume(ctx, t, raw)
		}
		return e.receive(ctx, t, raw)
	})
}

// Reset discards progress for sessionID and restarts at the entry step.
func (e *Engine) Reset(ctx context.Context, sessionID string) (*domain.Turn, error) {
	return e.turn(ctx, sessionID, func(ctx context.Context, t *turn) error {
		e.clear(ctx, sessionID)
		e.logger.Info("Session reset", "session_id", sessionID)
		t.c = &conversation{app: domain.NewApplication()}
		return e.enter(ctx, t, e.graph.Entry())
	})
}

// Snapshot returns the current step and a copy of the record. Sessions that
// are not live, or were moved on by another process, are read from the store.
func (e *Engine) Snapshot(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	if sessionID == "" {
		return nil, domain.ErrSessionIDRequired
	}
	snap, err := e.sessions.Load(ctx, sessionID)
	if c := e.synced(sessionID, snap, err); c != nil {
		if c.offer != nil {
			return domain.NewSnapshot(c.offer.StepID, c.offer.Record), nil
		}
		return domain.NewSnapshot(c.stepID, c.app), nil
	}
	return snap, err
}

// turn runs fn under the session lock and commits the resulting conversation.
func (e *Engine) turn(ctx context.Context, sessionID string, fn func(context.Context, *turn) error) (*domain.Turn, error) {
	if sessionID == "" {
		return nil, domain.ErrSessionIDRequired
	}

	var out *domain.Turn
	err := e.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		t := &turn{engine: e, sessionID: sessionID}
		err := fn(ctx, t)
		if t.c == nil {
			return err
		}
		var unknown *UnknownStepError
		if err != nil && !errors.As(err, &unknown) && !errors.Is(err, ErrTransitionLoop) {
			// Cancelled mid-turn: keep the state the turn started from.
			return err
		}
		e.commit(sessionID, t.c)
		out = t.result()
		return err
	})
	return out, err
}

// synced returns a copy of the live conversation if the store still holds
// the revision it last wrote. snap and err are the result of reading the
// store; when the store cannot be read the live copy stands in for it.
func (e *Engine) synced(sessionID string, snap *domain.Snapshot, err error) *conversation {
	e.mu.Lock()
	c, ok := e.live[sessionID]
	e.mu.Unlock()
	if !ok {
		return nil
	}
	switch {
	case err == nil:
		ok = c.revision == snap.Revision
	case session.IsNotFound(err):
		ok = c.revision == ""
	}
	if !ok {
		return nil
	}
	cp := *c
	return &cp
}

func (e *Engine) forget(sessionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.live, sessionID)
}

// commit keeps c for the next turn. Finished conversations are dropped and
// idle ones are swept.
func (e *Engine) commit(sessionID string, c *conversation) {
	now := e.now()
	e.mu.Lock()
	defer e.mu.Unlock()
	if c.phase == domain.PhaseTerminal {
		delete(e.live, sessionID)
	} else {
		c.seen = now
		e.live[sessionID] = c
	}

	if e.idleTTL <= 0 || now.Sub(e.swept) < e.idleTTL/4 {
		return
	}
	e.swept = now
	for id, lc := range e.live {
		if now.Sub(lc.seen) > e.idleTTL {
			delete(e.live, id)
		}
	}
}

// restore rebuilds a conversation from a stored snapshot, e.g. after a
// restart of the host or a turn taken by another process.
func (e *Engine) restore(snap *domain.Snapshot) *conversation {
	if snap.Record == nil {
		return nil
	}
	step, ok := e.graph.Step(snap.StepID)
	if !ok {
		return nil
	}
	app := snap.Record.Clone()
	if step.Terminal() {
		return &conversation{
			stepID:   step.ID,
			app:      app,
			phase:    domain.PhaseTerminal,
			outcome:  step.Outcome,
			revision: snap.Revision,
		}
	}
	return &conversation{
		stepID:   step.ID,
		app:      app,
		phase:    domain.PhaseAwaitingInput,
		input:    step.Input,
		options:  step.ResolveOptions(app),
		revision: snap.Revision,
	}
}

func (e *Engine) resumable(snap *domain.Snapshot) bool {
	if snap.Record == nil {
		return false
	}
	step, ok := e.graph.Step(snap.StepID)
	return ok && !step.Terminal()
}

func (e *Engine) offerResume(ctx context.Context, t *turn) error {
	c := t.c
	c.stepID = ResumeStepID
	c.phase = domain.PhasePrompting
	name := c.offer.Record.Business.LegalName
	first := "Welcome back! You have an application in progress."
	if name != "" {
		first = "Welcome back! You have an application in progress for " + name + "."
	}
	for _, text := range []string{first, "Would you like to pick up where you left off?"} {
		if err := t.say(ctx, ResumeStepID, text, domain.MessagePrompt); err != nil {
			return err
		}
	}
	c.phase = domain.PhaseAwaitingInput
	c.input = domain.InputConfirm
	c.options = resumeOptions
	return nil
}

func (e *Engine) answerResume(ctx context.Context, t *turn, raw string) error {
	c := t.c
	opt := matchOption(c.options, raw)
	if opt == nil {
		return t.say(ctx, ResumeStepID, MsgChooseOption, domain.MessageError)
	}

	snap := c.offer
	c.offer = nil
	if opt.Value == ResumeYes {
		e.logger.Info("Session resumed", "session_id", t.sessionID, "step_id", snap.StepID)
		c.app = snap.Record.Clone()
		return e.enter(ctx, t, snap.StepID)
	}

	e.logger.Info("Resume declined", "session_id", t.sessionID)
	e.clear(ctx, t.sessionID)
	c.app = domain.NewApplication()
	return e.enter(ctx, t, e.graph.Entry())
}

// represent repeats the prompts of the step a live session waits on.
func (e *Engine) represent(ctx context.Context, t *turn) error {
	c := t.c
	if c.offer != nil {
		return e.offerResume(ctx, t)
	}
	step, ok := e.graph.Step(c.stepID)
	if !ok {
		return e.halt(t, &UnknownStepError{StepID: c.stepID})
	}
	for _, text := range step.ResolvePrompts(c.app) {
		if err := t.say(ctx, step.ID, text, domain.MessagePrompt); err != nil {
			return err
		}
	}
	return nil
}

// receive validates raw, writes it to the record, runs the step action and
// moves on.
func (e *Engine) receive(ctx context.Context, t *turn, raw string) error {
	c := t.c
	step, ok := e.graph.Step(c.stepID)
	if !ok {
		return e.halt(t, &UnknownStepError{StepID: c.stepID})
	}

	raw = strings.TrimSpace(raw)
	answer := raw
	var picked *domain.Option
	if step.Input.Choice() && len(c.options) > 0 {
		picked = matchOption(c.options, raw)
		switch {
		case picked != nil:
			answer = picked.Value
		case step.Input == domain.InputDisambiguation && abn.Extract(raw) != "":
		default:
			return t.say(ctx, step.ID, MsgChooseOption, domain.MessageError)
		}
	}

	c.phase = domain.PhaseValidating
	if step.Validate != nil {
		if msg := step.Validate(answer, c.app); msg != "" {
			e.fireValidation(ctx, t.sessionID, step.ID, msg)
			c.phase = domain.PhaseAwaitingInput
			return t.say(ctx, step.ID, msg, domain.MessageError)
		}
	}

	if step.Field != nil {
		value, write, err := deriveValue(step, answer, picked, c.app)
		if err == nil && write {
			next := c.app.Clone()
			if err = next.Set(step.Field.Resolve(next), value); err == nil {
				c.app = next
			}
		}
		if err != nil {
			e.logger.Debug("Answer rejected", "session_id", t.sessionID, "step_id", step.ID, "err", err)
			c.phase = domain.PhaseAwaitingInput
			return t.say(ctx, step.ID, MsgNotUnderstood, domain.MessageError)
		}
	}

	if step.Action != "" {
		c.phase = domain.PhaseActing
		c.app = e.runAction(ctx, t.sessionID, step, c.app)
	}

	c.phase = domain.PhaseTransitioning
	return e.enter(ctx, t, step.Next.Resolve(answer, c.app))
}

// enter moves to id and keeps advancing through skipped and auto-progress
// steps until one waits for input or ends the conversation.
func (e *Engine) enter(ctx context.Context, t *turn, id string) error {
	c := t.c
	from := c.stepID
	limit := 4*e.graph.Len() + 4

	for hops := 0; ; hops++ {
		if hops > limit {
			e.logger.Error("Transition loop", "session_id", t.sessionID, "step_id", id)
			c.phase = domain.PhaseHalted
			return ErrTransitionLoop
		}

		step, ok := e.graph.Step(id)
		if !ok {
			return e.halt(t, &UnknownStepError{From: from, StepID: id})
		}
		from = id
		c.stepID = id
		c.options = nil

		if !step.Terminal() && step.SkipIf != nil && step.SkipIf(c.app) {
			e.fireStep(ctx, e.hooks.OnStepSkip, domain.EventStepSkip, t.sessionID, id)
			id = step.Next.Resolve("", c.app)
			continue
		}

		c.phase = domain.PhasePrompting
		e.fireStep(ctx, e.hooks.OnStepEnter, domain.EventStepEnter, t.sessionID, id)
		for _, text := range step.ResolvePrompts(c.app) {
			if err := t.say(ctx, id, text, domain.MessagePrompt); err != nil {
				return err
			}
		}

		options := step.ResolveOptions(c.app)
		if step.Terminal() {
			c.phase = domain.PhaseTerminal
			c.outcome = step.Outcome
			if step.Outcome == domain.OutcomeSuccess {
				e.clear(ctx, t.sessionID)
			} else {
				e.save(ctx, t.sessionID, c)
			}
			return nil
		}

		if step.AutoProgress(options) {
			c.phase = domain.PhaseActing
			c.app = e.runAction(ctx, t.sessionID, step, c.app)
			c.phase = domain.PhaseTransitioning
			id = step.Next.Resolve("", c.app)
			continue
		}

		c.phase = domain.PhaseAwaitingInput
		c.input = step.Input
		c.options = options
		c.outcome = domain.OutcomeNone
		e.save(ctx, t.sessionID, c)
		return nil
	}
}

func (e *Engine) halt(t *turn, err error) error {
	e.logger.Error("Session halted", "session_id", t.sessionID, "step_id", t.c.stepID, "err", err)
	t.c.phase = domain.PhaseHalted
	t.c.options = nil
	return err
}

func (e *Engine) runAction(ctx context.Context, sessionID string, step *domain.Step, app *domain.Application) *domain.Application {
	ev := &domain.ActionEvent{
		EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventActionCall, SessionID: sessionID},
		StepID:    step.ID,
		Action:    step.Action,
	}
	if e.hooks.OnActionCall != nil {
		e.hooks.OnActionCall(ctx, ev)
	}

	start := time.Now()
	out, err := e.actions.Execute(ctx, step.Action, app)

	ret := *ev
	ret.Type = domain.EventActionReturn
	ret.Timestamp = e.now()
	ret.Duration = time.Since(start)
	ret.Err = err
	if e.hooks.OnActionReturn != nil {
		e.hooks.OnActionReturn(ctx, &ret)
	}

	if err != nil {
		e.logger.Warn("Action failed",
			"session_id", sessionID,
			"step_id", step.ID,
			"action", step.Action,
			"err", err,
		)
		return app
	}
	return out
}

func (e *Engine) read(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	snap, err := e.sessions.Read(ctx, sessionID)
	if err != nil {
		if !session.IsNotFound(err) {
			e.logger.Warn("Failed to load snapshot", "session_id", sessionID, "err", err)
		}
		return nil, err
	}
	return snap, nil
}

// save writes c under a fresh revision. A failed write leaves c on the
// revision it had.
func (e *Engine) save(ctx context.Context, sessionID string, c *conversation) {
	snap := domain.NewSnapshot(c.stepID, c.app)
	snap.Revision = uuid.NewString()
	if err := e.sessions.Write(ctx, sessionID, snap); err != nil {
		e.logger.Warn("Failed to save snapshot", "session_id", sessionID, "step_id", c.stepID, "err", err)
		return
	}
	if e.sessions.Store() != nil {
		c.revision = snap.Revision
	}
}

func (e *Engine) clear(ctx context.Context, sessionID string) {
	if err := e.sessions.Clear(ctx, sessionID); err != nil && !session.IsNotFound(err) {
		e.logger.Warn("Failed to clear snapshot", "session_id", sessionID, "err", err)
	}
}

func (e *Engine) fireStep(ctx context.Context, hook func(context.Context, *domain.StepEvent), typ domain.EventType, sessionID, stepID string) {
	if hook == nil {
		return
	}
	hook(ctx, &domain.StepEvent{
		EventBase: domain.EventBase{Timestamp: e.now(), Type: typ, SessionID: sessionID},
		StepID:    stepID,
	})
}

func (e *Engine) fireValidation(ctx context.Context, sessionID, stepID, msg string) {
	if e.hooks.OnValidationError == nil {
		return
	}
	e.hooks.OnValidationError(ctx, &domain.ValidationEvent{
		EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventValidationError, SessionID: sessionID},
		StepID:    stepID,
		Message:   msg,
	})
}

// matchOption finds the option whose value or label equals raw, ignoring case.
func matchOption(options []domain.Option, raw string) *domain.Option {
	raw = strings.TrimSpace(raw)
	for i := range options {
		if strings.EqualFold(options[i].Value, raw) || strings.EqualFold(options[i].Label, raw) {
			return &options[i]
		}
	}
	return nil
}

// deriveValue turns an accepted answer into the value stored at the step's
// field. write is false when there is nothing to store.
func deriveValue(step *domain.Step, answer string, picked *domain.Option, app *domain.Application) (value any, write bool, err error) {
	if step.Value != nil {
		v, err := step.Value(answer, app)
		return v, err == nil, err
	}

	switch step.Input {
	case domain.InputDisambiguation:
		source := answer
		if picked != nil {
			source = picked.Label
		}
		id := abn.Extract(source)
		return id, id != "", nil
	case domain.InputSelect, domain.InputConfirm:
		return answer, true, nil
	case domain.InputNumber:
		v, err := validate.ParseAmount(answer)
		return v, err == nil, err
	case domain.InputDate:
		v, err := validate.ParseDate(answer)
		return v, err == nil, err
	}
	return answer, true, nil
}
