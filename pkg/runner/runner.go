package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/loanflow/internal/logging"
	"github.com/aretw0/loanflow/pkg/domain"
	"github.com/aretw0/loanflow/pkg/ports"
)

// Runner drives one conversation through an IOHandler until it reaches a
// terminal step or the applicant leaves.
//
// Runner implements runtime.Emitter: install it on the engine and messages
// appear as they are paced instead of when the turn returns.
type Runner struct {
	// Handler is the strategy for IO. Defaults to a TextHandler on Stdin/Stdout.
	Handler IOHandler

	// Guard gates /reset. Defaults to asking the applicant, or to AutoApprove
	// when Headless.
	Guard Guard

	// Logger is used for internal debug logging.
	Logger *slog.Logger

	Headless bool

	mu        sync.Mutex
	sessionID string
	streamed  int
}

// NewRunner creates a Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{Logger: logging.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(os.Stdin, os.Stdout)
	}
	if r.Guard == nil {
		if r.Headless {
			r.Guard = AutoApprove()
		} else {
			r.Guard = ConfirmationGuard(r.Handler)
		}
	}
	return r
}

// Emit presents msg immediately when it belongs to the running session.
func (r *Runner) Emit(ctx context.Context, sessionID string, msg domain.Message) error {
	r.mu.Lock()
	if sessionID != r.sessionID {
		r.mu.Unlock()
		return nil
	}
	r.streamed++
	r.mu.Unlock()
	return r.Handler.Message(ctx, msg)
}

// Run starts (or resumes) sessionID on conv and relays answers until the
// conversation ends. Leaving early (EOF, interrupt or /quit) is not an error:
// progress stays in the store for the next run.
func (r *Runner) Run(ctx context.Context, conv ports.Conversation, sessionID string) error {
	if sessionID == "" {
		return domain.ErrSessionIDRequired
	}
	r.mu.Lock()
	r.sessionID = sessionID
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.sessionID = ""
		r.mu.Unlock()
	}()

	signals := NewSignalManager(ctx)
	defer signals.Stop()

	r.beginTurn()
	turn, err := conv.Start(ctx, sessionID)
	if showErr := r.show(ctx, turn); showErr != nil {
		return showErr
	}
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}

	for !turn.Terminal {
		input, err := r.Handler.Input(signals.Context())
		if err != nil {
			signals.CheckRace()
			if errors.Is(err, io.EOF) || signals.Interrupted() {
				return r.suspend(ctx, sessionID)
			}
			return fmt.Errorf("input error: %w", err)
		}

		if cmd, ok := ParseCommand(input); ok {
			if cmd == CommandQuit {
				return r.suspend(ctx, sessionID)
			}
			next, err := r.command(ctx, conv, sessionID, cmd)
			if err != nil {
				return err
			}
			if next != nil {
				turn = next
			}
			continue
		}

		r.beginTurn()
		next, err := conv.Answer(ctx, sessionID, resolveChoice(turn.Input, input))
		if showErr := r.show(ctx, next); showErr != nil {
			return showErr
		}
		if err != nil {
			return fmt.Errorf("answer: %w", err)
		}
		turn = next
	}

	r.Logger.Debug("conversation finished", "session_id", sessionID, "outcome", turn.Outcome)
	return nil
}

func (r *Runner) command(ctx context.Context, conv ports.Conversation, sessionID string, cmd Command) (*domain.Turn, error) {
	switch cmd {
	case CommandHelp:
		return nil, r.Handler.SystemOutput(ctx, HelpText)

	case CommandStatus:
		snap, err := conv.Snapshot(ctx, sessionID)
		if err != nil {
			return nil, r.Handler.SystemOutput(ctx, "Nothing saved yet.")
		}
		status := fmt.Sprintf("You are at step %q.", snap.StepID)
		if snap.Record != nil && snap.Record.Business.LegalName != "" {
			status += " Applying for " + snap.Record.Business.LegalName + "."
		}
		return nil, r.Handler.SystemOutput(ctx, status)

	case CommandReset:
		ok, err := r.Guard(ctx, cmd)
		if err != nil {
			return nil, fmt.Errorf("reset guard: %w", err)
		}
		if !ok {
			return nil, r.Handler.SystemOutput(ctx, "Carrying on where you were.")
		}
		r.beginTurn()
		turn, err := conv.Reset(ctx, sessionID)
		if showErr := r.show(ctx, turn); showErr != nil {
			return nil, showErr
		}
		if err != nil {
			return nil, fmt.Errorf("reset: %w", err)
		}
		return turn, nil
	}
	return nil, nil
}

func (r *Runner) suspend(ctx context.Context, sessionID string) error {
	r.Logger.Debug("conversation suspended", "session_id", sessionID)
	return r.Handler.SystemOutput(ctx,
		fmt.Sprintf("Your progress is saved. Use session %q to pick up where you left off.", sessionID))
}

func (r *Runner) beginTurn() {
	r.mu.Lock()
	r.streamed = 0
	r.mu.Unlock()
}

// show presents the messages not already streamed, then closes the turn.
func (r *Runner) show(ctx context.Context, turn *domain.Turn) error {
	if turn == nil {
		return nil
	}
	r.mu.Lock()
	skip := min(r.streamed, len(turn.Messages))
	r.mu.Unlock()

	for _, msg := range turn.Messages[skip:] {
		if err := r.Handler.Message(ctx, msg); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}
	if err := r.Handler.Output(ctx, turn); err != nil {
		return fmt.Errorf("output error: %w", err)
	}
	return nil
}

// resolveChoice maps an option number to its value. Input that already names
// an option is passed through unchanged.
func resolveChoice(req *domain.InputRequest, input string) string {
	if req == nil || !req.Kind.Choice() {
		return input
	}
	for _, opt := range req.Options {
		if strings.EqualFold(input, opt.Value) || strings.EqualFold(input, opt.Label) {
			return input
		}
	}
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n < 1 || n > len(req.Options) {
		return input
	}
	return req.Options[n-1].Value
}
