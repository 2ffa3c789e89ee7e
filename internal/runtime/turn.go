package runtime

import (
	"context"

	"github.com/aretw0/loanflow/pkg/domain"
)

// turn collects the messages of one engine call. Consecutive messages are
// separated by a pacer pause and streamed to the emitter as they happen.
type turn struct {
	engine    *Engine
	sessionID string
	c         *conversation
	messages  []domain.Message
}

func (t *turn) say(ctx context.Context, stepID, text string, kind domain.MessageKind) error {
	if text == "" {
		return nil
	}
	if len(t.messages) > 0 {
		if err := t.engine.pacer.Pause(ctx); err != nil {
			return err
		}
	}
	msg := domain.Message{StepID: stepID, Text: text, Kind: kind}
	t.messages = append(t.messages, msg)
	if t.engine.emitter != nil {
		if err := t.engine.emitter.Emit(ctx, t.sessionID, msg); err != nil {
			t.engine.logger.Warn("Failed to emit message", "session_id", t.sessionID, "step_id", stepID, "err", err)
		}
	}
	return nil
}

func (t *turn) result() *domain.Turn {
	c := t.c
	out := &domain.Turn{
		SessionID: t.sessionID,
		StepID:    c.stepID,
		Phase:     c.phase,
		Messages:  t.messages,
		Terminal:  c.phase == domain.PhaseTerminal,
		Outcome:   c.outcome,
		Record:    c.app.Clone(),
	}
	if out.Messages == nil {
		out.Messages = []domain.Message{}
	}
	if c.phase == domain.PhaseAwaitingInput {
		out.Input = &domain.InputRequest{Kind: c.input, Options: c.options}
	}
	return out
}
