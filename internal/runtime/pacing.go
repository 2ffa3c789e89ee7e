package runtime

import (
	"context"
	"time"

	"github.com/aretw0/loanflow/pkg/domain"
)

// Pacer schedules the gap between consecutive assistant messages.
// Pause must return only once the next message may be emitted.
type Pacer interface {
	Pause(ctx context.Context) error
}

// PacerFunc adapts a function to Pacer.
type PacerFunc func(ctx context.Context) error

func (f PacerFunc) Pause(ctx context.Context) error { return f(ctx) }

// NoDelay emits messages back to back. Tests use it to run turns synchronously.
var NoDelay Pacer = PacerFunc(func(ctx context.Context) error { return ctx.Err() })

// Fixed waits d between messages, the "typing" cadence of the chat.
func Fixed(d time.Duration) Pacer {
	if d <= 0 {
		return NoDelay
	}
	return PacerFunc(func(ctx context.Context) error {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			return nil
		}
	})
}

// Emitter receives each message the moment it is produced, before the turn
// completes. Hosts that stream (terminal, SSE) use it; others read Turn.Messages.
type Emitter interface {
	Emit(ctx context.Context, sessionID string, msg domain.Message) error
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(ctx context.Context, sessionID string, msg domain.Message) error

func (f EmitterFunc) Emit(ctx context.Context, sessionID string, msg domain.Message) error {
	return f(ctx, sessionID, msg)
}
