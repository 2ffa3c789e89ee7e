package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/loanflow/pkg/domain"
)

// Combine fans each event out to every hook set, in order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		out.OnStepEnter = chain(out.OnStepEnter, h.OnStepEnter)
		out.OnStepSkip = chain(out.OnStepSkip, h.OnStepSkip)
		out.OnValidationError = chain(out.OnValidationError, h.OnValidationError)
		out.OnActionCall = chain(out.OnActionCall, h.OnActionCall)
		out.OnActionReturn = chain(out.OnActionReturn, h.OnActionReturn)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}

// LogHooks writes an audit trail of the conversation at debug level, with
// action failures at warn.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "step entered", "session_id", e.SessionID, "step_id", e.StepID)
		},
		OnStepSkip: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "step skipped", "session_id", e.SessionID, "step_id", e.StepID)
		},
		OnValidationError: func(ctx context.Context, e *domain.ValidationEvent) {
			logger.DebugContext(ctx, "answer rejected", "session_id", e.SessionID, "step_id", e.StepID, "reason", e.Message)
		},
		OnActionReturn: func(ctx context.Context, e *domain.ActionEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "action failed",
					"session_id", e.SessionID, "step_id", e.StepID, "action", e.Action,
					"duration", e.Duration, "error", e.Err)
				return
			}
			logger.DebugContext(ctx, "action returned",
				"session_id", e.SessionID, "step_id", e.StepID, "action", e.Action, "duration", e.Duration)
		},
	}
}
