package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStepEnter       EventType = "step_enter"
	EventStepSkip        EventType = "step_skip"
	EventValidationError EventType = "validation_error"
	EventActionCall      EventType = "action_call"
	EventActionReturn    EventType = "action_return"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// StepEvent represents entering or bypassing a step.
type StepEvent struct {
	EventBase
	StepID string `json:"step_id"`
}

// ValidationEvent is emitted when an answer is rejected.
type ValidationEvent struct {
	EventBase
	StepID  string `json:"step_id"`
	Message string `json:"message"`
}

// ActionEvent represents an action execution. Duration and Err are set on return.
type ActionEvent struct {
	EventBase
	StepID   string        `json:"step_id"`
	Action   string        `json:"action"`
	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnStepEnter       func(context.Context, *StepEvent)
	OnStepSkip        func(context.Context, *StepEvent)
	OnValidationError func(context.Context, *ValidationEvent)
	OnActionCall      func(context.Context, *ActionEvent)
	OnActionReturn    func(context.Context, *ActionEvent)
}
