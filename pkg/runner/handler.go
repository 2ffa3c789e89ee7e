package runner

import (
	"context"

	"github.com/aretw0/loanflow/pkg/domain"
)

// IOHandler defines the strategy for interacting with the applicant.
// This allows switching between Text (terminal) and JSON (structured) modes.
type IOHandler interface {
	// Message presents one assistant message as soon as it is produced.
	Message(ctx context.Context, msg domain.Message) error

	// Output closes a turn: it presents what the conversation now waits for
	// (typically the options of a choice step) or the outcome.
	Output(ctx context.Context, turn *domain.Turn) error

	// Input reads a response from the applicant.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message (resume hints, command feedback),
	// distinct from the conversation itself.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer transforms message text before it is written, e.g. markdown
// to ANSI for a terminal.
type ContentRenderer func(string) (string, error)
