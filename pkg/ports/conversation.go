package ports

import (
	"context"

	"github.com/aretw0/loanflow/pkg/domain"
)

// Conversation is the engine surface used by transports (HTTP, MCP, terminal).
// Every call is keyed by an explicit session id.
type Conversation interface {
	// Start begins a session, offering to resume a stored snapshot if one exists.
	Start(ctx context.Context, sessionID string) (*domain.Turn, error)

	// Answer delivers a raw answer to the step the session is waiting on.
	Answer(ctx context.Context, sessionID, raw string) (*domain.Turn, error)

	// Reset discards progress and restarts at the entry step.
	Reset(ctx context.Context, sessionID string) (*domain.Turn, error)

	// Snapshot returns the current step and a copy of the record.
	Snapshot(ctx context.Context, sessionID string) (*domain.Snapshot, error)
}
