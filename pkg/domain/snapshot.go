package domain

// Phase is the dialogue engine state of a session.
type Phase string

const (
	PhaseIdle          Phase = "idle"
	PhasePrompting     Phase = "prompting"
	PhaseAwaitingInput Phase = "awaiting_input"
	PhaseValidating    Phase = "validating"
	PhaseActing        Phase = "acting"
	PhaseTransitioning Phase = "transitioning"
	PhaseTerminal      Phase = "terminal"
	PhaseHalted        Phase = "halted"
)

// Snapshot is the persisted progress of a session.
// Sealed carries the encrypted form when a store is wrapped by encryption;
// StepID and Record are then empty.
// Revision changes on every save, so a process can tell whether another one
// has moved the session on since it last wrote.
type Snapshot struct {
	StepID   string       `json:"stepId,omitempty"`
	Record   *Application `json:"record,omitempty"`
	Revision string       `json:"revision,omitempty"`
	Sealed   string       `json:"sealed,omitempty"`
}

// NewSnapshot copies app so later mutation does not leak into storage.
func NewSnapshot(stepID string, app *Application) *Snapshot {
	return &Snapshot{StepID: stepID, Record: app.Clone()}
}
