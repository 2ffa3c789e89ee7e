package runtime

import (
	"errors"
	"fmt"

	"github.com/aretw0/loanflow/pkg/domain"
)

// UnknownStepError is raised when a transition names a step the graph lacks.
type UnknownStepError struct {
	From   string
	StepID string
}

func (e *UnknownStepError) Error() string {
	if e.From == "" {
		return fmt.Sprintf("unknown step %q", e.StepID)
	}
	return fmt.Sprintf("step %q transitioned to unknown step %q", e.From, e.StepID)
}

func (e *UnknownStepError) Unwrap() error { return domain.ErrUnknownStep }

// ErrTransitionLoop is returned when steps keep advancing without ever
// waiting for input.
var ErrTransitionLoop = errors.New("transition loop without user input")
