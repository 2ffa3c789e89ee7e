package domain

import (
	"errors"
	"fmt"
	"slices"
)

// ErrDuplicateStep is returned when two steps share an id.
var ErrDuplicateStep = errors.New("duplicate step id")

// Graph is an indexed, read-only set of steps with a designated entry.
type Graph struct {
	entry string
	steps map[string]*Step
	order []string
}

// NewGraph indexes steps. Registration order is preserved for IDs.
func NewGraph(entry string, steps ...Step) (*Graph, error) {
	g := &Graph{
		entry: entry,
		steps: make(map[string]*Step, len(steps)),
		order: make([]string, 0, len(steps)),
	}
	for i := range steps {
		s := steps[i]
		if s.ID == "" {
			return nil, errors.New("step id is required")
		}
		if _, ok := g.steps[s.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateStep, s.ID)
		}
		g.steps[s.ID] = &s
		g.order = append(g.order, s.ID)
	}
	return g, nil
}

// Entry is the id of the first step of a fresh conversation.
func (g *Graph) Entry() string { return g.entry }

// Step looks up a step by id.
func (g *Graph) Step(id string) (*Step, bool) {
	s, ok := g.steps[id]
	return s, ok
}

// IDs returns step ids in registration order.
func (g *Graph) IDs() []string {
	return slices.Clone(g.order)
}

// Len is the number of steps.
func (g *Graph) Len() int { return len(g.order) }

// Validate checks that the entry and every fixed transition target exist.
// Computed transitions can only be checked at run time.
func (g *Graph) Validate() error {
	var errs []error
	if _, ok := g.steps[g.entry]; !ok {
		errs = append(errs, fmt.Errorf("entry %q: %w", g.entry, ErrUnknownStep))
	}
	for _, id := range g.order {
		if to, ok := g.steps[id].Next.(Goto); ok {
			if _, exists := g.steps[string(to)]; !exists {
				errs = append(errs, fmt.Errorf("step %q goes to %q: %w", id, to, ErrUnknownStep))
			}
		}
	}
	return errors.Join(errs...)
}
