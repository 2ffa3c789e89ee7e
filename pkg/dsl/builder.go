package dsl

import (
	"fmt"

	"github.com/aretw0/loanflow/pkg/domain"
)

// Builder manages the graph construction.
type Builder struct {
	entry string
	order []string
	steps map[string]*StepBuilder
}

// New creates a new graph builder whose conversations start at entry.
func New(entry string) *Builder {
	return &Builder{
		entry: entry,
		steps: make(map[string]*StepBuilder),
	}
}

// Add creates a new step in the graph.
// If the step already exists, it returns the existing builder.
func (b *Builder) Add(id string) *StepBuilder {
	if sb, ok := b.steps[id]; ok {
		return sb
	}
	sb := &StepBuilder{
		step:    domain.Step{ID: id},
		builder: b,
	}
	b.steps[id] = sb
	b.order = append(b.order, id)
	return sb
}

// Build compiles the steps into a validated graph.
func (b *Builder) Build() (*domain.Graph, error) {
	steps := make([]domain.Step, 0, len(b.order))
	for _, id := range b.order {
		steps = append(steps, b.steps[id].Build())
	}

	g, err := domain.NewGraph(b.entry, steps...)
	if err != nil {
		return nil, fmt.Errorf("failed to build graph: %w", err)
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}
	return g, nil
}

// MustBuild is Build for graphs defined in code, where an error is a bug.
func (b *Builder) MustBuild() *domain.Graph {
	g, err := b.Build()
	if err != nil {
		panic(err)
	}
	return g
}
