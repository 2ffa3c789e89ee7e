package dsl

import (
	"strings"

	"github.com/aretw0/loanflow/pkg/domain"
)

// Opt builds an option whose canonical value differs from its label.
func Opt(label, value string) domain.Option {
	return domain.Option{Label: label, Value: value}
}

// Opts builds options whose value is the label itself.
func Opts(labels ...string) []domain.Option {
	out := make([]domain.Option, len(labels))
	for i, l := range labels {
		out[i] = domain.Option{Label: l, Value: l}
	}
	return out
}

// StepBuilder provides a fluent API for configuring a step.
type StepBuilder struct {
	step     domain.Step
	builder  *Builder
	branches map[string]string
	fallback string
}

// Say sets fixed prompts.
func (s *StepBuilder) Say(prompts ...string) *StepBuilder {
	s.step.Prompts = domain.StaticPrompts(prompts)
	return s
}

// SayFunc sets prompts computed from the record.
func (s *StepBuilder) SayFunc(fn func(*domain.Application) []string) *StepBuilder {
	s.step.Prompts = domain.PromptFunc(fn)
	return s
}

// Input sets how the answer is collected.
func (s *StepBuilder) Input(kind domain.InputKind) *StepBuilder {
	s.step.Input = kind
	return s
}

// Choose offers fixed options. The input kind defaults to select.
func (s *StepBuilder) Choose(options ...domain.Option) *StepBuilder {
	s.step.Options = domain.StaticOptions(options)
	if s.step.Input == "" {
		s.step.Input = domain.InputSelect
	}
	return s
}

// ChooseFunc offers options computed from the record.
func (s *StepBuilder) ChooseFunc(fn func(*domain.Application) []domain.Option) *StepBuilder {
	s.step.Options = domain.OptionFunc(fn)
	if s.step.Input == "" {
		s.step.Input = domain.InputSelect
	}
	return s
}

// SaveTo writes the answer to a fixed record path.
func (s *StepBuilder) SaveTo(path string) *StepBuilder {
	s.step.Field = domain.Path(path)
	return s
}

// SaveToFunc writes the answer to a path computed from the record.
func (s *StepBuilder) SaveToFunc(fn func(*domain.Application) string) *StepBuilder {
	s.step.Field = domain.FieldRefFunc(fn)
	return s
}

// Convert overrides how the raw answer becomes the stored value.
func (s *StepBuilder) Convert(fn domain.ValueFunc) *StepBuilder {
	s.step.Value = fn
	return s
}

// Validate attaches a validator.
func (s *StepBuilder) Validate(v domain.Validator) *StepBuilder {
	s.step.Validate = v
	return s
}

// Do names the action run after the answer is captured, or on entry for
// steps that auto-progress.
func (s *StepBuilder) Do(action string) *StepBuilder {
	s.step.Action = action
	return s
}

// Go adds an unconditional transition to the target step.
// With On branches present it becomes the fallback.
func (s *StepBuilder) Go(target string) *StepBuilder {
	s.fallback = target
	return s
}

// On routes a specific canonical answer to target.
func (s *StepBuilder) On(answer, target string) *StepBuilder {
	if s.branches == nil {
		s.branches = make(map[string]string)
	}
	s.branches[strings.ToLower(answer)] = target
	return s
}

// Route sets a computed transition, replacing Go and On.
func (s *StepBuilder) Route(fn func(answer string, app *domain.Application) string) *StepBuilder {
	s.step.Next = domain.NextFunc(fn)
	return s
}

// SkipIf bypasses the step when rule holds.
func (s *StepBuilder) SkipIf(rule domain.SkipRule) *StepBuilder {
	s.step.SkipIf = rule
	return s
}

// Terminal marks the step as the end of the flow.
func (s *StepBuilder) Terminal(outcome domain.Outcome) *StepBuilder {
	s.step.Next = nil
	s.branches = nil
	s.fallback = ""
	s.step.Outcome = outcome
	return s
}

// Build returns the underlying domain.Step.
// This is primarily used by the Builder, but exposed for advanced usage.
func (s *StepBuilder) Build() domain.Step {
	step := s.step
	if step.Next != nil || step.Outcome != domain.OutcomeNone {
		return step
	}
	switch {
	case len(s.branches) > 0:
		branches, fallback := s.branches, s.fallback
		step.Next = domain.NextFunc(func(answer string, _ *domain.Application) string {
			if to, ok := branches[strings.ToLower(answer)]; ok {
				return to
			}
			return fallback
		})
	case s.fallback != "":
		step.Next = domain.Goto(s.fallback)
	}
	return step
}
