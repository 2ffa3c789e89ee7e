package domain_test

import (
	"testing"

	"github.com/aretw0/loanflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraph_Validate(t *testing.T) {
	g, err := domain.NewGraph("a",
		domain.Step{ID: "a", Next: domain.Goto("b")},
		domain.Step{ID: "b", Next: domain.Goto("missing")},
		domain.Step{ID: "c", Next: domain.NextFunc(func(string, *domain.Application) string { return "anything" })},
	)
	require.NoError(t, err)

	err = g.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownStep)
	assert.Contains(t, err.Error(), `"missing"`)
	assert.Equal(t, []string{"a", "b", "c"}, g.IDs())
}

func TestGraph_Duplicate(t *testing.T) {
	_, err := domain.NewGraph("a", domain.Step{ID: "a"}, domain.Step{ID: "a"})
	assert.ErrorIs(t, err, domain.ErrDuplicateStep)
}

func TestStep_AutoProgress(t *testing.T) {
	opts := []domain.Option{{Label: "Yes", Value: "yes"}}
	tests := []struct {
		name    string
		step    domain.Step
		options []domain.Option
		want    bool
	}{
		{"confirm action no options", domain.Step{Action: "lookup", Input: domain.InputConfirm}, nil, true},
		{"confirm action with options", domain.Step{Action: "lookup", Input: domain.InputConfirm}, opts, false},
		{"text action no options", domain.Step{Action: "search", Input: domain.InputText}, nil, false},
		{"number action no options", domain.Step{Action: "x", Input: domain.InputNumber}, nil, false},
		{"select without action", domain.Step{Input: domain.InputSelect}, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.step.AutoProgress(tt.options))
		})
	}
}
