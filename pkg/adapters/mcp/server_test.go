package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/loanflow/internal/runtime"
	"github.com/aretw0/loanflow/pkg/actions"
	"github.com/aretw0/loanflow/pkg/adapters/memory"
	"github.com/aretw0/loanflow/pkg/domain"
	"github.com/aretw0/loanflow/pkg/flow"
	"github.com/aretw0/loanflow/pkg/quote"
	"github.com/aretw0/loanflow/pkg/session"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	registry := memory.Fixture(now)
	engine := runtime.NewEngine(flow.New(),
		runtime.WithActions(actions.Default(
			actions.WithRegistry(registry),
			actions.WithClock(func() time.Time { return now }),
		)),
		runtime.WithSessions(session.NewManager(memory.NewStore())),
	)
	return NewServer(engine, WithRegistry(registry), WithVersion("test"))
}

func TestServer_Tools(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, []string{
		"calculate_quote", "validate_abn", "parse_amount", "chat_start", "chat_answer", "chat_reset",
	}, s.Tools())
}

func TestCalculateQuote(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleQuote(ctx, mcp.CallToolRequest{}, QuoteArgs{
		AssetType: "vehicle", Condition: "new", LoanAmount: 50000, TermMonths: 60,
	})
	require.NoError(t, err)
	assert.Equal(t, quote.AssetVehicle, res.AssetType)
	assert.True(t, res.MonthlyRepayment.IsPositive())
	assert.True(t, res.EstimatedSaving.IsPositive())

	_, err = s.handleQuote(ctx, mcp.CallToolRequest{}, QuoteArgs{
		AssetType: "vehicle", Condition: "new", LoanAmount: 50000, TermMonths: 120,
	})
	var rangeErr *quote.RangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, "termMonths", rangeErr.Field)
}

func TestCalculateQuote_StructuredHandler(t *testing.T) {
	s := newTestServer(t)
	handler := mcp.NewStructuredToolHandler(s.handleQuote)

	req := mcp.CallToolRequest{}
	req.Params.Name = "calculate_quote"
	req.Params.Arguments = map[string]any{
		"asset_type": "truck", "condition": "used_0_3", "loan_amount": 80000, "term_months": 48,
	}
	result, err := handler(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	req.Params.Arguments = map[string]any{
		"asset_type": "truck", "condition": "used_0_3", "loan_amount": 1, "term_months": 48,
	}
	result, err = handler(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.IsError, "range errors surface as tool errors")
}

func TestValidateABN(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleABN(ctx, mcp.CallToolRequest{}, ABNArgs{ABN: "51 824 753 556"})
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, "51824753556", res.ABN)
	require.NotNil(t, res.Registered)
	assert.True(t, *res.Registered)
	require.NotNil(t, res.Entry)
	assert.Equal(t, "Acme Haulage Pty Ltd", res.Entry.LegalName)

	res, err = s.handleABN(ctx, mcp.CallToolRequest{}, ABNArgs{ABN: "53004085616"})
	require.NoError(t, err)
	require.NotNil(t, res.Registered)
	assert.False(t, *res.Registered)

	res, err = s.handleABN(ctx, mcp.CallToolRequest{}, ABNArgs{ABN: "12345678901"})
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Nil(t, res.Registered)
}

func TestParseAmount(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleAmount(context.Background(), mcp.CallToolRequest{}, AmountArgs{Text: "$45,000"})
	require.NoError(t, err)
	assert.Equal(t, 45000.0, res.Amount)

	_, err = s.handleAmount(context.Background(), mcp.CallToolRequest{}, AmountArgs{Text: "lots"})
	assert.Error(t, err)
}

func TestChatTools(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleStart(ctx, mcp.CallToolRequest{}, ChatArgs{SessionID: "m1"})
	require.NoError(t, err)
	assert.Equal(t, flow.Welcome, res.Turn.StepID)

	res, err = s.handleAnswer(ctx, mcp.CallToolRequest{}, ChatArgs{SessionID: "m1", Answer: "Get a quote"})
	require.NoError(t, err)
	assert.Equal(t, flow.BusinessLookupMode, res.Turn.StepID)

	_, err = s.handleAnswer(ctx, mcp.CallToolRequest{}, ChatArgs{SessionID: "m1", Answer: strings.Repeat("x", 10000)})
	assert.ErrorContains(t, err, "input rejected")

	res, err = s.handleReset(ctx, mcp.CallToolRequest{}, ChatArgs{SessionID: "m1"})
	require.NoError(t, err)
	assert.Equal(t, flow.Welcome, res.Turn.StepID)

	_, err = s.handleStart(ctx, mcp.CallToolRequest{}, ChatArgs{})
	assert.ErrorIs(t, err, domain.ErrSessionIDRequired)
}

func TestJSONResource(t *testing.T) {
	contents, err := jsonResource(StepsURI, []string{"welcome", "abnEntry"})
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, StepsURI, text.URI)

	var ids []string
	require.NoError(t, json.Unmarshal([]byte(text.Text), &ids))
	assert.Equal(t, []string{"welcome", "abnEntry"}, ids)
}
