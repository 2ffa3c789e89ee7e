package runner

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/loanflow/pkg/domain"
)

func TestTextHandler_Message(t *testing.T) {
	out := &bytes.Buffer{}
	h := NewTextHandler(strings.NewReader(""), out, WithTextHandlerRenderer(func(s string) (string, error) {
		return "Rendered: " + s + "\n\n", nil
	}))
	ctx := context.Background()

	require.NoError(t, h.Message(ctx, domain.Message{Text: "Hello", Kind: domain.MessagePrompt}))
	require.NoError(t, h.Message(ctx, domain.Message{Text: "Nope", Kind: domain.MessageError}))
	assert.Equal(t, "Rendered: Hello\n! Nope\n", out.String())
}

func TestTextHandler_Output(t *testing.T) {
	out := &bytes.Buffer{}
	h := NewTextHandler(strings.NewReader(""), out)

	turn := &domain.Turn{Input: &domain.InputRequest{
		Kind:    domain.InputSelect,
		Options: []domain.Option{{Label: "Yes", Value: "yes"}, {Label: "No", Value: "no"}},
	}}
	require.NoError(t, h.Output(context.Background(), turn))
	assert.Equal(t, "  1) Yes\n  2) No\n", out.String())

	out.Reset()
	require.NoError(t, h.Output(context.Background(), &domain.Turn{Input: &domain.InputRequest{Kind: domain.InputText}}))
	assert.Empty(t, out.String())
}

func TestTextHandler_Input(t *testing.T) {
	out := &bytes.Buffer{}
	h := NewTextHandler(strings.NewReader("  my answer \n"), out)

	val, err := h.Input(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "my answer", val)
	assert.Equal(t, "> ", out.String())

	_, err = h.Input(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestTextHandler_InputRejectsOversized(t *testing.T) {
	out := &bytes.Buffer{}
	h := NewTextHandler(strings.NewReader("toolong\nok\n"), out)
	h.Sanitizer = Sanitizer{MaxSize: 3}

	val, err := h.Input(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", val)
	assert.Contains(t, out.String(), "Please try again")
}

func TestTextHandler_InputCancelled(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	h := NewTextHandler(r, &bytes.Buffer{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := h.Input(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJSONHandler(t *testing.T) {
	out := &bytes.Buffer{}
	h := NewJSONHandler(strings.NewReader("\"Get a quote\"\nplain text\n"), out)
	ctx := context.Background()

	require.NoError(t, h.Message(ctx, domain.Message{StepID: "welcome", Text: "Hi", Kind: domain.MessagePrompt}))
	require.NoError(t, h.Output(ctx, &domain.Turn{SessionID: "s1", StepID: "welcome"}))
	require.NoError(t, h.SystemOutput(ctx, "saved"))

	lines := bufio.NewScanner(out)
	var records []Record
	for lines.Scan() {
		var rec Record
		require.NoError(t, json.Unmarshal(lines.Bytes(), &rec))
		records = append(records, rec)
	}
	require.Len(t, records, 3)
	assert.Equal(t, RecordMessage, records[0].Type)
	assert.Equal(t, "Hi", records[0].Message.Text)
	assert.Equal(t, RecordTurn, records[1].Type)
	assert.Equal(t, "welcome", records[1].Turn.StepID)
	assert.Equal(t, Record{Type: RecordSystem, Text: "saved"}, records[2])

	val, err := h.Input(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Get a quote", val)

	val, err = h.Input(ctx)
	require.NoError(t, err)
	assert.Equal(t, "plain text", val)

	_, err = h.Input(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestParseCommand(t *testing.T) {
	for input, want := range map[string]Command{
		"exit":     CommandQuit,
		" /QUIT ":  CommandQuit,
		"/reset":   CommandReset,
		"/restart": CommandReset,
		"/status":  CommandStatus,
		"/help":    CommandHelp,
	} {
		cmd, ok := ParseCommand(input)
		assert.True(t, ok, input)
		assert.Equal(t, want, cmd, input)
	}
	_, ok := ParseCommand("quit smoking")
	assert.False(t, ok)
}

func TestGuards(t *testing.T) {
	ctx := context.Background()

	out := &bytes.Buffer{}
	h := NewTextHandler(strings.NewReader("YES\nnah\n"), out)
	confirm := ConfirmationGuard(h)

	ok, err := confirm(ctx, CommandReset)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = AllGuards(AutoApprove(), confirm)(ctx, CommandReset)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = confirm(ctx, CommandReset)
	assert.ErrorIs(t, err, io.EOF)
}
