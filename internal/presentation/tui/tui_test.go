package tui_test

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/loanflow/internal/presentation/tui"
)

func TestRenderer(t *testing.T) {
	render, err := tui.NewRenderer(0)
	require.NoError(t, err)

	out, err := render("Your quote is **$1,234.56** a month.")
	require.NoError(t, err)
	assert.Contains(t, out, "1,234.56")
}

func TestIsTerminal_Pipe(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	assert.False(t, tui.IsTerminal(w))
	assert.False(t, tui.IsTerminal(nil))
	assert.Equal(t, tui.DefaultWidth, tui.Width(w))
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf, "v1.2.3")

	out := buf.String()
	assert.Contains(t, out, "v1.2.3")
	assert.Contains(t, out, "|____|")
}
