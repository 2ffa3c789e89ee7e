package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "loanflow version dev\n", out)
}

func TestValidateABN(t *testing.T) {
	out, err := execute(t, "validate-abn", "51824753556")
	require.NoError(t, err)
	assert.Contains(t, out, "51 824 753 556 is a valid ABN")

	_, err = execute(t, "validate-abn", "12345678901")
	assert.ErrorContains(t, err, "not a valid ABN")
}

func TestQuote(t *testing.T) {
	out, err := execute(t, "quote", "50k", "--term", "60", "--balloon", "20")
	require.NoError(t, err)
	assert.Contains(t, out, "Monthly:")
	assert.Contains(t, out, "Balloon:")
	assert.Contains(t, out, "5 years")

	_, err = execute(t, "quote", "50k", "--term", "120", "--balloon", "0")
	assert.Error(t, err)
}
