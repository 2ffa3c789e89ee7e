package runner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizer_SizeLimit(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"under limit", DefaultMaxInputSize - 1, false},
		{"exact limit", DefaultMaxInputSize, false},
		{"over limit", DefaultMaxInputSize + 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SanitizeInput(strings.Repeat("a", tt.size))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInputTooLarge)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSanitizer_ControlChars(t *testing.T) {
	tests := []struct {
		name, input, want string
	}{
		{"plain", "$75,000", "$75,000"},
		{"safe controls", "Line1\nLine2\tTabbed", "Line1\nLine2\tTabbed"},
		{"ansi", "\x1b[31mAcme\x1b[0m", "[31mAcme[0m"},
		{"null", "51 824\x00 753 556", "51 824 753 556"},
		{"bell", "yes\x07", "yes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeInput(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizer_InvalidUTF8(t *testing.T) {
	_, err := SanitizeInput("bad\xff")
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestSanitizer_EnvOverride(t *testing.T) {
	t.Setenv(EnvMaxInputSize, "10")

	_, err := SanitizeInput("12345678901")
	assert.ErrorIs(t, err, ErrInputTooLarge)

	_, err = SanitizeInput("12345")
	assert.NoError(t, err)
}

func TestSanitizer_ExplicitLimit(t *testing.T) {
	_, err := Sanitizer{MaxSize: 3}.Clean("abcd")
	assert.ErrorIs(t, err, ErrInputTooLarge)

	got, err := Sanitizer{}.Clean("abcd")
	require.NoError(t, err)
	assert.Equal(t, "abcd", got)
}
