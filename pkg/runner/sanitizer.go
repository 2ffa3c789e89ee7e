package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxInputSize bounds a single answer: 4KB is far beyond any field.
	DefaultMaxInputSize = 4096
	// EnvMaxInputSize overrides the limit.
	EnvMaxInputSize = "LOANFLOW_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// Sanitizer rejects oversized or invalid answers and strips control characters
// other than newline, tab and carriage return, so answers cannot poison logs
// or repaint the terminal.
type Sanitizer struct {
	MaxSize int
}

// NewSanitizer reads the limit from LOANFLOW_MAX_INPUT_SIZE.
func NewSanitizer() Sanitizer {
	return Sanitizer{MaxSize: maxInputSize()}
}

// Clean returns the sanitized answer. Oversized input is rejected, never truncated.
func (s Sanitizer) Clean(input string) (string, error) {
	limit := s.MaxSize
	if limit <= 0 {
		limit = DefaultMaxInputSize
	}
	if len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}
	if strings.IndexFunc(input, unsafeControl) < 0 {
		return input, nil
	}
	return strings.Map(func(r rune) rune {
		if unsafeControl(r) {
			return -1
		}
		return r
	}, input), nil
}

// SanitizeInput cleans input with the environment-configured limit.
func SanitizeInput(input string) (string, error) {
	return NewSanitizer().Clean(input)
}

func unsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}

func maxInputSize() int {
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxInputSize
}
