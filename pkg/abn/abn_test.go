package abn_test

import (
	"testing"

	"github.com/aretw0/loanflow/pkg/abn"
	"github.com/stretchr/testify/assert"
)

const known = "51824753556"

func TestIsValid(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"known valid", known, true},
		{"grouped with spaces", "51 824 753 556", true},
		{"second valid", "53004085616", true},
		{"too short", "5182475355", false},
		{"too long", "518247535560", false},
		{"letters", "5182475355a", false},
		{"empty", "", false},
		{"checksum off by one", "51824753557", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, abn.IsValid(tt.in))
		})
	}
}

func TestIsValid_AdjacentTranspositionsFail(t *testing.T) {
	digits := []byte(known)
	for i := 0; i+1 < len(digits); i++ {
		if digits[i] == digits[i+1] {
			continue
		}
		swapped := append([]byte(nil), digits...)
		swapped[i], swapped[i+1] = swapped[i+1], swapped[i]
		assert.False(t, abn.IsValid(string(swapped)), "transposition at %d: %s", i, swapped)
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "51 824 753 556", abn.Format(known))
	assert.Equal(t, "51 824 753 556", abn.Format("518 247 535 56"))
	assert.Equal(t, "123", abn.Format("123"))
}

func TestExtract(t *testing.T) {
	assert.Equal(t, known, abn.Extract("Acme Pty Ltd · ABN 51 824 753 556 · NSW 2000"))
	assert.Equal(t, "53004085616", abn.Extract("Other Co (53004085616)"))
	assert.Equal(t, "", abn.Extract("Enter my ABN instead"))
	assert.Equal(t, "", abn.Extract("Bad Co · ABN 51 824 753 557"))
}
