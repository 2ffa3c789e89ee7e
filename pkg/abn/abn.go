// Package abn validates and formats Australian Business Numbers.
package abn

import (
	"regexp"
	"strings"
	"unicode"
)

// Length is the number of digits in an ABN.
const Length = 11

var weights = [Length]int{10, 1, 3, 5, 7, 9, 11, 13, 15, 17, 19}

var embedded = regexp.MustCompile(`\d{2}[ ]?\d{3}[ ]?\d{3}[ ]?\d{3}`)

// Normalize strips spaces from raw. It does not validate.
func Normalize(raw string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
}

// IsValid reports whether raw is an 11-digit ABN passing the mod-89 checksum.
// Spaces are ignored.
func IsValid(raw string) bool {
	id := Normalize(raw)
	if len(id) != Length {
		return false
	}

	sum := 0
	for i, r := range id {
		if r < '0' || r > '9' {
			return false
		}
		d := int(r - '0')
		if i == 0 {
			d--
		}
		sum += weights[i] * d
	}
	return sum%89 == 0
}

// Format renders a valid ABN in the grouped "51 824 753 556" form.
// Anything else is returned unchanged.
func Format(raw string) string {
	id := Normalize(raw)
	if len(id) != Length {
		return raw
	}
	return id[0:2] + " " + id[2:5] + " " + id[5:8] + " " + id[8:11]
}

// Extract finds the first checksum-valid ABN embedded in text, such as a
// disambiguation option label. It returns "" if none is present.
func Extract(text string) string {
	for _, m := range embedded.FindAllString(text, -1) {
		if id := Normalize(m); IsValid(id) {
			return id
		}
	}
	return ""
}
