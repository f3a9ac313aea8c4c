// Package encode turns surface-language identifiers (which may contain
// operator symbols such as "+" or "<*>") into the alphabetic fragments
// canonical names are built from (spec.md §4.3).
package encode

import (
	"fmt"
	"strings"
	"unicode"
)

// symbolToLetter is the fixed 21-entry operator-character encoding table.
// Modeled as package-level constants rather than a process-wide mutable
// dictionary (spec.md §9 Design Notes).
var symbolToLetter = map[rune]byte{
	'+': 'p', '-': 'm', '*': 't', '!': 'e', '#': 'h', '$': 'd', '.': 'o',
	'=': 'q', '\'': 'a', '%': 'c', '|': 'b', '~': 'r', ':': 'i', '&': 'f',
	'/': 's', '\\': 'u', '<': 'l', '>': 'g', '@': 'n', '?': 'k', '^': 'j',
}

var letterToSymbol = func() map[byte]rune {
	m := make(map[byte]rune, len(symbolToLetter))
	for sym, letter := range symbolToLetter {
		m[letter] = sym
	}
	return m
}()

// ErrUnencodable is returned when an operator identifier mixes table
// characters with a character outside the 21-entry table; an identifier
// made only of non-table characters is not rejected. The original Python implementation
// passes such characters through unchanged, which the spec calls out as
// lossy and ambiguous; per spec.md §9 open question 2 and SPEC_FULL.md §C.2
// this implementation rejects the name instead.
type ErrUnencodable struct {
	Text string
	Rune rune
}

func (e *ErrUnencodable) Error() string {
	return fmt.Sprintf("encode: character %q in %q has no canonical-name encoding", e.Rune, e.Text)
}

// Encode maps a surface identifier to the alphabetic fragment used inside a
// canonical name (spec.md §4.3):
//
//   - an identifier starting with a letter or underscore and ending in one
//     or more apostrophes is rewritten to "XP<count><stripped>";
//   - a non-alphabetic (operator) identifier containing at least one
//     table character is rewritten through the 21-entry table and
//     prefixed "XO", or rejected with ErrUnencodable if any of its
//     characters is outside the table;
//   - anything else, including a non-alphabetic identifier with no table
//     character at all, passes through unchanged.
func Encode(text string) (string, error) {
	if text == "" {
		return text, nil
	}
	first := rune(text[0])
	if unicode.IsLetter(first) || first == '_' {
		if strings.HasSuffix(text, "'") {
			count := strings.Count(text, "'")
			stripped := strings.ReplaceAll(text, "'", "")
			return fmt.Sprintf("XP%d%s", count, stripped), nil
		}
		return text, nil
	}

	hasTableChar := false
	for _, r := range text {
		if _, ok := symbolToLetter[r]; ok {
			hasTableChar = true
			break
		}
	}
	if !hasTableChar {
		return text, nil
	}

	var sb strings.Builder
	sb.WriteString("XO")
	for _, r := range text {
		letter, ok := symbolToLetter[r]
		if !ok {
			return "", &ErrUnencodable{Text: text, Rune: r}
		}
		sb.WriteByte(letter)
	}
	return sb.String(), nil
}

// Decode is the exact inverse of Encode on its encoded ranges (spec.md §8
// "Round-trip"): decode(encode(s)) == s for every legal identifier s.
func Decode(text string) (string, error) {
	switch {
	case strings.HasPrefix(text, "XO"):
		encoded := text[2:]
		var sb strings.Builder
		for i := 0; i < len(encoded); i++ {
			sym, ok := letterToSymbol[encoded[i]]
			if !ok {
				return "", fmt.Errorf("encode: %q is not a valid XO-encoded fragment", text)
			}
			sb.WriteRune(sym)
		}
		return sb.String(), nil
	case strings.HasPrefix(text, "XP"):
		if len(text) < 3 {
			return "", fmt.Errorf("encode: %q is not a valid XP-encoded fragment", text)
		}
		count := int(text[2] - '0')
		if count < 0 || count > 9 {
			return "", fmt.Errorf("encode: %q has an invalid prime count", text)
		}
		rest := text[3:]
		return rest + strings.Repeat("'", count), nil
	default:
		return text, nil
	}
}
