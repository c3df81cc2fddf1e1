package game

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const placeholder = '_'

// Verdict is the outcome of comparing a submission with the secret answer.
type Verdict int

const (
	VerdictWrong Verdict = iota
	VerdictCorrect
	VerdictEmpty
)

// Normalize returns the comparison key of text: lower case, diacritics
// stripped (đ counts as d), trimmed, inner whitespace collapsed to one space.
func Normalize(text string) string {
	// casers and transformers keep state, so a fresh chain per call.
	lower := cases.Lower(language.Und).String(text)
	fold := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Map(func(r rune) rune {
			if r == 'đ' {
				return 'd'
			}
			return r
		}),
		norm.NFC,
	)
	out, _, err := transform.String(fold, lower)
	if err != nil {
		out = lower
	}
	return strings.Join(strings.Fields(out), " ")
}

// foldRune is Normalize for a single character.
func foldRune(r rune) rune {
	for _, f := range Normalize(string(r)) {
		return f
	}
	return r
}

// Mask hides every character of word whose folded form is not in revealed.
// Whitespace is kept so the word shape stays visible.
func Mask(word string, revealed map[rune]bool) string {
	var b strings.Builder
	b.Grow(len(word))
	for _, r := range word {
		switch {
		case unicode.IsSpace(r):
			b.WriteRune(r)
		case revealed[foldRune(r)]:
			b.WriteRune(r)
		default:
			b.WriteRune(placeholder)
		}
	}
	return b.String()
}

func CheckAnswer(submitted, secret string) Verdict {
	got := Normalize(submitted)
	if got == "" {
		return VerdictEmpty
	}
	if got == Normalize(secret) {
		return VerdictCorrect
	}
	return VerdictWrong
}
