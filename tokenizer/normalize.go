package tokenizer

import (
	"strings"
	"unicode"
)

// spaceMark replaces whitespace in SentencePiece pieces (U+2581).
const spaceMark = '▁'

// normalize collapses whitespace runs into single space marks, drops
// leading and trailing whitespace and, when prefix is set, starts the text
// with a space mark.
func normalize(text string, prefix bool) string {
	var b strings.Builder
	pending := prefix
	for _, r := range text {
		if unicode.IsSpace(r) {
			if b.Len() > 0 {
				pending = true
			}
			continue
		}
		if pending {
			b.WriteRune(spaceMark)
			pending = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
