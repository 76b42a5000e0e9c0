// Package sentence splits tokenized utterances into sentences.
//
// Utterances in slot-filling corpora are usually a single sentence, but
// spoken multi-intent requests occasionally chain two. The clause segmenter
// parses each sentence on its own so every sentence contributes one root.
package sentence

import (
	"context"
	"regexp"
	"strings"
)

// Span is a sentence as token offsets [Start, End).
type Span struct {
	Start int
	End   int
}

// Splitter partitions a token sequence into contiguous sentence spans.
type Splitter interface {
	Split(ctx context.Context, words []string) ([]Span, error)
}

var abbreviations = regexp.MustCompile(`(?i)^(?:mr|mrs|ms|dr|prof|sr|jr|st|vs|etc|i\.e|e\.g|u\.s|u\.k|a\.m|p\.m)\.$`)

// Rules splits after sentence-final punctuation tokens, ignoring common
// abbreviations.
type Rules struct{}

// Split implements Splitter.
func (Rules) Split(ctx context.Context, words []string) ([]Span, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Whole(ruleBreaks(words), len(words)), nil
}

func ruleBreaks(words []string) []int {
	var breaks []int
	for i, w := range words {
		if i == len(words)-1 {
			break
		}
		if !isTerminal(w) {
			continue
		}
		breaks = append(breaks, i+1)
	}
	return breaks
}

func isTerminal(w string) bool {
	if w == "" || abbreviations.MatchString(w) {
		return false
	}
	return strings.ContainsAny(w[len(w)-1:], ".?!")
}

// Whole converts sorted break offsets into spans covering n tokens. Breaks
// outside (0, n) and duplicates are ignored.
func Whole(breaks []int, n int) []Span {
	if n == 0 {
		return nil
	}
	var spans []Span
	start := 0
	for _, b := range breaks {
		if b <= start || b >= n {
			continue
		}
		spans = append(spans, Span{Start: start, End: b})
		start = b
	}
	return append(spans, Span{Start: start, End: n})
}
