// Package slot turns BIO slot tags into named parameter values.
package slot

import (
	"errors"
	"fmt"
	"strings"
)

// Outside is the tag for tokens outside any slot.
const Outside = "O"

var (
	// ErrMalformedTag indicates a tag that is neither O nor B-/I- prefixed.
	ErrMalformedTag = errors.New("slot: malformed tag")

	// ErrLengthMismatch indicates token and tag sequences of different length.
	ErrLengthMismatch = errors.New("slot: token and tag counts differ")
)

// Span is a run of tokens sharing one slot label, as token offsets
// [Start, End).
type Span struct {
	Label string
	Start int
	End   int
	Text  string
}

type state struct {
	inside bool
	label  string
	start  int
}

// Decode groups tags into labeled spans. An I- tag that does not continue a
// span with the same label opens a new span, as if it were B-.
func Decode(tokens, tags []string) ([]Span, error) {
	if len(tokens) != len(tags) {
		return nil, fmt.Errorf("%w: %d tokens, %d tags", ErrLengthMismatch, len(tokens), len(tags))
	}

	var (
		spans []Span
		cur   state
	)
	emit := func(end int) {
		if cur.inside {
			spans = append(spans, Span{
				Label: cur.label,
				Start: cur.start,
				End:   end,
				Text:  strings.Join(tokens[cur.start:end], " "),
			})
		}
		cur = state{}
	}

	for i, tag := range tags {
		prefix, label, err := splitTag(tag)
		if err != nil {
			return nil, fmt.Errorf("token %d: %w", i, err)
		}
		switch prefix {
		case "":
			emit(i)
		case "B":
			emit(i)
			cur = state{inside: true, label: label, start: i}
		case "I":
			if cur.inside && cur.label == label {
				continue
			}
			emit(i)
			cur = state{inside: true, label: label, start: i}
		}
	}
	emit(len(tags))

	return spans, nil
}

func splitTag(tag string) (prefix, label string, err error) {
	if tag == Outside {
		return "", "", nil
	}
	prefix, label, ok := strings.Cut(tag, "-")
	if !ok || label == "" || (prefix != "B" && prefix != "I") {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedTag, tag)
	}
	return prefix, label, nil
}

// Align decodes one clause's tags and collects span texts by slot name.
func Align(tokens, tags []string) (*ParameterSet, error) {
	spans, err := Decode(tokens, tags)
	if err != nil {
		return nil, err
	}
	params := NewParameterSet()
	for _, s := range spans {
		params.Add(s.Label, s.Text)
	}
	return params, nil
}
