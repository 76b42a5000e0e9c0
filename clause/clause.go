// Package clause splits a multi-intent utterance into one contiguous
// clause per intent.
//
// Segmentation runs a prioritized list of strategies. The first strategy
// that yields exactly K pieces wins. When none does, the last pieces
// produced are used, after short pieces are merged if there are too many,
// and the result is flagged as unmatched rather than rejected.
package clause

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrInvalidCount indicates a clause count below one or an empty sentence.
var ErrInvalidCount = errors.New("clause: invalid clause count")

// Piece is a strategy's output: the clause text and the number of sentence
// tokens it covers. Width can exceed the words in Text when delimiter
// tokens were dropped from the text.
type Piece struct {
	Text  string
	Width int
}

// Words returns the number of words in the piece text.
func (p Piece) Words() int {
	return len(strings.Fields(p.Text))
}

func (p Piece) join(next Piece) Piece {
	text := strings.TrimSpace(p.Text + " " + next.Text)
	return Piece{Text: text, Width: p.Width + next.Width}
}

// Clause is a piece laid out over the sentence as token offsets
// [Start, End).
type Clause struct {
	Start int
	End   int
	Text  string
}

// Len returns the number of tokens the clause spans.
func (c Clause) Len() int { return c.End - c.Start }

// Strategy proposes pieces for a sentence and target count k. A nil result
// means the strategy does not apply.
type Strategy interface {
	Name() string
	Split(ctx context.Context, words []string, k int) ([]Piece, error)
}

// Segmentation is the outcome for one sentence.
type Segmentation struct {
	Clauses  []Clause
	Strategy string
	// Matched reports whether the clause count equals the requested count.
	Matched bool
}

// Segmenter runs the strategy cascade.
type Segmenter struct {
	strategies []Strategy
	merge      MergeRule
	logger     *slog.Logger
}

// New returns a Segmenter with the default cascade: whole sentence, broad
// delimiters, narrow delimiters, then dependency parse with repair.
func New(opts ...Option) *Segmenter {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	strategies := cfg.strategies
	if strategies == nil {
		strategies = []Strategy{
			Whole{},
			NewDelimiter("delimiter", cfg.delimiters...),
			NewDelimiter("narrow", cfg.narrowDelimiters...),
			&Dependency{
				Sentences: cfg.splitter,
				Parser:    cfg.parser,
				Repair:    cfg.repair,
			},
		}
	}

	return &Segmenter{
		strategies: strategies,
		merge:      cfg.merge,
		logger:     cfg.logger,
	}
}

// Segment splits words into k clauses. Strategy errors other than context
// cancellation are logged and the next strategy is tried.
func (s *Segmenter) Segment(ctx context.Context, words []string, k int) (Segmentation, error) {
	if k < 1 || len(words) == 0 {
		return Segmentation{}, fmt.Errorf("%w: k=%d, %d words", ErrInvalidCount, k, len(words))
	}

	pieces := []Piece{{Text: strings.Join(words, " "), Width: len(words)}}
	name := "none"

	for _, st := range s.strategies {
		got, err := st.Split(ctx, words, k)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Segmentation{}, ctxErr
			}
			s.logger.Debug("strategy failed", "strategy", st.Name(), "error", err)
			continue
		}
		if got == nil {
			continue
		}
		pieces, name = got, st.Name()
		if len(pieces) == k {
			break
		}
	}

	if len(pieces) > k {
		if merged := MergeShort(pieces, k, s.merge); len(merged) < len(pieces) {
			pieces, name = merged, name+"+merge"
		}
	}

	return Segmentation{
		Clauses:  Layout(pieces, len(words)),
		Strategy: name,
		Matched:  len(pieces) == k,
	}, nil
}

// Layout assigns consecutive token spans by piece width, so the clauses
// always partition [0, n). The last clause absorbs any width shortfall.
func Layout(pieces []Piece, n int) []Clause {
	clauses := make([]Clause, 0, len(pieces))
	start := 0
	for i, p := range pieces {
		end := min(start+max(p.Width, 0), n)
		if i == len(pieces)-1 {
			end = n
		}
		clauses = append(clauses, Clause{Start: start, End: end, Text: p.Text})
		start = end
	}
	return clauses
}
