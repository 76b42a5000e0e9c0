package apiblend

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/IBM/API-BLEND/api"
	"github.com/IBM/API-BLEND/clause"
	"github.com/IBM/API-BLEND/corpus"
	"github.com/IBM/API-BLEND/slot"
)

// Converter turns annotated examples into API-call records.
type Converter struct {
	segmenter *clause.Segmenter
	logger    *slog.Logger
}

// Result is the conversion of one example.
type Result struct {
	Record       api.Record
	Segmentation clause.Segmentation
	// DroppedCalls counts clauses or intents left unpaired.
	DroppedCalls int
}

// New returns a Converter.
func New(opts ...Option) *Converter {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.segmenter == nil {
		cfg.segmenter = clause.New(clause.WithLogger(cfg.logger))
	}
	return &Converter{segmenter: cfg.segmenter, logger: cfg.logger}
}

// Convert segments ex into one clause per intent, aligns each clause's
// slot tags and pairs the results with the intents by position.
func (c *Converter) Convert(ctx context.Context, ex corpus.Example) (Result, error) {
	if len(ex.Tokens) == 0 {
		return Result{}, ErrEmptyExample
	}
	if len(ex.Tokens) != len(ex.Tags) {
		return Result{}, fmt.Errorf("%w: %d tokens, %d tags", ErrTagMismatch, len(ex.Tokens), len(ex.Tags))
	}
	if len(ex.Intents) == 0 {
		return Result{}, ErrNoIntent
	}
	for _, in := range ex.Intents {
		if strings.TrimSpace(in) == "" {
			return Result{}, fmt.Errorf("%w: %q", ErrNoIntent, strings.Join(ex.Intents, corpus.IntentSeparator))
		}
	}

	seg, err := c.segmenter.Segment(ctx, ex.Tokens, ex.K())
	if err != nil {
		return Result{}, fmt.Errorf("segmenting: %w", err)
	}

	params := make([]*slot.ParameterSet, len(seg.Clauses))
	for i, cl := range seg.Clauses {
		p, err := slot.Align(ex.Tokens[cl.Start:cl.End], ex.Tags[cl.Start:cl.End])
		if err != nil {
			return Result{}, fmt.Errorf("clause %d: %w", i, err)
		}
		params[i] = p
	}

	calls, dropped := api.Assemble(ex.Intents, params)
	if !seg.Matched {
		c.logger.Debug("clause count mismatch",
			"intents", ex.K(),
			"clauses", len(seg.Clauses),
			"strategy", seg.Strategy)
	}

	return Result{
		Record: api.Record{
			Text: strings.TrimSpace(ex.Text()),
			APIs: calls,
		},
		Segmentation: seg,
		DroppedCalls: dropped,
	}, nil
}
