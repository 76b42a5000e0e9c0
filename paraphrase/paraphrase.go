// Package paraphrase turns API strings into natural-language commands with
// a generative model.
//
// A Generator wraps one model backend. A Paraphraser batches API strings
// through a Generator, retrying a failed batch once after a delay.
package paraphrase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"
)

// Prompt is the instruction sent for each API string; %s is the API.
const Prompt = "Convert the following intent and its parameteres into an imperative sentence. " +
	"Do not copy the API or its parameters as is in the output sentence.\n\nInput:\nintent: %s\nOutput:\n"

var (
	// ErrRequestFailed indicates the backend answered with an error status.
	ErrRequestFailed = errors.New("paraphrase: request failed")

	// ErrMissingCredentials indicates the backend's key or endpoint is unset.
	ErrMissingCredentials = errors.New("paraphrase: missing credentials")
)

// Generator completes a batch of prompts. The i-th output answers the i-th
// prompt; a backend may return fewer outputs than prompts.
type Generator interface {
	Generate(ctx context.Context, prompts []string) ([]string, error)
}

// Params are the decoding parameters shared by every backend.
type Params struct {
	Temperature  float64
	MaxNewTokens int
	// Decoding is "greedy" or "sample".
	Decoding string
}

// DefaultParams returns temperature 0.7, 128 new tokens, greedy decoding.
func DefaultParams() Params {
	return Params{Temperature: 0.7, MaxNewTokens: 128, Decoding: "greedy"}
}

// Paraphraser batches API strings through a Generator.
type Paraphraser struct {
	gen        Generator
	batchSize  int
	retryDelay time.Duration
	logger     *slog.Logger
}

// New returns a Paraphraser over gen.
func New(gen Generator, opts ...Option) *Paraphraser {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Paraphraser{
		gen:        gen,
		batchSize:  cfg.batchSize,
		retryDelay: cfg.retryDelay,
		logger:     cfg.logger,
	}
}

// Paraphrase returns a paraphrase for each distinct API string. Strings the
// backend left unanswered are absent from the map.
func (p *Paraphraser) Paraphrase(ctx context.Context, apis []string) (map[string]string, error) {
	out := make(map[string]string, len(apis))
	batches := lo.Chunk(lo.Uniq(apis), p.batchSize)

	for i, batch := range batches {
		p.logger.Debug("paraphrasing batch", "batch", i, "batches", len(batches), "size", len(batch))

		prompts := lo.Map(batch, func(api string, _ int) string {
			return fmt.Sprintf(Prompt, api)
		})

		texts, err := p.generate(ctx, prompts)
		if err != nil {
			return out, fmt.Errorf("batch %d of %d: %w", i+1, len(batches), err)
		}
		for j := range min(len(texts), len(batch)) {
			out[batch[j]] = texts[j]
		}
	}
	return out, nil
}

func (p *Paraphraser) generate(ctx context.Context, prompts []string) ([]string, error) {
	texts, err := p.gen.Generate(ctx, prompts)
	if err == nil {
		return texts, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	p.logger.Warn("generation failed, retrying", "delay", p.retryDelay, "error", err)
	timer := time.NewTimer(p.retryDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}
	return p.gen.Generate(ctx, prompts)
}
