package sentence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/IBM/API-BLEND/inference"
	"github.com/IBM/API-BLEND/tokenizer"
)

const (
	// maxSeqLen is the longest input the model accepts, with margin below
	// its 514 positions.
	maxSeqLen = 512

	// chunkOverlap is the number of tokens shared by consecutive chunks.
	chunkOverlap = 64
)

// Model detects sentence boundaries with a wtpsplit/SaT ONNX model.
// It is safe for concurrent use.
type Model struct {
	tokenizer *tokenizer.Tokenizer
	pool      *inference.Pool
	threshold float32
	logger    *slog.Logger
}

// NewModel loads the ONNX model and its SentencePiece tokenizer.
func NewModel(modelPath, tokenizerPath string, opts ...Option) (*Model, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if _, err := os.Stat(modelPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, modelPath)
		}
		return nil, fmt.Errorf("checking model file: %w", err)
	}

	tok, err := tokenizer.New(tokenizerPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTokenizerFailed, tokenizerPath)
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenizerFailed, err)
	}

	pool, err := inference.NewPool(modelPath, cfg.poolSize, inference.SaTSpec())
	if err != nil {
		_ = tok.Close()
		return nil, fmt.Errorf("%w: %w", ErrInvalidModel, err)
	}

	cfg.logger.Debug("sentence model loaded",
		"model", modelPath,
		"pool_size", pool.Size(),
		"threshold", cfg.threshold)

	return &Model{
		tokenizer: tok,
		pool:      pool,
		threshold: cfg.threshold,
		logger:    cfg.logger,
	}, nil
}

// Split implements Splitter. Boundaries predicted inside a word close the
// sentence after that word.
func (m *Model) Split(ctx context.Context, words []string) ([]Span, error) {
	if len(words) == 0 {
		return nil, nil
	}

	ends, err := m.boundaries(ctx, strings.Join(words, " "))
	if err != nil {
		return nil, err
	}

	// Word j covers normalized runes [start, wordEnd[j]); the tokenizer
	// prefixes the text with one separator rune.
	wordEnd := make([]int, len(words))
	pos := 1
	for j, w := range words {
		pos += utf8.RuneCountInString(w)
		wordEnd[j] = pos
		pos++
	}

	var breaks []int
	j := 0
	for _, e := range ends {
		for j < len(words) && wordEnd[j] < e {
			j++
		}
		if j >= len(words) {
			break
		}
		if len(breaks) == 0 || breaks[len(breaks)-1] != j+1 {
			breaks = append(breaks, j+1)
		}
	}

	spans := Whole(breaks, len(words))
	if len(spans) > 1 {
		m.logger.Debug("split utterance", "sentences", len(spans), "words", len(words))
	}
	return spans, nil
}

// boundaries returns the normalized rune offsets after which the model
// predicts a sentence end.
func (m *Model) boundaries(ctx context.Context, text string) ([]int, error) {
	tokens := m.tokenizer.Encode(text)
	if len(tokens) == 0 {
		return nil, nil
	}

	logits, err := m.getLogits(ctx, tokens)
	if err != nil {
		return nil, err
	}

	var ends []int
	for i, logit := range logits {
		if i < len(tokens) && sigmoid(logit) > m.threshold {
			ends = append(ends, tokens[i].End)
		}
	}
	return ends, nil
}

// getLogits returns logits for all tokens, chunking if necessary.
func (m *Model) getLogits(ctx context.Context, tokens []tokenizer.TokenInfo) ([]float32, error) {
	session, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer m.pool.Release(session)

	if len(tokens) <= maxSeqLen {
		return m.inferChunk(ctx, session, tokens)
	}

	logits := make([]float32, len(tokens))
	counts := make([]int, len(tokens))

	stride := maxSeqLen - chunkOverlap
	for start := 0; start < len(tokens); start += stride {
		end := min(start+maxSeqLen, len(tokens))

		chunkLogits, err := m.inferChunk(ctx, session, tokens[start:end])
		if err != nil {
			return nil, err
		}
		for i, logit := range chunkLogits {
			logits[start+i] += logit
			counts[start+i]++
		}

		if end >= len(tokens) {
			break
		}
	}

	// Average overlapping regions.
	for i := range logits {
		if counts[i] > 1 {
			logits[i] /= float32(counts[i])
		}
	}

	return logits, nil
}

func (m *Model) inferChunk(ctx context.Context, session *inference.Session, tokens []tokenizer.TokenInfo) ([]float32, error) {
	inputIDs := make([]int64, len(tokens))
	attentionMask := make([]int64, len(tokens))
	for i, t := range tokens {
		inputIDs[i] = int64(t.ID)
		attentionMask[i] = 1
	}

	return session.Infer(ctx, inputIDs, attentionMask)
}

// Close releases the session pool and tokenizer.
func (m *Model) Close() error {
	var errs []error
	if m.pool != nil {
		if err := m.pool.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if m.tokenizer != nil {
		if err := m.tokenizer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func sigmoid(x float32) float32 {
	return float32(1.0 / (1.0 + math.Exp(float64(-x))))
}
