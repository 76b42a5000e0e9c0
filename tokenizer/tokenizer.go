// Package tokenizer implements XLM-RoBERTa compatible SentencePiece
// unigram tokenization, as used by the sentence boundary model.
package tokenizer

import (
	"fmt"
	"unicode/utf8"
)

// HuggingFace XLM-RoBERTa special token ids. The SentencePiece vocabulary
// has no <pad>, so ordinary pieces are shifted up by one.
const (
	bosID int32 = 0
	padID int32 = 1
	eosID int32 = 2
	unkID int32 = 3
)

// Tokenizer maps text to XLM-RoBERTa token ids.
type Tokenizer struct {
	index       map[string]int32 // piece -> SentencePiece index
	scores      []float32        // by SentencePiece index
	unkScore    float32
	maxRunes    int
	dummyPrefix bool
}

// TokenInfo is a token with its rune offsets in the normalized text.
type TokenInfo struct {
	ID    int32
	Text  string
	Start int
	End   int
}

// New loads a tokenizer from a SentencePiece .model file.
func New(modelPath string) (*Tokenizer, error) {
	model, err := LoadModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("loading model: %w", err)
	}
	return FromModel(model)
}

// FromModel builds a tokenizer from a decoded model.
func FromModel(model *Model) (*Tokenizer, error) {
	if model.ModelType != Unigram {
		return nil, fmt.Errorf("unsupported model type %d", model.ModelType)
	}

	t := &Tokenizer{
		index:       make(map[string]int32, len(model.Pieces)),
		scores:      make([]float32, len(model.Pieces)),
		dummyPrefix: model.AddDummyPrefix,
	}
	for i, p := range model.Pieces {
		t.scores[i] = p.Score
		if p.Type == Unknown {
			t.unkScore = p.Score
		}
		if p.Type != Normal && p.Type != UserDefined {
			continue
		}
		t.index[p.Piece] = int32(i)
		t.maxRunes = max(t.maxRunes, utf8.RuneCountInString(p.Piece))
	}
	return t, nil
}

// toHFID converts a SentencePiece index to a HuggingFace id: <unk>, <s>
// and </s> move to their fixed ids, everything else shifts past <pad>.
func toHFID(spIndex int32) int32 {
	switch spIndex {
	case 0:
		return unkID
	case 1:
		return bosID
	case 2:
		return eosID
	default:
		return spIndex + 1
	}
}

// Close releases tokenizer resources.
func (t *Tokenizer) Close() error {
	return nil
}

// VocabSize returns the HuggingFace vocabulary size, one more than the
// SentencePiece vocabulary because of <pad>.
func (t *Tokenizer) VocabSize() int {
	return len(t.scores) + 1
}

// BOSID returns the beginning-of-sentence token ID.
func (t *Tokenizer) BOSID() int32 { return bosID }

// PadID returns the padding token ID.
func (t *Tokenizer) PadID() int32 { return padID }

// EOSID returns the end-of-sentence token ID.
func (t *Tokenizer) EOSID() int32 { return eosID }

// UnkID returns the unknown token ID.
func (t *Tokenizer) UnkID() int32 { return unkID }
