package tokenizer

const negInf = -1e9

// unkPenalty is subtracted from the <unk> score so known pieces win.
const unkPenalty = 10

// EncodeIDs returns HuggingFace-compatible token IDs for text.
func (t *Tokenizer) EncodeIDs(text string) []int32 {
	tokens := t.Encode(text)
	ids := make([]int32, len(tokens))
	for i, tok := range tokens {
		ids[i] = tok.ID
	}
	return ids
}

// Encode segments text into the highest scoring piece sequence (Viterbi).
// Characters no piece covers become single-rune <unk> tokens.
func (t *Tokenizer) Encode(text string) []TokenInfo {
	runes := []rune(normalize(text, t.dummyPrefix))
	n := len(runes)
	if n == 0 {
		return nil
	}

	best := make([]float64, n+1)
	from := make([]int, n+1)
	piece := make([]int32, n+1)
	for i := 1; i <= n; i++ {
		best[i] = negInf
		from[i] = -1
		piece[i] = -1
	}

	for end := 1; end <= n; end++ {
		for start := max(0, end-t.maxRunes); start < end; start++ {
			if best[start] == negInf {
				continue
			}
			idx, ok := t.index[string(runes[start:end])]
			if !ok {
				continue
			}
			if s := best[start] + float64(t.scores[idx]); s > best[end] {
				best[end], from[end], piece[end] = s, start, idx
			}
		}
		if from[end] < 0 && best[end-1] != negInf {
			best[end] = best[end-1] + float64(t.unkScore) - unkPenalty
			from[end], piece[end] = end-1, 0
		}
	}

	var tokens []TokenInfo
	for end := n; end > 0; end = from[end] {
		start := from[end]
		tokens = append(tokens, TokenInfo{
			ID:    toHFID(piece[end]),
			Text:  string(runes[start:end]),
			Start: start,
			End:   end,
		})
	}
	for i, j := 0, len(tokens)-1; i < j; i, j = i+1, j-1 {
		tokens[i], tokens[j] = tokens[j], tokens[i]
	}
	return tokens
}
