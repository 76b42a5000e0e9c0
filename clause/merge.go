package clause

import "strings"

// MergeRule holds the short-piece thresholds. Zero values disable the
// corresponding check.
type MergeRule struct {
	// PrevMinWords: a piece is merged into its predecessor while the
	// predecessor has fewer words than this.
	PrevMinWords int
	// PieceMinWords: a piece with fewer words than this is merged into its
	// predecessor.
	PieceMinWords int
}

// DefaultMergeRule returns the thresholds used for ATIS and SNIPS.
func DefaultMergeRule() MergeRule {
	return MergeRule{PrevMinWords: 3, PieceMinWords: 5}
}

func (r MergeRule) short(prev, p Piece) bool {
	return prev.Words() < r.PrevMinWords || p.Words() < r.PieceMinWords
}

// MergeShort folds short pieces into their predecessor, left to right, until
// k pieces remain or a pass changes nothing. It never goes below k pieces.
func MergeShort(pieces []Piece, k int, r MergeRule) []Piece {
	for len(pieces) > k {
		out := make([]Piece, 0, len(pieces))
		for i, p := range pieces {
			remaining := len(pieces) - i
			if len(out) > 0 && len(out)+remaining > k && r.short(out[len(out)-1], p) {
				out[len(out)-1] = out[len(out)-1].join(p)
				continue
			}
			out = append(out, p)
		}
		if len(out) == len(pieces) {
			break
		}
		pieces = out
	}
	return pieces
}

// RepairDuplicateConjunction merges every piece whose text ends with the
// artifact (for example "and and") into the next piece, collapsing the
// artifact to its last word.
func RepairDuplicateConjunction(pieces []Piece, artifact string) []Piece {
	pattern := strings.Fields(artifact)
	if len(pattern) == 0 {
		return pieces
	}
	single := pattern[len(pattern)-1]

	out := make([]Piece, 0, len(pieces))
	for _, p := range pieces {
		if n := len(out); n > 0 && hasWordSuffix(out[n-1].Text, pattern) {
			prev := out[n-1]
			prev.Text = replaceWords(prev.Text, pattern, single)
			out[n-1] = prev.join(p)
			continue
		}
		out = append(out, p)
	}
	return out
}

func hasWordSuffix(text string, pattern []string) bool {
	words := strings.Fields(text)
	if len(words) < len(pattern) {
		return false
	}
	tail := words[len(words)-len(pattern):]
	for i, w := range pattern {
		if !strings.EqualFold(tail[i], w) {
			return false
		}
	}
	return true
}

func replaceWords(text string, pattern []string, with string) string {
	words := strings.Fields(text)
	out := make([]string, 0, len(words))
	for i := 0; i < len(words); {
		if i+len(pattern) <= len(words) && hasWordSuffix(strings.Join(words[i:i+len(pattern)], " "), pattern) {
			out = append(out, with)
			i += len(pattern)
			continue
		}
		out = append(out, words[i])
		i++
	}
	return strings.Join(out, " ")
}
