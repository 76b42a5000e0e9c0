package clause

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeShort(t *testing.T) {
	rule := DefaultMergeRule()

	tests := []struct {
		name   string
		pieces []Piece
		k      int
		want   []Piece
	}{
		{
			name:   "short middle piece joins first",
			pieces: []Piece{{"book a cheap flight", 4}, {"to boston", 2}, {"find a hotel in seattle", 5}},
			k:      2,
			want:   []Piece{{"book a cheap flight to boston", 6}, {"find a hotel in seattle", 5}},
		},
		{
			name:   "short predecessor absorbs next",
			pieces: []Piece{{"hi", 1}, {"book a cheap flight to boston", 6}, {"find a hotel in seattle", 5}},
			k:      2,
			want:   []Piece{{"hi book a cheap flight to boston", 7}, {"find a hotel in seattle", 5}},
		},
		{
			name:   "stops at k",
			pieces: []Piece{{"a", 1}, {"b", 1}, {"c", 1}, {"d", 1}},
			k:      2,
			want:   []Piece{{"a b c", 3}, {"d", 1}},
		},
		{
			name:   "long pieces are kept",
			pieces: []Piece{{"book a cheap flight to boston", 6}, {"find a nice hotel in seattle", 6}, {"rent a big car at the airport", 7}},
			k:      2,
			want:   []Piece{{"book a cheap flight to boston", 6}, {"find a nice hotel in seattle", 6}, {"rent a big car at the airport", 7}},
		},
		{
			name:   "already at k",
			pieces: []Piece{{"a", 1}, {"b", 1}},
			k:      2,
			want:   []Piece{{"a", 1}, {"b", 1}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MergeShort(tc.pieces, tc.k, rule))
		})
	}
}

func TestMergeShort_Disabled(t *testing.T) {
	pieces := []Piece{{"a", 1}, {"b", 1}, {"c", 1}}
	assert.Equal(t, pieces, MergeShort(pieces, 1, MergeRule{}))
}

func TestRepairDuplicateConjunction(t *testing.T) {
	pieces := []Piece{{"find flights and and", 4}, {"book a hotel", 3}, {"rent a car", 3}}
	got := RepairDuplicateConjunction(pieces, "and and")
	assert.Equal(t, []Piece{{"find flights and book a hotel", 7}, {"rent a car", 3}}, got)

	// Only whole-word suffixes count.
	pieces = []Piece{{"band and", 2}, {"x", 1}}
	assert.Equal(t, pieces, RepairDuplicateConjunction(pieces, "and and"))

	assert.Equal(t, pieces, RepairDuplicateConjunction(pieces, ""))
}
