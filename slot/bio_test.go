package slot

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		tags   []string
		want   []Span
	}{
		{
			name:   "single token span",
			tokens: []string{"find", "a", "B", "flight"},
			tags:   []string{"O", "O", "B-city", "O"},
			want:   []Span{{Label: "city", Start: 2, End: 3, Text: "B"}},
		},
		{
			name:   "multi token span at end",
			tokens: []string{"to", "new", "york"},
			tags:   []string{"O", "B-city", "I-city"},
			want:   []Span{{Label: "city", Start: 1, End: 3, Text: "new york"}},
		},
		{
			name:   "adjacent B tags split",
			tokens: []string{"monday", "tuesday"},
			tags:   []string{"B-date", "B-date"},
			want: []Span{
				{Label: "date", Start: 0, End: 1, Text: "monday"},
				{Label: "date", Start: 1, End: 2, Text: "tuesday"},
			},
		},
		{
			name:   "I after O opens span",
			tokens: []string{"at", "noon"},
			tags:   []string{"O", "I-time"},
			want:   []Span{{Label: "time", Start: 1, End: 2, Text: "noon"}},
		},
		{
			name:   "I with other label opens span",
			tokens: []string{"boston", "monday"},
			tags:   []string{"B-city", "I-date"},
			want: []Span{
				{Label: "city", Start: 0, End: 1, Text: "boston"},
				{Label: "date", Start: 1, End: 2, Text: "monday"},
			},
		},
		{
			name:   "all outside",
			tokens: []string{"hello", "there"},
			tags:   []string{"O", "O"},
			want:   nil,
		},
		{
			name: "empty",
			want: nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Decode(tc.tokens, tc.tags)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode([]string{"a"}, []string{"O", "O"})
	assert.True(t, errors.Is(err, ErrLengthMismatch))

	for _, tag := range []string{"X-city", "B-", "city", "b-city"} {
		_, err := Decode([]string{"a"}, []string{tag})
		assert.Truef(t, errors.Is(err, ErrMalformedTag), "tag %q: got %v", tag, err)
	}
}

func TestAlign_RepeatedSlot(t *testing.T) {
	tokens := []string{"from", "monday", "to", "friday", "in", "boston"}
	tags := []string{"O", "B-date", "O", "B-date", "O", "B-city"}

	params, err := Align(tokens, tags)
	require.NoError(t, err)

	assert.Equal(t, []string{"date", "city"}, params.Names())
	assert.Equal(t, []string{"monday", "friday"}, params.Get("date"))
	assert.Equal(t, []string{"boston"}, params.Get("city"))
}

func TestAlign_TruncatedAtClauseBoundary(t *testing.T) {
	// The clause ends inside "new york"; only the part in the clause survives.
	tokens := []string{"fly", "to", "new"}
	tags := []string{"O", "O", "B-city"}

	params, err := Align(tokens, tags)
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, params.Get("city"))
}
