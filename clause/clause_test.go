package clause

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func texts(clauses []Clause) []string {
	out := make([]string, len(clauses))
	for i, c := range clauses {
		out[i] = c.Text
	}
	return out
}

// assertPartition checks the clauses tile [0, n) in order.
func assertPartition(t *testing.T, clauses []Clause, n int) {
	t.Helper()
	require.NotEmpty(t, clauses)
	assert.Equal(t, 0, clauses[0].Start)
	assert.Equal(t, n, clauses[len(clauses)-1].End)
	for i := 1; i < len(clauses); i++ {
		assert.Equal(t, clauses[i-1].End, clauses[i].Start, "gap or overlap before clause %d", i)
	}
}

type fixed struct {
	pieces []Piece
	err    error
}

func (f fixed) Name() string { return "fixed" }

func (f fixed) Split(context.Context, []string, int) ([]Piece, error) {
	return f.pieces, f.err
}

func TestSegment_SingleIntent(t *testing.T) {
	words := strings.Fields("list flights from boston to denver and show fares")
	seg, err := New().Segment(context.Background(), words, 1)
	require.NoError(t, err)

	require.Len(t, seg.Clauses, 1)
	assert.Equal(t, strings.Join(words, " "), seg.Clauses[0].Text)
	assert.Equal(t, "whole", seg.Strategy)
	assert.True(t, seg.Matched)
	assertPartition(t, seg.Clauses, len(words))
}

func TestSegment_Delimiters(t *testing.T) {
	words := strings.Fields("book a flight to boston and also find a hotel in seattle")
	seg, err := New().Segment(context.Background(), words, 2)
	require.NoError(t, err)

	assert.Equal(t, []string{"book a flight to boston", "find a hotel in seattle"}, texts(seg.Clauses))
	assert.Equal(t, "delimiter", seg.Strategy)
	assert.True(t, seg.Matched)

	// "and also" belongs to the second clause's span.
	assert.Equal(t, Clause{Start: 5, End: 12, Text: "find a hotel in seattle"}, seg.Clauses[1])
	assertPartition(t, seg.Clauses, len(words))
}

func TestSegment_DependencyFallback(t *testing.T) {
	words := strings.Fields("play some jazz but what is the weather like")
	seg, err := New().Segment(context.Background(), words, 2)
	require.NoError(t, err)

	assert.Equal(t, "dependency", seg.Strategy)
	assert.True(t, seg.Matched)
	assert.Equal(t, []string{"play some jazz", "what is the weather like"}, texts(seg.Clauses))
	assert.Equal(t, 3, seg.Clauses[1].Start)
	assertPartition(t, seg.Clauses, len(words))
}

func TestSegment_MergesExtraPieces(t *testing.T) {
	words := strings.Fields("find me a cheap flight to boston and rate this book five stars")
	s := New(WithStrategies(fixed{pieces: []Piece{
		{Text: "find me a cheap flight", Width: 5},
		{Text: "to boston", Width: 2},
		{Text: "and rate this book five stars", Width: 6},
	}}))

	seg, err := s.Segment(context.Background(), words, 2)
	require.NoError(t, err)

	assert.Equal(t, "fixed+merge", seg.Strategy)
	assert.True(t, seg.Matched)
	assert.Equal(t, []string{"find me a cheap flight to boston", "and rate this book five stars"}, texts(seg.Clauses))
	assert.Equal(t, 7, seg.Clauses[0].End)
	assertPartition(t, seg.Clauses, len(words))
}

func TestSegment_Mismatch(t *testing.T) {
	words := strings.Fields("what is the weather")
	seg, err := New().Segment(context.Background(), words, 3)
	require.NoError(t, err)

	assert.False(t, seg.Matched)
	require.Len(t, seg.Clauses, 1)
	assertPartition(t, seg.Clauses, len(words))
}

func TestSegment_StrategyErrorFallsThrough(t *testing.T) {
	words := strings.Fields("play jazz and add it to my playlist")
	s := New(WithStrategies(
		fixed{err: errors.New("parser down")},
		NewDelimiter("delimiter", DefaultDelimiters...),
	))

	seg, err := s.Segment(context.Background(), words, 2)
	require.NoError(t, err)
	assert.Equal(t, "delimiter", seg.Strategy)
	assert.Equal(t, []string{"play jazz", "add it to my playlist"}, texts(seg.Clauses))
}

func TestSegment_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(WithStrategies(fixed{err: context.Canceled}))
	_, err := s.Segment(ctx, []string{"a", "b"}, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSegment_InvalidInput(t *testing.T) {
	_, err := New().Segment(context.Background(), []string{"a"}, 0)
	assert.ErrorIs(t, err, ErrInvalidCount)

	_, err = New().Segment(context.Background(), nil, 1)
	assert.ErrorIs(t, err, ErrInvalidCount)
}

func TestSegment_Deterministic(t *testing.T) {
	words := strings.Fields("show flights , and then book the cheapest one and also rent a car")
	s := New()
	first, err := s.Segment(context.Background(), words, 3)
	require.NoError(t, err)
	for range 5 {
		again, err := s.Segment(context.Background(), words, 3)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestLayout(t *testing.T) {
	clauses := Layout([]Piece{{Text: "a", Width: 2}, {Text: "b", Width: 1}}, 5)
	assert.Equal(t, []Clause{{0, 2, "a"}, {2, 5, "b"}}, clauses)

	clauses = Layout([]Piece{{Text: "a", Width: 9}, {Text: "b", Width: 1}}, 4)
	assert.Equal(t, []Clause{{0, 4, "a"}, {4, 4, "b"}}, clauses)
	assert.Zero(t, clauses[1].Len())
}
