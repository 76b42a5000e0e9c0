package bench

import (
	"context"

	"github.com/IBM/API-BLEND/clause"
)

// Segmenter splits words into k clauses.
type Segmenter interface {
	Segment(ctx context.Context, words []string, k int) (clause.Segmentation, error)
}

// Report aggregates a segmenter's results over a set of cases.
type Report struct {
	Metrics
	Cases      int
	KMatched   int
	Strategies map[string]int
}

// KMatchRate is the share of cases segmented into exactly K clauses.
func (r Report) KMatchRate() float64 {
	if r.Cases == 0 {
		return 0
	}
	return float64(r.KMatched) / float64(r.Cases)
}

// Boundaries returns the start offsets of every clause after the first.
func Boundaries(seg clause.Segmentation) []int {
	if len(seg.Clauses) < 2 {
		return nil
	}
	out := make([]int, 0, len(seg.Clauses)-1)
	for _, c := range seg.Clauses[1:] {
		out = append(out, c.Start)
	}
	return out
}

// EvaluateCase segments one case and scores its boundaries.
func EvaluateCase(ctx context.Context, seg Segmenter, c Case, cfg Config) (Metrics, clause.Segmentation, error) {
	result, err := seg.Segment(ctx, c.Example.Tokens, c.Example.K())
	if err != nil {
		return Metrics{}, clause.Segmentation{}, err
	}
	return Evaluate(Boundaries(result), c.Boundaries, cfg), result, nil
}

// Run evaluates every case.
func Run(ctx context.Context, seg Segmenter, cases []Case, cfg Config) (Report, error) {
	r := Report{Strategies: make(map[string]int)}
	for _, c := range cases {
		m, result, err := EvaluateCase(ctx, seg, c, cfg)
		if err != nil {
			return Report{}, err
		}
		r.Metrics.Add(m, cfg)
		r.Cases++
		if result.Matched {
			r.KMatched++
		}
		r.Strategies[result.Strategy]++
	}
	return r, nil
}
