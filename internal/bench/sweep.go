package bench

import (
	"context"
	"slices"

	"github.com/IBM/API-BLEND/clause"
)

// SweepResult holds the report for one merge rule.
type SweepResult struct {
	Rule   clause.MergeRule
	Report Report
}

// SweepMergeRules generates every rule with thresholds from 0 up to the
// given maxima.
func SweepMergeRules(prevMax, pieceMax int) []clause.MergeRule {
	var rules []clause.MergeRule
	for p := 0; p <= prevMax; p++ {
		for q := 0; q <= pieceMax; q++ {
			rules = append(rules, clause.MergeRule{PrevMinWords: p, PieceMinWords: q})
		}
	}
	return rules
}

// Sweep evaluates one segmenter per rule and returns results sorted by
// weighted score, best first. Ties keep rule order.
func Sweep(ctx context.Context, cases []Case, cfg Config, rules []clause.MergeRule, build func(clause.MergeRule) Segmenter) ([]SweepResult, error) {
	results := make([]SweepResult, 0, len(rules))

	for _, rule := range rules {
		r, err := Run(ctx, build(rule), cases, cfg)
		if err != nil {
			return nil, err
		}
		results = append(results, SweepResult{Rule: rule, Report: r})
	}

	slices.SortStableFunc(results, func(a, b SweepResult) int {
		switch {
		case a.Report.WeightedScore > b.Report.WeightedScore:
			return -1
		case a.Report.WeightedScore < b.Report.WeightedScore:
			return 1
		}
		return 0
	})

	return results, nil
}
