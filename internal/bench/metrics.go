package bench

import "slices"

// Config controls how predicted clause boundaries are scored.
type Config struct {
	// Tolerance is how many tokens a predicted boundary may sit from a gold
	// boundary and still count as a hit.
	Tolerance int

	PrecisionWeight float64
	RecallWeight    float64
}

// DefaultConfig scores exact token offsets with precision and recall
// weighted equally.
func DefaultConfig() Config {
	return Config{PrecisionWeight: 1, RecallWeight: 1}
}

// Metrics are boundary hit counts and the scores derived from them.
type Metrics struct {
	TruePositives  int
	FalsePositives int
	FalseNegatives int
	Precision      float64
	Recall         float64
	F1             float64
	WeightedScore  float64
}

// Add folds the counts of o into m and rescores.
func (m *Metrics) Add(o Metrics, cfg Config) {
	*m = Score(m.TruePositives+o.TruePositives,
		m.FalsePositives+o.FalsePositives,
		m.FalseNegatives+o.FalseNegatives, cfg)
}

// Evaluate matches predicted clause boundaries to gold boundaries one to
// one. Both are token offsets; they are walked in ascending order and a
// pair within cfg.Tolerance is a hit.
func Evaluate(predicted, truth []int, cfg Config) Metrics {
	p := slices.Sorted(slices.Values(predicted))
	g := slices.Sorted(slices.Values(truth))

	hits := 0
	for i, j := 0, 0; i < len(p) && j < len(g); {
		switch d := p[i] - g[j]; {
		case abs(d) <= cfg.Tolerance:
			hits++
			i++
			j++
		case d < 0:
			i++
		default:
			j++
		}
	}
	return Score(hits, len(p)-hits, len(g)-hits, cfg)
}

// Score turns hit counts into precision, recall, F1 and the weighted score.
func Score(tp, fp, fn int, cfg Config) Metrics {
	m := Metrics{TruePositives: tp, FalsePositives: fp, FalseNegatives: fn}
	m.Precision = ratio(tp, tp+fp)
	m.Recall = ratio(tp, tp+fn)
	if sum := m.Precision + m.Recall; sum > 0 {
		m.F1 = 2 * m.Precision * m.Recall / sum
	}
	if w := cfg.PrecisionWeight + cfg.RecallWeight; w > 0 {
		m.WeightedScore = (cfg.PrecisionWeight*m.Precision + cfg.RecallWeight*m.Recall) / w
	}
	return m
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
