package bench

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/IBM/API-BLEND/clause"
	"github.com/IBM/API-BLEND/corpus"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name      string
		predicted []int
		truth     []int
		tolerance int
		wantTP    int
		wantFP    int
		wantFN    int
	}{
		{
			name:      "perfect match",
			predicted: []int{10, 20, 30},
			truth:     []int{10, 20, 30},
			tolerance: 0,
			wantTP:    3,
			wantFP:    0,
			wantFN:    0,
		},
		{
			name:      "within tolerance",
			predicted: []int{11, 19, 31},
			truth:     []int{10, 20, 30},
			tolerance: 2,
			wantTP:    3,
			wantFP:    0,
			wantFN:    0,
		},
		{
			name:      "false positive",
			predicted: []int{10, 15, 20},
			truth:     []int{10, 20},
			tolerance: 0,
			wantTP:    2,
			wantFP:    1,
			wantFN:    0,
		},
		{
			name:      "false negative",
			predicted: []int{10},
			truth:     []int{10, 20},
			tolerance: 0,
			wantTP:    1,
			wantFP:    0,
			wantFN:    1,
		},
		{
			name:      "unordered prediction",
			predicted: []int{7, 3},
			truth:     []int{3, 8},
			tolerance: 1,
			wantTP:    2,
			wantFP:    0,
			wantFN:    0,
		},
		{
			name:      "one prediction near two gold boundaries",
			predicted: []int{4},
			truth:     []int{3, 5},
			tolerance: 1,
			wantTP:    1,
			wantFP:    0,
			wantFN:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Tolerance: tt.tolerance}
			got := Evaluate(tt.predicted, tt.truth, cfg)

			if got.TruePositives != tt.wantTP {
				t.Errorf("TruePositives = %d, want %d", got.TruePositives, tt.wantTP)
			}
			if got.FalsePositives != tt.wantFP {
				t.Errorf("FalsePositives = %d, want %d", got.FalsePositives, tt.wantFP)
			}
			if got.FalseNegatives != tt.wantFN {
				t.Errorf("FalseNegatives = %d, want %d", got.FalseNegatives, tt.wantFN)
			}
		})
	}
}

func TestScore(t *testing.T) {
	m := Score(3, 1, 2, Config{PrecisionWeight: 1, RecallWeight: 1})
	if m.Precision != 0.75 {
		t.Errorf("Precision = %v, want 0.75", m.Precision)
	}
	if m.Recall != 0.6 {
		t.Errorf("Recall = %v, want 0.6", m.Recall)
	}
	if diff := m.WeightedScore - 0.675; diff < -1e-9 || diff > 1e-9 {
		t.Errorf("WeightedScore = %v, want 0.675", m.WeightedScore)
	}

	zero := Score(0, 0, 0, DefaultConfig())
	if zero.F1 != 0 {
		t.Errorf("F1 = %v, want 0 for empty counts", zero.F1)
	}
}

func TestMetricsAdd(t *testing.T) {
	cfg := DefaultConfig()
	var total Metrics
	total.Add(Score(1, 0, 0, cfg), cfg)
	total.Add(Score(0, 1, 1, cfg), cfg)

	if total.TruePositives != 1 || total.FalsePositives != 1 || total.FalseNegatives != 1 {
		t.Fatalf("counts = %+v, want 1/1/1", total)
	}
	if total.F1 != 0.5 {
		t.Errorf("F1 = %v, want 0.5", total.F1)
	}
}

func TestRun(t *testing.T) {
	flight := corpus.Example{
		Tokens:  strings.Fields("book a flight to boston"),
		Tags:    []string{"O", "O", "O", "O", "B-toloc"},
		Intents: []string{"atis_flight"},
	}
	hotel := corpus.Example{
		Tokens:  strings.Fields("find a hotel in denver"),
		Tags:    []string{"O", "O", "O", "O", "B-city"},
		Intents: []string{"atis_hotel"},
	}
	c := join([]corpus.Example{flight, hotel}, func() string { return "and" })

	seg := clause.New(clause.WithLogger(slog.New(slog.DiscardHandler)))
	r, err := Run(context.Background(), seg, []Case{c}, DefaultConfig())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if r.TruePositives != 1 || r.FalsePositives != 0 || r.FalseNegatives != 0 {
		t.Errorf("metrics = %+v, want one true positive", r.Metrics)
	}
	if r.KMatchRate() != 1 {
		t.Errorf("KMatchRate() = %v, want 1", r.KMatchRate())
	}
	if r.Strategies["delimiter"] != 1 {
		t.Errorf("Strategies = %v, want delimiter", r.Strategies)
	}
}
