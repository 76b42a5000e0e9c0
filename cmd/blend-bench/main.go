package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/IBM/API-BLEND/clause"
	"github.com/IBM/API-BLEND/corpus"
	"github.com/IBM/API-BLEND/internal/bench"
	"github.com/IBM/API-BLEND/sentence"
)

func main() {
	var (
		corpusPaths  = flag.String("corpus", "", "Comma-separated annotation files to draw single-intent examples from (required)")
		k            = flag.Int("k", 2, "Intents per composed utterance")
		count        = flag.Int("count", 500, "Number of composed utterances")
		seed         = flag.Uint64("seed", 1, "Composition seed")
		tolerance    = flag.Int("tolerance", 0, "Token tolerance for boundary matching")
		wp           = flag.Float64("wp", 1.0, "Precision weight")
		wr           = flag.Float64("wr", 1.0, "Recall weight")
		prevMin      = flag.Int("prev-min", 3, "Merge a piece while its predecessor has fewer words")
		pieceMin     = flag.Int("piece-min", 5, "Merge a piece with fewer words")
		sweep        = flag.Bool("sweep", false, "Sweep merge thresholds")
		prevMax      = flag.Int("prev-max", 6, "Sweep maximum for -prev-min")
		pieceMax     = flag.Int("piece-max", 8, "Sweep maximum for -piece-min")
		satModel     = flag.String("sat-model", "", "ONNX sentence model for the dependency fallback")
		satTokenizer = flag.String("sat-tokenizer", "", "SentencePiece model for -sat-model")
	)
	flag.Parse()

	if *corpusPaths == "" {
		fmt.Fprintln(os.Stderr, "error: -corpus required")
		flag.Usage()
		os.Exit(1)
	}

	var singles []corpus.Example
	for _, path := range strings.Split(*corpusPaths, ",") {
		exs, err := bench.LoadSingles(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error loading corpus: %v\n", err)
			os.Exit(1)
		}
		singles = append(singles, exs...)
	}

	composeCfg := bench.DefaultComposeConfig()
	composeCfg.K = *k
	composeCfg.Count = *count
	composeCfg.Seed = *seed
	cases := bench.Compose(singles, composeCfg)
	fmt.Printf("Composed %d utterances of %d intents from %d examples\n\n", len(cases), *k, len(singles))

	cfg := bench.Config{
		Tolerance:       *tolerance,
		PrecisionWeight: *wp,
		RecallWeight:    *wr,
	}

	var splitter sentence.Splitter = sentence.Rules{}
	if *satModel != "" {
		model, err := sentence.NewModel(*satModel, *satTokenizer)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error loading sentence model: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = model.Close() }()
		splitter = model
	}

	logger := slog.New(slog.DiscardHandler)
	build := func(rule clause.MergeRule) bench.Segmenter {
		return clause.New(
			clause.WithMergeRule(rule),
			clause.WithSentenceSplitter(splitter),
			clause.WithLogger(logger))
	}

	ctx := context.Background()
	if *sweep {
		runSweep(ctx, cases, cfg, build, *prevMax, *pieceMax)
	} else {
		runSingle(ctx, cases, cfg, build(clause.MergeRule{PrevMinWords: *prevMin, PieceMinWords: *pieceMin}))
	}
}

func runSingle(ctx context.Context, cases []bench.Case, cfg bench.Config, seg bench.Segmenter) {
	r, err := bench.Run(ctx, seg, cases, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error evaluating: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Precision: %.2f  Recall: %.2f  F1: %.2f  Weighted: %.2f\n",
		r.Precision, r.Recall, r.F1, r.WeightedScore)
	fmt.Printf("(TP: %d, FP: %d, FN: %d)\n", r.TruePositives, r.FalsePositives, r.FalseNegatives)
	fmt.Printf("K match: %.2f (%d/%d)\n", r.KMatchRate(), r.KMatched, r.Cases)
	for name, n := range r.Strategies {
		fmt.Printf("  %-20s %d\n", name, n)
	}
}

func runSweep(ctx context.Context, cases []bench.Case, cfg bench.Config, build func(clause.MergeRule) bench.Segmenter, prevMax, pieceMax int) {
	rules := bench.SweepMergeRules(prevMax, pieceMax)

	fmt.Printf("Merge Threshold Sweep (wp=%.1f, wr=%.1f)\n", cfg.PrecisionWeight, cfg.RecallWeight)
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("%-6s %-6s %-8s %-8s %-8s %-8s %-8s\n", "Prev", "Piece", "Prec", "Rec", "F1", "Weighted", "KMatch")

	results, err := bench.Sweep(ctx, cases, cfg, rules, build)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error during sweep: %v\n", err)
		os.Exit(1)
	}

	// Print in rule order for readability
	for _, rule := range rules {
		for _, r := range results {
			if r.Rule == rule {
				fmt.Printf("%-6d %-6d %-8.2f %-8.2f %-8.2f %-8.2f %-8.2f\n",
					rule.PrevMinWords, rule.PieceMinWords,
					r.Report.Precision, r.Report.Recall, r.Report.F1, r.Report.WeightedScore, r.Report.KMatchRate())
				break
			}
		}
	}

	fmt.Println(strings.Repeat("-", 60))
	if len(results) > 0 {
		best := results[0]
		fmt.Printf("Optimal: prev-min=%d piece-min=%d (Weighted: %.2f)\n",
			best.Rule.PrevMinWords, best.Rule.PieceMinWords, best.Report.WeightedScore)
	}
}
