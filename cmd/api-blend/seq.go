package main

import (
	"fmt"

	"github.com/spf13/cobra"

	apiblend "github.com/IBM/API-BLEND"
	"github.com/IBM/API-BLEND/internal/config"
	"github.com/IBM/API-BLEND/internal/driver"
	"github.com/IBM/API-BLEND/internal/stats"
	"github.com/IBM/API-BLEND/internal/store"
)

type seqFlags struct {
	dataDir      string
	saveDir      string
	datasets     []string
	splits       []string
	parser       string
	conllu       string
	satModel     string
	satTokenizer string
	sqlite       string
	metricsFile  string
	workers      int
	noCatalog    bool
}

func newSeqCmd(g *globalFlags) *cobra.Command {
	f := &seqFlags{}
	cmd := &cobra.Command{
		Use:   "seq",
		Short: "Convert BIO slot-filling splits into sequenced API-call records",
		Example: `  api-blend seq --data-dir data --save-dir out
  api-blend seq --data-dir data --save-dir out --datasets SNIPS --parser conllu --conllu parses.conllu`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}
			f.apply(cmd, &cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runSeq(cmd, cfg)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&f.dataDir, "data-dir", "", "directory holding <DATASET>/<split>.txt")
	fs.StringVar(&f.saveDir, "save-dir", "", "output directory")
	fs.StringSliceVar(&f.datasets, "datasets", nil, "datasets to convert (default ATIS,SNIPS)")
	fs.StringSliceVar(&f.splits, "splits", nil, "splits to convert (default train,dev,test)")
	fs.StringVar(&f.parser, "parser", "", "dependency parser: heuristic or conllu")
	fs.StringVar(&f.conllu, "conllu", "", "CoNLL-U file with precomputed parses")
	fs.StringVar(&f.satModel, "sat-model", "", "ONNX sentence segmentation model")
	fs.StringVar(&f.satTokenizer, "sat-tokenizer", "", "SentencePiece model for --sat-model")
	fs.StringVar(&f.sqlite, "sqlite", "", "also store records and statistics in this SQLite database")
	fs.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus counters to this textfile")
	fs.IntVar(&f.workers, "workers", 0, "splits converted concurrently")
	fs.BoolVar(&f.noCatalog, "no-catalog", false, "do not write api_spec.json")
	return cmd
}

func (f *seqFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	fs := cmd.Flags()
	if fs.Changed("data-dir") {
		cfg.DataDir = f.dataDir
	}
	if fs.Changed("save-dir") {
		cfg.SaveDir = f.saveDir
	}
	if fs.Changed("datasets") {
		cfg.Datasets = f.datasets
	}
	if fs.Changed("splits") {
		cfg.Splits = f.splits
	}
	if fs.Changed("parser") {
		cfg.Parser.Kind = f.parser
	}
	if fs.Changed("conllu") {
		cfg.Parser.CoNLLU = f.conllu
		if !fs.Changed("parser") {
			cfg.Parser.Kind = "conllu"
		}
	}
	if fs.Changed("sat-model") {
		cfg.Parser.SentenceModel = f.satModel
	}
	if fs.Changed("sat-tokenizer") {
		cfg.Parser.SentenceTokenizer = f.satTokenizer
	}
	if fs.Changed("sqlite") {
		cfg.Output.SQLite = f.sqlite
	}
	if fs.Changed("metrics-file") {
		cfg.Output.MetricsFile = f.metricsFile
	}
	if fs.Changed("workers") {
		cfg.Workers = f.workers
	}
	if f.noCatalog {
		cfg.Output.Catalog = false
	}
}

func runSeq(cmd *cobra.Command, cfg config.Config) error {
	ctx := cmd.Context()

	logger, err := openLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	seg, err := newSegmenter(cfg, logger.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = seg.Close() }()

	acc := stats.New()
	opts := []driver.Option{
		driver.WithDatasets(cfg.Datasets...),
		driver.WithSplits(cfg.Splits...),
		driver.WithWorkers(cfg.Workers),
		driver.WithIndent(cfg.Output.Indent),
		driver.WithCatalog(cfg.Output.Catalog),
		driver.WithStats(acc),
		driver.WithLogger(logger.Logger),
	}

	var db *store.Store
	var runID string
	if cfg.Output.SQLite != "" {
		db, err = store.Open(cfg.Output.SQLite)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		runID, err = db.BeginRun(ctx, logger.RunID, cmd.Name())
		if err != nil {
			return err
		}
		opts = append(opts, driver.WithStore(db, runID))
	}

	conv := apiblend.New(
		apiblend.WithSegmenter(seg.Segmenter),
		apiblend.WithLogger(logger.Logger),
	)
	d := driver.New(cfg.DataDir, cfg.SaveDir, conv, opts...)

	report, err := d.Run(ctx)
	if err != nil {
		logger.Error("conversion failed", "error", err)
		return err
	}

	if db != nil {
		if err := db.FinishRun(ctx, runID); err != nil {
			return err
		}
		logger.Info("run stored", "sqlite", cfg.Output.SQLite, "run", runID)
	}
	if cfg.Output.MetricsFile != "" {
		if err := acc.WriteTextfile(cfg.Output.MetricsFile); err != nil {
			return err
		}
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), renderReport(report))
	return err
}
