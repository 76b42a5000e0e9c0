package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/IBM/API-BLEND/internal/config"
	"github.com/IBM/API-BLEND/internal/driver"
	"github.com/IBM/API-BLEND/internal/stats"
	"github.com/IBM/API-BLEND/internal/store"
	"github.com/IBM/API-BLEND/topv2"
)

type topv2Flags struct {
	dataDir     string
	saveDir     string
	domains     []string
	splits      []string
	parses      string
	sqlite      string
	metricsFile string
	workers     int
	noCatalog   bool
}

func newTopV2Cmd(g *globalFlags) *cobra.Command {
	f := &topv2Flags{}
	cmd := &cobra.Command{
		Use:   "topv2",
		Short: "Convert TOPv2 semantic parses into sequenced API calls",
		Example: `  api-blend topv2 --data-dir TOPv2 --save-dir out --parses topv2_parses.jsonl
  api-blend topv2 --data-dir TOPv2 --save-dir out --parses topv2_parses.jsonl --domains weather,alarm`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}
			f.apply(cmd, &cfg)
			if err := cfg.ValidateTopV2(); err != nil {
				return err
			}
			return runTopV2(cmd, cfg)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&f.dataDir, "data-dir", "", "directory holding <domain>_<split>.tsv")
	fs.StringVar(&f.saveDir, "save-dir", "", "output directory")
	fs.StringSliceVar(&f.domains, "domains", nil, "domains to convert (default all eight)")
	fs.StringSliceVar(&f.splits, "splits", nil, "splits to convert (default train,eval,test)")
	fs.StringVar(&f.parses, "parses", "", "JSON-lines file with precomputed annotation parses")
	fs.StringVar(&f.sqlite, "sqlite", "", "also store examples and statistics in this SQLite database")
	fs.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus counters to this textfile")
	fs.IntVar(&f.workers, "workers", 0, "splits converted concurrently")
	fs.BoolVar(&f.noCatalog, "no-catalog", false, "do not write api_spec.json")
	return cmd
}

func (f *topv2Flags) apply(cmd *cobra.Command, cfg *config.Config) {
	fs := cmd.Flags()
	if fs.Changed("data-dir") {
		cfg.DataDir = f.dataDir
	}
	if fs.Changed("save-dir") {
		cfg.SaveDir = f.saveDir
	}
	if fs.Changed("domains") {
		cfg.TopV2.Domains = f.domains
	}
	if fs.Changed("splits") {
		cfg.TopV2.Splits = f.splits
	}
	if fs.Changed("parses") {
		cfg.TopV2.Parses = f.parses
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

func runTopV2(cmd *cobra.Command, cfg config.Config) error {
	ctx := cmd.Context()

	logger, err := openLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	parses, err := topv2.LoadParses(cfg.TopV2.Parses)
	if err != nil {
		return err
	}
	logger.Debug("parses loaded", "path", cfg.TopV2.Parses, "count", parses.Len())

	acc := stats.New()
	opts := []driver.Option{
		driver.WithDatasets(cfg.TopV2.Domains...),
		driver.WithSplits(cfg.TopV2.Splits...),
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

	conv := topv2.New(parses, topv2.WithLogger(logger.Logger))
	report, err := driver.NewTopV2(cfg.DataDir, cfg.SaveDir, conv, opts...).Run(ctx)
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
