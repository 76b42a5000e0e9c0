package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/IBM/API-BLEND/api"
	"github.com/IBM/API-BLEND/internal/stats"
	"github.com/IBM/API-BLEND/internal/store"
	"github.com/IBM/API-BLEND/topv2"
)

// TopV2Dataset names the TOPv2 output directory (Seq<name>) and the
// dataset label of its statistics.
const TopV2Dataset = "TopV2"

// TopV2Strategy labels TOPv2 examples in statistics and stored records.
const TopV2Strategy = "ontology"

// TopV2 converts TOPv2 domain splits. Input is read from
// <data>/<domain>_<split>.tsv and written to <save>/SeqTopV2/<domain>_<split>.json;
// the catalog of every domain is merged into <save>/SeqTopV2/api_spec.json.
// WithDatasets selects domains.
type TopV2 struct {
	dataDir   string
	saveDir   string
	converter *topv2.Converter
	cfg       config
}

// NewTopV2 returns a TopV2 runner reading from dataDir and writing to
// saveDir. Domains default to topv2.Domains and splits to topv2.Splits.
func NewTopV2(dataDir, saveDir string, converter *topv2.Converter, opts ...Option) *TopV2 {
	cfg := defaultConfig()
	cfg.datasets = topv2.Domains
	cfg.splits = topv2.Splits
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.stats == nil {
		cfg.stats = stats.New()
	}
	return &TopV2{dataDir: dataDir, saveDir: saveDir, converter: converter, cfg: cfg}
}

// Stats returns the runner's statistics accumulator.
func (t *TopV2) Stats() *stats.Accumulator { return t.cfg.stats }

// Jobs returns every domain/split pair in run order.
func (t *TopV2) Jobs() []Job {
	jobs := make([]Job, 0, len(t.cfg.datasets)*len(t.cfg.splits))
	for _, d := range t.cfg.datasets {
		for _, sp := range t.cfg.splits {
			jobs = append(jobs, Job{Dataset: d, Split: sp})
		}
	}
	return jobs
}

// InputPath returns the TSV file of job.
func (t *TopV2) InputPath(job Job) string {
	return filepath.Join(t.dataDir, job.Dataset+"_"+job.Split+".tsv")
}

// OutputDir returns the directory every domain is written to.
func (t *TopV2) OutputDir() string {
	return filepath.Join(t.saveDir, "Seq"+TopV2Dataset)
}

// OutputPath returns the example file of job.
func (t *TopV2) OutputPath(job Job) string {
	return filepath.Join(t.OutputDir(), job.Dataset+"_"+job.Split+".json")
}

// Check verifies every input exists.
func (t *TopV2) Check() error {
	var errs []error
	for _, job := range t.Jobs() {
		if err := checkInput(t.InputPath(job)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func checkInput(path string) error {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrMissingInput, path)
	case err != nil:
		return err
	case info.IsDir():
		return fmt.Errorf("%w: %s is a directory", ErrMissingInput, path)
	}
	return nil
}

// Run converts every split and returns the per-split statistics. Rows that
// fail to convert are counted under their drop reason and skipped.
func (t *TopV2) Run(ctx context.Context) ([]stats.Split, error) {
	if err := t.Check(); err != nil {
		return nil, err
	}

	jobs := t.Jobs()
	catalogs := make([]*api.Catalog, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.cfg.workers)
	for i, job := range jobs {
		g.Go(func() error {
			c, err := t.runSplit(gctx, job)
			if err != nil {
				return fmt.Errorf("%s_%s: %w", job.Dataset, job.Split, err)
			}
			catalogs[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if t.cfg.catalog {
		merged := api.NewCatalog()
		for _, c := range catalogs {
			merged.Merge(c)
		}
		path := filepath.Join(t.OutputDir(), CatalogFile)
		if err := writeJSON(path, merged, t.cfg.indent); err != nil {
			return nil, fmt.Errorf("writing %s: %w", path, err)
		}
		t.cfg.logger.Info("catalog written", "intents", len(merged.Intents()), "output", path)
	}

	report := t.cfg.stats.Report(t.cfg.splits...)
	if t.cfg.store != nil {
		for _, st := range report {
			if err := t.cfg.store.SaveStats(ctx, t.cfg.runID, st); err != nil {
				return nil, err
			}
		}
	}
	return report, nil
}

func (t *TopV2) runSplit(ctx context.Context, job Job) (*api.Catalog, error) {
	in := t.InputPath(job)
	f, err := os.Open(in)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingInput, in)
		}
		return nil, err
	}
	defer func() { _ = f.Close() }()

	logger := t.cfg.logger.With("domain", job.Dataset, "split", job.Split)
	rec := t.cfg.stats.Begin(job.Dataset, job.Split)
	reader := topv2.NewReader(f, logger)
	catalog := api.NewCatalog()

	examples := make([]topv2.Example, 0)
	var rows []store.Record

	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", in, err)
		}

		res, err := t.converter.Convert(ctx, row)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Debug("dropping example", "example", i, "error", err)
			rec.Example(0)
			rec.Dropped(err)
			continue
		}

		rec.Example(len(res.Calls))
		rec.Converted(TopV2Strategy, true, 0)
		catalog.Observe(res.Calls...)
		examples = append(examples, res.Example)
		if t.cfg.store != nil {
			rows = append(rows, store.Record{
				RunID:    t.cfg.runID,
				Dataset:  job.Dataset,
				Split:    job.Split,
				Position: i,
				Text:     res.Example.Input,
				APIs:     res.Calls,
				Strategy: TopV2Strategy,
				Matched:  true,
			})
		}
	}
	rec.Malformed(reader.Malformed(), false)

	out := t.OutputPath(job)
	if err := writeJSON(out, examples, t.cfg.indent); err != nil {
		return nil, fmt.Errorf("writing %s: %w", out, err)
	}
	if t.cfg.store != nil {
		if err := t.cfg.store.SaveRecords(ctx, rows); err != nil {
			return nil, err
		}
	}

	snap := rec.Snapshot()
	logger.Info("split converted",
		"examples", snap.Examples,
		"written", snap.Written,
		"dropped", snap.Dropped,
		"malformed_lines", snap.MalformedLines,
		"output", out)
	return catalog, nil
}
