// Package driver runs the conversion over every split of every dataset.
//
// Input is read from <data>/<DATASET>/<split>.txt and written to
// <save>/Seq<DATASET>/<split>.json, with the dataset's API catalog in
// <save>/Seq<DATASET>/api_spec.json. Examples inside a split are converted
// sequentially and in file order; splits may run concurrently.
package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	apiblend "github.com/IBM/API-BLEND"
	"github.com/IBM/API-BLEND/api"
	"github.com/IBM/API-BLEND/corpus"
	"github.com/IBM/API-BLEND/internal/stats"
	"github.com/IBM/API-BLEND/internal/store"
)

// ErrMissingInput indicates an input directory or split file does not
// exist. It aborts the run before any output is written.
var ErrMissingInput = errors.New("driver: missing input")

// CatalogFile is the name of the per-dataset API catalog.
const CatalogFile = "api_spec.json"

// Job identifies one split of one dataset.
type Job struct {
	Dataset string
	Split   string
}

// Driver converts dataset splits to API-call records.
type Driver struct {
	dataDir   string
	saveDir   string
	converter *apiblend.Converter
	cfg       config
}

// New returns a Driver reading from dataDir and writing to saveDir.
func New(dataDir, saveDir string, converter *apiblend.Converter, opts ...Option) *Driver {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.stats == nil {
		cfg.stats = stats.New()
	}
	return &Driver{
		dataDir:   dataDir,
		saveDir:   saveDir,
		converter: converter,
		cfg:       cfg,
	}
}

// Stats returns the driver's statistics accumulator.
func (d *Driver) Stats() *stats.Accumulator { return d.cfg.stats }

// Jobs returns every dataset/split pair in run order.
func (d *Driver) Jobs() []Job {
	jobs := make([]Job, 0, len(d.cfg.datasets)*len(d.cfg.splits))
	for _, ds := range d.cfg.datasets {
		for _, sp := range d.cfg.splits {
			jobs = append(jobs, Job{Dataset: ds, Split: sp})
		}
	}
	return jobs
}

// InputPath returns the annotation file of job.
func (d *Driver) InputPath(job Job) string {
	return filepath.Join(d.dataDir, job.Dataset, job.Split+".txt")
}

// OutputDir returns the output directory of dataset.
func (d *Driver) OutputDir(dataset string) string {
	return filepath.Join(d.saveDir, "Seq"+dataset)
}

// OutputPath returns the record file of job.
func (d *Driver) OutputPath(job Job) string {
	return filepath.Join(d.OutputDir(job.Dataset), job.Split+".json")
}

// Check verifies every input exists.
func (d *Driver) Check() error {
	var errs []error
	for _, job := range d.Jobs() {
		if err := checkInput(d.InputPath(job)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Run converts every split and returns the per-split statistics. Only
// missing inputs, I/O failures and cancellation are returned as errors;
// examples that fail to convert are counted and skipped.
func (d *Driver) Run(ctx context.Context) ([]stats.Split, error) {
	if err := d.Check(); err != nil {
		return nil, err
	}

	jobs := d.Jobs()
	catalogs := make([]*api.Catalog, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.workers)
	for i, job := range jobs {
		g.Go(func() error {
			c, err := d.runSplit(gctx, job)
			if err != nil {
				return fmt.Errorf("%s/%s: %w", job.Dataset, job.Split, err)
			}
			catalogs[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if d.cfg.catalog {
		if err := d.writeCatalogs(jobs, catalogs); err != nil {
			return nil, err
		}
	}

	report := d.cfg.stats.Report(d.cfg.splits...)
	if d.cfg.store != nil {
		for _, st := range report {
			if err := d.cfg.store.SaveStats(ctx, d.cfg.runID, st); err != nil {
				return nil, err
			}
		}
	}
	return report, nil
}

func (d *Driver) runSplit(ctx context.Context, job Job) (*api.Catalog, error) {
	in := d.InputPath(job)
	f, err := os.Open(in)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingInput, in)
		}
		return nil, err
	}
	defer func() { _ = f.Close() }()

	logger := d.cfg.logger.With("dataset", job.Dataset, "split", job.Split)
	rec := d.cfg.stats.Begin(job.Dataset, job.Split)
	reader := corpus.NewReader(f, logger)
	catalog := api.NewCatalog()

	records := make([]api.Record, 0)
	var rows []store.Record

	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ex, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", in, err)
		}

		rec.Example(ex.K())
		res, err := d.converter.Convert(ctx, ex)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Debug("dropping example", "example", i, "error", err)
			rec.Dropped(err)
			continue
		}

		rec.Converted(res.Segmentation.Strategy, res.Segmentation.Matched, res.DroppedCalls)
		catalog.Observe(res.Record.APIs...)
		records = append(records, res.Record)
		if d.cfg.store != nil {
			rows = append(rows, store.Record{
				RunID:    d.cfg.runID,
				Dataset:  job.Dataset,
				Split:    job.Split,
				Position: i,
				Text:     res.Record.Text,
				APIs:     res.Record.APIs,
				Strategy: res.Segmentation.Strategy,
				Matched:  res.Segmentation.Matched,
			})
		}
	}
	rec.Malformed(reader.Malformed(), reader.Unterminated())

	out := d.OutputPath(job)
	if err := writeJSON(out, records, d.cfg.indent); err != nil {
		return nil, fmt.Errorf("writing %s: %w", out, err)
	}
	if d.cfg.store != nil {
		if err := d.cfg.store.SaveRecords(ctx, rows); err != nil {
			return nil, err
		}
	}

	snap := rec.Snapshot()
	logger.Info("split converted",
		"examples", snap.Examples,
		"written", snap.Written,
		"dropped", snap.Dropped,
		"mismatches", snap.Mismatches,
		"malformed_lines", snap.MalformedLines,
		"output", out)
	return catalog, nil
}

// writeCatalogs merges the split catalogs of each dataset in split order.
func (d *Driver) writeCatalogs(jobs []Job, catalogs []*api.Catalog) error {
	merged := make(map[string]*api.Catalog)
	for i, job := range jobs {
		c, ok := merged[job.Dataset]
		if !ok {
			c = api.NewCatalog()
			merged[job.Dataset] = c
		}
		c.Merge(catalogs[i])
	}

	for _, ds := range d.cfg.datasets {
		path := filepath.Join(d.OutputDir(ds), CatalogFile)
		if err := writeJSON(path, merged[ds], d.cfg.indent); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		d.cfg.logger.Info("catalog written", "dataset", ds, "intents", len(merged[ds].Intents()), "output", path)
	}
	return nil
}

// ReadCatalog loads the API catalog written for dataset under saveDir.
func ReadCatalog(saveDir, dataset string) (map[string]api.Spec, error) {
	path := filepath.Join(saveDir, "Seq"+dataset, CatalogFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingInput, path)
		}
		return nil, err
	}
	return api.ParseCatalog(data)
}
