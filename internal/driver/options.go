package driver

import (
	"log/slog"

	"github.com/samber/lo"

	"github.com/IBM/API-BLEND/internal/stats"
	"github.com/IBM/API-BLEND/internal/store"
)

// Option configures a Driver.
type Option func(*config)

type config struct {
	datasets []string
	splits   []string
	workers  int
	indent   int
	catalog  bool
	store    *store.Store
	runID    string
	stats    *stats.Accumulator
	logger   *slog.Logger
}

func defaultConfig() config {
	return config{
		datasets: []string{"ATIS", "SNIPS"},
		splits:   []string{"train", "dev", "test"},
		workers:  1,
		indent:   4,
		catalog:  true,
		logger:   slog.Default(),
	}
}

// WithDatasets sets the dataset directory names (default: ATIS, SNIPS).
func WithDatasets(names ...string) Option {
	return func(c *config) {
		if len(names) > 0 {
			c.datasets = lo.Uniq(names)
		}
	}
}

// WithSplits sets the split file names without extension
// (default: train, dev, test).
func WithSplits(names ...string) Option {
	return func(c *config) {
		if len(names) > 0 {
			c.splits = lo.Uniq(names)
		}
	}
}

// WithWorkers sets how many splits are converted concurrently (default: 1).
func WithWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithIndent sets the JSON indentation width of output files (default: 4).
// Zero writes compact JSON.
func WithIndent(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.indent = n
		}
	}
}

// WithCatalog enables or disables writing api_spec.json (default: enabled).
func WithCatalog(enabled bool) Option {
	return func(c *config) {
		c.catalog = enabled
	}
}

// WithStore additionally saves records and statistics under runID.
func WithStore(s *store.Store, runID string) Option {
	return func(c *config) {
		c.store = s
		c.runID = runID
	}
}

// WithStats sets the statistics accumulator (default: a fresh one per
// driver).
func WithStats(a *stats.Accumulator) Option {
	return func(c *config) {
		c.stats = a
	}
}

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
