package clause

import (
	"log/slog"

	"github.com/IBM/API-BLEND/depparse"
	"github.com/IBM/API-BLEND/sentence"
)

// Default heuristics. They were tuned by hand on ATIS and SNIPS and are
// kept configurable rather than derived.
var (
	DefaultDelimiters       = []string{"and also", "and then", ",", "and", "also"}
	DefaultNarrowDelimiters = []string{",", "and then"}
)

// DefaultRepairArtifact is the duplicated conjunction the dependency
// fallback can leave at the end of a chunk.
const DefaultRepairArtifact = "and and"

// Option configures a Segmenter.
type Option func(*config)

type config struct {
	delimiters       []string
	narrowDelimiters []string
	repair           string
	merge            MergeRule
	parser           depparse.Parser
	splitter         sentence.Splitter
	strategies       []Strategy
	logger           *slog.Logger
}

func defaultConfig() config {
	return config{
		delimiters:       DefaultDelimiters,
		narrowDelimiters: DefaultNarrowDelimiters,
		repair:           DefaultRepairArtifact,
		merge:            DefaultMergeRule(),
		parser:           depparse.NewHeuristic(),
		splitter:         sentence.Rules{},
		logger:           slog.Default(),
	}
}

// WithDelimiters sets the delimiters tried first.
func WithDelimiters(d ...string) Option {
	return func(c *config) {
		if len(d) > 0 {
			c.delimiters = d
		}
	}
}

// WithNarrowDelimiters sets the delimiters tried second.
func WithNarrowDelimiters(d ...string) Option {
	return func(c *config) {
		if len(d) > 0 {
			c.narrowDelimiters = d
		}
	}
}

// WithRepairArtifact sets the duplicated conjunction removed after the
// dependency fallback. An empty string disables the repair.
func WithRepairArtifact(a string) Option {
	return func(c *config) {
		c.repair = a
	}
}

// WithMergeRule sets the short-piece merge thresholds.
func WithMergeRule(r MergeRule) Option {
	return func(c *config) {
		c.merge = r
	}
}

// WithParser sets the dependency parser (default: depparse.Heuristic).
func WithParser(p depparse.Parser) Option {
	return func(c *config) {
		if p != nil {
			c.parser = p
		}
	}
}

// WithSentenceSplitter sets the splitter used before parsing
// (default: sentence.Rules).
func WithSentenceSplitter(s sentence.Splitter) Option {
	return func(c *config) {
		if s != nil {
			c.splitter = s
		}
	}
}

// WithStrategies replaces the whole cascade.
func WithStrategies(s ...Strategy) Option {
	return func(c *config) {
		c.strategies = s
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
