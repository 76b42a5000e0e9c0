package apiblend

import (
	"log/slog"

	"github.com/IBM/API-BLEND/clause"
)

// Option configures a Converter.
type Option func(*config)

type config struct {
	segmenter *clause.Segmenter
	logger    *slog.Logger
}

func defaultConfig() config {
	return config{
		logger: slog.Default(),
	}
}

// WithSegmenter sets the clause segmenter (default: clause.New with the
// converter's logger).
func WithSegmenter(s *clause.Segmenter) Option {
	return func(c *config) {
		c.segmenter = s
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
