package paraphrase

import (
	"log/slog"
	"time"
)

// Option configures a Paraphraser.
type Option func(*config)

type config struct {
	batchSize  int
	retryDelay time.Duration
	logger     *slog.Logger
}

func defaultConfig() config {
	return config{
		batchSize:  5,
		retryDelay: 5 * time.Second,
		logger:     slog.Default(),
	}
}

// WithBatchSize sets how many prompts are sent per request (default: 5).
func WithBatchSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithRetryDelay sets the wait before a failed batch is retried
// (default: 5s).
func WithRetryDelay(d time.Duration) Option {
	return func(c *config) {
		if d >= 0 {
			c.retryDelay = d
		}
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
