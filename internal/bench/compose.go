// Package bench measures clause segmentation against composed multi-intent
// utterances whose clause boundaries are known.
package bench

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/IBM/API-BLEND/corpus"
)

// DefaultConnectives join composed utterances.
var DefaultConnectives = []string{"and", "and then", "and also", ","}

// Case is a composed utterance with gold clause boundaries.
type Case struct {
	Example corpus.Example
	// Boundaries holds the token offset where each clause after the first
	// starts. A connective belongs to the clause it introduces.
	Boundaries []int
}

// ComposeConfig controls Compose.
type ComposeConfig struct {
	K           int // intents per case
	Count       int // number of cases
	Seed        uint64
	Connectives []string
}

// DefaultComposeConfig returns K=2, 500 cases, seed 1.
func DefaultComposeConfig() ComposeConfig {
	return ComposeConfig{
		K:           2,
		Count:       500,
		Seed:        1,
		Connectives: DefaultConnectives,
	}
}

// LoadSingles reads the single-intent examples of an annotation file.
func LoadSingles(path string) ([]corpus.Example, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := corpus.NewReader(f, nil)
	var out []corpus.Example
	for {
		ex, err := r.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if ex.K() == 1 && len(ex.Tokens) > 0 {
			out = append(out, ex)
		}
	}
}

// Compose draws cfg.Count cases of cfg.K single-intent examples each,
// joined by a connective chosen at random. The same seed always yields the
// same cases.
func Compose(singles []corpus.Example, cfg ComposeConfig) []Case {
	if len(singles) == 0 || cfg.K < 1 || cfg.Count < 1 {
		return nil
	}
	connectives := cfg.Connectives
	if len(connectives) == 0 {
		connectives = DefaultConnectives
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	cases := make([]Case, 0, cfg.Count)
	for range cfg.Count {
		parts := make([]corpus.Example, cfg.K)
		for i := range parts {
			parts[i] = singles[rng.IntN(len(singles))]
		}
		cases = append(cases, join(parts, func() string {
			return connectives[rng.IntN(len(connectives))]
		}))
	}
	return cases
}

func join(parts []corpus.Example, connective func() string) Case {
	var c Case
	for i, p := range parts {
		if i > 0 {
			c.Boundaries = append(c.Boundaries, len(c.Example.Tokens))
			for _, w := range strings.Fields(connective()) {
				c.Example.Tokens = append(c.Example.Tokens, w)
				c.Example.Tags = append(c.Example.Tags, "O")
			}
		}
		c.Example.Tokens = append(c.Example.Tokens, p.Tokens...)
		c.Example.Tags = append(c.Example.Tags, p.Tags...)
		c.Example.Intents = append(c.Example.Intents, p.Intents...)
	}
	return c
}
