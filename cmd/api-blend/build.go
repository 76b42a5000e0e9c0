package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/IBM/API-BLEND/clause"
	"github.com/IBM/API-BLEND/depparse"
	"github.com/IBM/API-BLEND/internal/config"
	"github.com/IBM/API-BLEND/sentence"
)

// segmenter is a configured clause segmenter and the resources it holds.
type segmenter struct {
	*clause.Segmenter
	closers []func() error
}

func (s *segmenter) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

func newSegmenter(cfg config.Config, logger *slog.Logger) (*segmenter, error) {
	s := &segmenter{}

	var parser depparse.Parser = depparse.NewHeuristic()
	if cfg.Parser.Kind == "conllu" {
		parses, err := depparse.LoadCoNLLU(cfg.Parser.CoNLLU)
		if err != nil {
			return nil, err
		}
		parses.Fallback = depparse.NewHeuristic()
		logger.Info("loaded dependency parses", "path", cfg.Parser.CoNLLU, "sentences", parses.Len())
		parser = parses
	}

	var splitter sentence.Splitter = sentence.Rules{}
	if cfg.Parser.SentenceModel != "" {
		model, err := sentence.NewModel(cfg.Parser.SentenceModel, cfg.Parser.SentenceTokenizer,
			sentence.WithThreshold(cfg.Parser.SentenceThreshold),
			sentence.WithPoolSize(cfg.Parser.PoolSize),
			sentence.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("loading sentence model: %w", err)
		}
		s.closers = append(s.closers, model.Close)
		splitter = model
	}

	repair := cfg.Segmenter.RepairArtifact
	if cfg.Segmenter.DisableRepair {
		repair = ""
	}

	s.Segmenter = clause.New(
		clause.WithDelimiters(cfg.Segmenter.Delimiters...),
		clause.WithNarrowDelimiters(cfg.Segmenter.NarrowDelimiters...),
		clause.WithRepairArtifact(repair),
		clause.WithMergeRule(clause.MergeRule{
			PrevMinWords:  cfg.Segmenter.PrevMinWords,
			PieceMinWords: cfg.Segmenter.PieceMinWords,
		}),
		clause.WithParser(parser),
		clause.WithSentenceSplitter(splitter),
		clause.WithLogger(logger),
	)
	return s, nil
}
