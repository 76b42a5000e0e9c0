package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/IBM/API-BLEND/corpus"
	"github.com/IBM/API-BLEND/depparse"
	"github.com/IBM/API-BLEND/internal/driver"
	"github.com/IBM/API-BLEND/sentence"
)

// newSentencesCmd exports the sentences of every multi-intent utterance,
// one per line, for parsing by an external dependency parser whose CoNLL-U
// output can be fed back with --parser conllu.
func newSentencesCmd(g *globalFlags) *cobra.Command {
	var (
		dataDir  string
		out      string
		datasets []string
		splits   []string
	)
	cmd := &cobra.Command{
		Use:   "sentences",
		Short: "Export tokenized utterances for an external dependency parser",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("data-dir") {
				cfg.DataDir = dataDir
			}
			if cmd.Flags().Changed("datasets") {
				cfg.Datasets = datasets
			}
			if cmd.Flags().Changed("splits") {
				cfg.Splits = splits
			}

			d := driver.New(cfg.DataDir, "", nil,
				driver.WithDatasets(cfg.Datasets...),
				driver.WithSplits(cfg.Splits...))
			if err := d.Check(); err != nil {
				return err
			}

			var sentences [][]string
			for _, job := range d.Jobs() {
				words, err := readSentences(cmd.Context(), d.InputPath(job))
				if err != nil {
					return err
				}
				sentences = append(sentences, words...)
			}

			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()
				w = f
			}
			if err := depparse.WriteSentences(w, sentences); err != nil {
				return err
			}
			if out != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d sentences to %s\n", len(sentences), out)
			}
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&dataDir, "data-dir", "", "directory holding <DATASET>/<split>.txt")
	fs.StringVarP(&out, "out", "o", "", "output file (default stdout)")
	fs.StringSliceVar(&datasets, "datasets", nil, "datasets to export (default ATIS,SNIPS)")
	fs.StringSliceVar(&splits, "splits", nil, "splits to export (default train,dev,test)")
	return cmd
}

func readSentences(ctx context.Context, path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	r := corpus.NewReader(f, nil)
	var out [][]string
	for {
		ex, err := r.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		if ex.K() < 2 {
			continue
		}
		spans, err := sentence.Rules{}.Split(ctx, ex.Tokens)
		if err != nil {
			return nil, err
		}
		for _, sp := range spans {
			out = append(out, ex.Tokens[sp.Start:sp.End])
		}
	}
}
