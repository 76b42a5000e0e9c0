package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/IBM/API-BLEND/corpus"
)

func newSegmentCmd(g *globalFlags) *cobra.Command {
	var intents string
	cmd := &cobra.Command{
		Use:     "segment [flags] SENTENCE",
		Short:   "Split one sentence into one clause per intent",
		Example: `  api-blend segment --intents PlayMusic#GetWeather "play some jazz and what is the weather like"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}
			logger, err := openLogger(cmd, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Close() }()

			seg, err := newSegmenter(cfg, logger.Logger)
			if err != nil {
				return err
			}
			defer func() { _ = seg.Close() }()

			words := strings.Fields(strings.Join(args, " "))
			labels := corpus.ParseIntents(intents)
			result, err := seg.Segment(cmd.Context(), words, len(labels))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), renderSegmentation(words, labels, result))
			return err
		},
	}
	cmd.Flags().StringVar(&intents, "intents", "", "intent labels joined by '#'; their count is the clause count")
	_ = cmd.MarkFlagRequired("intents")
	return cmd
}
