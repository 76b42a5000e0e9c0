package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/IBM/API-BLEND/paraphrase"
	"github.com/IBM/API-BLEND/sgd"
)

func newSGDCmd(g *globalFlags) *cobra.Command {
	var (
		dataDir  string
		saveDir  string
		name     string
		model    string
		provider string
		envFile  string
		splits   []string
	)
	cmd := &cobra.Command{
		Use:   "sgd",
		Short: "Paraphrase schema-guided dialogue states into command datasets",
		Example: `  api-blend sgd --data-dir dstc8 --save-dir out --dataset-name sgd --model google/flan-t5-xxl`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("model") {
				cfg.Paraphrase.Model = model
			}
			if cmd.Flags().Changed("provider") {
				cfg.Paraphrase.Provider = provider
			}
			if cfg.Paraphrase.Model == "" {
				return fmt.Errorf("--model is required")
			}

			logger, err := openLogger(cmd, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Close() }()

			creds, err := paraphrase.LoadCredentials(envFile)
			if err != nil {
				return err
			}
			pc := cfg.Paraphrase
			gen, err := paraphrase.NewGenerator(pc.Provider, pc.Model, creds,
				paraphrase.Params{
					Temperature:  pc.Temperature,
					MaxNewTokens: pc.MaxNewTokens,
					Decoding:     pc.Decoding,
				},
				paraphrase.WithTimeout(pc.Timeout))
			if err != nil {
				return err
			}

			run := &sgd.Generator{
				DataDir: dataDir,
				SaveDir: saveDir,
				Name:    name,
				Splits:  splits,
				Paraphraser: paraphrase.New(gen,
					paraphrase.WithBatchSize(pc.BatchSize),
					paraphrase.WithRetryDelay(pc.RetryDelay),
					paraphrase.WithLogger(logger.Logger)),
				Logger: logger.Logger,
			}
			counts, err := run.Run(cmd.Context())
			if err != nil {
				logger.Error("curation failed", "error", err)
				return err
			}
			for _, split := range splits {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d examples -> %s\n", split, counts[split], run.OutputPath(split))
			}
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&dataDir, "data-dir", "", "directory holding <split>/dialogues_*.json")
	fs.StringVar(&saveDir, "save-dir", "", "output directory")
	fs.StringVar(&name, "dataset-name", "", "prefix of the output files")
	fs.StringVar(&model, "model", "", "generative model id")
	fs.StringVar(&provider, "provider", "", "paraphrase backend: genai or openai")
	fs.StringVar(&envFile, "env-file", ".env", "dotenv file with GENAI_KEY/GENAI_API or OPENAI_API_KEY")
	fs.StringSliceVar(&splits, "splits", []string{"train", "test", "dev"}, "splits to curate")
	for _, f := range []string{"data-dir", "save-dir", "dataset-name"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}
