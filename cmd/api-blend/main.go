// Command api-blend builds API-call datasets from slot-filling,
// task-oriented parsing and schema-guided dialogue corpora.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/IBM/API-BLEND/internal/config"
	"github.com/IBM/API-BLEND/internal/logging"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := fang.Execute(ctx, newRootCmd(), fang.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	logLevel   string
	logFile    string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "api-blend",
		Short:         "Build API-call datasets from slot-filling and dialogue corpora",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "YAML configuration file")
	pf.StringVar(&g.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	pf.StringVar(&g.logFile, "log-file", "", "also write JSON logs to this file")

	root.AddCommand(
		newSeqCmd(g),
		newSGDCmd(g),
		newSegmentCmd(g),
		newCatalogCmd(g),
		newSentencesCmd(g),
		newTopV2Cmd(g),
	)
	return root
}

// load reads the configuration and applies the global flags that were set
// explicitly.
func (g *globalFlags) load(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = g.logLevel
	}
	if cmd.Flags().Changed("log-file") {
		cfg.Log.File = g.logFile
	}
	return cfg, nil
}

func openLogger(cmd *cobra.Command, cfg config.Config) (*logging.Logger, error) {
	return logging.New(logging.Options{
		Level:   cfg.Log.Level,
		File:    cfg.Log.File,
		Command: cmd.Name(),
		Stderr:  cmd.ErrOrStderr(),
	})
}
