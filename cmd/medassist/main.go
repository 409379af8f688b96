package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/medicare-ai/medassist"
	"github.com/medicare-ai/medassist/common/logger"
	"github.com/medicare-ai/medassist/config"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "medassist",
		Short:         "MediCare AI medical assistant",
		Version:       medassist.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to the YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	cmd.AddCommand(
		newServeCmd(opts),
		newAskCmd(opts),
		newIndexCmd(opts),
		newStatusCmd(opts),
	)
	return cmd
}

// load reads the configuration and initialises logging.
func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.JSON); err != nil {
		return nil, fmt.Errorf("init logger failed, err: %w", err)
	}
	return cfg, nil
}

func (o *rootOptions) assistant(ctx context.Context) (*medassist.Assistant, error) {
	cfg, err := o.load()
	if err != nil {
		return nil, err
	}
	return medassist.NewAssistant(ctx, cfg)
}
