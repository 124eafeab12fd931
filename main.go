package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jyotish-ai/server/internal/config"
	logx "github.com/jyotish-ai/server/pkg/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if config.IsMissing(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "jyotish",
		Short:         "Jyotish AI: Vedic astrology assistant server and tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL (debug|info|warn|error)")

	root.AddCommand(newServeCmd(&logLevel))
	root.AddCommand(newIngestCmd(&logLevel))
	root.AddCommand(newSetPasswordCmd(&logLevel))
	return root
}

// loadConfig reads configuration, initialises logging and validates it for cmd.
func loadConfig(cmd config.Command, logLevel string) (config.AppConfig, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	logx.Init(logx.LoggerOpts{Environment: cfg.Env(), Level: level})

	if err := cfg.Validate(cmd); err != nil {
		return cfg, err
	}
	return cfg, nil
}
