package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xela07ax/agent-metrics-console/internal/infra"
)

var (
	cfg    *infra.Config
	logger *zap.Logger

	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "dashctl",
	Short: "Agent metrics console CLI",
	Long: `dashctl - inspect the agent metrics console and its orchestration backend.

METRICS
  snapshot            Fetch, validate and summarize the metrics snapshot

BACKEND
  investigate <query> Start an investigation and follow its event stream

EVENTS
  watch               Follow agent state changes published to Redis

Settings come from config.yaml and the environment (GATEWAY_BASE_URL, REDIS_ADDR, ...).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = infra.LoadConfig(); err != nil {
			return err
		}

		level := "warn"
		if verbose {
			level = "debug"
		}
		logger, err = infra.NewLogger(infra.LoggerConfig{Level: level, Format: "console"})
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	// Остальные команды добавляются в init() своих файлов:
	// - snapshot.go: snapshot
	// - investigate.go: investigate
	// - watch.go: watch
}
