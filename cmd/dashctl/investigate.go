package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xela07ax/agent-metrics-console/internal/gateway"
)

var (
	investigateToken string
	noStream         bool
)

var investigateCmd = &cobra.Command{
	Use:   "investigate <query>",
	Short: "Start an investigation and follow its event stream",
	Long: `Start an investigation on the orchestration backend and print stream events
until the stream ends or Ctrl+C.

Examples:
  dashctl investigate "contratos emergenciais 2024"
  dashctl investigate --token $TOKEN "licitações saúde"
  dashctl investigate --no-stream "despesas"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInvestigate,
}

func init() {
	investigateCmd.Flags().StringVar(&investigateToken, "token", os.Getenv("GATEWAY_TOKEN"), "bearer token (defaults to $GATEWAY_TOKEN)")
	investigateCmd.Flags().BoolVar(&noStream, "no-stream", false, "only start the investigation")
	rootCmd.AddCommand(investigateCmd)
}

func runInvestigate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := gateway.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.Timeout, logger)
	query := strings.Join(args, " ")

	inv, err := client.StartInvestigation(ctx, query, investigateToken)
	if err != nil {
		return fmt.Errorf("start investigation: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "investigation %s: %s\n", inv.ID, inv.Status)
	if noStream {
		return nil
	}

	events, err := client.StreamInvestigation(ctx, inv.ID)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}

	count := 0
	for ev := range events {
		count++
		fmt.Fprintf(out, "%s\n", ev)
	}
	fmt.Fprintf(out, "stream closed after %d events\n", count)
	return nil
}
