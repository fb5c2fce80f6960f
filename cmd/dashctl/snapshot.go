package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xela07ax/agent-metrics-console/internal/console/service"
	"github.com/xela07ax/agent-metrics-console/internal/domain"
	"github.com/xela07ax/agent-metrics-console/internal/gateway"
	"github.com/xela07ax/agent-metrics-console/internal/infra"
)

var (
	consoleURL string
	localMode  bool
	rawJSON    bool
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Fetch and summarize the metrics snapshot",
	Long: `Fetch the consolidated metrics snapshot, validate its shape and print a summary.

Examples:
  dashctl snapshot                         # from the running console
  dashctl snapshot --local                 # compute in-process against the gateway
  dashctl snapshot --json                  # print the raw payload`,
	RunE: runSnapshot,
}

func init() {
	snapshotCmd.Flags().StringVar(&consoleURL, "console", "http://localhost:8080", "metrics console base URL")
	snapshotCmd.Flags().BoolVar(&localMode, "local", false, "compute the snapshot in-process instead of calling the console")
	snapshotCmd.Flags().BoolVar(&rawJSON, "json", false, "print the raw JSON payload")
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	var (
		snap *domain.AgentMetricsResponse
		err  error
	)
	if localMode {
		svc := service.NewMetricsService(newLocalSource(cfg.Gateway, logger), service.Config{
			GatewayURL:   cfg.Gateway.BaseURL,
			SampleCount:  cfg.Aggregator.SampleCount,
			RecentWindow: cfg.Aggregator.RecentWindow,
		}, logger)
		snap = svc.GetMetricsSnapshot(ctx)
	} else {
		snap, err = fetchSnapshot(ctx, http.DefaultClient, consoleURL)
		if err != nil {
			return err
		}
	}

	if err := domain.ValidateResponse(snap); err != nil {
		return fmt.Errorf("snapshot failed validation: %w", err)
	}

	out := cmd.OutOrStdout()
	if rawJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}
	printSummary(out, snap)
	return nil
}

// newLocalSource собирает клиент бэкенда с той же обвязкой надежности, что и консоль
func newLocalSource(gw infra.GatewayConfig, logger *zap.Logger) *gateway.Protected {
	client := gateway.NewClient(gw.BaseURL, gw.Timeout, logger)
	return gateway.NewProtected(client, gateway.ReliabilityFromConfig(gw), nil, logger)
}

func fetchSnapshot(ctx context.Context, client *http.Client, baseURL string) (*domain.AgentMetricsResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+"/api/metrics", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("console unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return nil, fmt.Errorf("console returned %s: %s", resp.Status, body.Error)
	}

	var snap domain.AgentMetricsResponse
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

func printSummary(w io.Writer, snap *domain.AgentMetricsResponse) {
	s := snap.Summary

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Agent Metrics Snapshot (%s)\n", time.UnixMilli(s.Timestamp).UTC().Format(time.RFC3339))
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "%-22s %s\n", "Data source", s.DataSource)
	if s.BackendStatus != "" {
		fmt.Fprintf(w, "%-22s %s (api %s)\n", "Backend", s.BackendStatus, s.APIVersion)
	}
	fmt.Fprintf(w, "%-22s %d / %d\n", "Active agents", s.ActiveAgents, len(snap.Agents))
	fmt.Fprintf(w, "%-22s %d\n", "Total requests", s.TotalRequests)
	fmt.Fprintf(w, "%-22s %.1f%%\n", "Success rate", s.SuccessRate*100)
	fmt.Fprintf(w, "%-22s %.2f\n", "Reflection rate", s.ReflectionRate)

	p95Mark := "✓"
	if s.P95ResponseTime > domain.PerformanceTargets.APIResponseP95Ms {
		p95Mark = "✗"
	}
	fmt.Fprintf(w, "%-22s avg %.0fms  p50 %.0fms  p95 %.0fms %s  p99 %.0fms\n",
		"Response time", s.AvgResponseTime, s.P50ResponseTime, s.P95ResponseTime, p95Mark, s.P99ResponseTime)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-16s %-10s %8s %10s %8s\n", "Agent", "State", "Requests", "Avg (ms)", "Quality")
	fmt.Fprintln(w, strings.Repeat("-", 60))
	for _, id := range domain.AgentIDs() {
		st, ok := snap.Agents[id]
		if !ok {
			continue
		}
		refl := snap.Reflections[id]
		mark := ""
		if refl.NeedsImprovement() {
			mark = " !"
		}
		fmt.Fprintf(w, "%-16s %-10s %8d %10.0f %8.2f%s\n", id, st.State, st.RequestCount, st.AvgResponseTime, refl.AvgQuality, mark)
	}
	fmt.Fprintln(w)
}
