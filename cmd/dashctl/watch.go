package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/xela07ax/agent-metrics-console/internal/domain"
	"github.com/xela07ax/agent-metrics-console/internal/infra"
	"github.com/xela07ax/agent-metrics-console/internal/notify"
)

var watchAgent string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow agent state changes",
	Long: `Subscribe to state_change events published by the console and print them.
Requires redis.addr (or REDIS_ADDR) to be set.

Examples:
  dashctl watch                  # all agents
  dashctl watch --agent zumbi    # a single agent`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchAgent, "agent", "", "only follow this agent id")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if cfg.Redis.Addr == "" {
		return errors.New("redis address is not configured (set REDIS_ADDR)")
	}

	channel := infra.RedisChanStateChange
	if watchAgent != "" {
		if _, ok := domain.LookupAgent(watchAgent); !ok {
			return fmt.Errorf("unknown agent %q", watchAgent)
		}
		channel = infra.AgentStateChannel(watchAgent)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "watching %s (Ctrl+C to stop)\n", channel)

	notify.Listen(ctx, rdb, logger, channel, func(ev domain.StateChangeEvent) {
		printEvent(out, ev)
	})
	return nil
}

func printEvent(w io.Writer, ev domain.StateChangeEvent) {
	ts := time.UnixMilli(ev.Timestamp).Format("15:04:05")
	prev := string(ev.Previous)
	if prev == "" {
		prev = "-"
	}
	fmt.Fprintf(w, "%s  %-16s %-10s -> %s\n", ts, ev.AgentID, prev, ev.State)
}
