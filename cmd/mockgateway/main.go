package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xela07ax/agent-metrics-console/internal/infra"
	"github.com/xela07ax/agent-metrics-console/internal/mockgateway"
)

func main() {
	opts := mockgateway.DefaultOptions()
	var (
		addr     string
		logLevel string
	)

	cmd := &cobra.Command{
		Use:   "mockgateway",
		Short: "Local emulator of the orchestration backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := infra.NewLogger(infra.LoggerConfig{Level: logLevel, Format: "console"})
			if err != nil {
				return err
			}
			defer logger.Sync()

			srv := &http.Server{
				Addr:    addr,
				Handler: mockgateway.New(opts, logger),
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.Info("mock gateway started", zap.String("addr", addr), zap.Float64("failure_rate", opts.FailureRate))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&addr, "addr", ":9090", "listen address")
	flags.StringVar(&logLevel, "log-level", "info", "log level")
	flags.DurationVar(&opts.MinLatency, "min-latency", opts.MinLatency, "minimum simulated latency")
	flags.DurationVar(&opts.MaxLatency, "max-latency", opts.MaxLatency, "maximum simulated latency")
	flags.Float64Var(&opts.FailureRate, "failure-rate", opts.FailureRate, "share of requests answered with 503 (0..1)")
	flags.DurationVar(&opts.StreamInterval, "stream-interval", opts.StreamInterval, "delay between investigation stream events")
	flags.IntVar(&opts.StreamSteps, "stream-steps", opts.StreamSteps, "number of investigation stream events")

	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
