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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xela07ax/agent-metrics-console/internal/console/handler"
	"github.com/xela07ax/agent-metrics-console/internal/console/server"
	"github.com/xela07ax/agent-metrics-console/internal/console/service"
	"github.com/xela07ax/agent-metrics-console/internal/gateway"
	"github.com/xela07ax/agent-metrics-console/internal/infra"
	"github.com/xela07ax/agent-metrics-console/internal/notify"
	"github.com/xela07ax/agent-metrics-console/internal/telemetry"
)

func main() {
	// 1. Конфигурация и логгер
	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	// 2. Метрики
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := telemetry.NewMetrics(reg)

	var gatherer prometheus.Gatherer
	if cfg.Metrics.Enabled {
		gatherer = reg
	}

	// 3. Бэкенд оркестрации (Client + Reliability)
	client := gateway.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.Timeout, logger)
	source := gateway.NewProtected(client, gateway.ReliabilityFromConfig(cfg.Gateway), metrics, logger)

	// 4. События смены состояния (опционально, если задан Redis)
	opts := []service.Option{service.WithTelemetry(metrics)}

	var dispatcher *notify.Dispatcher
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			// Redis не критичен для дашборда: события будут теряться, API работает
			logger.Warn("redis unreachable, state events may be lost", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		cancel()

		dispatcher = notify.NewDispatcher(notify.NewRedisSink(rdb), 0, metrics, logger)
		dispatcher.Start()
		opts = append(opts, service.WithPublisher(dispatcher))
	} else {
		logger.Info("redis address not configured, state events disabled")
	}

	// 5. Сервис и HTTP-слой (Dependency Injection)
	metricsService := service.NewMetricsService(source, service.Config{
		CacheTTL:     cfg.Aggregator.CacheTTL,
		SampleCount:  cfg.Aggregator.SampleCount,
		RecentWindow: cfg.Aggregator.RecentWindow,
		GatewayURL:   client.BaseURL(),
	}, logger, opts...)

	consoleServer := server.NewConsoleServer(logger, handler.NewMetricsHandler(metricsService, logger), gatherer)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      consoleServer,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 6. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("metrics console started",
			zap.String("addr", srv.Addr),
			zap.String("gateway", client.BaseURL()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	<-stop // Ждем сигнал
	logger.Info("metrics console stopping...")

	// Даем 5 секунд на завершение запросов
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	if dispatcher != nil {
		dispatcher.Stop() // Финальная доставка событий
	}
	logger.Info("metrics console exited properly")
}
