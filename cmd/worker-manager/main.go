// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"isp-assistant/internal/analytics"
	"isp-assistant/internal/common/aws"
	"isp-assistant/internal/common/camunda"
	"isp-assistant/internal/common/config"
	"isp-assistant/internal/common/database"
	"isp-assistant/internal/common/llm"
	"isp-assistant/internal/common/logger"
	"isp-assistant/internal/common/observability"
	"isp-assistant/internal/common/session"
	"isp-assistant/internal/routing"
	"isp-assistant/pkg/registry"

	afu "isp-assistant/internal/workers/ai-conversation/answer-follow-up"
	rq "isp-assistant/internal/workers/ai-conversation/route-question"
	saq "isp-assistant/internal/workers/ai-conversation/sql-agent-query"
	ec "isp-assistant/internal/workers/communication/export-chat"
	fia "isp-assistant/internal/workers/data-access/fetch-isp-account"
	"isp-assistant/internal/workers/data-access/fetch-isp-account/queries"
)

var connectRetry = &camunda.RetryConfig{
	MaxRetries: 15,
	BaseDelay:  2 * time.Second,
	MaxDelay:   30 * time.Second,
}

func alwaysRetry(error) bool { return true }

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...", zap.String("version", cfg.App.Version))

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Warn("otel exporter unavailable, job instruments disabled", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Zeebe ---
	zeebe, err := camunda.Connect(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
	})
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- PostgreSQL ---
	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		zapLog.Fatal("postgres init failed", zap.Error(err))
	}
	defer pg.Close()
	if err := camunda.Retry(ctx, connectRetry, alwaysRetry, pg.Ping); err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	zapLog.Info("PostgreSQL connected successfully")

	// --- Redis ---
	rdb, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		zapLog.Fatal("redis init failed", zap.Error(err))
	}
	defer rdb.Close()
	if err := camunda.Retry(ctx, connectRetry, alwaysRetry, rdb.Ping); err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	zapLog.Info("Redis connected successfully")

	// --- Collaborators ---
	generator, err := llm.New(cfg.APIs.LLM, log)
	if err != nil {
		zapLog.Fatal("llm provider init failed", zap.Error(err))
	}

	var mailer ec.Mailer
	if cfg.Export.AWS.SES.Enabled {
		m, err := aws.NewSESMailer(ctx, cfg.Export.AWS.Region, cfg.Export.AWS.SES.FromEmail)
		if err != nil {
			zapLog.Fatal("ses mailer init failed", zap.Error(err))
		}
		mailer = m
	}

	sessions := session.NewStore(rdb.GetClient(), cfg.Session)
	calculator := analytics.NewCalculatorFromConfig(cfg.Analytics)

	reg, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		zapLog.Warn("activity registry not loaded", zap.String("path", cfg.Registry.Path), zap.Error(err))
	}

	// --- Workers ---
	var workers []worker.JobWorker
	start := func(taskType string, handler worker.JobHandler) {
		if reg != nil {
			if _, ok := reg.Find(taskType); !ok {
				zapLog.Warn("worker missing from activity registry", zap.String("taskType", taskType))
			}
		}
		wcfg := config.GetWorkerConfig(cfg, taskType)
		if w := camunda.StartWorker(zeebe.GetClient(), taskType, wcfg, handler, obs, log); w != nil {
			workers = append(workers, w)
		}
	}
	timeout := func(taskType string, fallback time.Duration) time.Duration {
		if ms := config.GetWorkerConfig(cfg, taskType).Timeout; ms > 0 {
			return config.GetDuration(ms)
		}
		return fallback
	}
	queryTimeout := config.GetDuration(cfg.Database.Postgres.QueryTimeout)

	{
		c := fia.LoadConfig()
		c.Timeout = timeout(fia.TaskType, c.Timeout)
		c.QueryTimeout = queryTimeout
		handler := fia.NewHandler(c, queries.NewAccountQuery(pg.GetDB()), sessions, log)
		start(fia.TaskType, handler.Handle)
	}

	{
		c := rq.LoadConfig()
		c.Timeout = timeout(rq.TaskType, c.Timeout)
		handler := rq.NewHandler(c, routing.KeywordPolicy, log)
		start(rq.TaskType, handler.Handle)
	}

	{
		c := afu.LoadConfig()
		c.Timeout = timeout(afu.TaskType, c.Timeout)
		handler := afu.NewHandler(c, sessions, calculator, generator, log)
		start(afu.TaskType, handler.Handle)
	}

	{
		c := saq.LoadConfig()
		c.Timeout = timeout(saq.TaskType, c.Timeout)
		c.QueryTimeout = queryTimeout
		agent := saq.NewAgent(pg.GetDB(), generator, c.MaxResults, c.QueryTimeout)
		handler := saq.NewHandler(c, agent, rdb.GetClient(), sessions, log)
		start(saq.TaskType, handler.Handle)
	}

	{
		c := ec.LoadConfig()
		c.Timeout = timeout(ec.TaskType, c.Timeout)
		c.EmailEnabled = cfg.Export.AWS.SES.Enabled
		handler, err := ec.NewHandler(c, sessions, mailer, log)
		if err != nil {
			zapLog.Fatal("failed to create export-chat handler", zap.Error(err))
		}
		start(ec.TaskType, handler.Handle)
	}
	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           newMux(pg, rdb),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Close()
		w.AwaitClose()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping otel exporter", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

type pinger interface {
	Ping(ctx context.Context) error
}

func newMux(deps ...pinger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", "")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		for _, d := range deps {
			if err := d.Ping(ctx); err != nil {
				writeStatus(w, http.StatusServiceUnavailable, "not ready", err.Error())
				return
			}
		}
		writeStatus(w, http.StatusOK, "ready", "")
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeStatus(w http.ResponseWriter, code int, status, detail string) {
	body := map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	}
	if detail != "" {
		body["error"] = detail
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
