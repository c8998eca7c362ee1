package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/kshaab/Coursework-5/internal/app"
	"github.com/kshaab/Coursework-5/internal/config"
	"github.com/kshaab/Coursework-5/internal/handler"
	"github.com/kshaab/Coursework-5/internal/logger"
	"github.com/kshaab/Coursework-5/internal/scheduler"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()

	logger.Init(cfg.IsDevelopment(), cfg.SentryDSN)
	defer logger.Flush()

	app, err := app.New(cfg)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		logger.Flush()
		os.Exit(1)
	}
	defer func() {
		closeErr := app.Close()
		if closeErr != nil {
			slog.Error("failed to close app", "error", closeErr)
		}
	}()

	sched, err := scheduler.New(scheduler.Config{
		ReminderSchedule:     cfg.ReminderSchedule,
		InactiveUserSchedule: cfg.InactiveUserSchedule,
		InactiveUserAfter:    cfg.InactiveUserAfter,
		Location:             cfg.Location(),
	}, app.ReminderService, app.UserService)
	if err != nil {
		slog.Error("failed to initialize scheduler", "error", err)
		_ = app.Close()
		logger.Flush()
		os.Exit(1)
	}

	// Probes only; the API lives in cmd/server
	health := handler.NewHealthHandler(app.DB)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.Handle("GET /metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              ":" + cfg.WorkerPort,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("worker probes listening", "port", cfg.WorkerPort)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker probes failed", "error", err)
			stop()
		}
	}()

	sched.Start()
	<-ctx.Done()
	slog.Info("worker shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sched.Stop(shutdownCtx)
	_ = server.Shutdown(shutdownCtx)
}
