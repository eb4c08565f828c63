package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fleetfaults/internal/config"
	"fleetfaults/internal/formats"
	"fleetfaults/internal/listener"
	"fleetfaults/internal/logging"
	"fleetfaults/internal/metrics"
	"fleetfaults/internal/pipeline"
	"fleetfaults/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	must(cfg.Require("INBOX_DIR", cfg.InboxDir))

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	var reg *formats.Registry
	if cfg.FormatsPath != "" {
		reg, err = formats.Load(cfg.FormatsPath)
	} else {
		reg, err = formats.LoadDefault()
	}
	must(err)
	factory := pipeline.NewFactory(reg)
	must(factory.Check())

	m, err := metrics.New(nil)
	must(err)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server stopped", "addr", cfg.MetricsAddr, "err", err)
			}
		}()
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()
		slog.Info("serving metrics", "addr", cfg.MetricsAddr)
	}

	proc := pipeline.NewProcessingService(reg, factory, pipeline.WithLedger(db), pipeline.WithMetrics(m))
	svc := listener.NewService(proc, db, cfg, slog.Default())
	slog.Info("watching inbox", "dir", cfg.InboxDir, "interval", cfg.WatchInterval(), "workers", cfg.WatchWorkers)
	must(svc.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
