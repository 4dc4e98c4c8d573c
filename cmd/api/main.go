package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"travelbooking/internal/booking"
	"travelbooking/internal/flowapi"
	"travelbooking/internal/flowstore"
	"travelbooking/internal/httpapi"
	"travelbooking/internal/journal"
	"travelbooking/internal/metrics"
	"travelbooking/pkg/config"
	"travelbooking/pkg/db"
	"travelbooking/pkg/travelapi"
)

func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	flowMetrics := metrics.New(reg)

	var (
		events   flowapi.EventLister = journal.Nop{}
		recorder booking.Observer    = journal.Nop{}
	)
	if cfg.JournalEnabled() {
		conn, err := db.Open(ctx, cfg)
		if err != nil {
			log.Fatalf("db open: %v", err)
		}
		defer conn.Close()

		if cfg.MigrationsPath != "" {
			if err := db.Migrate(cfg.MigrationsPath, cfg); err != nil {
				log.Fatalf("migrate: %v", err)
			}
		}
		repo := journal.NewRepository(conn, logger)
		events, recorder = repo, repo
	} else {
		logger.Info("no database configured, flow journal disabled")
	}

	flows := flowstore.New(booking.Observers(flowMetrics, recorder), logger)
	go flows.Run(ctx, time.Minute, cfg.FlowIdleTTL)

	router := httpapi.NewRouter(httpapi.Dependencies{
		Cfg:      cfg,
		Client:   travelapi.New(cfg.TravelAPI.BaseURL, cfg.TravelAPI.Timeout, nil),
		Flows:    flows,
		Journal:  events,
		Gatherer: reg,
		Log:      logger,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http listening", "addr", cfg.HTTPAddr, "travel_api", cfg.TravelAPI.BaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http serve: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(shutdownCtx)
}
