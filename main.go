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

	"github.com/aowotoys/catalog-sync/api"
	"github.com/aowotoys/catalog-sync/app"
	"github.com/aowotoys/catalog-sync/config"
	"github.com/aowotoys/catalog-sync/scrapers"
	"github.com/aowotoys/catalog-sync/utils"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.MustLoad()

	log := utils.NewLogger(cfg.Env)
	log.Info("starting catalog server", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Error("failed to build app", slog.Any("err", err))
		os.Exit(1)
	}
	defer a.Close()

	h := &api.Handler{
		Log:        log,
		Syncer:     a.Pipeline,
		Products:   a.Store,
		Exporter:   a.Exporter,
		ImagesRoot: cfg.Images.Root,
		Resolve: func(ctx context.Context, url string) (string, error) {
			_, resolved, err := scrapers.GetScraper(ctx, url, a.Fetcher, cfg.Locale(), log)
			return resolved, err
		},
	}
	if a.Mirror != nil {
		h.Mirror = a.Mirror
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", slog.Any("err", err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", slog.Any("err", err))
	}
}
