package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aowotoys/catalog-sync/app"
	"github.com/aowotoys/catalog-sync/config"
	"github.com/aowotoys/catalog-sync/utils"
)

func main() {
	cfg := config.MustLoad()
	log := utils.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Error("failed to build app", slog.Any("err", err))
		os.Exit(1)
	}
	defer a.Close()

	report, err := a.Pipeline.Run(ctx)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(report)

	if errors.Is(err, context.Canceled) {
		log.Warn("sync interrupted", slog.String("run_id", report.RunID))
		return
	}
	if err != nil {
		log.Error("sync failed", slog.Any("err", err))
		a.Close()
		os.Exit(1)
	}
}
