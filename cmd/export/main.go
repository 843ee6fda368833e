package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aowotoys/catalog-sync/app"
	"github.com/aowotoys/catalog-sync/config"
	"github.com/aowotoys/catalog-sync/export"
	"github.com/aowotoys/catalog-sync/utils"
)

func main() {
	cfg := config.MustLoad()

	mode := flag.String("mode", cfg.Export.Mode, "export mode: all or per-product")
	out := flag.String("out", cfg.Export.Output, "output file for -mode=all")
	limit := flag.Int("limit", cfg.Export.Limit, "maximum rows, 0 for no limit")
	flag.Parse()

	log := utils.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, *mode, *out, *limit); err != nil {
		log.Error("export failed", slog.Any("err", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger, mode, out string, limit int) error {
	store, err := app.OpenStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Products(ctx)
	if err != nil {
		return err
	}

	markup, err := app.Markup(cfg)
	if err != nil {
		return err
	}
	e := export.New(export.Options{Markup: markup, Limit: limit, Logger: log})

	switch mode {
	case config.ExportModePerProduct:
		n, err := e.ExportPerProduct(ctx, records, cfg.Images.Root)
		if err != nil {
			return err
		}
		log.Info("per-product export written", slog.String("root", cfg.Images.Root), slog.Int("rows", n))
	default:
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		n, err := e.ExportAll(ctx, records, f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		log.Info("export written", slog.String("file", out), slog.Int("rows", n))
	}
	return nil
}
