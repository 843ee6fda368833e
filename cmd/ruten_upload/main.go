package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/aowotoys/catalog-sync/app"
	"github.com/aowotoys/catalog-sync/config"
	"github.com/aowotoys/catalog-sync/models"
	"github.com/aowotoys/catalog-sync/ruten"
	"github.com/aowotoys/catalog-sync/utils"
)

func main() {
	cfg := config.MustLoad()

	id := flag.Int64("id", 0, "stored record id to upload")
	flag.Parse()

	log := utils.NewLogger(cfg.Env)
	if *id <= 0 {
		log.Error("a positive -id is required")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, *id); err != nil {
		log.Error("upload failed", slog.Int64("id", *id), slog.Any("err", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger, id int64) error {
	store, err := app.OpenStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	rec, err := store.ProductByID(ctx, id)
	if err != nil {
		return err
	}

	client := app.RutenClient(cfg, log)
	result, err := client.UploadProduct(ctx, ruten.BuildItem(rec))
	if err != nil {
		return err
	}
	log.Info("product uploaded", slog.String("item_id", result.ItemID), slog.String("product_id", rec.ProductID))

	// Pictures are numbered from 1 with no gaps expected after the first
	// missing file.
	for n := 1; ; n++ {
		path := filepath.Join(cfg.Images.Root, rec.ProductID, models.MediaFileName(rec.ProductID, n))
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			break
		}
		if err := client.UploadPicture(ctx, result.ItemID, path); err != nil {
			log.Error("picture upload failed", slog.String("path", path), slog.Any("err", err))
			continue
		}
		log.Info("picture uploaded", slog.String("path", path))
	}
	return nil
}
