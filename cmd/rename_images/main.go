package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/aowotoys/catalog-sync/config"
	"github.com/aowotoys/catalog-sync/utils"
)

func main() {
	cfg := config.MustLoad()

	root := flag.String("root", cfg.Images.Root, "directory holding one sub-directory per product")
	flag.Parse()

	log := utils.NewLogger(cfg.Env)

	report, err := utils.RenameImages(*root, log)
	if err != nil {
		log.Error("rename failed", slog.Any("err", err))
		os.Exit(1)
	}
	log.Info("rename finished",
		slog.Int("renamed", report.Renamed),
		slog.Int("skipped", report.Skipped),
		slog.Int("failed", report.Failed),
	)
}
