package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/aowotoys/catalog-sync/config"
	"github.com/aowotoys/catalog-sync/scrapers"
	"github.com/aowotoys/catalog-sync/scrapers/base"
	"github.com/aowotoys/catalog-sync/utils"
)

func main() {
	cfg := config.MustLoad()
	log := utils.NewLogger(cfg.Env)

	urls := os.Args[1:]
	if len(urls) == 0 {
		urls = []string{"https://www.aowotoys.com/products/aowobox-displaybox-rx-78-2"}
	}

	renderer, err := base.NewRenderer(base.RendererOptions{
		Kind:             cfg.Fetch.Renderer,
		ChromeDriverPath: cfg.Fetch.ChromeDriverPath,
		SeleniumPort:     cfg.Fetch.SeleniumPort,
		Logger:           log,
	})
	if err != nil {
		log.Error("failed to create renderer", slog.Any("err", err))
		os.Exit(1)
	}
	fetcher := base.NewFetcher(renderer, base.FetcherOptions{Timeout: cfg.Fetch.Timeout, Logger: log})
	defer fetcher.Close()

	ctx := context.Background()
	for _, u := range urls {
		fmt.Printf("Testing URL: %s\n", u)
		scraper, resolved, err := scrapers.GetScraper(ctx, u, fetcher, cfg.Locale(), log)
		if err != nil {
			log.Error("failed to get scraper", slog.String("url", u), slog.Any("err", err))
			continue
		}
		fmt.Printf("Resolved URL: %s\n", resolved)
		fmt.Printf("Scraper: %T\n", scraper)

		extraction, err := scraper.ScrapeProduct(ctx, resolved)
		if err != nil {
			log.Error("failed to scrape product", slog.Any("err", err))
			continue
		}

		b, _ := json.MarshalIndent(extraction, "", "  ")
		fmt.Printf("Extraction: %s\n", string(b))
		fmt.Println("--------------------------------------------------")
	}
}
