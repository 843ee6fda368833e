package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/aowotoys/catalog-sync/config"
	"github.com/aowotoys/catalog-sync/export"
	"github.com/aowotoys/catalog-sync/pipeline"
	"github.com/aowotoys/catalog-sync/ruten"
	"github.com/aowotoys/catalog-sync/scrapers/aowotoy"
	"github.com/aowotoys/catalog-sync/scrapers/base"
	"github.com/aowotoys/catalog-sync/storage"
	"github.com/aowotoys/catalog-sync/storage/mongo"
	"github.com/aowotoys/catalog-sync/storage/postgres"
	"github.com/aowotoys/catalog-sync/storage/redis"
	"github.com/aowotoys/catalog-sync/utils"
)

// App holds the components shared by the server and the commands. Build
// opens them once; Close releases them.
type App struct {
	Config   *config.Config
	Log      *slog.Logger
	Store    storage.Store
	Cache    pipeline.SeenCache // nil without REDIS_ADDR or with the memory store
	Fetcher  *base.Fetcher
	Scraper  *aowotoy.AowotoyScraper
	Acquirer *utils.Acquirer
	Mirror   *utils.S3Mirror // nil without AWS_BUCKET_NAME
	Pipeline *pipeline.Pipeline
	Exporter *export.Exporter
	Ruten    *ruten.Client

	closers []func() error
}

// Build wires every component from cfg. A store that cannot be reached is
// fatal; the seen cache and the S3 mirror are optional and only logged.
func Build(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	const op = "app.Build"

	a := &App{Config: cfg, Log: log}

	store, err := OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	a.Store = store
	a.closers = append(a.closers, store.Close)

	switch {
	case cfg.Redis.Addr == "":
	case cfg.Storage.Driver == config.StoreMemory:
		log.Warn("seen cache disabled for the in-memory store")
	default:
		c, err := redis.New(ctx, cfg.Redis.Addr, cfg.Redis.DB, cfg.Redis.TTL)
		if err != nil {
			log.Warn("seen cache disabled", slog.Any("err", err))
		} else {
			a.Cache = pipeline.ScopedCache(c, StoreScope(cfg))
			a.closers = append(a.closers, c.Close)
		}
	}

	renderer, err := base.NewRenderer(base.RendererOptions{
		Kind:             cfg.Fetch.Renderer,
		ChromeDriverPath: cfg.Fetch.ChromeDriverPath,
		SeleniumPort:     cfg.Fetch.SeleniumPort,
		Logger:           log,
	})
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	a.Fetcher = base.NewFetcher(renderer, base.FetcherOptions{
		Timeout:  cfg.Fetch.Timeout,
		MinDelay: cfg.Fetch.MinDelay,
		MaxDelay: cfg.Fetch.MaxDelay,
		Logger:   log,
	})
	a.closers = append(a.closers, a.Fetcher.Close)

	acqOpts := utils.AcquirerOptions{
		Root:      cfg.Images.Root,
		RPS:       cfg.Images.RPS,
		Overwrite: cfg.Images.Overwrite,
		Logger:    log,
	}
	if cfg.AWS.BucketName != "" {
		m, err := utils.NewS3Mirror(ctx, cfg.AWS.Region, cfg.AWS.BucketName)
		if err != nil {
			log.Warn("S3 mirror disabled", slog.Any("err", err))
		} else {
			a.Mirror = m
			acqOpts.Mirror = m
		}
	}
	a.Acquirer = utils.NewAcquirer(acqOpts)

	locale := cfg.Locale()
	a.Scraper = aowotoy.NewAowotoyScraper(a.Fetcher, locale, log)
	a.Pipeline = pipeline.New(pipeline.Options{
		ListingURL: cfg.Source.ListingURL,
		MaxPage:    cfg.Source.MaxPage,
		Paginator:  aowotoy.NewPaginator(a.Fetcher, locale, log),
		Scraper:    a.Scraper,
		Gate:       pipeline.NewGate(store, a.Cache, log),
		Images:     a.Acquirer,
		Logger:     log,
	})

	markup, err := Markup(cfg)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	a.Exporter = export.New(export.Options{Markup: markup, Limit: cfg.Export.Limit, Logger: log})

	a.Ruten = RutenClient(cfg, log)

	return a, nil
}

// Markup parses EXPORT_MARKUP.
func Markup(cfg *config.Config) (decimal.Decimal, error) {
	m, err := decimal.NewFromString(cfg.Export.Markup)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid EXPORT_MARKUP %q: %w", cfg.Export.Markup, err)
	}
	if !m.IsPositive() {
		return decimal.Zero, fmt.Errorf("EXPORT_MARKUP must be positive, got %s", m)
	}
	return m, nil
}

func RutenClient(cfg *config.Config, log *slog.Logger) *ruten.Client {
	return ruten.NewClient(ruten.Options{
		APIKey:    cfg.Ruten.APIKey,
		SecretKey: cfg.Ruten.SecretKey,
		SaltKey:   cfg.Ruten.SaltKey,
		BaseURL:   cfg.Ruten.BaseURL,
		UserAgent: cfg.Ruten.UserAgent,
		Logger:    log,
	})
}

// StoreScope identifies the configured store: the driver plus a fingerprint
// of its connection target, so credentials never end up in cache keys.
func StoreScope(cfg *config.Config) string {
	var target string
	switch cfg.Storage.Driver {
	case config.StorePostgres:
		target = cfg.Storage.PostgresDSN
	case config.StoreMongo:
		target = cfg.Storage.MongoURI + "/" + cfg.Storage.MongoDatabase
	}
	sum := sha256.Sum256([]byte(target))
	return cfg.Storage.Driver + ":" + hex.EncodeToString(sum[:6])
}

// OpenStore connects the configured store driver.
func OpenStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (storage.Store, error) {
	switch cfg.Storage.Driver {
	case config.StoreMemory:
		log.Warn("using in-memory store, records are lost on exit")
		return storage.NewMemoryStore(), nil
	case config.StorePostgres:
		repo, err := postgres.New(ctx, cfg.Storage.PostgresDSN, log)
		if err != nil {
			return nil, err
		}
		if cfg.Storage.AutoMigrate {
			if err := repo.Migrate(ctx); err != nil {
				_ = repo.Close()
				return nil, err
			}
		}
		return repo, nil
	case config.StoreMongo:
		repo, err := mongo.New(ctx, cfg.Storage.MongoURI, cfg.Storage.MongoDatabase, log)
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Storage.Driver)
	}
}

// Close releases components in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
