package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/aowotoys/catalog-sync/models"
	"github.com/aowotoys/catalog-sync/scrapers/aowotoy"
	"github.com/aowotoys/catalog-sync/utils"
)

// ItemScraper fetches and extracts one detail page.
type ItemScraper interface {
	ScrapeProduct(ctx context.Context, url string) (*models.Extraction, error)
}

// Paginator yields the item URLs of the listing.
type Paginator interface {
	Paginate(ctx context.Context, template string, maxPage int, yield func(string) bool) (aowotoy.PageStats, error)
}

// ImageAcquirer downloads a product's images.
type ImageAcquirer interface {
	Acquire(ctx context.Context, productID string, urls []string) utils.AcquisitionReport
}

// Options configures a Pipeline. Images may be nil to skip acquisition.
type Options struct {
	ListingURL string
	MaxPage    int
	Paginator  Paginator
	Scraper    ItemScraper
	Gate       *Gate
	Images     ImageAcquirer
	Logger     *slog.Logger
}

// Pipeline runs listing discovery, extraction, dedup and image acquisition.
type Pipeline struct {
	listingURL string
	maxPage    int
	paginator  Paginator
	scraper    ItemScraper
	gate       *Gate
	images     ImageAcquirer
	log        *slog.Logger
}

func New(opts Options) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Pipeline{
		listingURL: opts.ListingURL,
		maxPage:    opts.MaxPage,
		paginator:  opts.Paginator,
		scraper:    opts.Scraper,
		gate:       opts.Gate,
		images:     opts.Images,
		log:        opts.Logger,
	}
}

// ItemReport is the outcome of syncing one detail URL.
type ItemReport struct {
	URL         string                  `json:"url"`
	ProductID   string                  `json:"product_id"`
	Outcomes    []Outcome               `json:"outcomes"`
	StoreErrors []error                 `json:"-"`
	Images      utils.AcquisitionReport `json:"-"`
	Diagnostics []string                `json:"diagnostics,omitempty"`
}

func (r ItemReport) Count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// RunReport summarizes a full sync run.
type RunReport struct {
	RunID            string    `json:"run_id"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
	Pages            int       `json:"pages"`
	FailedPages      int       `json:"failed_pages"`
	Items            int       `json:"items"`
	FailedItems      int       `json:"failed_items"`
	Persisted        int       `json:"persisted"`
	Skipped          int       `json:"skipped"`
	StoreErrors      int       `json:"store_errors"`
	ImagesDownloaded int       `json:"images_downloaded"`
	ImagesExisting   int       `json:"images_existing"`
	ImageFailures    int       `json:"image_failures"`
}

func (r *RunReport) add(item ItemReport) {
	r.Persisted += item.Count(Persisted)
	r.Skipped += item.Count(Skipped)
	r.StoreErrors += len(item.StoreErrors)
	r.ImagesDownloaded += len(item.Images.Downloaded)
	r.ImagesExisting += len(item.Images.Existing)
	r.ImageFailures += len(item.Images.Failures)
}

// Run walks every listing page and syncs each item in turn. Item failures
// are logged and counted; only cancellation ends the run early.
func (p *Pipeline) Run(ctx context.Context) (RunReport, error) {
	const op = "pipeline.Run"

	report := RunReport{RunID: uuid.NewString(), StartedAt: time.Now().UTC()}
	log := p.log.With(slog.String("run_id", report.RunID))
	log.Info("sync started", slog.String("listing_url", p.listingURL), slog.Int("max_page", p.maxPage))

	stats, err := p.paginator.Paginate(ctx, p.listingURL, p.maxPage, func(url string) bool {
		if ctx.Err() != nil {
			return false
		}
		report.Items++

		item, err := p.syncItem(ctx, url, log)
		if err != nil {
			report.FailedItems++
			log.Error("item failed", slog.String("url", url), slog.Any("err", err))
			return true
		}
		report.add(item)
		return true
	})

	report.Pages = stats.Pages
	report.FailedPages = stats.FailedPages
	report.FinishedAt = time.Now().UTC()

	log.Info("sync finished",
		slog.Int("pages", report.Pages),
		slog.Int("items", report.Items),
		slog.Int("failed_items", report.FailedItems),
		slog.Int("persisted", report.Persisted),
		slog.Int("skipped", report.Skipped),
		slog.Int("image_failures", report.ImageFailures),
		slog.Duration("took", report.FinishedAt.Sub(report.StartedAt)),
	)

	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return report, fmt.Errorf("%s: %w", op, err)
	}
	return report, nil
}

// SyncItem scrapes one detail URL and persists its variants.
func (p *Pipeline) SyncItem(ctx context.Context, url string) (ItemReport, error) {
	return p.syncItem(ctx, url, p.log)
}

// syncItem persists the variants one by one while the item's images are
// fetched in a second goroutine; both finish before it returns. A
// cancellation seen while persisting is returned with the partial report.
func (p *Pipeline) syncItem(ctx context.Context, url string, log *slog.Logger) (ItemReport, error) {
	report := ItemReport{URL: url}

	extraction, err := p.scraper.ScrapeProduct(ctx, url)
	if err != nil {
		return report, err
	}
	report.ProductID = extraction.ProductID
	report.Diagnostics = extraction.Diagnostics
	log = log.With(slog.String("product_id", extraction.ProductID))

	g, gctx := errgroup.WithContext(ctx)
	if p.images != nil {
		g.Go(func() error {
			report.Images = p.images.Acquire(gctx, extraction.ProductID, extraction.ImageURLs)
			return nil
		})
	}

	g.Go(func() error {
		for i := range extraction.Records {
			rec := &extraction.Records[i]
			outcome, err := p.gate.PersistIfNew(gctx, rec)
			if err != nil {
				report.StoreErrors = append(report.StoreErrors, err)
				log.Error("failed to persist variant", slog.String("option_id", rec.OptionID), slog.Any("err", err))
				// Cancellation ends the item and stops its image downloads.
				if cerr := gctx.Err(); cerr != nil {
					return cerr
				}
				continue
			}
			report.Outcomes = append(report.Outcomes, outcome)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return report, err
	}
	return report, nil
}
