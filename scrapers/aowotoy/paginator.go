package aowotoy

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/aowotoys/catalog-sync/models"
	"github.com/aowotoys/catalog-sync/scrapers/base"
	"github.com/aowotoys/catalog-sync/utils"
)

const (
	itemSelector    = "a.Product-item"
	pagePlaceholder = "{page}"
)

// ListingFetcher fetches listing pages. *base.Fetcher implements it.
type ListingFetcher interface {
	FetchListing(ctx context.Context, url string) (*base.Page, error)
}

// PageStats summarizes one pagination walk.
type PageStats struct {
	Pages       int // listing pages requested
	FailedPages int
	Items       int // item URLs yielded
}

// Paginator walks the catalog index page by page.
type Paginator struct {
	fetcher ListingFetcher
	locale  models.Locale
	log     *slog.Logger
}

func NewPaginator(f ListingFetcher, locale models.Locale, log *slog.Logger) *Paginator {
	if locale == "" {
		locale = models.DefaultLocale
	}
	if log == nil {
		log = slog.Default()
	}
	return &Paginator{fetcher: f, locale: locale, log: log}
}

// PageURL builds the URL of listing page n from template. The template either
// contains {page} or ends where the number is appended (…&page=).
func PageURL(template string, n int) string {
	if strings.Contains(template, pagePlaceholder) {
		return strings.ReplaceAll(template, pagePlaceholder, strconv.Itoa(n))
	}
	return template + strconv.Itoa(n)
}

// Paginate visits pages 1..maxPage in order and calls yield for every item
// URL found, duplicates included. An empty or failed page does not end the
// walk; yield returning false or ctx being cancelled does.
func (p *Paginator) Paginate(ctx context.Context, template string, maxPage int, yield func(itemURL string) bool) (PageStats, error) {
	const op = "aowotoy.Paginate"

	var stats PageStats
	if maxPage < 1 {
		return stats, fmt.Errorf("%s: max page must be >= 1, got %d", op, maxPage)
	}

	for n := 1; n <= maxPage; n++ {
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("%s: %w", op, err)
		}

		pageURL := PageURL(template, n)
		stats.Pages++
		log := p.log.With(slog.Int("page", n), slog.String("url", pageURL))

		page, err := p.fetcher.FetchListing(ctx, pageURL)
		if err != nil {
			stats.FailedPages++
			log.Error("failed to fetch listing page", slog.Any("err", err))
			continue
		}

		listing := p.items(page, n)
		log.Info("listing page scraped", slog.Int("items", len(listing.ItemURLs)))

		for _, u := range listing.ItemURLs {
			stats.Items++
			if !yield(u) {
				return stats, nil
			}
		}
	}
	return stats, nil
}

func (p *Paginator) items(page *base.Page, n int) models.ListingPage {
	listing := models.ListingPage{Index: n}
	page.Doc.Find(itemSelector).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		abs, err := utils.ResolveHref(page.URL, href)
		if err != nil {
			p.log.Warn("skipping unparsable item link", slog.String("href", href), slog.Any("err", err))
			return
		}
		listing.ItemURLs = append(listing.ItemURLs, utils.WithLocale(abs, string(p.locale)))
	})
	return listing
}
