package aowotoy

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/aowotoys/catalog-sync/models"
	"github.com/aowotoys/catalog-sync/scrapers/base"
	"github.com/aowotoys/catalog-sync/utils"
)

// DetailFetcher fetches item detail pages. *base.Fetcher implements it.
type DetailFetcher interface {
	FetchDetail(ctx context.Context, url string) (*base.Page, error)
}

// AowotoyScraper fetches and extracts aowotoys.com product pages.
type AowotoyScraper struct {
	fetcher   DetailFetcher
	extractor *Extractor
	locale    models.Locale
}

func NewAowotoyScraper(f DetailFetcher, locale models.Locale, log *slog.Logger) *AowotoyScraper {
	return &AowotoyScraper{fetcher: f, extractor: NewExtractor(locale, log), locale: locale}
}

func (s *AowotoyScraper) CanScrape(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == "aowotoys.com" || strings.HasSuffix(host, ".aowotoys.com")
}

// ScrapeProduct fetches one detail page (after the browsing delay) and
// extracts its records. The locale parameter is added when missing.
func (s *AowotoyScraper) ScrapeProduct(ctx context.Context, rawURL string) (*models.Extraction, error) {
	if s.locale != "" && !strings.Contains(rawURL, "locale=") {
		rawURL = utils.WithLocale(rawURL, string(s.locale))
	}
	page, err := s.fetcher.FetchDetail(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return s.extractor.Extract(page)
}
