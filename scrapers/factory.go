package scrapers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aowotoys/catalog-sync/models"
	"github.com/aowotoys/catalog-sync/scrapers/aowotoy"
	"github.com/aowotoys/catalog-sync/utils"
)

// GetScraper resolves shortened links and returns the scraper for the
// storefront the URL points at, together with the resolved URL.
func GetScraper(ctx context.Context, url string, f aowotoy.DetailFetcher, locale models.Locale, log *slog.Logger) (Scraper, string, error) {
	resolvedURL, err := utils.ResolveShortenedURL(ctx, url)
	if err != nil {
		return nil, url, fmt.Errorf("error resolving url: %w", err)
	}

	s := aowotoy.NewAowotoyScraper(f, locale, log)
	if s.CanScrape(resolvedURL) {
		return s, resolvedURL, nil
	}

	return nil, resolvedURL, fmt.Errorf("no scraper found for url: %s", resolvedURL)
}
