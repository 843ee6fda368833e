package scrapers

import (
	"context"

	"github.com/aowotoys/catalog-sync/models"
)

// Scraper defines the interface for product detail scrapers
type Scraper interface {
	// CanScrape checks if the scraper can handle the given URL
	CanScrape(url string) bool
	// ScrapeProduct fetches the detail page and extracts its variant records
	ScrapeProduct(ctx context.Context, url string) (*models.Extraction, error)
}
