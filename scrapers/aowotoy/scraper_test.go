package aowotoy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aowotoys/catalog-sync/models"
	"github.com/aowotoys/catalog-sync/scrapers/base"
)

type stubDetail struct {
	html string
	urls []string
}

func (s *stubDetail) FetchDetail(ctx context.Context, url string) (*base.Page, error) {
	s.urls = append(s.urls, url)
	return base.NewPage(url, s.html)
}

func TestAowotoyScraper_CanScrape(t *testing.T) {
	s := NewAowotoyScraper(&stubDetail{}, models.LocaleZhHant, nil)
	assert.True(t, s.CanScrape("https://www.aowotoys.com/products/a"))
	assert.True(t, s.CanScrape("https://aowotoys.com/products/a"))
	assert.False(t, s.CanScrape("https://www.amazon.in/dp/B0"))
	assert.False(t, s.CanScrape("https://aowotoys.com.evil.test/products/a"))
}

func TestAowotoyScraper_ScrapeProductAddsLocale(t *testing.T) {
	f := &stubDetail{html: embed(twoVariants, true)}
	s := NewAowotoyScraper(f, models.LocaleZhHant, nil)

	got, err := s.ScrapeProduct(context.Background(), "https://www.aowotoys.com/products/dimoo-box")
	require.NoError(t, err)
	assert.Equal(t, []string{detailURL}, f.urls)
	assert.Len(t, got.Records, 2)
}
