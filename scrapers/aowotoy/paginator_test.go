package aowotoy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aowotoys/catalog-sync/models"
	"github.com/aowotoys/catalog-sync/scrapers/base"
)

const listingTemplate = "https://www.aowotoys.com/categories/aowobox-displaybox?limit=72&page="

type stubListing struct {
	pages map[string][]string // url -> hrefs
	fail  map[string]bool
	calls []string
}

func (s *stubListing) FetchListing(ctx context.Context, url string) (*base.Page, error) {
	s.calls = append(s.calls, url)
	if s.fail[url] {
		return nil, &base.FetchFailedError{URL: url, Err: errors.New("timeout")}
	}
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, h := range s.pages[url] {
		fmt.Fprintf(&b, `<a class="Product-item" href="%s">item</a>`, h)
	}
	b.WriteString(`<a class="Other" href="/not-a-product">x</a></body></html>`)
	return base.NewPage(url, b.String())
}

func collect(t *testing.T, p *Paginator, maxPage int) ([]string, PageStats) {
	t.Helper()
	var got []string
	stats, err := p.Paginate(context.Background(), listingTemplate, maxPage, func(u string) bool {
		got = append(got, u)
		return true
	})
	require.NoError(t, err)
	return got, stats
}

func TestPaginate_EmptyPagesDoNotStop(t *testing.T) {
	f := &stubListing{pages: map[string][]string{
		listingTemplate + "3": {"/products/c"},
	}}

	got, stats := collect(t, NewPaginator(f, models.LocaleZhHant, nil), 3)

	assert.Equal(t, []string{listingTemplate + "1", listingTemplate + "2", listingTemplate + "3"}, f.calls)
	assert.Equal(t, []string{"https://www.aowotoys.com/products/c?locale=zh-hant"}, got)
	assert.Equal(t, PageStats{Pages: 3, Items: 1}, stats)
}

func TestPaginate_KeepsDuplicatesAndOrder(t *testing.T) {
	f := &stubListing{pages: map[string][]string{
		listingTemplate + "1": {"/products/a", "/products/b"},
		listingTemplate + "2": {"/products/b", "https://www.aowotoys.com/products/d?ref=x"},
	}}

	got, _ := collect(t, NewPaginator(f, models.LocaleZhHant, nil), 2)

	assert.Equal(t, []string{
		"https://www.aowotoys.com/products/a?locale=zh-hant",
		"https://www.aowotoys.com/products/b?locale=zh-hant",
		"https://www.aowotoys.com/products/b?locale=zh-hant",
		"https://www.aowotoys.com/products/d?locale=zh-hant&ref=x",
	}, got)
}

func TestPaginate_FailedPageContinues(t *testing.T) {
	f := &stubListing{
		pages: map[string][]string{listingTemplate + "2": {"/products/b"}},
		fail:  map[string]bool{listingTemplate + "1": true},
	}

	got, stats := collect(t, NewPaginator(f, models.LocaleZhHant, nil), 2)

	assert.Len(t, f.calls, 2)
	assert.Len(t, got, 1)
	assert.Equal(t, 1, stats.FailedPages)
}

func TestPaginate_YieldStops(t *testing.T) {
	f := &stubListing{pages: map[string][]string{
		listingTemplate + "1": {"/products/a", "/products/b"},
	}}

	var got []string
	_, err := NewPaginator(f, models.LocaleZhHant, nil).Paginate(context.Background(), listingTemplate, 5, func(u string) bool {
		got = append(got, u)
		return false
	})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Len(t, f.calls, 1)
}

func TestPaginate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &stubListing{}
	_, err := NewPaginator(f, models.LocaleZhHant, nil).Paginate(ctx, listingTemplate, 3, func(string) bool { return true })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.calls)
}

func TestPaginate_InvalidMaxPage(t *testing.T) {
	_, err := NewPaginator(&stubListing{}, models.LocaleZhHant, nil).Paginate(context.Background(), listingTemplate, 0, func(string) bool { return true })
	assert.Error(t, err)
}

func TestPageURL(t *testing.T) {
	assert.Equal(t, listingTemplate+"7", PageURL(listingTemplate, 7))
	assert.Equal(t, "https://x.test/list/2?sort=asc", PageURL("https://x.test/list/{page}?sort=asc", 2))
}
