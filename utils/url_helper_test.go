package utils

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithLocale(t *testing.T) {
	assert.Equal(t, "https://www.aowotoys.com/products/box?locale=zh-hant",
		WithLocale("https://www.aowotoys.com/products/box", "zh-hant"))
	assert.Equal(t, "https://www.aowotoys.com/products/box?locale=en&ref=list",
		WithLocale("https://www.aowotoys.com/products/box?ref=list", "en"))
	assert.Equal(t, "https://www.aowotoys.com/products/box?locale=en",
		WithLocale("https://www.aowotoys.com/products/box?locale=zh-hant", "en"))
}

func TestVariantURL(t *testing.T) {
	detail := "https://www.aowotoys.com/products/box?locale=zh-hant"
	assert.Equal(t, detail, VariantURL(detail, ""))
	assert.Equal(t, detail+"&variant=v1", VariantURL(detail, "v1"))
	assert.NotEqual(t, VariantURL(detail, "v1"), VariantURL(detail, "v2"))
}

func TestVariantURL_CanonicalQueryOrder(t *testing.T) {
	fromSync := "https://www.aowotoys.com/products/box?ref=x&locale=zh-hant"
	fromListing := WithLocale("https://www.aowotoys.com/products/box?ref=x", "zh-hant")

	assert.Equal(t, "https://www.aowotoys.com/products/box?locale=zh-hant&ref=x", VariantURL(fromSync, ""))
	assert.Equal(t, VariantURL(fromListing, ""), VariantURL(fromSync, ""))
	assert.Equal(t, VariantURL(fromListing, "v1"), VariantURL(fromSync, "v1"))
	assert.Equal(t, "https://www.aowotoys.com/products/box", VariantURL("https://www.aowotoys.com/products/box", ""))
}

func TestStripQuery(t *testing.T) {
	assert.Equal(t, "https://img.example.com/a.jpg", StripQuery("https://img.example.com/a.jpg?w=100&h=100"))
	assert.Equal(t, "https://img.example.com/a.jpg", StripQuery("https://img.example.com/a.jpg"))
	assert.Equal(t, "", StripQuery(""))
}

func TestResolveHref(t *testing.T) {
	got, err := ResolveHref("https://www.aowotoys.com/categories/box?page=2", "/products/a")
	require.NoError(t, err)
	assert.Equal(t, "https://www.aowotoys.com/products/a", got)

	got, err = ResolveHref("https://www.aowotoys.com/categories/box", "https://cdn.example.com/products/b")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/products/b", got)
}

func TestResolveShortenedURL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/s/abc", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/products/box", http.StatusFound)
	})
	mux.HandleFunc("/products/box", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	got, err := ResolveShortenedURL(context.Background(), srv.URL+"/s/abc")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/products/box", got)
}
