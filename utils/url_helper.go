package utils

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const resolveUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

// ResolveShortenedURL follows redirects to find the final URL
func ResolveShortenedURL(ctx context.Context, rawURL string) (string, error) {
	client := &http.Client{Timeout: 15 * time.Second}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return rawURL, err
	}
	req.Header.Set("User-Agent", resolveUserAgent)

	resp, err := client.Do(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		if resp != nil {
			resp.Body.Close()
		}
		// Some storefronts reject HEAD; retry with GET.
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return rawURL, err
		}
		req.Header.Set("User-Agent", resolveUserAgent)

		resp, err = client.Do(req)
		if err != nil {
			return rawURL, err
		}
	}
	defer resp.Body.Close()

	return resp.Request.URL.String(), nil
}

// ResolveHref resolves a possibly relative href against the page it was found on.
func ResolveHref(pageURL, href string) (string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}

// WithLocale sets the locale query parameter on rawURL.
func WithLocale(rawURL, locale string) string {
	return withQuery(rawURL, "locale", locale)
}

// VariantURL is the canonical URL of one variant of a product: the detail
// URL with its query parameters sorted, plus variant=<optionID> when the
// product has variants. Records are deduplicated on this URL.
func VariantURL(detailURL, optionID string) string {
	if optionID == "" {
		return canonicalURL(detailURL)
	}
	return withQuery(detailURL, "variant", optionID)
}

func canonicalURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.RawQuery == "" {
		return rawURL
	}
	u.RawQuery = u.Query().Encode()
	return u.String()
}

// StripQuery drops everything from the first '?' on.
func StripQuery(rawURL string) string {
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}

func withQuery(rawURL, key, value string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}
		return rawURL + sep + url.QueryEscape(key) + "=" + url.QueryEscape(value)
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
