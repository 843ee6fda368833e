package base

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"time"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

// HTTPRenderer fetches markup with a plain HTTP GET. It is the cheapest
// strategy and works whenever the payload is server-rendered.
type HTTPRenderer struct {
	Client *http.Client
}

// NewHTTPRenderer creates an HTTPRenderer with browser-like transport settings.
func NewHTTPRenderer() *HTTPRenderer {
	return &HTTPRenderer{
		Client: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				ForceAttemptHTTP2:     false,
				TLSNextProto:          make(map[string]func(string, *tls.Conn) http.RoundTripper),
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
	}
}

func (r *HTTPRenderer) Render(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	SetBrowserHeaders(req.Header)

	res, err := r.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", &StatusError{StatusCode: res.StatusCode, Status: res.Status}
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (r *HTTPRenderer) Close() error {
	r.Client.CloseIdleConnections()
	return nil
}

// browserHeaders mimic a first navigation in a desktop browser.
var browserHeaders = map[string]string{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
	"Accept-Language":           "zh-TW,zh;q=0.9,en-US;q=0.8,en;q=0.5",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "none",
	"Sec-Fetch-User":            "?1",
}

// SetBrowserHeaders applies the shared browser header set and User-Agent.
func SetBrowserHeaders(h http.Header) {
	h.Set("User-Agent", userAgent)
	for k, v := range browserHeaders {
		h.Set(k, v)
	}
}
