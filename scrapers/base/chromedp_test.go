package base

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChromeRenderer_ReusesBrowserAcrossDeadlines(t *testing.T) {
	found := false
	for _, name := range []string{"google-chrome", "chromium", "chromium-browser", "headless-shell"} {
		if _, err := exec.LookPath(name); err == nil {
			found = true
			break
		}
	}
	if !found {
		t.Skip("no Chrome binary on PATH")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><p>rendered " + r.URL.Path + "</p></body></html>"))
	}))
	defer srv.Close()

	r := NewChromeRenderer()
	defer r.Close()

	render := func(path string) string {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		html, err := r.Render(ctx, srv.URL+path)
		require.NoError(t, err)
		return html
	}

	assert.Contains(t, render("/one"), "rendered /one")
	browser := chromedp.FromContext(r.browserCtx).Browser
	require.NotNil(t, browser)

	// The first render's deadline has ended; the browser must outlive it.
	assert.Contains(t, render("/two"), "rendered /two")
	assert.Same(t, browser, chromedp.FromContext(r.browserCtx).Browser)
}
