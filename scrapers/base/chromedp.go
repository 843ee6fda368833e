package base

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// ChromeRenderer renders pages in headless Chrome. One browser process is
// shared by all renders; every render gets its own tab.
type ChromeRenderer struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc

	once          sync.Once
	startErr      error
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// NewChromeRenderer prepares the allocator. The browser is launched on the
// first Render.
func NewChromeRenderer() *ChromeRenderer {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	return &ChromeRenderer{allocCtx: allocCtx, allocCancel: allocCancel}
}

func (r *ChromeRenderer) Render(ctx context.Context, url string) (string, error) {
	r.once.Do(func() {
		r.browserCtx, r.browserCancel = chromedp.NewContext(r.allocCtx)
		// The browser lives as long as the context of its first Run, so it
		// is started here without a deadline.
		if err := chromedp.Run(r.browserCtx); err != nil {
			r.startErr = fmt.Errorf("chromedp start browser: %w", err)
		}
	})
	if r.startErr != nil {
		return "", r.startErr
	}

	tabCtx, tabCancel := chromedp.NewContext(r.browserCtx)
	defer tabCancel()

	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if deadline, ok := ctx.Deadline(); ok {
		runCtx, cancel = context.WithDeadline(tabCtx, deadline)
	} else {
		runCtx, cancel = context.WithCancel(tabCtx)
	}
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	headers := make(network.Headers, len(browserHeaders))
	for k, v := range browserHeaders {
		headers[k] = v
	}

	var html string
	err := chromedp.Run(runCtx,
		network.SetExtraHTTPHeaders(headers),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("chromedp navigation error: %w", err)
	}
	return html, nil
}

func (r *ChromeRenderer) Close() error {
	if r.browserCancel != nil {
		r.browserCancel()
	}
	r.allocCancel()
	return nil
}
