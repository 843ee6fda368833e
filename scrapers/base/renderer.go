package base

import (
	"fmt"
	"log/slog"
)

// RendererOptions selects and configures a rendering strategy.
type RendererOptions struct {
	Kind             string // auto, http, chromedp or selenium
	ChromeDriverPath string
	SeleniumPort     int
	Logger           *slog.Logger
}

// NewRenderer builds the Renderer for opts.Kind. "auto" chains the
// strategies from cheapest to heaviest: HTTP, ChromeDP, Selenium.
func NewRenderer(opts RendererOptions) (Renderer, error) {
	switch opts.Kind {
	case "http":
		return NewHTTPRenderer(), nil
	case "chromedp":
		return NewChromeRenderer(), nil
	case "selenium":
		return NewSeleniumRenderer(opts.ChromeDriverPath, opts.SeleniumPort), nil
	case "auto", "":
		return &FallbackRenderer{
			Renderers: []Renderer{
				NewHTTPRenderer(),
				NewChromeRenderer(),
				NewSeleniumRenderer(opts.ChromeDriverPath, opts.SeleniumPort),
			},
			Names:  []string{"http", "chromedp", "selenium"},
			Logger: opts.Logger,
		}, nil
	default:
		return nil, fmt.Errorf("unknown renderer %q", opts.Kind)
	}
}
