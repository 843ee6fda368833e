package base

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	DefaultTimeout  = 60 * time.Second
	DefaultMinDelay = 2 * time.Second
	DefaultMaxDelay = 5 * time.Second
)

// Renderer turns a URL into the page markup. Implementations may drive a real
// browser; they never retry.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
	Close() error
}

// Page is a rendered page ready for CSS queries.
type Page struct {
	URL  string
	HTML string
	Doc  *goquery.Document
}

// NewPage parses markup into a Page.
func NewPage(url, html string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	return &Page{URL: url, HTML: html, Doc: doc}, nil
}

// FetcherOptions configures a Fetcher. Zero values fall back to the defaults.
type FetcherOptions struct {
	Timeout  time.Duration
	MinDelay time.Duration
	MaxDelay time.Duration
	Logger   *slog.Logger
}

// Fetcher issues one logical request per call through a Renderer. Detail
// fetches are preceded by a random pause to keep a browsing cadence.
type Fetcher struct {
	renderer Renderer
	timeout  time.Duration
	minDelay time.Duration
	maxDelay time.Duration
	log      *slog.Logger

	mu  sync.Mutex
	rnd *rand.Rand

	// sleep is swapped in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewFetcher(r Renderer, opts FetcherOptions) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MinDelay == 0 && opts.MaxDelay == 0 {
		opts.MinDelay, opts.MaxDelay = DefaultMinDelay, DefaultMaxDelay
	}
	if opts.MaxDelay < opts.MinDelay {
		opts.MaxDelay = opts.MinDelay
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Fetcher{
		renderer: r,
		timeout:  opts.Timeout,
		minDelay: opts.MinDelay,
		maxDelay: opts.MaxDelay,
		log:      opts.Logger,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:    sleepContext,
	}
}

// FetchListing renders a listing page without the browsing delay.
func (f *Fetcher) FetchListing(ctx context.Context, url string) (*Page, error) {
	return f.fetch(ctx, url)
}

// FetchDetail waits a random delay and then renders an item detail page.
func (f *Fetcher) FetchDetail(ctx context.Context, url string) (*Page, error) {
	d := f.delay()
	f.log.Debug("waiting before detail fetch", slog.String("url", url), slog.Duration("delay", d))
	if err := f.sleep(ctx, d); err != nil {
		return nil, &FetchFailedError{URL: url, Err: err}
	}
	return f.fetch(ctx, url)
}

// Close releases the underlying renderer.
func (f *Fetcher) Close() error {
	return f.renderer.Close()
}

func (f *Fetcher) fetch(ctx context.Context, url string) (*Page, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	html, err := f.renderer.Render(ctx, url)
	if err != nil {
		return nil, &FetchFailedError{URL: url, Err: err}
	}

	page, err := NewPage(url, html)
	if err != nil {
		return nil, &FetchFailedError{URL: url, Err: fmt.Errorf("parse html: %w", err)}
	}
	return page, nil
}

func (f *Fetcher) delay() time.Duration {
	span := f.maxDelay - f.minDelay
	if span <= 0 {
		return f.minDelay
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.minDelay + time.Duration(f.rnd.Int63n(int64(span)+1))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// FallbackRenderer tries each renderer in order and returns the first markup
// accepted by the validator.
type FallbackRenderer struct {
	Renderers []Renderer
	Names     []string
	Validator func(html string) bool
	Logger    *slog.Logger
}

func (b *FallbackRenderer) Render(ctx context.Context, url string) (string, error) {
	validator := b.Validator
	if validator == nil {
		validator = IsValidDocument
	}
	log := b.Logger
	if log == nil {
		log = slog.Default()
	}

	var errs []error
	for i, r := range b.Renderers {
		name := b.name(i)
		html, err := r.Render(ctx, url)
		if err != nil {
			log.Debug("renderer failed", slog.String("renderer", name), slog.String("url", url), slog.Any("err", err))
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		} else if validator(html) {
			log.Debug("renderer succeeded", slog.String("renderer", name), slog.String("url", url))
			return html, nil
		} else {
			log.Debug("renderer yielded invalid content", slog.String("renderer", name), slog.String("url", url))
			errs = append(errs, fmt.Errorf("%s: invalid content", name))
		}
		if ctx.Err() != nil {
			break
		}
	}
	if len(errs) == 0 {
		return "", errors.New("no renderer configured")
	}
	return "", fmt.Errorf("all strategies failed for %s: %w", url, errors.Join(errs...))
}

func (b *FallbackRenderer) Close() error {
	var errs []error
	for _, r := range b.Renderers {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *FallbackRenderer) name(i int) string {
	if i < len(b.Names) {
		return b.Names[i]
	}
	return fmt.Sprintf("renderer-%d", i)
}

// IsValidDocument rejects block pages and near-empty documents.
func IsValidDocument(html string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false
	}
	title := strings.ToLower(strings.TrimSpace(doc.Find("title").Text()))
	if strings.Contains(title, "robot check") ||
		strings.Contains(title, "captcha") ||
		strings.Contains(title, "access denied") {
		return false
	}
	return len(strings.TrimSpace(doc.Find("body").Text())) > 200 || strings.Contains(html, "JSON.parse(")
}
