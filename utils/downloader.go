package utils

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"github.com/aowotoys/catalog-sync/models"
)

const imageUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

// AcquirerOptions configures an Acquirer.
type AcquirerOptions struct {
	Root      string  // directory holding one sub-directory per product
	RPS       float64 // downloads per second, 0 means unlimited
	Overwrite bool    // re-download files that already exist
	Client    *http.Client
	Mirror    Uploader // optional
	Logger    *slog.Logger
}

// AcquisitionReport is the outcome of acquiring one product's images.
type AcquisitionReport struct {
	ProductID  string
	Downloaded []models.MediaAsset
	Existing   []models.MediaAsset // present on disk and left untouched
	Failures   []*ImageDownloadFailedError
}

// Acquirer downloads product images to <root>/<product_id>/<product_id>_<n>.jpg.
type Acquirer struct {
	root      string
	overwrite bool
	client    *http.Client
	limiter   *rate.Limiter
	mirror    Uploader
	log       *slog.Logger
}

func NewAcquirer(opts AcquirerOptions) *Acquirer {
	if opts.Root == "" {
		opts.Root = "products"
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	a := &Acquirer{
		root:      opts.Root,
		overwrite: opts.Overwrite,
		client:    opts.Client,
		mirror:    opts.Mirror,
		log:       opts.Logger,
	}
	if opts.RPS > 0 {
		a.limiter = rate.NewLimiter(rate.Limit(opts.RPS), 1)
	}
	return a
}

// Root is the directory images are written under.
func (a *Acquirer) Root() string { return a.root }

// Acquire downloads urls in order. The n-th URL (1-based) becomes file n;
// empty URLs are skipped but still consume their index.
func (a *Acquirer) Acquire(ctx context.Context, productID string, urls []string) AcquisitionReport {
	report := AcquisitionReport{ProductID: productID}
	dir := filepath.Join(a.root, productID)
	log := a.log.With(slog.String("product_id", productID))

	dirReady := false
	for i, u := range urls {
		index := i + 1
		if u == "" {
			continue
		}

		fail := func(err error) {
			f := &ImageDownloadFailedError{ProductID: productID, Index: index, URL: u, Err: err}
			report.Failures = append(report.Failures, f)
			log.Warn("image download failed", slog.Int("index", index), slog.String("url", u), slog.Any("err", err))
		}

		if err := ctx.Err(); err != nil {
			fail(err)
			return report
		}

		if !dirReady {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				fail(fmt.Errorf("create directory: %w", err))
				return report
			}
			dirReady = true
		}

		name := models.MediaFileName(productID, index)
		asset := models.MediaAsset{ProductID: productID, Index: index, SourceURL: u, Path: filepath.Join(dir, name)}

		if !a.overwrite {
			if _, err := os.Stat(asset.Path); err == nil {
				report.Existing = append(report.Existing, asset)
				continue
			}
		}

		if a.limiter != nil {
			if err := a.limiter.Wait(ctx); err != nil {
				fail(err)
				return report
			}
		}

		contentType, err := a.download(ctx, u, asset.Path)
		if err != nil {
			fail(err)
			continue
		}
		report.Downloaded = append(report.Downloaded, asset)
		log.Debug("image saved", slog.String("path", asset.Path))

		a.mirrorFile(ctx, asset, contentType)
	}
	return report
}

// download fetches url and writes it atomically to path.
func (a *Acquirer) download(ctx context.Context, url, path string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", imageUserAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("bad status: %s", resp.Status)
	}

	if err := writeFileAtomic(path, resp.Body); err != nil {
		return "", err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return contentType, nil
}

func (a *Acquirer) mirrorFile(ctx context.Context, asset models.MediaAsset, contentType string) {
	if a.mirror == nil {
		return
	}
	f, err := os.Open(asset.Path)
	if err != nil {
		a.log.Error("failed to open image for mirroring", slog.String("path", asset.Path), slog.Any("err", err))
		return
	}
	defer f.Close()

	key := MirrorKey(asset.ProductID, filepath.Base(asset.Path))
	if _, err := a.mirror.Upload(ctx, f, key, contentType); err != nil {
		a.log.Error("failed to mirror image", slog.String("key", key), slog.Any("err", err))
	}
}

// writeFileAtomic streams r into a temp file next to path and renames it
// into place, so readers never see a partial image.
func writeFileAtomic(path string, r io.Reader) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".download-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = io.Copy(tmp, r); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename image: %w", err)
	}
	return nil
}
