package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/aowotoys/catalog-sync/export"
	"github.com/aowotoys/catalog-sync/models"
	"github.com/aowotoys/catalog-sync/pipeline"
	"github.com/aowotoys/catalog-sync/scrapers/aowotoy"
	"github.com/aowotoys/catalog-sync/scrapers/base"
	"github.com/aowotoys/catalog-sync/storage"
	"github.com/aowotoys/catalog-sync/utils"
)

const (
	defaultLimit = 50
	maxLimit     = 500
	presignTTL   = time.Hour
)

// Syncer scrapes and persists one detail URL.
type Syncer interface {
	SyncItem(ctx context.Context, url string) (pipeline.ItemReport, error)
}

// ProductsGetter reads stored records.
type ProductsGetter interface {
	Products(ctx context.Context) ([]models.ProductRecord, error)
	ProductByID(ctx context.Context, id int64) (models.ProductRecord, error)
}

// Presigner signs links to mirrored images.
type Presigner interface {
	PresignURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Handler serves the catalog API.
type Handler struct {
	Log        *slog.Logger
	Syncer     Syncer
	Products   ProductsGetter
	Exporter   *export.Exporter
	ImagesRoot string
	Mirror     Presigner // optional
	// Resolve maps a submitted URL to the detail URL to sync, rejecting
	// URLs no scraper handles.
	Resolve func(ctx context.Context, url string) (string, error)
}

// NewRouter mounts the API routes.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(latencyMiddleware(h.Log))
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Post("/sync", h.Sync)
	r.Get("/products", h.ListProducts)
	r.Get("/products/{id}", h.GetProduct)
	r.Get("/products/{id}/images", h.ProductImages)
	r.Get("/export.csv", h.ExportCSV)

	fs := http.StripPrefix("/images/", http.FileServer(http.Dir(h.ImagesRoot)))
	r.Get("/images/*", fs.ServeHTTP)

	return r
}

type SyncResponse struct {
	Response
	Item pipeline.ItemReport `json:"item"`
}

// Sync handles POST /sync?url=<detail url> (or a JSON body {"url": ...}).
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	const op = "api.Sync"
	log := h.Log.With(slog.String("op", op), slog.String("request_id", middleware.GetReqID(r.Context())))

	productURL := r.URL.Query().Get("url")
	if productURL == "" {
		var req struct {
			URL string `json:"url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			productURL = req.URL
		}
	}
	if productURL == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, Error("Please provide a 'url' query parameter or JSON body"))
		return
	}

	resolved, err := h.Resolve(r.Context(), productURL)
	if err != nil {
		log.Warn("unsupported url", slog.String("url", productURL), slog.Any("err", err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, Error(err.Error()))
		return
	}

	item, err := h.Syncer.SyncItem(r.Context(), resolved)
	switch {
	case err == nil:
	case aowotoy.IsExtractionError(err, 0):
		log.Warn("extraction failed", slog.String("url", resolved), slog.Any("err", err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, Error(err.Error()))
		return
	case base.IsFetchFailed(err):
		log.Error("fetch failed", slog.String("url", resolved), slog.Any("err", err))
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, Error(err.Error()))
		return
	default:
		log.Error("sync failed", slog.String("url", resolved), slog.Any("err", err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, Error("Internal error"))
		return
	}

	log.Info("item synced",
		slog.String("url", resolved),
		slog.String("product_id", item.ProductID),
		slog.Int("persisted", item.Count(pipeline.Persisted)),
		slog.Int("skipped", item.Count(pipeline.Skipped)),
	)
	render.JSON(w, r, SyncResponse{Response: OK(), Item: item})
}

type ProductsResponse struct {
	Response
	Products []models.ProductRecord `json:"products"`
	Total    int                    `json:"total"`
	Limit    int                    `json:"limit"`
	Offset   int                    `json:"offset"`
}

// ListProducts handles GET /products?limit=&offset=&product_id=.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	const op = "api.ListProducts"
	log := h.Log.With(slog.String("op", op))

	all, err := h.Products.Products(r.Context())
	if err != nil {
		log.Error("failed to get products", slog.Any("err", err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, Error("Internal error"))
		return
	}

	if pid := r.URL.Query().Get("product_id"); pid != "" {
		filtered := all[:0:0]
		for _, p := range all {
			if p.ProductID == pid {
				filtered = append(filtered, p)
			}
		}
		all = filtered
	}

	limit := parseInt(r, "limit", defaultLimit)
	if limit > maxLimit {
		limit = maxLimit
	}
	offset := parseInt(r, "offset", 0)

	page := []models.ProductRecord{}
	if offset < len(all) {
		end := min(offset+limit, len(all))
		page = all[offset:end]
	}

	render.JSON(w, r, ProductsResponse{Response: OK(), Products: page, Total: len(all), Limit: limit, Offset: offset})
}

type ProductResponse struct {
	Response
	Product models.ProductRecord `json:"product"`
}

// GetProduct handles GET /products/{id}.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookup(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, ProductResponse{Response: OK(), Product: rec})
}

type ImagesResponse struct {
	Response
	ProductID string   `json:"product_id"`
	Images    []string `json:"images"`
}

// ProductImages handles GET /products/{id}/images. Links point at the S3
// mirror when one is configured and at /images/ otherwise.
func (h *Handler) ProductImages(w http.ResponseWriter, r *http.Request) {
	const op = "api.ProductImages"
	log := h.Log.With(slog.String("op", op))

	rec, ok := h.lookup(w, r)
	if !ok {
		return
	}

	entries, err := os.ReadDir(filepath.Join(h.ImagesRoot, rec.ProductID))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Error("failed to list images", slog.Any("err", err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, Error("Internal error"))
		return
	}

	images := []string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jpg") {
			continue
		}
		link := "/images/" + rec.ProductID + "/" + e.Name()
		if h.Mirror != nil {
			signed, err := h.Mirror.PresignURL(r.Context(), utils.MirrorKey(rec.ProductID, e.Name()), presignTTL)
			if err == nil {
				link = signed
			} else {
				log.Warn("presign failed, using local link", slog.Any("err", err))
			}
		}
		images = append(images, link)
	}
	sort.Strings(images)

	render.JSON(w, r, ImagesResponse{Response: OK(), ProductID: rec.ProductID, Images: images})
}

// ExportCSV handles GET /export.csv and streams the single-file export.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	const op = "api.ExportCSV"
	log := h.Log.With(slog.String("op", op))

	records, err := h.Products.Products(r.Context())
	if err != nil {
		log.Error("failed to get products", slog.Any("err", err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, Error("Internal error"))
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="all_products.csv"`)
	n, err := h.Exporter.ExportAll(r.Context(), records, w)
	if err != nil {
		log.Error("export failed", slog.Int("rows", n), slog.Any("err", err))
		return
	}
	log.Info("export served", slog.Int("rows", n))
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (models.ProductRecord, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, Error("invalid id"))
		return models.ProductRecord{}, false
	}

	rec, err := h.Products.ProductByID(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, Error("product not found"))
		return models.ProductRecord{}, false
	}
	if err != nil {
		h.Log.Error("failed to get product", slog.Int64("id", id), slog.Any("err", err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, Error("Internal error"))
		return models.ProductRecord{}, false
	}
	return rec, true
}

func parseInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 0 {
		return def
	}
	return v
}
