package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aowotoys/catalog-sync/models"
	"github.com/aowotoys/catalog-sync/storage"
)

// SeenCache is an optional shortcut in front of the store.
type SeenCache interface {
	Seen(ctx context.Context, url string) (bool, error)
	MarkSeen(ctx context.Context, url string, id int64) error
}

type Status int

const (
	Persisted Status = iota + 1
	Skipped
)

func (s Status) String() string {
	switch s {
	case Persisted:
		return "persisted"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "persisted":
		*s = Persisted
	case "skipped":
		*s = Skipped
	default:
		return fmt.Errorf("unknown status %q", b)
	}
	return nil
}

// ScopedCache prefixes every key with scope so stores sharing one cache
// server never see each other's URLs.
func ScopedCache(cache SeenCache, scope string) SeenCache {
	return scopedCache{cache: cache, prefix: scope + "|"}
}

type scopedCache struct {
	cache  SeenCache
	prefix string
}

func (c scopedCache) Seen(ctx context.Context, url string) (bool, error) {
	return c.cache.Seen(ctx, c.prefix+url)
}

func (c scopedCache) MarkSeen(ctx context.Context, url string, id int64) error {
	return c.cache.MarkSeen(ctx, c.prefix+url, id)
}

// Outcome is what the gate did with one record. ID is zero when a skip was
// decided by the cache alone.
type Outcome struct {
	Status Status `json:"status"`
	ID     int64  `json:"id,omitempty"`
}

// Gate inserts a record only when its URL is not stored yet.
type Gate struct {
	store storage.Store
	cache SeenCache
	log   *slog.Logger
}

// NewGate builds a Gate. cache may be nil.
func NewGate(store storage.Store, cache SeenCache, log *slog.Logger) *Gate {
	if log == nil {
		log = slog.Default()
	}
	return &Gate{store: store, cache: cache, log: log}
}

// PersistIfNew checks rec.URL against the store and inserts rec when absent.
// The store's unique URL constraint settles races between the check and the
// insert, so a concurrent insert also ends as Skipped.
func (g *Gate) PersistIfNew(ctx context.Context, rec *models.ProductRecord) (Outcome, error) {
	log := g.log.With(slog.String("url", rec.URL))

	if g.cache != nil {
		seen, err := g.cache.Seen(ctx, rec.URL)
		if err != nil {
			log.Warn("seen cache lookup failed", slog.Any("err", err))
		} else if seen {
			log.Debug("already seen")
			return Outcome{Status: Skipped}, nil
		}
	}

	id, found, err := g.store.FindByURL(ctx, rec.URL)
	if err != nil {
		return Outcome{}, &StoreError{URL: rec.URL, Err: err}
	}
	if found {
		log.Debug("already stored", slog.Int64("id", id))
		g.markSeen(ctx, rec.URL, id)
		return Outcome{Status: Skipped, ID: id}, nil
	}

	id, err = g.store.Insert(ctx, rec)
	if errors.Is(err, storage.ErrDuplicateURL) {
		log.Debug("stored concurrently")
		return Outcome{Status: Skipped}, nil
	}
	if err != nil {
		return Outcome{}, &StoreError{URL: rec.URL, Err: err}
	}

	log.Info("product persisted", slog.Int64("id", id), slog.String("product_id", rec.ProductID), slog.String("option_id", rec.OptionID))
	g.markSeen(ctx, rec.URL, id)
	return Outcome{Status: Persisted, ID: id}, nil
}

func (g *Gate) markSeen(ctx context.Context, url string, id int64) {
	if g.cache == nil {
		return
	}
	if err := g.cache.MarkSeen(ctx, url, id); err != nil {
		g.log.Warn("seen cache update failed", slog.String("url", url), slog.Any("err", err))
	}
}
