package storage

import (
	"context"
	"errors"

	"github.com/aowotoys/catalog-sync/models"
)

const (
	UniqueViolation = "23505"
)

var (
	ErrDuplicateURL = errors.New("product url already stored")
	ErrNotFound     = errors.New("product not found")
)

// Store persists ProductRecords keyed by their unique URL. Records are
// append-only.
type Store interface {
	// FindByURL returns the local id of the record stored under url.
	FindByURL(ctx context.Context, url string) (id int64, found bool, err error)
	// Insert stores rec in its own transaction and fills rec.ID and
	// rec.CreatedAt. A record whose URL is already stored is rejected with
	// ErrDuplicateURL and leaves the store unchanged.
	Insert(ctx context.Context, rec *models.ProductRecord) (int64, error)
	// ProductByID returns ErrNotFound for an unknown id.
	ProductByID(ctx context.Context, id int64) (models.ProductRecord, error)
	// Products returns every record in insertion order.
	Products(ctx context.Context) ([]models.ProductRecord, error)
	Close() error
}
