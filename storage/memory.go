package storage

import (
	"context"
	"sync"
	"time"

	"github.com/aowotoys/catalog-sync/models"
)

// MemoryStore is a Store kept in process memory, for tests and dry runs.
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	records []models.ProductRecord
	byURL   map[string]int // url -> index into records
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byURL: make(map[string]int), now: time.Now}
}

func (s *MemoryStore) FindByURL(ctx context.Context, url string) (int64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byURL[url]
	if !ok {
		return 0, false, nil
	}
	return s.records[i].ID, true, nil
}

func (s *MemoryStore) Insert(ctx context.Context, rec *models.ProductRecord) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byURL[rec.URL]; ok {
		return 0, ErrDuplicateURL
	}

	s.nextID++
	rec.ID = s.nextID
	rec.CreatedAt = s.now().UTC()

	s.byURL[rec.URL] = len(s.records)
	s.records = append(s.records, *rec)
	return rec.ID, nil
}

func (s *MemoryStore) ProductByID(ctx context.Context, id int64) (models.ProductRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// ids are assigned densely from 1
	if id < 1 || id > int64(len(s.records)) {
		return models.ProductRecord{}, ErrNotFound
	}
	return s.records[id-1], nil
}

func (s *MemoryStore) Products(ctx context.Context) ([]models.ProductRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ProductRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

// Len reports how many records are stored.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *MemoryStore) Close() error { return nil }
