package mongo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aowotoys/catalog-sync/models"
	"github.com/aowotoys/catalog-sync/storage"
)

// Runs against a real server when TEST_MONGO_URI is set.
func TestMongoRepo_InsertAndDuplicate(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}
	ctx := context.Background()

	r, err := New(ctx, uri, "aowotoy_test", nil)
	require.NoError(t, err)
	defer r.Close()

	url := fmt.Sprintf("https://www.aowotoys.com/products/test-%d", time.Now().UnixNano())
	rec := &models.ProductRecord{ProductID: "abc", URL: url, Name: "盒", Price: 400}

	id, err := r.Insert(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)

	next, err := r.Insert(ctx, &models.ProductRecord{ProductID: "abc", URL: url + "&variant=v2", Name: "盒"})
	require.NoError(t, err)
	assert.Greater(t, next, id)

	got, found, err := r.FindByURL(ctx, url)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, id, got)

	_, err = r.Insert(ctx, &models.ProductRecord{ProductID: "abc", URL: url, Name: "盒"})
	assert.ErrorIs(t, err, storage.ErrDuplicateURL)

	stored, err := r.ProductByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, url, stored.URL)

	_, err = r.ProductByID(ctx, -1)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
