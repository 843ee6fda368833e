package utils

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestRenameImages(t *testing.T) {
	root := filepath.Join(t.TempDir(), "products")
	dir := filepath.Join(root, "product123")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, name := range []string{"1.jpg", "2.png", "3.jpeg", "ruten_auction_new.csv"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("dummy"), 0o644))
	}

	report, err := RenameImages(root, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Renamed)
	assert.Equal(t, []string{"product123_1.jpg", "product123_2.png", "product123_3.jpeg", "ruten_auction_new.csv"}, listDir(t, dir))

	report, err = RenameImages(root, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Renamed)
	assert.Len(t, listDir(t, dir), 4)
}

func TestRenameImages_EmptyRoot(t *testing.T) {
	root := t.TempDir()
	report, err := RenameImages(root, nil)
	require.NoError(t, err)
	assert.Equal(t, RenameReport{}, report)
	assert.Empty(t, listDir(t, root))
}

func TestRenameImages_MissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "non_existent_products")
	_, err := RenameImages(root, nil)
	require.NoError(t, err)
	assert.NoDirExists(t, root)
}

func TestNewLogger(t *testing.T) {
	for _, env := range []string{"local", "dev", "prod", "other"} {
		assert.NotNil(t, NewLogger(env), env)
	}
}
