package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// RenameReport counts what RenameImages did.
type RenameReport struct {
	Renamed int
	Skipped int
	Failed  int
}

// RenameImages migrates legacy image names inside every product directory of
// root from <n>.<ext> to <product_id>_<n>.<ext>, the product id being the
// directory name. Files that do not look like <n>.<ext> are left alone, so
// running it twice is harmless. A missing root is not an error.
func RenameImages(root string, log *slog.Logger) (RenameReport, error) {
	const op = "utils.RenameImages"

	if log == nil {
		log = slog.Default()
	}

	var report RenameReport
	entries, err := os.ReadDir(root)
	if errors.Is(err, fs.ErrNotExist) {
		return report, nil
	}
	if err != nil {
		return report, fmt.Errorf("%s: %w", op, err)
	}

	for _, dir := range entries {
		if !dir.IsDir() {
			continue
		}
		productID := dir.Name()
		productDir := filepath.Join(root, productID)

		files, err := os.ReadDir(productDir)
		if err != nil {
			log.Error("cannot read product directory", slog.String("dir", productDir), slog.Any("err", err))
			report.Failed++
			continue
		}

		for _, f := range files {
			if f.IsDir() {
				continue
			}
			ext := filepath.Ext(f.Name())
			index := strings.TrimSuffix(f.Name(), ext)
			if !isDigits(index) {
				report.Skipped++
				continue
			}

			oldPath := filepath.Join(productDir, f.Name())
			newPath := filepath.Join(productDir, fmt.Sprintf("%s_%s%s", productID, index, ext))
			if _, err := os.Stat(newPath); err == nil {
				log.Warn("target exists, not renaming", slog.String("from", oldPath), slog.String("to", newPath))
				report.Skipped++
				continue
			}
			if err := os.Rename(oldPath, newPath); err != nil {
				log.Error("rename failed", slog.String("from", oldPath), slog.Any("err", err))
				report.Failed++
				continue
			}
			log.Info("renamed", slog.String("from", oldPath), slog.String("to", newPath))
			report.Renamed++
		}
	}
	return report, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
