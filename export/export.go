package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/aowotoys/catalog-sync/models"
)

const (
	categoryID      = "50008"
	quantity        = "10"
	storeCategoryID = "6438417"

	// PerProductFile is the file written into each product directory.
	PerProductFile = "ruten_auction_new.csv"
)

const descriptionTemplate = "專為 %s 設計的壓克力公仔模型展示盒，附有噴繪背景與底板設計。\n\n商品材質：壓克力\n\n商品規格：%s\n\n如有其他商品疑問，例如燈款、電源等，歡迎小窗詢問。"

// utf8BOM lets spreadsheet software detect the encoding.
const utf8BOM = "\xEF\xBB\xBF"

var DefaultMarkup = decimal.RequireFromString("1.6")

var nameReplacer = strings.NewReplacer("高達", "鋼彈", "AOWOBOX", "阿庫力")

// Options configures an Exporter.
type Options struct {
	Markup decimal.Decimal // zero means DefaultMarkup
	Limit  int             // export at most this many records, 0 for all
	Logger *slog.Logger
}

// Exporter renders stored records as Ruten bulk-upload CSV.
type Exporter struct {
	markup   decimal.Decimal
	limit    int
	log      *slog.Logger
	validate *validator.Validate
}

func New(opts Options) *Exporter {
	if opts.Markup.IsZero() {
		opts.Markup = DefaultMarkup
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Exporter{
		markup:   opts.Markup,
		limit:    opts.Limit,
		log:      opts.Logger,
		validate: validator.New(),
	}
}

// RewriteName applies the fixed brand substitutions to a product name.
func RewriteName(name string) string {
	return nameReplacer.Replace(name)
}

// FinalPrice marks price up, rounds half to even and drops the units digit.
func FinalPrice(price int64, markup decimal.Decimal) int64 {
	c := decimal.NewFromInt(price).Mul(markup).RoundBank(0).IntPart()
	return c - c%10
}

// Description is the item description shown on Ruten.
func Description(name, option string) string {
	return fmt.Sprintf(descriptionTemplate, name, option)
}

// Row transforms rec into the cells of one export row. withOption selects
// the layout with the OPTION column.
func (e *Exporter) Row(rec models.ProductRecord, withOption bool) ([]string, error) {
	if err := e.validate.Struct(rec); err != nil {
		return nil, &RowTransformError{ID: rec.ID, ProductID: rec.ProductID, Err: err}
	}

	name := RewriteName(rec.Name)
	header := PerProductHeader
	cells := []string{categoryID, name}
	if withOption {
		header = AllHeader
		cells = append(cells, rec.Option)
	}
	cells = append(cells,
		strconv.FormatInt(FinalPrice(rec.Price, e.markup), 10),
		quantity,
		storeCategoryID,
		Description(name, rec.Option),
		"",
		models.MediaFileName(rec.ProductID, 1),
		models.MediaFileName(rec.ProductID, 2),
	)
	return fitWidth(cells, len(header)), nil
}

// fitWidth pads or truncates cells to exactly n columns.
func fitWidth(cells []string, n int) []string {
	if len(cells) >= n {
		return cells[:n]
	}
	return append(cells, make([]string, n-len(cells))...)
}

// ExportAll writes every record into w as one CSV with the OPTION column and
// returns the number of rows written.
func (e *Exporter) ExportAll(ctx context.Context, records []models.ProductRecord, w io.Writer) (int, error) {
	const op = "export.ExportAll"

	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	cw := newWriter(w)
	if err := cw.Write(AllHeader); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	written := 0
	for i, rec := range records {
		if e.limit > 0 && i >= e.limit {
			e.log.Info("export limit reached", slog.Int("limit", e.limit))
			break
		}
		if err := ctx.Err(); err != nil {
			return written, fmt.Errorf("%s: %w", op, err)
		}

		row, err := e.Row(rec, true)
		if err != nil {
			e.log.Warn("skipping record", slog.Any("err", err))
			continue
		}
		if err := cw.Write(row); err != nil {
			return written, fmt.Errorf("%s: %w", op, err)
		}
		written++
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return written, fmt.Errorf("%s: %w", op, err)
	}
	return written, nil
}

// ExportPerProduct appends each record to <root>/<product_id>/ruten_auction_new.csv.
// A file is recreated with a fresh header the first time it is touched by a
// call, so repeated exports do not accumulate rows.
func (e *Exporter) ExportPerProduct(ctx context.Context, records []models.ProductRecord, root string) (int, error) {
	const op = "export.ExportPerProduct"

	touched := make(map[string]bool)
	written := 0
	for i, rec := range records {
		if e.limit > 0 && i >= e.limit {
			e.log.Info("export limit reached", slog.Int("limit", e.limit))
			break
		}
		if err := ctx.Err(); err != nil {
			return written, fmt.Errorf("%s: %w", op, err)
		}

		row, err := e.Row(rec, false)
		if err != nil {
			e.log.Warn("skipping record", slog.Any("err", err))
			continue
		}

		path := filepath.Join(root, rec.ProductID, PerProductFile)
		if err := appendRow(path, row, !touched[path]); err != nil {
			return written, fmt.Errorf("%s: %w", op, err)
		}
		touched[path] = true
		written++
		e.log.Debug("row exported", slog.String("product_id", rec.ProductID), slog.String("path", path))
	}
	return written, nil
}

func appendRow(path string, row []string, fresh bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_APPEND
	if fresh {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return err
	}

	cw := newWriter(f)
	if fresh {
		if _, err := io.WriteString(f, utf8BOM); err != nil {
			f.Close()
			return err
		}
		if err := cw.Write(PerProductHeader); err != nil {
			f.Close()
			return err
		}
	}
	if err := cw.Write(row); err != nil {
		f.Close()
		return err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// newWriter keeps LF line endings so multi-line descriptions are written
// byte for byte.
func newWriter(w io.Writer) *csv.Writer {
	return csv.NewWriter(w)
}
