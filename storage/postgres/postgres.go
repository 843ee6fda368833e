package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aowotoys/catalog-sync/models"
	"github.com/aowotoys/catalog-sync/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS aowotoy_products (
	id         BIGSERIAL PRIMARY KEY,
	product_id TEXT        NOT NULL,
	option_id  TEXT        NOT NULL DEFAULT '',
	url        TEXT        NOT NULL UNIQUE,
	name       TEXT        NOT NULL,
	summary    TEXT        NOT NULL DEFAULT '',
	price      BIGINT      NOT NULL DEFAULT 0,
	"option"   TEXT        NOT NULL DEFAULT '',
	detail     TEXT        NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS aowotoy_products_product_id_idx ON aowotoy_products (product_id);
`

const selectColumns = `id, product_id, option_id, url, name, summary, price, "option", detail, created_at`

type PostgresRepo struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func New(ctx context.Context, dsn string, log *slog.Logger) (*PostgresRepo, error) {
	const op = "storage.postgres.New"

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse config: %w", op, err)
	}

	poolConfig.MaxConns = 4
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = time.Minute * 30

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create pool: %w", op, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: ping failed: %w", op, err)
	}

	if log == nil {
		log = slog.Default()
	}
	return &PostgresRepo{pool: pool, log: log}, nil
}

// Migrate creates the products table when it does not exist.
func (r *PostgresRepo) Migrate(ctx context.Context) error {
	const op = "storage.postgres.Migrate"

	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *PostgresRepo) FindByURL(ctx context.Context, url string) (int64, bool, error) {
	const op = "storage.postgres.FindByURL"

	var id int64
	err := r.pool.QueryRow(ctx, `SELECT id FROM aowotoy_products WHERE url = $1`, url).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", op, err)
	}
	return id, true, nil
}

// Insert writes rec inside its own transaction. A conflicting URL inserts
// nothing and yields storage.ErrDuplicateURL.
func (r *PostgresRepo) Insert(ctx context.Context, rec *models.ProductRecord) (id int64, err error) {
	const op = "storage.postgres.Insert"

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: begin tx: %w", op, err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			r.log.Error("failed to rollback transaction", slog.String("op", op), slog.Any("err", rbErr))
		}
	}()

	const query = `
		INSERT INTO aowotoy_products (product_id, option_id, url, name, summary, price, "option", detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (url) DO NOTHING
		RETURNING id, created_at
	`

	var createdAt time.Time
	err = tx.QueryRow(ctx, query,
		rec.ProductID, rec.OptionID, rec.URL, rec.Name, rec.Summary, rec.Price, rec.Option, rec.Detail,
	).Scan(&id, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, storage.ErrDuplicateURL
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == storage.UniqueViolation {
			return 0, storage.ErrDuplicateURL
		}
		return 0, fmt.Errorf("%s: failed to insert product: %w", op, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("%s: commit: %w", op, err)
	}

	rec.ID = id
	rec.CreatedAt = createdAt
	return id, nil
}

func (r *PostgresRepo) ProductByID(ctx context.Context, id int64) (models.ProductRecord, error) {
	const op = "storage.postgres.ProductByID"

	rows, err := r.pool.Query(ctx, `SELECT `+selectColumns+` FROM aowotoy_products WHERE id = $1`, id)
	if err != nil {
		return models.ProductRecord{}, fmt.Errorf("%s: query: %w", op, err)
	}

	rec, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.ProductRecord])
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ProductRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return models.ProductRecord{}, fmt.Errorf("%s: collect: %w", op, err)
	}
	return rec, nil
}

func (r *PostgresRepo) Products(ctx context.Context) ([]models.ProductRecord, error) {
	const op = "storage.postgres.Products"

	rows, err := r.pool.Query(ctx, `SELECT `+selectColumns+` FROM aowotoy_products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}

	products, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.ProductRecord])
	if err != nil {
		return nil, fmt.Errorf("%s: collect: %w", op, err)
	}
	return products, nil
}

func (r *PostgresRepo) Close() error {
	r.pool.Close()
	return nil
}
