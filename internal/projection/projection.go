// Package projection implements the Postgres-backed read model: a
// denormalized (product, store) -> {available, reserved, total} view kept
// current by the write path so reads never force a full event replay.
package projection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/utafrali/inventory-es/pkg/errors"
)

// Record is one row of the inventory_projection table.
type Record struct {
	ProductID uuid.UUID
	StoreID   uuid.UUID
	Available int
	Reserved  int
	Total     int
	UpdatedAt time.Time
}

// Pool is the subset of *pgxpool.Pool the projection repository needs. A
// narrow interface lets tests substitute pgxmock without depending on the
// concrete pool type.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository persists and serves the inventory read model.
type Repository struct {
	pool Pool
}

// NewRepository returns a Repository backed by pool.
func NewRepository(pool Pool) *Repository {
	return &Repository{pool: pool}
}

// Update upserts the projection row for (productID, storeID). total is
// always available + reserved, recomputed here rather than trusted from the
// caller.
func (r *Repository) Update(ctx context.Context, productID, storeID uuid.UUID, available, reserved int) error {
	const query = `
		INSERT INTO inventory_projection (product_id, store_id, available, reserved, total, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (product_id, store_id) DO UPDATE SET
			available = EXCLUDED.available,
			reserved  = EXCLUDED.reserved,
			total     = EXCLUDED.total,
			updated_at = EXCLUDED.updated_at`

	total := available + reserved
	_, err := r.pool.Exec(ctx, query, productID, storeID, available, reserved, total)
	if err != nil {
		return fmt.Errorf("projection: upsert (%s, %s): %w", productID, storeID, err)
	}
	return nil
}

// Get returns the projection row for (productID, storeID), or a NotFound
// AppError if no row exists.
func (r *Repository) Get(ctx context.Context, productID, storeID uuid.UUID) (*Record, error) {
	const query = `
		SELECT product_id, store_id, available, reserved, total, updated_at
		FROM inventory_projection
		WHERE product_id = $1 AND store_id = $2`

	return r.scanOne(r.pool.QueryRow(ctx, query, productID, storeID))
}

// GetByProduct returns every store's projection row for productID.
func (r *Repository) GetByProduct(ctx context.Context, productID uuid.UUID) ([]Record, error) {
	const query = `
		SELECT product_id, store_id, available, reserved, total, updated_at
		FROM inventory_projection
		WHERE product_id = $1
		ORDER BY store_id`

	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("projection: query by product %s: %w", productID, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("projection: scan row for product %s: %w", productID, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("projection: iterate rows for product %s: %w", productID, err)
	}
	return records, nil
}

// Check is a lightweight existence+threshold read, used by availability
// queries that do not go through the cache: it reports whether at least
// minQuantity units are available.
func (r *Repository) Check(ctx context.Context, productID, storeID uuid.UUID, minQuantity int) (bool, error) {
	rec, err := r.Get(ctx, productID, storeID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return rec.Available >= minQuantity, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanOne(row pgx.Row) (*Record, error) {
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("inventory_projection", "")
		}
		return nil, fmt.Errorf("projection: scan row: %w", err)
	}
	return &rec, nil
}

func scanRecord(s rowScanner) (Record, error) {
	var rec Record
	err := s.Scan(&rec.ProductID, &rec.StoreID, &rec.Available, &rec.Reserved, &rec.Total, &rec.UpdatedAt)
	return rec, err
}
