package stock

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/karobar-erp/karobar-erp/internal/platform/db"
)

// Repository persists stock counters in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by the service.
type TxRepository interface {
	GetByProductForUpdate(ctx context.Context, productID int64) (Stock, error)
	Upsert(ctx context.Context, s Stock) (Stock, error)
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const stockColumns = `id, product_id, opening_stock, purchased_qty, sold_qty, current_stock, created_at, updated_at`

func scanStock(row pgx.Row) (Stock, error) {
	var s Stock
	err := row.Scan(&s.ID, &s.ProductID, &s.OpeningStock, &s.PurchasedQty, &s.SoldQty, &s.CurrentStock, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// Get returns a stock row by ID.
func (r *Repository) Get(ctx context.Context, id int64) (Stock, error) {
	s, err := scanStock(r.pool.QueryRow(ctx, `SELECT `+stockColumns+` FROM stocks WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Stock{}, ErrNotFound
	}
	return s, err
}

// GetByProduct returns the stock row for a product.
func (r *Repository) GetByProduct(ctx context.Context, productID int64) (Stock, error) {
	s, err := scanStock(r.pool.QueryRow(ctx, `SELECT `+stockColumns+` FROM stocks WHERE product_id = $1`, productID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Stock{}, ErrNotFound
	}
	return s, err
}

// List returns all stock rows ordered by product.
func (r *Repository) List(ctx context.Context) ([]Stock, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+stockColumns+` FROM stocks ORDER BY product_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var stocks []Stock
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, err
		}
		stocks = append(stocks, s)
	}
	return stocks, rows.Err()
}

// Create inserts a new stock row with recomputed counters.
func (r *Repository) Create(ctx context.Context, s Stock) (Stock, error) {
	s.Recompute()
	return scanStock(r.pool.QueryRow(ctx, `INSERT INTO stocks (product_id, opening_stock, purchased_qty, sold_qty, current_stock, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,NOW(),NOW()) RETURNING `+stockColumns,
		s.ProductID, s.OpeningStock, s.PurchasedQty, s.SoldQty, s.CurrentStock))
}

// Update overwrites the counters of an existing row.
func (r *Repository) Update(ctx context.Context, s Stock) (Stock, error) {
	s.Recompute()
	updated, err := scanStock(r.pool.QueryRow(ctx, `UPDATE stocks SET opening_stock=$2, purchased_qty=$3, sold_qty=$4, current_stock=$5, updated_at=NOW()
WHERE id=$1 RETURNING `+stockColumns,
		s.ID, s.OpeningStock, s.PurchasedQty, s.SoldQty, s.CurrentStock))
	if errors.Is(err, pgx.ErrNoRows) {
		return Stock{}, ErrNotFound
	}
	return updated, err
}

func (r *txRepository) GetByProductForUpdate(ctx context.Context, productID int64) (Stock, error) {
	s, err := scanStock(r.tx.QueryRow(ctx, `SELECT `+stockColumns+` FROM stocks WHERE product_id = $1 FOR UPDATE`, productID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Stock{ProductID: productID}, ErrNotFound
	}
	return s, err
}

func (r *txRepository) Upsert(ctx context.Context, s Stock) (Stock, error) {
	return scanStock(r.tx.QueryRow(ctx, `INSERT INTO stocks (product_id, opening_stock, purchased_qty, sold_qty, current_stock, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,NOW(),NOW())
ON CONFLICT (product_id) DO UPDATE SET
  opening_stock=EXCLUDED.opening_stock, purchased_qty=EXCLUDED.purchased_qty,
  sold_qty=EXCLUDED.sold_qty, current_stock=EXCLUDED.current_stock, updated_at=NOW()
RETURNING `+stockColumns,
		s.ProductID, s.OpeningStock, s.PurchasedQty, s.SoldQty, s.CurrentStock))
}
