package purchasing

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/karobar-erp/karobar-erp/internal/platform/db"
)

// Repository persists purchase orders and their items in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the transactional operations used by the service.
type TxRepository interface {
	CreateOrder(ctx context.Context, po PurchaseOrder) (int64, error)
	UpdateOrderHeader(ctx context.Context, po PurchaseOrder) error
	SetStatus(ctx context.Context, id int64, status POStatus) error
	InsertItem(ctx context.Context, item POItem) (int64, error)
	DeleteItems(ctx context.Context, orderID int64) error
	LastOrderNumber(ctx context.Context, fyPrefix string) (string, error)
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps the callback in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

const orderColumns = `id, order_number, supplier_id, address_id, shipping_address_id, status, notes,
created_by, created_at, updated_at, received_at`

func scanOrder(row pgx.Row) (PurchaseOrder, error) {
	var po PurchaseOrder
	err := row.Scan(&po.ID, &po.OrderNumber, &po.SupplierID, &po.AddressID, &po.ShippingAddressID,
		&po.Status, &po.Notes, &po.CreatedBy, &po.CreatedAt, &po.UpdatedAt, &po.ReceivedAt)
	return po, err
}

// Get returns a purchase order with its items.
func (r *Repository) Get(ctx context.Context, id int64) (*PurchaseOrder, error) {
	po, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM purchase_orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	items, err := r.listItems(ctx, id)
	if err != nil {
		return nil, err
	}
	po.Items = items
	return &po, nil
}

func (r *Repository) listItems(ctx context.Context, orderID int64) ([]POItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, purchase_order_id, product_id, unit_price, unit_quantity, total_quantity, total
FROM purchase_order_items WHERE purchase_order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []POItem
	for rows.Next() {
		var it POItem
		if err := rows.Scan(&it.ID, &it.PurchaseOrderID, &it.ProductID, &it.UnitPrice,
			&it.UnitQuantity, &it.TotalQuantity, &it.Total); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ListFilter narrows the order listing.
type ListFilter struct {
	Status     POStatus
	SupplierID int64
}

// List returns order headers, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]PurchaseOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM purchase_orders WHERE 1=1`
	args := []any{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	if filter.SupplierID > 0 {
		args = append(args, filter.SupplierID)
		query += ` AND supplier_id = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []PurchaseOrder
	for rows.Next() {
		po, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, po)
	}
	return orders, rows.Err()
}

// LastOrderNumber returns the most recently created order number matching
// the financial-year prefix, or "" if the year has no orders yet.
func (r *Repository) LastOrderNumber(ctx context.Context, fyPrefix string) (string, error) {
	var number string
	err := r.pool.QueryRow(ctx, `SELECT order_number FROM purchase_orders WHERE order_number LIKE $1 ORDER BY id DESC LIMIT 1`,
		fyPrefix+"%").Scan(&number)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return number, err
}

func (t *txRepo) CreateOrder(ctx context.Context, po PurchaseOrder) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO purchase_orders (order_number, supplier_id, address_id, shipping_address_id, status, notes,
created_by, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,NOW(),NOW()) RETURNING id`,
		po.OrderNumber, po.SupplierID, po.AddressID, po.ShippingAddressID, po.Status, po.Notes, po.CreatedBy).Scan(&id)
	return id, err
}

func (t *txRepo) UpdateOrderHeader(ctx context.Context, po PurchaseOrder) error {
	_, err := t.tx.Exec(ctx, `UPDATE purchase_orders SET supplier_id=$2, address_id=$3, shipping_address_id=$4, notes=$5, updated_at=NOW()
WHERE id=$1`, po.ID, po.SupplierID, po.AddressID, po.ShippingAddressID, po.Notes)
	return err
}

func (t *txRepo) SetStatus(ctx context.Context, id int64, status POStatus) error {
	if status == POStatusReceived {
		_, err := t.tx.Exec(ctx, `UPDATE purchase_orders SET status=$2, received_at=NOW(), updated_at=NOW() WHERE id=$1`, id, status)
		return err
	}
	_, err := t.tx.Exec(ctx, `UPDATE purchase_orders SET status=$2, updated_at=NOW() WHERE id=$1`, id, status)
	return err
}

func (t *txRepo) InsertItem(ctx context.Context, item POItem) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO purchase_order_items (purchase_order_id, product_id, unit_price, unit_quantity, total_quantity, total)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		item.PurchaseOrderID, item.ProductID, item.UnitPrice, item.UnitQuantity, item.TotalQuantity, item.Total).Scan(&id)
	return id, err
}

func (t *txRepo) DeleteItems(ctx context.Context, orderID int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM purchase_order_items WHERE purchase_order_id = $1`, orderID)
	return err
}

func (t *txRepo) LastOrderNumber(ctx context.Context, fyPrefix string) (string, error) {
	var number string
	err := t.tx.QueryRow(ctx, `SELECT order_number FROM purchase_orders WHERE order_number LIKE $1 ORDER BY id DESC LIMIT 1`,
		fyPrefix+"%").Scan(&number)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return number, err
}
