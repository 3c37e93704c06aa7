package billing

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/karobar-erp/karobar-erp/internal/platform/db"

	"github.com/karobar-erp/karobar-erp/internal/stock"
)

// Repository persists bills, items and payments in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the transactional operations used by the service.
// Stock rows are read and written through the same transaction as the bill
// so an aborted invoice leaves no partial stock decrement behind.
type TxRepository interface {
	CreateBill(ctx context.Context, b Bill) (int64, error)
	UpdateBillHeader(ctx context.Context, b Bill) error
	SetTypeAndNumber(ctx context.Context, id int64, t BillType, billNo string) error
	SetTotals(ctx context.Context, id int64, totalAmount, grandTotal float64) error
	InsertItem(ctx context.Context, item BillItem) (int64, error)
	DeleteItems(ctx context.Context, billID int64) error
	InsertPayment(ctx context.Context, p Payment) (int64, error)
	SumPayments(ctx context.Context, billID int64) (float64, error)
	SetPaymentStatus(ctx context.Context, billID int64, status PaymentStatus) error
	LastBillNo(ctx context.Context, t BillType) (string, error)
	GetStockForUpdate(ctx context.Context, productID int64) (stock.Stock, error)
	UpdateStock(ctx context.Context, s stock.Stock) error
	DeletePayments(ctx context.Context, billID int64) error
	DeleteBill(ctx context.Context, id int64) error
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

const billColumns = `id, bill_no, type, customer_id, branch_id, total_amount, discount_amount, tax_amount,
grand_total, payment_status, status, remarks, created_by, created_at, updated_at, deleted_at`

func scanBill(row pgx.Row) (Bill, error) {
	var b Bill
	err := row.Scan(&b.ID, &b.BillNo, &b.Type, &b.CustomerID, &b.BranchID, &b.TotalAmount, &b.DiscountAmount,
		&b.TaxAmount, &b.GrandTotal, &b.PaymentStatus, &b.Status, &b.Remarks, &b.CreatedBy,
		&b.CreatedAt, &b.UpdatedAt, &b.DeletedAt)
	return b, err
}

// Get returns a bill with its items and payments. Soft-deleted bills are
// returned too; callers filter on DeletedAt where it matters.
func (r *Repository) Get(ctx context.Context, id int64) (*Bill, error) {
	b, err := scanBill(r.pool.QueryRow(ctx, `SELECT `+billColumns+` FROM bills WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	itemRows, err := r.pool.Query(ctx, `SELECT id, bill_id, product_id, quantity, unit_price, discount_percent, tax_percent, line_total
FROM bill_items WHERE bill_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var it BillItem
		if err := itemRows.Scan(&it.ID, &it.BillID, &it.ProductID, &it.Quantity, &it.UnitPrice,
			&it.DiscountPercent, &it.TaxPercent, &it.LineTotal); err != nil {
			return nil, err
		}
		b.Items = append(b.Items, it)
	}
	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	payRows, err := r.pool.Query(ctx, `SELECT id, bill_id, payment_mode, amount_paid, transaction_id, payment_date, created_at
FROM payments WHERE bill_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer payRows.Close()
	for payRows.Next() {
		var p Payment
		if err := payRows.Scan(&p.ID, &p.BillID, &p.PaymentMode, &p.AmountPaid, &p.TransactionID,
			&p.PaymentDate, &p.CreatedAt); err != nil {
			return nil, err
		}
		b.Payments = append(b.Payments, p)
	}
	if err := payRows.Err(); err != nil {
		return nil, err
	}
	return &b, nil
}

// ListFilter narrows the bill listing.
type ListFilter struct {
	Type       BillType
	CustomerID int64
	Deleted    bool
}

// List returns bill headers, newest first. Soft-deleted bills are excluded
// unless Deleted is set.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bills WHERE 1=1`
	args := []any{}
	if filter.Deleted {
		query += ` AND deleted_at IS NOT NULL`
	} else {
		query += ` AND deleted_at IS NULL`
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		query += ` AND type = $` + strconv.Itoa(len(args))
	}
	if filter.CustomerID > 0 {
		args = append(args, filter.CustomerID)
		query += ` AND customer_id = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var bills []Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		bills = append(bills, b)
	}
	return bills, rows.Err()
}

// SoftDelete stamps deleted_at; the row and its children survive.
func (r *Repository) SoftDelete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE bills SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Restore clears deleted_at.
func (r *Repository) Restore(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE bills SET deleted_at = NULL, updated_at = NOW() WHERE id = $1 AND deleted_at IS NOT NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// LastBillNo returns the bill number of the most recently created bill of
// the given type, or "" if none exists.
func (r *Repository) LastBillNo(ctx context.Context, t BillType) (string, error) {
	var billNo string
	err := r.pool.QueryRow(ctx, `SELECT bill_no FROM bills WHERE type = $1 ORDER BY id DESC LIMIT 1`, t).Scan(&billNo)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return billNo, err
}

func (t *txRepo) CreateBill(ctx context.Context, b Bill) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO bills (bill_no, type, customer_id, branch_id, total_amount, discount_amount, tax_amount,
grand_total, payment_status, status, remarks, created_by, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,NOW(),NOW()) RETURNING id`,
		b.BillNo, b.Type, b.CustomerID, b.BranchID, b.TotalAmount, b.DiscountAmount, b.TaxAmount,
		b.GrandTotal, b.PaymentStatus, b.Status, b.Remarks, b.CreatedBy).Scan(&id)
	return id, err
}

func (t *txRepo) UpdateBillHeader(ctx context.Context, b Bill) error {
	_, err := t.tx.Exec(ctx, `UPDATE bills SET type=$2, customer_id=$3, branch_id=$4, remarks=$5, updated_at=NOW() WHERE id=$1`,
		b.ID, b.Type, b.CustomerID, b.BranchID, b.Remarks)
	return err
}

func (t *txRepo) SetTypeAndNumber(ctx context.Context, id int64, bt BillType, billNo string) error {
	_, err := t.tx.Exec(ctx, `UPDATE bills SET type=$2, bill_no=$3, updated_at=NOW() WHERE id=$1`, id, bt, billNo)
	return err
}

func (t *txRepo) SetTotals(ctx context.Context, id int64, totalAmount, grandTotal float64) error {
	_, err := t.tx.Exec(ctx, `UPDATE bills SET total_amount=$2, grand_total=$3, updated_at=NOW() WHERE id=$1`, id, totalAmount, grandTotal)
	return err
}

func (t *txRepo) InsertItem(ctx context.Context, item BillItem) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO bill_items (bill_id, product_id, quantity, unit_price, discount_percent, tax_percent, line_total)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`,
		item.BillID, item.ProductID, item.Quantity, item.UnitPrice, item.DiscountPercent, item.TaxPercent, item.LineTotal).Scan(&id)
	return id, err
}

func (t *txRepo) DeleteItems(ctx context.Context, billID int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM bill_items WHERE bill_id = $1`, billID)
	return err
}

func (t *txRepo) InsertPayment(ctx context.Context, p Payment) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO payments (bill_id, payment_mode, amount_paid, transaction_id, payment_date, created_at)
VALUES ($1,$2,$3,$4,$5,NOW()) RETURNING id`,
		p.BillID, p.PaymentMode, p.AmountPaid, p.TransactionID, p.PaymentDate).Scan(&id)
	return id, err
}

func (t *txRepo) SumPayments(ctx context.Context, billID int64) (float64, error) {
	var total float64
	err := t.tx.QueryRow(ctx, `SELECT COALESCE(SUM(amount_paid), 0) FROM payments WHERE bill_id = $1`, billID).Scan(&total)
	return total, err
}

func (t *txRepo) SetPaymentStatus(ctx context.Context, billID int64, status PaymentStatus) error {
	_, err := t.tx.Exec(ctx, `UPDATE bills SET payment_status=$2, updated_at=NOW() WHERE id=$1`, billID, status)
	return err
}

func (t *txRepo) LastBillNo(ctx context.Context, bt BillType) (string, error) {
	var billNo string
	err := t.tx.QueryRow(ctx, `SELECT bill_no FROM bills WHERE type = $1 ORDER BY id DESC LIMIT 1`, bt).Scan(&billNo)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return billNo, err
}

func (t *txRepo) GetStockForUpdate(ctx context.Context, productID int64) (stock.Stock, error) {
	var s stock.Stock
	err := t.tx.QueryRow(ctx, `SELECT id, product_id, opening_stock, purchased_qty, sold_qty, current_stock, created_at, updated_at
FROM stocks WHERE product_id = $1 FOR UPDATE`, productID).
		Scan(&s.ID, &s.ProductID, &s.OpeningStock, &s.PurchasedQty, &s.SoldQty, &s.CurrentStock, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return stock.Stock{ProductID: productID}, stock.ErrNotFound
	}
	return s, err
}

func (t *txRepo) UpdateStock(ctx context.Context, s stock.Stock) error {
	_, err := t.tx.Exec(ctx, `UPDATE stocks SET purchased_qty=$2, sold_qty=$3, current_stock=$4, updated_at=NOW() WHERE id=$1`,
		s.ID, s.PurchasedQty, s.SoldQty, s.CurrentStock)
	return err
}

func (t *txRepo) DeletePayments(ctx context.Context, billID int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM payments WHERE bill_id = $1`, billID)
	return err
}

func (t *txRepo) DeleteBill(ctx context.Context, id int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM bills WHERE id = $1`, id)
	return err
}
