package accounts

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads the rollup inputs and persists account snapshots.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListInvoiceSummaries returns every live invoice with its payment sum.
// Soft-deleted bills are excluded so deleting an invoice eventually clears
// its account on the next rollup.
func (r *Repository) ListInvoiceSummaries(ctx context.Context) ([]InvoiceSummary, error) {
	rows, err := r.pool.Query(ctx, `SELECT b.id, b.customer_id, b.branch_id, b.grand_total,
COALESCE(SUM(p.amount_paid), 0), b.created_at
FROM bills b
LEFT JOIN payments p ON p.bill_id = b.id
WHERE b.type = 'invoice' AND b.deleted_at IS NULL
GROUP BY b.id
ORDER BY b.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []InvoiceSummary
	for rows.Next() {
		var s InvoiceSummary
		if err := rows.Scan(&s.BillID, &s.CustomerID, &s.BranchID, &s.GrandTotal, &s.AmountPaid, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListAccounts returns all account snapshots.
func (r *Repository) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, customer_id, branch_id, total_billed, total_paid, due_amount, status, last_bill_id, updated_at
FROM accounts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.CustomerID, &a.BranchID, &a.TotalBilled, &a.TotalPaid,
			&a.DueAmount, &a.Status, &a.LastBillID, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpsertAccount writes one snapshot keyed by its customer or branch. The
// partial unique indexes on (customer_id) and (branch_id) back the two
// conflict targets.
func (r *Repository) UpsertAccount(ctx context.Context, a Account) error {
	if a.CustomerID != nil {
		_, err := r.pool.Exec(ctx, `INSERT INTO accounts (customer_id, total_billed, total_paid, due_amount, status, last_bill_id, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,NOW())
ON CONFLICT (customer_id) WHERE customer_id IS NOT NULL
DO UPDATE SET total_billed=EXCLUDED.total_billed, total_paid=EXCLUDED.total_paid,
due_amount=EXCLUDED.due_amount, status=EXCLUDED.status, last_bill_id=EXCLUDED.last_bill_id, updated_at=NOW()`,
			a.CustomerID, a.TotalBilled, a.TotalPaid, a.DueAmount, a.Status, a.LastBillID)
		return err
	}
	_, err := r.pool.Exec(ctx, `INSERT INTO accounts (branch_id, total_billed, total_paid, due_amount, status, last_bill_id, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,NOW())
ON CONFLICT (branch_id) WHERE branch_id IS NOT NULL
DO UPDATE SET total_billed=EXCLUDED.total_billed, total_paid=EXCLUDED.total_paid,
due_amount=EXCLUDED.due_amount, status=EXCLUDED.status, last_bill_id=EXCLUDED.last_bill_id, updated_at=NOW()`,
		a.BranchID, a.TotalBilled, a.TotalPaid, a.DueAmount, a.Status, a.LastBillID)
	return err
}
