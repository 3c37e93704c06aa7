package accounts

import (
	"errors"
	"time"
)

// AccountStatus reflects whether the grouped invoices carry an outstanding
// balance.
type AccountStatus string

const (
	AccountStatusDue   AccountStatus = "due"
	AccountStatusClear AccountStatus = "clear"
)

// Account is a denormalized receivables snapshot per customer or branch.
// It is a cache over bills and payments, never authoritative: the rollup
// job rebuilds every row from scratch.
type Account struct {
	ID          int64         `json:"id"`
	CustomerID  *int64        `json:"customer_id,omitempty"`
	BranchID    *int64        `json:"branch_id,omitempty"`
	TotalBilled float64       `json:"total_billed"`
	TotalPaid   float64       `json:"total_paid"`
	DueAmount   float64       `json:"due_amount"`
	Status      AccountStatus `json:"status"`
	LastBillID  *int64        `json:"last_bill_id,omitempty"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// InvoiceSummary is the rollup's read model: one invoice with its summed
// payments.
type InvoiceSummary struct {
	BillID     int64
	CustomerID *int64
	BranchID   *int64
	GrandTotal float64
	AmountPaid float64
	CreatedAt  time.Time
}

// ErrNotFound indicates a missing account row.
var ErrNotFound = errors.New("accounts: not found")
