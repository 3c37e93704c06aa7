package billing

import (
	"errors"
	"time"
)

// BillType distinguishes quotations from invoices. Only invoices touch
// stock and accept payments.
type BillType string

const (
	BillTypeQuotation BillType = "quotation"
	BillTypeInvoice   BillType = "invoice"
)

// PaymentStatus summarises payments received against an invoice.
type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "unpaid"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// BillStatus is the document lifecycle status.
type BillStatus string

const (
	BillStatusActive    BillStatus = "active"
	BillStatusCancelled BillStatus = "cancelled"
)

// PaymentMode enumerates accepted payment channels.
type PaymentMode string

const (
	PaymentModeCash PaymentMode = "cash"
	PaymentModeUPI  PaymentMode = "upi"
	PaymentModeCard PaymentMode = "card"
	PaymentModeBank PaymentMode = "bank"
)

// Bill is a quotation or invoice document. grandTotal always equals the sum
// of its items' lineTotal after any mutating operation.
type Bill struct {
	ID             int64         `json:"id"`
	BillNo         string        `json:"bill_no"`
	Type           BillType      `json:"type"`
	CustomerID     *int64        `json:"customer_id,omitempty"`
	BranchID       *int64        `json:"branch_id,omitempty"`
	TotalAmount    float64       `json:"total_amount"`
	DiscountAmount float64       `json:"discount_amount"`
	TaxAmount      float64       `json:"tax_amount"`
	GrandTotal     float64       `json:"grand_total"`
	PaymentStatus  PaymentStatus `json:"payment_status"`
	Status         BillStatus    `json:"status"`
	Remarks        string        `json:"remarks,omitempty"`
	CreatedBy      int64         `json:"created_by"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
	DeletedAt      *time.Time    `json:"deleted_at,omitempty"`
	Items          []BillItem    `json:"items,omitempty"`
	Payments       []Payment     `json:"payments,omitempty"`
}

// BillItem is owned exclusively by its Bill and replaced wholesale on
// updates that carry a new item list.
type BillItem struct {
	ID              int64   `json:"id"`
	BillID          int64   `json:"bill_id"`
	ProductID       int64   `json:"product_id"`
	Quantity        float64 `json:"quantity"`
	UnitPrice       float64 `json:"unit_price"`
	DiscountPercent float64 `json:"discount_percent"`
	TaxPercent      float64 `json:"tax_percent"`
	LineTotal       float64 `json:"line_total"`
}

// Payment is append-only: rows are never mutated or replaced once created.
type Payment struct {
	ID            int64       `json:"id"`
	BillID        int64       `json:"bill_id"`
	PaymentMode   PaymentMode `json:"payment_mode"`
	AmountPaid    float64     `json:"amount_paid"`
	TransactionID *string     `json:"transaction_id,omitempty"`
	PaymentDate   time.Time   `json:"payment_date"`
	CreatedAt     time.Time   `json:"created_at"`
}

var (
	// ErrNotFound indicates a missing bill.
	ErrNotFound = errors.New("billing: bill not found")
	// ErrEmptyItems indicates a bill carrying no line items.
	ErrEmptyItems = errors.New("billing: at least one item required")
	// ErrInvalidTransition occurs when converting a non-quotation.
	ErrInvalidTransition = errors.New("billing: invalid state transition")
	// ErrNotInvoice occurs when recording a payment against a non-invoice.
	ErrNotInvoice = errors.New("billing: payments require an invoice")
	// ErrInvalidAmount indicates a non-positive payment amount.
	ErrInvalidAmount = errors.New("billing: amount must be positive")
)
