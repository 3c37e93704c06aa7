package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/karobar-erp/karobar-erp/internal/stock"
)

// RepositoryPort is what the service needs from persistence.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (*Bill, error)
	List(ctx context.Context, filter ListFilter) ([]Bill, error)
	SoftDelete(ctx context.Context, id int64) error
	Restore(ctx context.Context, id int64) error
}

// Service implements the billing engine.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// ItemInput is one requested line item.
type ItemInput struct {
	ProductID       int64
	Quantity        float64
	UnitPrice       float64
	DiscountPercent float64
	TaxPercent      float64
}

// CreateInput creates a quotation or invoice.
type CreateInput struct {
	Type       BillType
	CustomerID *int64
	BranchID   *int64
	Remarks    string
	CreatedBy  int64
	Items      []ItemInput
}

// UpdateInput mutates a bill. A non-nil Items slice replaces every existing
// line item; nil leaves them untouched. Type is a plain field patch: it does
// not renumber the bill or move stock the way a conversion does.
type UpdateInput struct {
	Type       *BillType
	CustomerID *int64
	BranchID   *int64
	Remarks    *string
	Items      []ItemInput
}

// PaymentInput records a payment against an invoice.
type PaymentInput struct {
	PaymentMode   PaymentMode
	AmountPaid    float64
	TransactionID *string
	PaymentDate   time.Time
}

// buildItems prices the requested lines and returns them with the header
// totals. Header discount and tax stay zero: per-line amounts are already
// folded into lineTotal.
func buildItems(billID int64, inputs []ItemInput) ([]BillItem, float64, float64) {
	items := make([]BillItem, 0, len(inputs))
	gross := decimal.Zero
	grand := decimal.Zero
	for _, in := range inputs {
		_, _, lineTotal := CalculateLineTotals(in.Quantity, in.UnitPrice, in.DiscountPercent, in.TaxPercent)
		items = append(items, BillItem{
			BillID:          billID,
			ProductID:       in.ProductID,
			Quantity:        in.Quantity,
			UnitPrice:       in.UnitPrice,
			DiscountPercent: in.DiscountPercent,
			TaxPercent:      in.TaxPercent,
			LineTotal:       lineTotal,
		})
		gross = gross.Add(decimal.NewFromFloat(in.Quantity).Mul(decimal.NewFromFloat(in.UnitPrice)))
		grand = grand.Add(decimal.NewFromFloat(lineTotal))
	}
	return items, gross.Round(2).InexactFloat64(), grand.InexactFloat64()
}

// deductStock decrements sold counters for every item inside the bill's
// transaction. Any shortfall aborts the whole transaction, so a failed
// invoice leaves neither bill rows nor stock changes behind.
func deductStock(ctx context.Context, tx TxRepository, items []BillItem) error {
	for _, it := range items {
		s, err := tx.GetStockForUpdate(ctx, it.ProductID)
		if err != nil {
			if errors.Is(err, stock.ErrNotFound) {
				return fmt.Errorf("product %d: %w", it.ProductID, stock.ErrInsufficientStock)
			}
			return err
		}
		s.SoldQty += it.Quantity
		s.Recompute()
		if s.CurrentStock < 0 {
			return fmt.Errorf("product %d: %w", it.ProductID, stock.ErrInsufficientStock)
		}
		if err := tx.UpdateStock(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// Create creates a bill. Invoices deduct stock in the same transaction as
// the bill insert; quotations never touch stock.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Bill, error) {
	if len(in.Items) == 0 {
		return nil, ErrEmptyItems
	}
	if in.Type != BillTypeQuotation && in.Type != BillTypeInvoice {
		in.Type = BillTypeInvoice
	}

	var billID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		last, err := tx.LastBillNo(ctx, in.Type)
		if err != nil {
			return err
		}
		items, total, grand := buildItems(0, in.Items)
		id, err := tx.CreateBill(ctx, Bill{
			BillNo:        nextSequence(billPrefix(in.Type), last),
			Type:          in.Type,
			CustomerID:    in.CustomerID,
			BranchID:      in.BranchID,
			TotalAmount:   total,
			GrandTotal:    grand,
			PaymentStatus: PaymentStatusUnpaid,
			Status:        BillStatusActive,
			Remarks:       in.Remarks,
			CreatedBy:     in.CreatedBy,
		})
		if err != nil {
			return err
		}
		for i := range items {
			items[i].BillID = id
			if _, err := tx.InsertItem(ctx, items[i]); err != nil {
				return err
			}
		}
		if in.Type == BillTypeInvoice {
			if err := deductStock(ctx, tx, items); err != nil {
				return err
			}
		}
		billID = id
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "bill created", "bill_id", billID, "type", in.Type)
	return s.repo.Get(ctx, billID)
}

// Update rewrites a bill's header and, when Items is non-nil, replaces all
// line items and recomputes totals. Stock is not reconciled against the old
// item list; invoice edits leave the original deductions in place.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*Bill, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.DeletedAt != nil {
		return nil, ErrNotFound
	}
	if in.Items != nil && len(in.Items) == 0 {
		return nil, ErrEmptyItems
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		header := *existing
		if in.Type != nil {
			header.Type = *in.Type
		}
		if in.CustomerID != nil {
			header.CustomerID = in.CustomerID
		}
		if in.BranchID != nil {
			header.BranchID = in.BranchID
		}
		if in.Remarks != nil {
			header.Remarks = *in.Remarks
		}
		if err := tx.UpdateBillHeader(ctx, header); err != nil {
			return err
		}
		if in.Items == nil {
			return nil
		}
		if err := tx.DeleteItems(ctx, id); err != nil {
			return err
		}
		items, total, grand := buildItems(id, in.Items)
		for _, it := range items {
			if _, err := tx.InsertItem(ctx, it); err != nil {
				return err
			}
		}
		return tx.SetTotals(ctx, id, total, grand)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// ConvertToInvoice promotes a quotation to an invoice. The bill receives a
// fresh number from the invoice sequence and its items deduct stock, all or
// nothing. Conversion is one-way.
func (s *Service) ConvertToInvoice(ctx context.Context, id int64) (*Bill, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.DeletedAt != nil {
		return nil, ErrNotFound
	}
	if existing.Type != BillTypeQuotation {
		return nil, ErrInvalidTransition
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		last, err := tx.LastBillNo(ctx, BillTypeInvoice)
		if err != nil {
			return err
		}
		billNo := nextSequence(billPrefix(BillTypeInvoice), last)
		if err := tx.SetTypeAndNumber(ctx, id, BillTypeInvoice, billNo); err != nil {
			return err
		}
		return deductStock(ctx, tx, existing.Items)
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "quotation converted", "bill_id", id)
	return s.repo.Get(ctx, id)
}

// AddPayment appends a payment to an invoice and recomputes its payment
// status from the full payment sum.
func (s *Service) AddPayment(ctx context.Context, id int64, in PaymentInput) (*Bill, error) {
	if in.AmountPaid <= 0 {
		return nil, ErrInvalidAmount
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.DeletedAt != nil {
		return nil, ErrNotFound
	}
	if existing.Type != BillTypeInvoice {
		return nil, ErrNotInvoice
	}

	if in.PaymentDate.IsZero() {
		in.PaymentDate = time.Now()
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.InsertPayment(ctx, Payment{
			BillID:        id,
			PaymentMode:   in.PaymentMode,
			AmountPaid:    in.AmountPaid,
			TransactionID: in.TransactionID,
			PaymentDate:   in.PaymentDate,
		}); err != nil {
			return err
		}
		paid, err := tx.SumPayments(ctx, id)
		if err != nil {
			return err
		}
		return tx.SetPaymentStatus(ctx, id, paymentStatusFor(paid, existing.GrandTotal))
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// paymentStatusFor derives payment status from the summed payments.
// Overpayment still reads as paid.
func paymentStatusFor(paid, grandTotal float64) PaymentStatus {
	switch {
	case paid <= 0:
		return PaymentStatusUnpaid
	case paid < grandTotal:
		return PaymentStatusPartial
	default:
		return PaymentStatusPaid
	}
}

// Get returns one bill with items and payments.
func (s *Service) Get(ctx context.Context, id int64) (*Bill, error) {
	return s.repo.Get(ctx, id)
}

// List returns bill headers matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Bill, error) {
	return s.repo.List(ctx, filter)
}

// SoftDelete hides a bill from listings. Payments and stock movements made
// by the bill are kept.
func (s *Service) SoftDelete(ctx context.Context, id int64) error {
	return s.repo.SoftDelete(ctx, id)
}

// Restore brings a soft-deleted bill back.
func (s *Service) Restore(ctx context.Context, id int64) error {
	return s.repo.Restore(ctx, id)
}

// HardDelete permanently removes the bill with its items and payments.
// Stock deductions made by the bill are not reversed.
func (s *Service) HardDelete(ctx context.Context, id int64) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.DeleteItems(ctx, id); err != nil {
			return err
		}
		if err := tx.DeletePayments(ctx, id); err != nil {
			return err
		}
		return tx.DeleteBill(ctx, id)
	})
	if err == nil {
		s.logger.InfoContext(ctx, "bill hard-deleted", "bill_id", id)
	}
	return err
}
