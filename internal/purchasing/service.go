package purchasing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/karobar-erp/karobar-erp/internal/stock"
)

// receiptNamespace seeds deterministic credit references so a receipt for
// the same order and product always carries the same ref in logs.
var receiptNamespace = uuid.MustParse("8c5a1f76-0c44-4bb4-9f0f-2a4b6f6d9e01")

// RepositoryPort is what the service needs from persistence.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (*PurchaseOrder, error)
	List(ctx context.Context, filter ListFilter) ([]PurchaseOrder, error)
	LastOrderNumber(ctx context.Context, fyPrefix string) (string, error)
}

// StockCrediter credits received quantities into the stock ledger.
type StockCrediter interface {
	Credit(ctx context.Context, input stock.CreditInput) (stock.Stock, error)
}

// Service implements purchase order management and receiving.
type Service struct {
	repo   RepositoryPort
	stock  StockCrediter
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs a Service.
func NewService(repo RepositoryPort, stockSvc StockCrediter, logger *slog.Logger) *Service {
	return &Service{repo: repo, stock: stockSvc, logger: logger, now: time.Now}
}

// ItemInput is one requested order line.
type ItemInput struct {
	ProductID     int64
	UnitPrice     float64
	UnitQuantity  float64
	TotalQuantity *float64
}

// CreateInput creates a purchase order.
type CreateInput struct {
	SupplierID        int64
	AddressID         *int64
	ShippingAddressID *int64
	Notes             string
	CreatedBy         int64
	Items             []ItemInput
}

// UpdateInput mutates an order. A non-nil Items slice replaces every
// existing line; a non-empty Status requests a transition.
type UpdateInput struct {
	SupplierID        *int64
	AddressID         *int64
	ShippingAddressID *int64
	Notes             *string
	Status            POStatus
	Items             []ItemInput
}

func buildItems(orderID int64, inputs []ItemInput) []POItem {
	items := make([]POItem, 0, len(inputs))
	for _, in := range inputs {
		total := decimal.NewFromFloat(in.UnitQuantity).Mul(decimal.NewFromFloat(in.UnitPrice)).Round(2).InexactFloat64()
		items = append(items, POItem{
			PurchaseOrderID: orderID,
			ProductID:       in.ProductID,
			UnitPrice:       in.UnitPrice,
			UnitQuantity:    in.UnitQuantity,
			TotalQuantity:   in.TotalQuantity,
			Total:           total,
		})
	}
	return items
}

// NextOrderNumber previews the order number the next create would allocate
// for the current financial year. Nothing is persisted; a create racing the
// preview can still take the number.
func (s *Service) NextOrderNumber(ctx context.Context) (string, error) {
	fy := FinancialYear(s.now())
	last, err := s.repo.LastOrderNumber(ctx, orderPrefix(fy))
	if err != nil {
		return "", err
	}
	return nextOrderNumber(fy, last), nil
}

// Create persists an order with its items. Status starts pending and stock
// is untouched until receipt.
func (s *Service) Create(ctx context.Context, in CreateInput) (*PurchaseOrder, error) {
	if len(in.Items) == 0 {
		return nil, ErrEmptyItems
	}
	fy := FinancialYear(s.now())

	var orderID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		last, err := tx.LastOrderNumber(ctx, orderPrefix(fy))
		if err != nil {
			return err
		}
		id, err := tx.CreateOrder(ctx, PurchaseOrder{
			OrderNumber:       nextOrderNumber(fy, last),
			SupplierID:        in.SupplierID,
			AddressID:         in.AddressID,
			ShippingAddressID: in.ShippingAddressID,
			Status:            POStatusPending,
			Notes:             in.Notes,
			CreatedBy:         in.CreatedBy,
		})
		if err != nil {
			return err
		}
		for _, it := range buildItems(id, in.Items) {
			if _, err := tx.InsertItem(ctx, it); err != nil {
				return err
			}
		}
		orderID = id
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "purchase order created", "po_id", orderID, "supplier_id", in.SupplierID)
	return s.repo.Get(ctx, orderID)
}

// Update patches an order. Items, when present, are replaced wholesale in
// the same transaction as the header. The pending-to-received transition
// additionally credits stock, see receiveStock; repeating status=received
// on an already received order changes nothing.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*PurchaseOrder, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Status == POStatusPending && existing.Status == POStatusReceived {
		return nil, ErrInvalidTransition
	}
	if in.Items != nil && len(in.Items) == 0 {
		return nil, ErrEmptyItems
	}
	receiving := in.Status == POStatusReceived && existing.Status != POStatusReceived

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		header := *existing
		if in.SupplierID != nil {
			header.SupplierID = *in.SupplierID
		}
		if in.AddressID != nil {
			header.AddressID = in.AddressID
		}
		if in.ShippingAddressID != nil {
			header.ShippingAddressID = in.ShippingAddressID
		}
		if in.Notes != nil {
			header.Notes = *in.Notes
		}
		if err := tx.UpdateOrderHeader(ctx, header); err != nil {
			return err
		}
		if in.Items != nil {
			if err := tx.DeleteItems(ctx, id); err != nil {
				return err
			}
			for _, it := range buildItems(id, in.Items) {
				if _, err := tx.InsertItem(ctx, it); err != nil {
					return err
				}
			}
		}
		if receiving {
			return tx.SetStatus(ctx, id, POStatusReceived)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Items are re-read after the replacement so receipt credits whatever
	// the order holds now, not the pre-update list.
	updated, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if receiving {
		s.receiveStock(ctx, updated)
	}
	return updated, nil
}

// receiveStock credits each item's quantity into the ledger. Each product
// is independent: a failed credit is logged and skipped so one bad product
// cannot abort the receipt of the rest.
func (s *Service) receiveStock(ctx context.Context, po *PurchaseOrder) {
	for _, it := range po.Items {
		qty := it.ReceiveQuantity()
		if qty <= 0 {
			continue
		}
		ref := uuid.NewSHA1(receiptNamespace, []byte(fmt.Sprintf("po:%d:product:%d", po.ID, it.ProductID))).String()
		if _, err := s.stock.Credit(ctx, stock.CreditInput{ProductID: it.ProductID, Qty: qty, Ref: ref}); err != nil {
			s.logger.ErrorContext(ctx, "stock credit failed, skipping item",
				"po_id", po.ID, "product_id", it.ProductID, "qty", qty, "ref", ref, "error", err)
			continue
		}
		s.logger.InfoContext(ctx, "stock credited",
			"po_id", po.ID, "product_id", it.ProductID, "qty", qty, "ref", ref)
	}
}

// Get returns one order with its items.
func (s *Service) Get(ctx context.Context, id int64) (*PurchaseOrder, error) {
	return s.repo.Get(ctx, id)
}

// List returns order headers matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]PurchaseOrder, error) {
	return s.repo.List(ctx, filter)
}
