package stock

import (
	"context"
	"errors"
	"fmt"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (Stock, error)
	GetByProduct(ctx context.Context, productID int64) (Stock, error)
	List(ctx context.Context) ([]Stock, error)
	Create(ctx context.Context, s Stock) (Stock, error)
	Update(ctx context.Context, s Stock) (Stock, error)
}

// Service coordinates stock counter operations.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// CreditInput identifies a purchase receipt credit. Ref is an opaque
// reference used only for logging by callers.
type CreditInput struct {
	ProductID int64
	Qty       float64
	Ref       string
}

// Credit increments purchasedQty, creating the stock row if the product has
// never been stocked. The transactional read-then-write keeps concurrent
// credits from losing updates.
func (s *Service) Credit(ctx context.Context, input CreditInput) (Stock, error) {
	if input.ProductID == 0 {
		return Stock{}, errors.New("stock: product required")
	}
	if input.Qty <= 0 {
		return Stock{}, ErrInvalidQuantity
	}
	var result Stock
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetByProductForUpdate(ctx, input.ProductID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		current.PurchasedQty += input.Qty
		current.Recompute()
		result, err = tx.Upsert(ctx, current)
		return err
	})
	if err != nil {
		return Stock{}, err
	}
	return result, nil
}

// CreateInput seeds a product's counters.
type CreateInput struct {
	ProductID    int64
	OpeningStock float64
	PurchasedQty float64
	SoldQty      float64
}

// Create inserts a stock row for a product.
func (s *Service) Create(ctx context.Context, input CreateInput) (Stock, error) {
	if input.ProductID == 0 {
		return Stock{}, errors.New("stock: product required")
	}
	if input.OpeningStock < 0 || input.PurchasedQty < 0 || input.SoldQty < 0 {
		return Stock{}, fmt.Errorf("%w: counters must be non-negative", ErrInvalidQuantity)
	}
	return s.repo.Create(ctx, Stock{
		ProductID:    input.ProductID,
		OpeningStock: input.OpeningStock,
		PurchasedQty: input.PurchasedQty,
		SoldQty:      input.SoldQty,
	})
}

// UpdateInput patches counters of an existing row.
type UpdateInput struct {
	OpeningStock *float64
	PurchasedQty *float64
	SoldQty      *float64
}

// Update applies a partial counter update and recomputes currentStock.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (Stock, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return Stock{}, err
	}
	if input.OpeningStock != nil {
		existing.OpeningStock = *input.OpeningStock
	}
	if input.PurchasedQty != nil {
		existing.PurchasedQty = *input.PurchasedQty
	}
	if input.SoldQty != nil {
		existing.SoldQty = *input.SoldQty
	}
	if existing.OpeningStock < 0 || existing.PurchasedQty < 0 || existing.SoldQty < 0 {
		return Stock{}, fmt.Errorf("%w: counters must be non-negative", ErrInvalidQuantity)
	}
	return s.repo.Update(ctx, existing)
}

// Get returns one stock row by ID.
func (s *Service) Get(ctx context.Context, id int64) (Stock, error) {
	return s.repo.Get(ctx, id)
}

// GetByProduct returns the stock row for a product.
func (s *Service) GetByProduct(ctx context.Context, productID int64) (Stock, error) {
	return s.repo.GetByProduct(ctx, productID)
}

// List returns all stock rows.
func (s *Service) List(ctx context.Context) ([]Stock, error) {
	return s.repo.List(ctx)
}
