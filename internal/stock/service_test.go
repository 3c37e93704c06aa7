package stock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryStockRepo struct {
	byID        map[int64]Stock
	byProduct   map[int64]int64
	nextStockID int64
}

func newMemoryStockRepo() *memoryStockRepo {
	return &memoryStockRepo{byID: make(map[int64]Stock), byProduct: make(map[int64]int64)}
}

func (r *memoryStockRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, r)
}

func (r *memoryStockRepo) Get(ctx context.Context, id int64) (Stock, error) {
	s, ok := r.byID[id]
	if !ok {
		return Stock{}, ErrNotFound
	}
	return s, nil
}

func (r *memoryStockRepo) GetByProduct(ctx context.Context, productID int64) (Stock, error) {
	id, ok := r.byProduct[productID]
	if !ok {
		return Stock{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *memoryStockRepo) GetByProductForUpdate(ctx context.Context, productID int64) (Stock, error) {
	s, err := r.GetByProduct(ctx, productID)
	if err != nil {
		return Stock{ProductID: productID}, err
	}
	return s, nil
}

func (r *memoryStockRepo) List(ctx context.Context) ([]Stock, error) {
	var out []Stock
	for _, s := range r.byID {
		out = append(out, s)
	}
	return out, nil
}

func (r *memoryStockRepo) Create(ctx context.Context, s Stock) (Stock, error) {
	r.nextStockID++
	s.ID = r.nextStockID
	s.Recompute()
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	r.byID[s.ID] = s
	r.byProduct[s.ProductID] = s.ID
	return s, nil
}

func (r *memoryStockRepo) Update(ctx context.Context, s Stock) (Stock, error) {
	if _, ok := r.byID[s.ID]; !ok {
		return Stock{}, ErrNotFound
	}
	s.Recompute()
	r.byID[s.ID] = s
	return s, nil
}

func (r *memoryStockRepo) Upsert(ctx context.Context, s Stock) (Stock, error) {
	if s.ID == 0 {
		if id, ok := r.byProduct[s.ProductID]; ok {
			s.ID = id
		} else {
			return r.Create(ctx, s)
		}
	}
	return r.Update(ctx, s)
}

func TestCreateRecomputesCurrent(t *testing.T) {
	svc := NewService(newMemoryStockRepo())
	s, err := svc.Create(context.Background(), CreateInput{ProductID: 1, OpeningStock: 10, PurchasedQty: 5, SoldQty: 3})
	require.NoError(t, err)
	require.Equal(t, 12.0, s.CurrentStock)
}

func TestCreateRejectsNegativeCounters(t *testing.T) {
	svc := NewService(newMemoryStockRepo())
	_, err := svc.Create(context.Background(), CreateInput{ProductID: 1, OpeningStock: -1})
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestCreditExistingRow(t *testing.T) {
	repo := newMemoryStockRepo()
	svc := NewService(repo)
	_, err := svc.Create(context.Background(), CreateInput{ProductID: 4, OpeningStock: 10})
	require.NoError(t, err)

	s, err := svc.Credit(context.Background(), CreditInput{ProductID: 4, Qty: 7, Ref: "po-1"})
	require.NoError(t, err)
	require.Equal(t, 7.0, s.PurchasedQty)
	require.Equal(t, 17.0, s.CurrentStock)
}

func TestCreditCreatesMissingRow(t *testing.T) {
	svc := NewService(newMemoryStockRepo())
	s, err := svc.Credit(context.Background(), CreditInput{ProductID: 9, Qty: 3, Ref: "po-2"})
	require.NoError(t, err)
	require.Equal(t, 0.0, s.OpeningStock)
	require.Equal(t, 3.0, s.PurchasedQty)
	require.Equal(t, 3.0, s.CurrentStock)
}

func TestCreditRejectsNonPositiveQty(t *testing.T) {
	svc := NewService(newMemoryStockRepo())
	_, err := svc.Credit(context.Background(), CreditInput{ProductID: 1, Qty: 0})
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestUpdatePatchesAndRecomputes(t *testing.T) {
	repo := newMemoryStockRepo()
	svc := NewService(repo)
	created, err := svc.Create(context.Background(), CreateInput{ProductID: 2, OpeningStock: 100})
	require.NoError(t, err)

	sold := 30.0
	updated, err := svc.Update(context.Background(), created.ID, UpdateInput{SoldQty: &sold})
	require.NoError(t, err)
	require.Equal(t, 70.0, updated.CurrentStock)
	require.Equal(t, 100.0, updated.OpeningStock)
}

func TestUpdateRejectsNegativeCounters(t *testing.T) {
	repo := newMemoryStockRepo()
	svc := NewService(repo)
	created, err := svc.Create(context.Background(), CreateInput{ProductID: 2, OpeningStock: 100})
	require.NoError(t, err)

	bad := -5.0
	_, err = svc.Update(context.Background(), created.ID, UpdateInput{SoldQty: &bad})
	require.ErrorIs(t, err, ErrInvalidQuantity)
}
