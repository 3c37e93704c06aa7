package purchasing

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/karobar-erp/karobar-erp/internal/stock"
)

type memoryPORepo struct {
	orders map[int64]*PurchaseOrder
	items  map[int64][]POItem

	nextOrderID int64
	nextItemID  int64
}

func newMemoryPORepo() *memoryPORepo {
	return &memoryPORepo{
		orders: make(map[int64]*PurchaseOrder),
		items:  make(map[int64][]POItem),
	}
}

func (r *memoryPORepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, r)
}

func (r *memoryPORepo) Get(ctx context.Context, id int64) (*PurchaseOrder, error) {
	po, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *po
	out.Items = append([]POItem(nil), r.items[id]...)
	return &out, nil
}

func (r *memoryPORepo) List(ctx context.Context, filter ListFilter) ([]PurchaseOrder, error) {
	var out []PurchaseOrder
	for _, po := range r.orders {
		if filter.Status != "" && po.Status != filter.Status {
			continue
		}
		if filter.SupplierID > 0 && po.SupplierID != filter.SupplierID {
			continue
		}
		out = append(out, *po)
	}
	return out, nil
}

func (r *memoryPORepo) LastOrderNumber(ctx context.Context, fyPrefix string) (string, error) {
	var last string
	var lastID int64
	for _, po := range r.orders {
		if strings.HasPrefix(po.OrderNumber, fyPrefix) && po.ID > lastID {
			last, lastID = po.OrderNumber, po.ID
		}
	}
	return last, nil
}

func (r *memoryPORepo) CreateOrder(ctx context.Context, po PurchaseOrder) (int64, error) {
	r.nextOrderID++
	po.ID = r.nextOrderID
	po.CreatedAt = time.Now()
	po.UpdatedAt = po.CreatedAt
	r.orders[po.ID] = &po
	return po.ID, nil
}

func (r *memoryPORepo) UpdateOrderHeader(ctx context.Context, po PurchaseOrder) error {
	cur, ok := r.orders[po.ID]
	if !ok {
		return ErrNotFound
	}
	cur.SupplierID = po.SupplierID
	cur.AddressID = po.AddressID
	cur.ShippingAddressID = po.ShippingAddressID
	cur.Notes = po.Notes
	return nil
}

func (r *memoryPORepo) SetStatus(ctx context.Context, id int64, status POStatus) error {
	po, ok := r.orders[id]
	if !ok {
		return ErrNotFound
	}
	po.Status = status
	if status == POStatusReceived {
		now := time.Now()
		po.ReceivedAt = &now
	}
	return nil
}

func (r *memoryPORepo) InsertItem(ctx context.Context, item POItem) (int64, error) {
	r.nextItemID++
	item.ID = r.nextItemID
	r.items[item.PurchaseOrderID] = append(r.items[item.PurchaseOrderID], item)
	return item.ID, nil
}

func (r *memoryPORepo) DeleteItems(ctx context.Context, orderID int64) error {
	delete(r.items, orderID)
	return nil
}

// memoryCrediter records credits and can be told to fail per product.
type memoryCrediter struct {
	credited map[int64]float64
	failFor  map[int64]bool
	calls    int
}

func newMemoryCrediter() *memoryCrediter {
	return &memoryCrediter{credited: make(map[int64]float64), failFor: make(map[int64]bool)}
}

func (c *memoryCrediter) Credit(ctx context.Context, input stock.CreditInput) (stock.Stock, error) {
	c.calls++
	if c.failFor[input.ProductID] {
		return stock.Stock{}, errors.New("credit failed")
	}
	c.credited[input.ProductID] += input.Qty
	return stock.Stock{ProductID: input.ProductID, PurchasedQty: c.credited[input.ProductID]}, nil
}

func newTestService(repo *memoryPORepo, crediter *memoryCrediter) *Service {
	svc := NewService(repo, crediter, slog.Default())
	svc.now = func() time.Time { return time.Date(2025, time.July, 10, 0, 0, 0, 0, time.UTC) }
	return svc
}

func floatPtr(f float64) *float64 { return &f }

func TestFinancialYear(t *testing.T) {
	require.Equal(t, "25-26", FinancialYear(time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, "25-26", FinancialYear(time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, "24-25", FinancialYear(time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, "99-00", FinancialYear(time.Date(2099, time.June, 1, 0, 0, 0, 0, time.UTC)))
}

func TestNextOrderNumber(t *testing.T) {
	require.Equal(t, "PO/25-26/0001", nextOrderNumber("25-26", ""))
	require.Equal(t, "PO/25-26/0013", nextOrderNumber("25-26", "PO/25-26/0012"))
}

func TestCreateAllocatesFYScopedNumbers(t *testing.T) {
	repo := newMemoryPORepo()
	svc := newTestService(repo, newMemoryCrediter())

	items := []ItemInput{{ProductID: 1, UnitPrice: 10, UnitQuantity: 5}}
	first, err := svc.Create(context.Background(), CreateInput{SupplierID: 1, Items: items})
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), CreateInput{SupplierID: 1, Items: items})
	require.NoError(t, err)

	require.Equal(t, "PO/25-26/0001", first.OrderNumber)
	require.Equal(t, "PO/25-26/0002", second.OrderNumber)
	require.Equal(t, POStatusPending, first.Status)
	require.Equal(t, 50.0, first.Items[0].Total)
}

func TestCreateRejectsEmptyItems(t *testing.T) {
	svc := newTestService(newMemoryPORepo(), newMemoryCrediter())
	_, err := svc.Create(context.Background(), CreateInput{SupplierID: 1})
	require.ErrorIs(t, err, ErrEmptyItems)
}

func TestNextOrderNumberPreviewDoesNotPersist(t *testing.T) {
	repo := newMemoryPORepo()
	svc := newTestService(repo, newMemoryCrediter())

	preview, err := svc.NextOrderNumber(context.Background())
	require.NoError(t, err)
	require.Equal(t, "PO/25-26/0001", preview)
	require.Empty(t, repo.orders)

	po, err := svc.Create(context.Background(), CreateInput{
		SupplierID: 1,
		Items:      []ItemInput{{ProductID: 1, UnitPrice: 1, UnitQuantity: 1}},
	})
	require.NoError(t, err)
	require.Equal(t, preview, po.OrderNumber)
}

func TestReceiveCreditsStockOnce(t *testing.T) {
	repo := newMemoryPORepo()
	crediter := newMemoryCrediter()
	svc := newTestService(repo, crediter)

	po, err := svc.Create(context.Background(), CreateInput{
		SupplierID: 1,
		Items:      []ItemInput{{ProductID: 7, UnitPrice: 2, UnitQuantity: 10}},
	})
	require.NoError(t, err)

	received, err := svc.Update(context.Background(), po.ID, UpdateInput{Status: POStatusReceived})
	require.NoError(t, err)
	require.Equal(t, POStatusReceived, received.Status)
	require.Equal(t, 10.0, crediter.credited[7])

	// Repeating the same PUT is a stock no-op.
	_, err = svc.Update(context.Background(), po.ID, UpdateInput{Status: POStatusReceived})
	require.NoError(t, err)
	require.Equal(t, 10.0, crediter.credited[7])
	require.Equal(t, 1, crediter.calls)
}

func TestReceiveUsesTotalQuantityOverride(t *testing.T) {
	repo := newMemoryPORepo()
	crediter := newMemoryCrediter()
	svc := newTestService(repo, crediter)

	po, err := svc.Create(context.Background(), CreateInput{
		SupplierID: 1,
		Items: []ItemInput{
			{ProductID: 1, UnitPrice: 2, UnitQuantity: 10, TotalQuantity: floatPtr(24)},
			{ProductID: 2, UnitPrice: 2, UnitQuantity: 5},
			{ProductID: 3, UnitPrice: 2, UnitQuantity: 4, TotalQuantity: floatPtr(0)},
		},
	})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), po.ID, UpdateInput{Status: POStatusReceived})
	require.NoError(t, err)
	require.Equal(t, 24.0, crediter.credited[1])
	require.Equal(t, 5.0, crediter.credited[2])
	_, credited := crediter.credited[3]
	require.False(t, credited)
}

func TestReceiveSkipsFailedCredits(t *testing.T) {
	repo := newMemoryPORepo()
	crediter := newMemoryCrediter()
	crediter.failFor[1] = true
	svc := newTestService(repo, crediter)

	po, err := svc.Create(context.Background(), CreateInput{
		SupplierID: 1,
		Items: []ItemInput{
			{ProductID: 1, UnitPrice: 1, UnitQuantity: 3},
			{ProductID: 2, UnitPrice: 1, UnitQuantity: 4},
		},
	})
	require.NoError(t, err)

	received, err := svc.Update(context.Background(), po.ID, UpdateInput{Status: POStatusReceived})
	require.NoError(t, err)
	require.Equal(t, POStatusReceived, received.Status)
	require.Equal(t, 4.0, crediter.credited[2])
	_, credited := crediter.credited[1]
	require.False(t, credited)
}

func TestReceiveCreditsReplacedItems(t *testing.T) {
	repo := newMemoryPORepo()
	crediter := newMemoryCrediter()
	svc := newTestService(repo, crediter)

	po, err := svc.Create(context.Background(), CreateInput{
		SupplierID: 1,
		Items:      []ItemInput{{ProductID: 1, UnitPrice: 1, UnitQuantity: 3}},
	})
	require.NoError(t, err)

	// Replace items and receive in the same PUT: the fresh list is what
	// gets credited.
	_, err = svc.Update(context.Background(), po.ID, UpdateInput{
		Status: POStatusReceived,
		Items:  []ItemInput{{ProductID: 9, UnitPrice: 1, UnitQuantity: 6}},
	})
	require.NoError(t, err)
	_, credited := crediter.credited[1]
	require.False(t, credited)
	require.Equal(t, 6.0, crediter.credited[9])
}

func TestReceivedOrderCannotReturnToPending(t *testing.T) {
	repo := newMemoryPORepo()
	svc := newTestService(repo, newMemoryCrediter())

	po, err := svc.Create(context.Background(), CreateInput{
		SupplierID: 1,
		Items:      []ItemInput{{ProductID: 1, UnitPrice: 1, UnitQuantity: 1}},
	})
	require.NoError(t, err)
	_, err = svc.Update(context.Background(), po.ID, UpdateInput{Status: POStatusReceived})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), po.ID, UpdateInput{Status: POStatusPending})
	require.ErrorIs(t, err, ErrInvalidTransition)
}
