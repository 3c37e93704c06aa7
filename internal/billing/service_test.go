package billing

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/karobar-erp/karobar-erp/internal/stock"
)

// memoryBillRepo backs the service in tests. WithTx snapshots all state up
// front and restores it when the callback fails, mirroring a rollback.
type memoryBillRepo struct {
	bills    map[int64]*Bill
	items    map[int64][]BillItem
	payments map[int64][]Payment
	stocks   map[int64]*stock.Stock

	nextBillID    int64
	nextItemID    int64
	nextPaymentID int64
}

func newMemoryBillRepo() *memoryBillRepo {
	return &memoryBillRepo{
		bills:    make(map[int64]*Bill),
		items:    make(map[int64][]BillItem),
		payments: make(map[int64][]Payment),
		stocks:   make(map[int64]*stock.Stock),
	}
}

func (r *memoryBillRepo) seedStock(productID int64, current float64) {
	r.stocks[productID] = &stock.Stock{
		ID:           productID,
		ProductID:    productID,
		OpeningStock: current,
		CurrentStock: current,
	}
}

func (r *memoryBillRepo) snapshot() *memoryBillRepo {
	cp := newMemoryBillRepo()
	cp.nextBillID, cp.nextItemID, cp.nextPaymentID = r.nextBillID, r.nextItemID, r.nextPaymentID
	for id, b := range r.bills {
		c := *b
		cp.bills[id] = &c
	}
	for id, items := range r.items {
		cp.items[id] = append([]BillItem(nil), items...)
	}
	for id, pays := range r.payments {
		cp.payments[id] = append([]Payment(nil), pays...)
	}
	for id, s := range r.stocks {
		c := *s
		cp.stocks[id] = &c
	}
	return cp
}

func (r *memoryBillRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	saved := r.snapshot()
	if err := fn(ctx, r); err != nil {
		*r = *saved
		return err
	}
	return nil
}

func (r *memoryBillRepo) Get(ctx context.Context, id int64) (*Bill, error) {
	b, ok := r.bills[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *b
	out.Items = append([]BillItem(nil), r.items[id]...)
	out.Payments = append([]Payment(nil), r.payments[id]...)
	return &out, nil
}

func (r *memoryBillRepo) List(ctx context.Context, filter ListFilter) ([]Bill, error) {
	var out []Bill
	for _, b := range r.bills {
		if filter.Deleted != (b.DeletedAt != nil) {
			continue
		}
		if filter.Type != "" && b.Type != filter.Type {
			continue
		}
		if filter.CustomerID > 0 && (b.CustomerID == nil || *b.CustomerID != filter.CustomerID) {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

func (r *memoryBillRepo) SoftDelete(ctx context.Context, id int64) error {
	b, ok := r.bills[id]
	if !ok || b.DeletedAt != nil {
		return ErrNotFound
	}
	now := time.Now()
	b.DeletedAt = &now
	return nil
}

func (r *memoryBillRepo) Restore(ctx context.Context, id int64) error {
	b, ok := r.bills[id]
	if !ok || b.DeletedAt == nil {
		return ErrNotFound
	}
	b.DeletedAt = nil
	return nil
}

func (r *memoryBillRepo) CreateBill(ctx context.Context, b Bill) (int64, error) {
	r.nextBillID++
	b.ID = r.nextBillID
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	r.bills[b.ID] = &b
	return b.ID, nil
}

func (r *memoryBillRepo) UpdateBillHeader(ctx context.Context, b Bill) error {
	cur, ok := r.bills[b.ID]
	if !ok {
		return ErrNotFound
	}
	cur.Type = b.Type
	cur.CustomerID = b.CustomerID
	cur.BranchID = b.BranchID
	cur.Remarks = b.Remarks
	return nil
}

func (r *memoryBillRepo) SetTypeAndNumber(ctx context.Context, id int64, t BillType, billNo string) error {
	b, ok := r.bills[id]
	if !ok {
		return ErrNotFound
	}
	b.Type = t
	b.BillNo = billNo
	return nil
}

func (r *memoryBillRepo) SetTotals(ctx context.Context, id int64, totalAmount, grandTotal float64) error {
	b, ok := r.bills[id]
	if !ok {
		return ErrNotFound
	}
	b.TotalAmount = totalAmount
	b.GrandTotal = grandTotal
	return nil
}

func (r *memoryBillRepo) InsertItem(ctx context.Context, item BillItem) (int64, error) {
	r.nextItemID++
	item.ID = r.nextItemID
	r.items[item.BillID] = append(r.items[item.BillID], item)
	return item.ID, nil
}

func (r *memoryBillRepo) DeleteItems(ctx context.Context, billID int64) error {
	delete(r.items, billID)
	return nil
}

func (r *memoryBillRepo) InsertPayment(ctx context.Context, p Payment) (int64, error) {
	r.nextPaymentID++
	p.ID = r.nextPaymentID
	p.CreatedAt = time.Now()
	r.payments[p.BillID] = append(r.payments[p.BillID], p)
	return p.ID, nil
}

func (r *memoryBillRepo) SumPayments(ctx context.Context, billID int64) (float64, error) {
	var total float64
	for _, p := range r.payments[billID] {
		total += p.AmountPaid
	}
	return total, nil
}

func (r *memoryBillRepo) SetPaymentStatus(ctx context.Context, billID int64, status PaymentStatus) error {
	b, ok := r.bills[billID]
	if !ok {
		return ErrNotFound
	}
	b.PaymentStatus = status
	return nil
}

func (r *memoryBillRepo) LastBillNo(ctx context.Context, t BillType) (string, error) {
	var last string
	var lastID int64
	for _, b := range r.bills {
		if b.Type == t && b.ID > lastID {
			last, lastID = b.BillNo, b.ID
		}
	}
	return last, nil
}

func (r *memoryBillRepo) GetStockForUpdate(ctx context.Context, productID int64) (stock.Stock, error) {
	s, ok := r.stocks[productID]
	if !ok {
		return stock.Stock{ProductID: productID}, stock.ErrNotFound
	}
	return *s, nil
}

func (r *memoryBillRepo) UpdateStock(ctx context.Context, s stock.Stock) error {
	cur, ok := r.stocks[s.ProductID]
	if !ok {
		return stock.ErrNotFound
	}
	*cur = s
	return nil
}

func (r *memoryBillRepo) DeletePayments(ctx context.Context, billID int64) error {
	delete(r.payments, billID)
	return nil
}

func (r *memoryBillRepo) DeleteBill(ctx context.Context, id int64) error {
	delete(r.bills, id)
	delete(r.items, id)
	return nil
}

func newTestService(repo *memoryBillRepo) *Service {
	return NewService(repo, slog.Default())
}

func TestCreateInvoiceComputesTotalsAndDeductsStock(t *testing.T) {
	repo := newMemoryBillRepo()
	repo.seedStock(1, 100)
	repo.seedStock(2, 50)
	svc := newTestService(repo)

	b, err := svc.Create(context.Background(), CreateInput{
		Type:      BillTypeInvoice,
		CreatedBy: 7,
		Items: []ItemInput{
			{ProductID: 1, Quantity: 2, UnitPrice: 100, DiscountPercent: 10, TaxPercent: 18},
			{ProductID: 2, Quantity: 1, UnitPrice: 50},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "INV-0001", b.BillNo)
	require.Equal(t, PaymentStatusUnpaid, b.PaymentStatus)
	require.Len(t, b.Items, 2)

	var sum float64
	for _, it := range b.Items {
		sum += it.LineTotal
	}
	require.Equal(t, sum, b.GrandTotal)
	require.Equal(t, 262.4, b.GrandTotal)

	require.Equal(t, 98.0, repo.stocks[1].CurrentStock)
	require.Equal(t, 49.0, repo.stocks[2].CurrentStock)
}

func TestCreateQuotationLeavesStockUntouched(t *testing.T) {
	repo := newMemoryBillRepo()
	repo.seedStock(1, 10)
	svc := newTestService(repo)

	b, err := svc.Create(context.Background(), CreateInput{
		Type:  BillTypeQuotation,
		Items: []ItemInput{{ProductID: 1, Quantity: 5, UnitPrice: 20}},
	})
	require.NoError(t, err)
	require.Equal(t, "QUO-0001", b.BillNo)
	require.Equal(t, 10.0, repo.stocks[1].CurrentStock)
}

func TestCreateInvoiceInsufficientStockRollsBackEverything(t *testing.T) {
	repo := newMemoryBillRepo()
	repo.seedStock(1, 100)
	repo.seedStock(2, 1)
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), CreateInput{
		Type: BillTypeInvoice,
		Items: []ItemInput{
			{ProductID: 1, Quantity: 10, UnitPrice: 5},
			{ProductID: 2, Quantity: 3, UnitPrice: 5},
		},
	})
	require.ErrorIs(t, err, stock.ErrInsufficientStock)

	require.Empty(t, repo.bills)
	require.Equal(t, 100.0, repo.stocks[1].CurrentStock)
	require.Equal(t, 1.0, repo.stocks[2].CurrentStock)
}

func TestCreateRejectsEmptyItems(t *testing.T) {
	svc := newTestService(newMemoryBillRepo())
	_, err := svc.Create(context.Background(), CreateInput{Type: BillTypeInvoice})
	require.ErrorIs(t, err, ErrEmptyItems)
}

func TestBillNumbersIncrementPerType(t *testing.T) {
	repo := newMemoryBillRepo()
	repo.seedStock(1, 100)
	svc := newTestService(repo)

	item := []ItemInput{{ProductID: 1, Quantity: 1, UnitPrice: 10}}
	first, err := svc.Create(context.Background(), CreateInput{Type: BillTypeInvoice, Items: item})
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), CreateInput{Type: BillTypeInvoice, Items: item})
	require.NoError(t, err)
	quote, err := svc.Create(context.Background(), CreateInput{Type: BillTypeQuotation, Items: item})
	require.NoError(t, err)

	require.Equal(t, "INV-0001", first.BillNo)
	require.Equal(t, "INV-0002", second.BillNo)
	require.Equal(t, "QUO-0001", quote.BillNo)
}

func TestUpdateReplacesItemsWithoutTouchingStock(t *testing.T) {
	repo := newMemoryBillRepo()
	repo.seedStock(1, 100)
	repo.seedStock(2, 100)
	svc := newTestService(repo)

	b, err := svc.Create(context.Background(), CreateInput{
		Type:  BillTypeInvoice,
		Items: []ItemInput{{ProductID: 1, Quantity: 4, UnitPrice: 25}},
	})
	require.NoError(t, err)
	require.Equal(t, 96.0, repo.stocks[1].CurrentStock)

	updated, err := svc.Update(context.Background(), b.ID, UpdateInput{
		Items: []ItemInput{{ProductID: 2, Quantity: 2, UnitPrice: 30}},
	})
	require.NoError(t, err)
	require.Len(t, updated.Items, 1)
	require.Equal(t, int64(2), updated.Items[0].ProductID)
	require.Equal(t, 60.0, updated.GrandTotal)

	// Stock is not reconciled on edit: the original deduction stays and
	// the new item deducts nothing.
	require.Equal(t, 96.0, repo.stocks[1].CurrentStock)
	require.Equal(t, 100.0, repo.stocks[2].CurrentStock)
}

func TestUpdatePreservesItemsWhenNil(t *testing.T) {
	repo := newMemoryBillRepo()
	repo.seedStock(1, 100)
	svc := newTestService(repo)

	b, err := svc.Create(context.Background(), CreateInput{
		Type:  BillTypeInvoice,
		Items: []ItemInput{{ProductID: 1, Quantity: 1, UnitPrice: 10}},
	})
	require.NoError(t, err)

	remarks := "follow up monday"
	updated, err := svc.Update(context.Background(), b.ID, UpdateInput{Remarks: &remarks})
	require.NoError(t, err)
	require.Equal(t, remarks, updated.Remarks)
	require.Len(t, updated.Items, 1)
	require.Equal(t, b.GrandTotal, updated.GrandTotal)
}

func TestConvertToInvoiceDeductsStockAndRenumbers(t *testing.T) {
	repo := newMemoryBillRepo()
	repo.seedStock(1, 10)
	svc := newTestService(repo)

	q, err := svc.Create(context.Background(), CreateInput{
		Type:  BillTypeQuotation,
		Items: []ItemInput{{ProductID: 1, Quantity: 4, UnitPrice: 15}},
	})
	require.NoError(t, err)
	require.Equal(t, 10.0, repo.stocks[1].CurrentStock)

	inv, err := svc.ConvertToInvoice(context.Background(), q.ID)
	require.NoError(t, err)
	require.Equal(t, BillTypeInvoice, inv.Type)
	require.Equal(t, "INV-0001", inv.BillNo)
	require.Equal(t, 6.0, repo.stocks[1].CurrentStock)

	_, err = svc.ConvertToInvoice(context.Background(), q.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestConvertInsufficientStockLeavesQuotationIntact(t *testing.T) {
	repo := newMemoryBillRepo()
	repo.seedStock(1, 2)
	svc := newTestService(repo)

	q, err := svc.Create(context.Background(), CreateInput{
		Type:  BillTypeQuotation,
		Items: []ItemInput{{ProductID: 1, Quantity: 5, UnitPrice: 15}},
	})
	require.NoError(t, err)

	_, err = svc.ConvertToInvoice(context.Background(), q.ID)
	require.ErrorIs(t, err, stock.ErrInsufficientStock)

	got, err := svc.Get(context.Background(), q.ID)
	require.NoError(t, err)
	require.Equal(t, BillTypeQuotation, got.Type)
	require.Equal(t, "QUO-0001", got.BillNo)
	require.Equal(t, 2.0, repo.stocks[1].CurrentStock)
}

func TestAddPaymentRecomputesStatus(t *testing.T) {
	repo := newMemoryBillRepo()
	repo.seedStock(1, 100)
	svc := newTestService(repo)

	b, err := svc.Create(context.Background(), CreateInput{
		Type:  BillTypeInvoice,
		Items: []ItemInput{{ProductID: 1, Quantity: 10, UnitPrice: 100}},
	})
	require.NoError(t, err)
	require.Equal(t, 1000.0, b.GrandTotal)

	partial, err := svc.AddPayment(context.Background(), b.ID, PaymentInput{
		PaymentMode: PaymentModeCash,
		AmountPaid:  400,
	})
	require.NoError(t, err)
	require.Equal(t, PaymentStatusPartial, partial.PaymentStatus)

	paid, err := svc.AddPayment(context.Background(), b.ID, PaymentInput{
		PaymentMode: PaymentModeUPI,
		AmountPaid:  600,
	})
	require.NoError(t, err)
	require.Equal(t, PaymentStatusPaid, paid.PaymentStatus)
	require.Len(t, paid.Payments, 2)
}

func TestAddPaymentOverpaymentReadsAsPaid(t *testing.T) {
	repo := newMemoryBillRepo()
	repo.seedStock(1, 100)
	svc := newTestService(repo)

	b, err := svc.Create(context.Background(), CreateInput{
		Type:  BillTypeInvoice,
		Items: []ItemInput{{ProductID: 1, Quantity: 1, UnitPrice: 100}},
	})
	require.NoError(t, err)

	got, err := svc.AddPayment(context.Background(), b.ID, PaymentInput{
		PaymentMode: PaymentModeCard,
		AmountPaid:  150,
	})
	require.NoError(t, err)
	require.Equal(t, PaymentStatusPaid, got.PaymentStatus)
}

func TestAddPaymentRejectsQuotationAndBadAmount(t *testing.T) {
	repo := newMemoryBillRepo()
	svc := newTestService(repo)

	q, err := svc.Create(context.Background(), CreateInput{
		Type:  BillTypeQuotation,
		Items: []ItemInput{{ProductID: 1, Quantity: 1, UnitPrice: 10}},
	})
	require.NoError(t, err)

	_, err = svc.AddPayment(context.Background(), q.ID, PaymentInput{PaymentMode: PaymentModeCash, AmountPaid: 10})
	require.ErrorIs(t, err, ErrNotInvoice)

	_, err = svc.AddPayment(context.Background(), q.ID, PaymentInput{PaymentMode: PaymentModeCash, AmountPaid: 0})
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestSoftDeleteRestoreLifecycle(t *testing.T) {
	repo := newMemoryBillRepo()
	svc := newTestService(repo)

	b, err := svc.Create(context.Background(), CreateInput{
		Type:  BillTypeQuotation,
		Items: []ItemInput{{ProductID: 1, Quantity: 1, UnitPrice: 10}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.SoftDelete(context.Background(), b.ID))

	active, err := svc.List(context.Background(), ListFilter{})
	require.NoError(t, err)
	require.Empty(t, active)

	deleted, err := svc.List(context.Background(), ListFilter{Deleted: true})
	require.NoError(t, err)
	require.Len(t, deleted, 1)

	_, err = svc.Update(context.Background(), b.ID, UpdateInput{})
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.Restore(context.Background(), b.ID))
	active, err = svc.List(context.Background(), ListFilter{})
	require.NoError(t, err)
	require.Len(t, active, 1)
}

func TestHardDeleteRemovesBillItemsAndPayments(t *testing.T) {
	repo := newMemoryBillRepo()
	repo.seedStock(1, 100)
	svc := newTestService(repo)

	b, err := svc.Create(context.Background(), CreateInput{
		Type:  BillTypeInvoice,
		Items: []ItemInput{{ProductID: 1, Quantity: 2, UnitPrice: 10}},
	})
	require.NoError(t, err)
	_, err = svc.AddPayment(context.Background(), b.ID, PaymentInput{PaymentMode: PaymentModeCash, AmountPaid: 5})
	require.NoError(t, err)

	require.NoError(t, svc.HardDelete(context.Background(), b.ID))
	_, err = svc.Get(context.Background(), b.ID)
	require.ErrorIs(t, err, ErrNotFound)
	require.Empty(t, repo.payments[b.ID])

	// Stock deduction is not reversed on delete.
	require.Equal(t, 98.0, repo.stocks[1].CurrentStock)
}

func TestUpdatePatchesTypeAsPlainField(t *testing.T) {
	repo := newMemoryBillRepo()
	repo.seedStock(1, 100)
	svc := newTestService(repo)

	b, err := svc.Create(context.Background(), CreateInput{
		Type:  BillTypeQuotation,
		Items: []ItemInput{{ProductID: 1, Quantity: 5, UnitPrice: 20}},
	})
	require.NoError(t, err)
	require.Equal(t, "QUO-0001", b.BillNo)

	invoice := BillTypeInvoice
	updated, err := svc.Update(context.Background(), b.ID, UpdateInput{Type: &invoice})
	require.NoError(t, err)
	require.Equal(t, BillTypeInvoice, updated.Type)

	// A type patch is not a conversion: the number and stock stay put.
	require.Equal(t, "QUO-0001", updated.BillNo)
	require.Equal(t, 100.0, repo.stocks[1].CurrentStock)
}
