package accounts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func intPtr(i int64) *int64 { return &i }

func inv(billID int64, customerID, branchID *int64, total, paid float64, created time.Time) InvoiceSummary {
	return InvoiceSummary{
		BillID:     billID,
		CustomerID: customerID,
		BranchID:   branchID,
		GrandTotal: total,
		AmountPaid: paid,
		CreatedAt:  created,
	}
}

func TestBuildSnapshotsGroupsByCustomer(t *testing.T) {
	base := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	invoices := []InvoiceSummary{
		inv(1, intPtr(10), nil, 500, 200, base),
		inv(2, intPtr(10), nil, 300, 300, base.Add(time.Hour)),
		inv(3, intPtr(20), nil, 100, 0, base),
	}

	out := BuildSnapshots(invoices, nil)
	require.Len(t, out, 2)

	first := out[0]
	require.Equal(t, int64(10), *first.CustomerID)
	require.Equal(t, 800.0, first.TotalBilled)
	require.Equal(t, 500.0, first.TotalPaid)
	require.Equal(t, 300.0, first.DueAmount)
	require.Equal(t, AccountStatusDue, first.Status)
	require.Equal(t, int64(2), *first.LastBillID)

	second := out[1]
	require.Equal(t, int64(20), *second.CustomerID)
	require.Equal(t, AccountStatusDue, second.Status)
}

func TestBuildSnapshotsFallsBackToBranch(t *testing.T) {
	base := time.Now()
	invoices := []InvoiceSummary{
		inv(1, nil, intPtr(5), 100, 100, base),
		inv(2, nil, nil, 50, 0, base),
	}

	out := BuildSnapshots(invoices, nil)
	require.Len(t, out, 1)
	require.Nil(t, out[0].CustomerID)
	require.Equal(t, int64(5), *out[0].BranchID)
	require.Equal(t, AccountStatusClear, out[0].Status)
	require.Equal(t, 0.0, out[0].DueAmount)
}

func TestBuildSnapshotsOverpaymentClampsDueToZero(t *testing.T) {
	out := BuildSnapshots([]InvoiceSummary{
		inv(1, intPtr(1), nil, 100, 150, time.Now()),
	}, nil)
	require.Len(t, out, 1)
	require.Equal(t, 0.0, out[0].DueAmount)
	require.Equal(t, AccountStatusClear, out[0].Status)
}

func TestBuildSnapshotsZeroesStaleAccounts(t *testing.T) {
	existing := []Account{
		{ID: 1, CustomerID: intPtr(10), TotalBilled: 900, TotalPaid: 100, DueAmount: 800, Status: AccountStatusDue},
		{ID: 2, CustomerID: intPtr(20), TotalBilled: 50, DueAmount: 50, Status: AccountStatusDue},
	}
	invoices := []InvoiceSummary{
		inv(1, intPtr(10), nil, 400, 0, time.Now()),
	}

	out := BuildSnapshots(invoices, existing)
	require.Len(t, out, 2)

	require.Equal(t, int64(10), *out[0].CustomerID)
	require.Equal(t, 400.0, out[0].TotalBilled)

	stale := out[1]
	require.Equal(t, int64(20), *stale.CustomerID)
	require.Equal(t, 0.0, stale.TotalBilled)
	require.Equal(t, 0.0, stale.DueAmount)
	require.Equal(t, AccountStatusClear, stale.Status)
	require.Nil(t, stale.LastBillID)
}

func TestBuildSnapshotsIsIdempotent(t *testing.T) {
	base := time.Date(2026, time.February, 2, 0, 0, 0, 0, time.UTC)
	invoices := []InvoiceSummary{
		inv(3, intPtr(1), nil, 120, 60, base),
		inv(4, nil, intPtr(2), 80, 80, base),
		inv(5, intPtr(1), nil, 40, 0, base.Add(time.Minute)),
	}
	existing := []Account{{CustomerID: intPtr(9)}}

	first := BuildSnapshots(invoices, existing)
	second := BuildSnapshots(invoices, existing)
	require.Equal(t, first, second)
}
