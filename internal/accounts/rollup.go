package accounts

import "sort"

type groupKey struct {
	customerID int64
	branchID   int64
}

func keyFor(customerID, branchID *int64) (groupKey, bool) {
	switch {
	case customerID != nil:
		return groupKey{customerID: *customerID}, true
	case branchID != nil:
		return groupKey{branchID: *branchID}, true
	default:
		return groupKey{}, false
	}
}

// BuildSnapshots recomputes account snapshots from invoice summaries.
// Invoices group by customer, falling back to branch when no customer is
// set; invoices with neither key are ignored. Accounts present in existing
// but matching no invoice are zeroed out, not dropped. The function is
// pure: running it twice over the same inputs yields identical output, and
// results are ordered deterministically.
func BuildSnapshots(invoices []InvoiceSummary, existing []Account) []Account {
	groups := make(map[groupKey]*Account)
	lastCreated := make(map[groupKey]InvoiceSummary)

	for _, inv := range invoices {
		key, ok := keyFor(inv.CustomerID, inv.BranchID)
		if !ok {
			continue
		}
		acc, ok := groups[key]
		if !ok {
			acc = &Account{}
			if key.customerID != 0 {
				id := key.customerID
				acc.CustomerID = &id
			} else {
				id := key.branchID
				acc.BranchID = &id
			}
			groups[key] = acc
		}
		acc.TotalBilled += inv.GrandTotal
		acc.TotalPaid += inv.AmountPaid

		last, seen := lastCreated[key]
		if !seen || inv.CreatedAt.After(last.CreatedAt) ||
			(inv.CreatedAt.Equal(last.CreatedAt) && inv.BillID > last.BillID) {
			lastCreated[key] = inv
		}
	}

	out := make([]Account, 0, len(groups))
	for key, acc := range groups {
		acc.DueAmount = acc.TotalBilled - acc.TotalPaid
		if acc.DueAmount < 0 {
			acc.DueAmount = 0
		}
		acc.Status = AccountStatusClear
		if acc.DueAmount > 0 {
			acc.Status = AccountStatusDue
		}
		billID := lastCreated[key].BillID
		acc.LastBillID = &billID
		out = append(out, *acc)
	}

	// Stale accounts are cleared rather than deleted.
	for _, acc := range existing {
		key, ok := keyFor(acc.CustomerID, acc.BranchID)
		if !ok {
			continue
		}
		if _, live := groups[key]; live {
			continue
		}
		out = append(out, Account{
			CustomerID: acc.CustomerID,
			BranchID:   acc.BranchID,
			Status:     AccountStatusClear,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return snapshotOrder(out[i]) < snapshotOrder(out[j])
	})
	return out
}

func snapshotOrder(a Account) int64 {
	if a.CustomerID != nil {
		return *a.CustomerID
	}
	if a.BranchID != nil {
		return -*a.BranchID
	}
	return 0
}
