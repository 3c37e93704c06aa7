package billing

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CalculateLineTotals computes discount, tax and line total for one item.
// Amounts are computed in decimal and rounded to 2 places so that summing
// line totals reproduces the stored grand total exactly.
func CalculateLineTotals(quantity, unitPrice, discountPercent, taxPercent float64) (discountAmount, taxAmount, lineTotal float64) {
	gross := decimal.NewFromFloat(quantity).Mul(decimal.NewFromFloat(unitPrice))
	discount := gross.Mul(decimal.NewFromFloat(discountPercent)).Div(hundred)
	taxable := gross.Sub(discount)
	tax := taxable.Mul(decimal.NewFromFloat(taxPercent)).Div(hundred)
	total := taxable.Add(tax)
	return discount.Round(2).InexactFloat64(), tax.Round(2).InexactFloat64(), total.Round(2).InexactFloat64()
}

// nextSequence derives the next document number from the most recently
// created one. This is a scan-and-increment scheme: two generators racing
// between the read and the insert can produce the same number. That matches
// the historical behaviour and is accepted; a dedicated counter table would
// change observable numbering.
func nextSequence(prefix, last string) string {
	seq := 1
	if last != "" {
		if n, err := strconv.Atoi(strings.TrimPrefix(last, prefix)); err == nil {
			seq = n + 1
		}
	}
	return fmt.Sprintf("%s%04d", prefix, seq)
}

func billPrefix(t BillType) string {
	if t == BillTypeInvoice {
		return "INV-"
	}
	return "QUO-"
}
