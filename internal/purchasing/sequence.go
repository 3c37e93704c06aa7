package purchasing

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FinancialYear returns the Indian financial year label for t, e.g. "25-26"
// for any date from 2025-04-01 through 2026-03-31.
func FinancialYear(t time.Time) string {
	start := t.Year()
	if t.Month() < time.April {
		start--
	}
	return fmt.Sprintf("%02d-%02d", start%100, (start+1)%100)
}

func orderPrefix(fy string) string {
	return "PO/" + fy + "/"
}

// nextOrderNumber derives the next order number within a financial year
// from the most recent one. Scan-and-increment, same race as bill numbers:
// two concurrent creates can read the same last number.
func nextOrderNumber(fy, last string) string {
	prefix := orderPrefix(fy)
	seq := 1
	if last != "" {
		if n, err := strconv.Atoi(strings.TrimPrefix(last, prefix)); err == nil {
			seq = n + 1
		}
	}
	return fmt.Sprintf("%s%04d", prefix, seq)
}
