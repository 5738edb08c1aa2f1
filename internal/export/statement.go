package export

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Wodenvase/BharatLedger/internal/model"
)

// Statement is a period of a user's ledger ready to be rendered.
type Statement struct {
	OwnerName    string
	OwnerEmail   string
	From         time.Time
	To           time.Time
	Transactions []model.Transaction
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
	GeneratedAt  time.Time
}

func (s *Statement) Net() decimal.Decimal {
	return s.TotalIncome.Sub(s.TotalExpense)
}

// FormatINR renders an amount with Indian digit grouping, e.g. 12,34,567.89.
func FormatINR(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	s := d.StringFixed(2)
	whole, frac := s[:len(s)-3], s[len(s)-3:]

	if len(whole) > 3 {
		head, tail := whole[:len(whole)-3], whole[len(whole)-3:]
		var groups []string
		for len(head) > 2 {
			groups = append([]string{head[len(head)-2:]}, groups...)
			head = head[:len(head)-2]
		}
		if head != "" {
			groups = append([]string{head}, groups...)
		}
		whole = ""
		for _, g := range groups {
			whole += g + ","
		}
		whole += tail
	}
	return sign + whole + frac
}
