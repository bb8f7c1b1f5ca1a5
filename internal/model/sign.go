package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SignConvention turns a (debit, credit) pair into one signed contribution.
type SignConvention int

const (
	// DebitMinusCredit is the natural balance of assets and expenses.
	DebitMinusCredit SignConvention = iota + 1
	// CreditMinusDebit is the natural balance of liabilities, equity and income.
	CreditMinusDebit
)

// Valid reports whether c is one of the two known conventions.
func (c SignConvention) Valid() bool {
	return c == DebitMinusCredit || c == CreditMinusDebit
}

// Apply returns the signed contribution of one debit/credit pair.
// Panics on an invalid convention; callers check Valid first.
func (c SignConvention) Apply(debit, credit decimal.Decimal) decimal.Decimal {
	switch c {
	case DebitMinusCredit:
		return debit.Sub(credit)
	case CreditMinusDebit:
		return credit.Sub(debit)
	}
	panic(fmt.Sprintf("unknown sign convention %d", int(c)))
}

func (c SignConvention) String() string {
	switch c {
	case DebitMinusCredit:
		return "debit-credit"
	case CreditMinusDebit:
		return "credit-debit"
	}
	return fmt.Sprintf("SignConvention(%d)", int(c))
}
