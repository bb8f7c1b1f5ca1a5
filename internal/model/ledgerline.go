package model

import "github.com/shopspring/decimal"

// PostedState is the parent move state of ledger lines that count toward
// any aggregate. Draft and cancelled lines are filtered out remotely.
const PostedState = "posted"

// LedgerLineGroup is one row of a grouped-sum query: the debit and credit
// totals of posted ledger lines for a single account within a window.
type LedgerLineGroup struct {
	AccountID int64
	Debit     decimal.Decimal // non-negative
	Credit    decimal.Decimal // non-negative
	Count     int
}

// Fold sums the signed contribution of every group under one convention.
func Fold(groups []LedgerLineGroup, sign SignConvention) decimal.Decimal {
	total := decimal.Zero
	for _, g := range groups {
		total = total.Add(sign.Apply(g.Debit, g.Credit))
	}
	return total
}
