package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultBalanceTolerance is the largest absolute balance difference still
// reported as balanced.
var DefaultBalanceTolerance = decimal.RequireFromString("0.01")

// PnLStatement is a Profit & Loss statement for one fiscal year.
type PnLStatement struct {
	Year              int             `json:"year"`
	TotalIncome       decimal.Decimal `json:"total_income"`
	TotalCOGS         decimal.Decimal `json:"total_cogs"`
	GrossProfit       decimal.Decimal `json:"gross_profit"`
	TotalExpense      decimal.Decimal `json:"total_expense"`
	TotalDepreciation decimal.Decimal `json:"total_depreciation"`
	OperatingIncome   decimal.Decimal `json:"operating_income"`
	NetIncome         decimal.Decimal `json:"net_income"`
}

// NewPnLStatement derives gross profit, operating income and net income
// from the four section totals.
func NewPnLStatement(year int, income, cogs, expense, depreciation decimal.Decimal) PnLStatement {
	gross := income.Sub(cogs)
	operating := gross.Sub(expense)
	return PnLStatement{
		Year:              year,
		TotalIncome:       income,
		TotalCOGS:         cogs,
		GrossProfit:       gross,
		TotalExpense:      expense,
		TotalDepreciation: depreciation,
		OperatingIncome:   operating,
		NetIncome:         operating.Sub(depreciation),
	}
}

// BalanceSheetStatement is a Balance Sheet as of one calendar date.
// Equity includes the unclosed current-period result.
type BalanceSheetStatement struct {
	Date              time.Time
	TotalAssets       decimal.Decimal
	TotalLiabilities  decimal.Decimal
	TotalEquity       decimal.Decimal
	BalanceDifference decimal.Decimal
}

// NewBalanceSheetStatement derives the balance difference
// assets − (liabilities + equity).
func NewBalanceSheetStatement(date time.Time, assets, liabilities, equity decimal.Decimal) BalanceSheetStatement {
	return BalanceSheetStatement{
		Date:              Day(date),
		TotalAssets:       assets,
		TotalLiabilities:  liabilities,
		TotalEquity:       equity,
		BalanceDifference: assets.Sub(liabilities.Add(equity)),
	}
}

// Balanced reports whether |BalanceDifference| < tolerance. It is a
// reporting policy; an unbalanced statement is still a valid result.
func (s BalanceSheetStatement) Balanced(tolerance decimal.Decimal) bool {
	return s.BalanceDifference.Abs().LessThan(tolerance)
}

type balanceSheetJSON struct {
	Date              string          `json:"date"`
	TotalAssets       decimal.Decimal `json:"total_assets"`
	TotalLiabilities  decimal.Decimal `json:"total_liabilities"`
	TotalEquity       decimal.Decimal `json:"total_equity"`
	BalanceDifference decimal.Decimal `json:"balance_difference"`
	Balanced          *bool           `json:"balanced,omitempty"`
}

// MarshalJSON encodes Date as YYYY-MM-DD.
func (s BalanceSheetStatement) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.toJSON())
}

func (s BalanceSheetStatement) toJSON() balanceSheetJSON {
	return balanceSheetJSON{
		Date:              s.Date.Format(DateLayout),
		TotalAssets:       s.TotalAssets,
		TotalLiabilities:  s.TotalLiabilities,
		TotalEquity:       s.TotalEquity,
		BalanceDifference: s.BalanceDifference,
	}
}

// CheckedBalanceSheet is a balance sheet together with the outcome of its
// balance check.
type CheckedBalanceSheet struct {
	BalanceSheetStatement
	Balanced bool
}

// Check runs the balance check at tolerance.
func (s BalanceSheetStatement) Check(tolerance decimal.Decimal) CheckedBalanceSheet {
	return CheckedBalanceSheet{BalanceSheetStatement: s, Balanced: s.Balanced(tolerance)}
}

// MarshalJSON encodes the statement with a "balanced" key.
func (c CheckedBalanceSheet) MarshalJSON() ([]byte, error) {
	raw := c.toJSON()
	raw.Balanced = &c.Balanced
	return json.Marshal(raw)
}

// UnmarshalJSON decodes the MarshalJSON form.
func (s *BalanceSheetStatement) UnmarshalJSON(data []byte) error {
	var raw balanceSheetJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	date, err := ParseDate(raw.Date)
	if err != nil {
		return err
	}
	*s = BalanceSheetStatement{
		Date:              date,
		TotalAssets:       raw.TotalAssets,
		TotalLiabilities:  raw.TotalLiabilities,
		TotalEquity:       raw.TotalEquity,
		BalanceDifference: raw.BalanceDifference,
	}
	return nil
}
