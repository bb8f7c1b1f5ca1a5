package model

// AccountType is the ledger's account_type code on a chart-of-accounts row.
type AccountType string

const (
	AccountTypeAssetCurrent          AccountType = "asset_current"
	AccountTypeAssetNonCurrent       AccountType = "asset_non_current"
	AccountTypeAssetCash             AccountType = "asset_cash"
	AccountTypeAssetReceivable       AccountType = "asset_receivable"
	AccountTypeAssetPrepayments      AccountType = "asset_prepayments"
	AccountTypeAssetFixed            AccountType = "asset_fixed"
	AccountTypeLiabilityCurrent      AccountType = "liability_current"
	AccountTypeLiabilityNonCurrent   AccountType = "liability_non_current"
	AccountTypeLiabilityPayable      AccountType = "liability_payable"
	AccountTypeLiabilityCreditCard   AccountType = "liability_credit_card"
	AccountTypeEquity                AccountType = "equity"
	AccountTypeEquityUnaffected      AccountType = "equity_unaffected"
	AccountTypeEquityCurrentEarnings AccountType = "equity_current_earnings"
	AccountTypeIncome                AccountType = "income"
	AccountTypeIncomeOther           AccountType = "income_other"
	AccountTypeExpense               AccountType = "expense"
	AccountTypeExpenseDirectCost     AccountType = "expense_direct_cost"
	AccountTypeExpenseDepreciation   AccountType = "expense_depreciation"
)

// Account is a remote chart-of-accounts row. The engine only ever reads ids.
type Account struct {
	ID   int64       `json:"id"`
	Type AccountType `json:"account_type,omitempty"`
}

// AccountIDs extracts the identifiers of accts, preserving order.
func AccountIDs(accts []Account) []int64 {
	ids := make([]int64, len(accts))
	for i, a := range accts {
		ids[i] = a.ID
	}
	return ids
}
