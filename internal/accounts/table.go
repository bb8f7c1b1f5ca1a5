package accounts

import (
	"slices"

	"github.com/cleared-dev/ledgerlens/internal/model"
)

// Classification places a set of account types in a statement section and
// fixes the sign convention their balances are read with.
type Classification struct {
	Section model.Section
	Types   []model.AccountType
	Sign    model.SignConvention
}

// table is process-wide static configuration. It is never mutated; Lookup
// hands out copies.
//
// The balance-sheet equity section deliberately includes income and expense
// types. Read credit-minus-debit, income contributes positively and expenses
// negatively, so equity carries the unclosed current-period result and the
// balance equation closes without a closing entry.
var table = map[model.Section]Classification{
	model.SectionAssets: {
		Section: model.SectionAssets,
		Types: []model.AccountType{
			model.AccountTypeAssetCurrent,
			model.AccountTypeAssetNonCurrent,
			model.AccountTypeAssetCash,
			model.AccountTypeAssetReceivable,
			model.AccountTypeAssetPrepayments,
			model.AccountTypeAssetFixed,
		},
		Sign: model.DebitMinusCredit,
	},
	model.SectionLiabilities: {
		Section: model.SectionLiabilities,
		Types: []model.AccountType{
			model.AccountTypeLiabilityCurrent,
			model.AccountTypeLiabilityNonCurrent,
			model.AccountTypeLiabilityPayable,
			model.AccountTypeLiabilityCreditCard,
		},
		Sign: model.CreditMinusDebit,
	},
	model.SectionEquity: {
		Section: model.SectionEquity,
		Types: []model.AccountType{
			model.AccountTypeEquity,
			model.AccountTypeEquityUnaffected,
			model.AccountTypeEquityCurrentEarnings,
			model.AccountTypeIncome,
			model.AccountTypeIncomeOther,
			model.AccountTypeExpense,
			model.AccountTypeExpenseDirectCost,
		},
		Sign: model.CreditMinusDebit,
	},
	model.SectionIncome: {
		Section: model.SectionIncome,
		Types:   []model.AccountType{model.AccountTypeIncome, model.AccountTypeIncomeOther},
		Sign:    model.CreditMinusDebit,
	},
	model.SectionCOGS: {
		Section: model.SectionCOGS,
		Types:   []model.AccountType{model.AccountTypeExpenseDirectCost},
		Sign:    model.DebitMinusCredit,
	},
	model.SectionExpense: {
		Section: model.SectionExpense,
		Types:   []model.AccountType{model.AccountTypeExpense},
		Sign:    model.DebitMinusCredit,
	},
	model.SectionDepreciation: {
		Section: model.SectionDepreciation,
		Types:   []model.AccountType{model.AccountTypeExpenseDepreciation},
		Sign:    model.DebitMinusCredit,
	},
}

// Lookup returns the classification of a section.
func Lookup(section model.Section) (Classification, bool) {
	c, ok := table[section]
	if !ok {
		return Classification{}, false
	}
	c.Types = slices.Clone(c.Types)
	return c, true
}

// Sections returns every classified section, balance sheet first, in
// report order.
func Sections() []model.Section {
	out := slices.Clone(model.BalanceSheetSections)
	return append(out, model.ProfitAndLossSections...)
}

// SectionsForType returns the sections an account type rolls up into.
// Income and expense types appear in both a P&L section and equity.
func SectionsForType(t model.AccountType) []model.Section {
	var out []model.Section
	for _, s := range Sections() {
		if slices.Contains(table[s].Types, t) {
			out = append(out, s)
		}
	}
	return out
}
