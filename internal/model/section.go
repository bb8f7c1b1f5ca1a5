package model

// Section is a statement section an account classification rolls up into.
type Section string

const (
	SectionAssets       Section = "assets"
	SectionLiabilities  Section = "liabilities"
	SectionEquity       Section = "equity"
	SectionIncome       Section = "income"
	SectionCOGS         Section = "cogs"
	SectionExpense      Section = "expense"
	SectionDepreciation Section = "depreciation"
)

// ProfitAndLossSections are the flow sections of a P&L, in report order.
var ProfitAndLossSections = []Section{SectionIncome, SectionCOGS, SectionExpense, SectionDepreciation}

// BalanceSheetSections are the position sections of a balance sheet, in report order.
var BalanceSheetSections = []Section{SectionAssets, SectionLiabilities, SectionEquity}
