package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerlens/internal/model"
)

func newProfitAndLossCommand(opts *rootOptions) *cobra.Command {
	var year int
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "pnl",
		Aliases: []string{"profit-and-loss"},
		Short:   "Compute the profit and loss statement of a fiscal year",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			_, creds, err := a.login(cmd.Context(), opts)
			if err != nil {
				return err
			}
			stmt, err := a.composer.ProfitAndLoss(cmd.Context(), creds, year)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), stmt)
			}
			return writeProfitAndLoss(cmd.OutOrStdout(), stmt)
		},
	}

	cmd.Flags().IntVar(&year, "year", time.Now().Year(), "fiscal year")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	return cmd
}

func newBalanceSheetCommand(opts *rootOptions) *cobra.Command {
	var date string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "balance-sheet",
		Short: "Compute the balance sheet as of a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			asOf := model.Day(time.Now())
			if date != "" {
				d, err := model.ParseDate(date)
				if err != nil {
					return err
				}
				asOf = d
			}

			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			_, creds, err := a.login(cmd.Context(), opts)
			if err != nil {
				return err
			}
			stmt, err := a.composer.BalanceSheet(cmd.Context(), creds, asOf)
			if err != nil {
				return err
			}
			checked := stmt.Check(a.cfg.Reports.BalanceTolerance)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), checked)
			}
			return writeBalanceSheet(cmd.OutOrStdout(), checked)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "as-of date, YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	return cmd
}

func writeProfitAndLoss(w io.Writer, s model.PnLStatement) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "Profit & Loss %d\n", s.Year)
	rows := []struct {
		label string
		value decimal.Decimal
	}{
		{"Income", s.TotalIncome},
		{"Cost of goods sold", s.TotalCOGS},
		{"Gross profit", s.GrossProfit},
		{"Expenses", s.TotalExpense},
		{"Operating income", s.OperatingIncome},
		{"Depreciation", s.TotalDepreciation},
		{"Net income", s.NetIncome},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t\n", r.label, r.value.StringFixed(2))
	}
	return tw.Flush()
}

func writeBalanceSheet(w io.Writer, s model.CheckedBalanceSheet) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "Balance Sheet as of %s\n", s.Date.Format(model.DateLayout))
	fmt.Fprintf(tw, "Assets\t%s\t\n", s.TotalAssets.StringFixed(2))
	fmt.Fprintf(tw, "Liabilities\t%s\t\n", s.TotalLiabilities.StringFixed(2))
	fmt.Fprintf(tw, "Equity\t%s\t\n", s.TotalEquity.StringFixed(2))
	fmt.Fprintf(tw, "Difference\t%s\t\n", s.BalanceDifference.StringFixed(2))
	if err := tw.Flush(); err != nil {
		return err
	}
	if s.Balanced {
		fmt.Fprintln(w, "Balanced: yes")
	} else {
		fmt.Fprintln(w, "Balanced: no")
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
