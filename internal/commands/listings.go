package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerlens/internal/export"
	"github.com/cleared-dev/ledgerlens/internal/listing"
	"github.com/cleared-dev/ledgerlens/internal/model"
)

// listingFlags are the filter and output flags shared by sales and crm.
type listingFlags struct {
	filter listing.Filter
	csv    bool
	out    string
}

func (f *listingFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.filter.Year, "year", 0, "year (default all)")
	cmd.Flags().IntVar(&f.filter.Month, "month", 0, "month 1-12, requires --year")
	cmd.Flags().IntVar(&f.filter.Day, "day", 0, "day of month, requires --month")
	cmd.Flags().Int64Var(&f.filter.SalespersonID, "salesperson", 0, "salesperson user id")
	cmd.Flags().Int64Var(&f.filter.TeamID, "team", 0, "sales team id")
	cmd.Flags().BoolVar(&f.csv, "csv", false, "write CSV instead of a table")
	cmd.Flags().StringVar(&f.out, "out", "", "write to this file instead of stdout")
}

// output opens the destination and returns it with a close func.
func (f *listingFlags) output(cmd *cobra.Command) (io.Writer, func() error, error) {
	if f.out == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	file, err := os.Create(f.out)
	if err != nil {
		return nil, nil, fmt.Errorf("creating %s: %w", f.out, err)
	}
	return file, file.Close, nil
}

func newSalesCommand(opts *rootOptions) *cobra.Command {
	flags := &listingFlags{}

	cmd := &cobra.Command{
		Use:   "sales",
		Short: "List sales orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := flags.filter.Validate(); err != nil {
				return err
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
			orders, err := a.listings.Sales(cmd.Context(), creds, flags.filter)
			if err != nil {
				return err
			}

			w, closeOut, err := flags.output(cmd)
			if err != nil {
				return err
			}
			if flags.csv {
				err = export.WriteSales(w, orders)
			} else {
				rows := make([][]string, len(orders))
				for i, o := range orders {
					rows[i] = export.MarshalSalesOrder(o)
				}
				err = writeTable(w, export.SalesHeader(), rows,
					fmt.Sprintf("%d orders, total %s", len(orders), model.SumSales(orders).StringFixed(2)))
			}
			if cerr := closeOut(); err == nil {
				err = cerr
			}
			return err
		},
	}
	flags.register(cmd)

	return cmd
}

func newCRMCommand(opts *rootOptions) *cobra.Command {
	flags := &listingFlags{}

	cmd := &cobra.Command{
		Use:   "crm",
		Short: "List CRM leads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := flags.filter.Validate(); err != nil {
				return err
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
			leads, err := a.listings.Leads(cmd.Context(), creds, flags.filter)
			if err != nil {
				return err
			}

			w, closeOut, err := flags.output(cmd)
			if err != nil {
				return err
			}
			if flags.csv {
				err = export.WriteLeads(w, leads)
			} else {
				rows := make([][]string, len(leads))
				for i, l := range leads {
					rows[i] = export.MarshalLead(l)
				}
				err = writeTable(w, export.LeadsHeader(), rows,
					fmt.Sprintf("%d leads, expected revenue %s", len(leads), model.SumExpectedRevenue(leads).StringFixed(2)))
			}
			if cerr := closeOut(); err == nil {
				err = cerr
			}
			return err
		},
	}
	flags.register(cmd)

	return cmd
}

func writeTable(w io.Writer, header []string, rows [][]string, footer string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, footer)
	return err
}
