// Package export writes listings as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/cleared-dev/ledgerlens/internal/model"
)

// Missing stands in for an unset text or reference field.
const Missing = "N/A"

var (
	salesHeader = []string{"Order No", "Customer", "Date", "Amount", "Status", "Salesperson", "Team"}
	leadsHeader = []string{"Lead Name", "Contact", "Email", "Phone", "Expected Revenue", "Stage", "Salesperson", "Team", "Created On"}
)

// SalesHeader returns the column titles of a sales export.
func SalesHeader() []string { return slices.Clone(salesHeader) }

// LeadsHeader returns the column titles of a CRM export.
func LeadsHeader() []string { return slices.Clone(leadsHeader) }

// WriteSales writes orders with a header row.
func WriteSales(w io.Writer, orders []model.SalesOrder) error {
	rows := make([][]string, len(orders))
	for i, o := range orders {
		rows[i] = MarshalSalesOrder(o)
	}
	return write(w, salesHeader, rows)
}

// WriteLeads writes leads with a header row.
func WriteLeads(w io.Writer, leads []model.Lead) error {
	rows := make([][]string, len(leads))
	for i, l := range leads {
		rows[i] = MarshalLead(l)
	}
	return write(w, leadsHeader, rows)
}

// MarshalSalesOrder converts a SalesOrder to a CSV row.
func MarshalSalesOrder(o model.SalesOrder) []string {
	return []string{
		text(o.Name),
		ref(o.Customer),
		text(o.DateOrder),
		o.AmountTotal.String(),
		text(o.State),
		ref(o.Salesperson),
		ref(o.Team),
	}
}

// MarshalLead converts a Lead to a CSV row.
func MarshalLead(l model.Lead) []string {
	return []string{
		text(l.Name),
		text(l.ContactName),
		text(l.Email),
		text(l.Phone),
		l.ExpectedRevenue.String(),
		ref(l.Stage),
		ref(l.Salesperson),
		ref(l.Team),
		text(l.CreateDate),
	}
}

// FileName names an export of kind ("sales", "crm") produced on day.
func FileName(kind string, day time.Time) string {
	return fmt.Sprintf("%s_report_%s.csv", kind, day.Format(model.DateLayout))
}

func write(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func text(t model.Text) string {
	if t == "" {
		return Missing
	}
	return string(t)
}

func ref(r model.Ref) string {
	if r.IsZero() || r.Name == "" {
		return Missing
	}
	return r.Name
}
