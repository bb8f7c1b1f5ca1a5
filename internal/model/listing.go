package model

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Partner is an {id, name} pair used to populate salesperson and team filters.
type Partner struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Ref is a many-to-one reference. The ledger encodes it as [id, "display
// name"], or false when unset.
type Ref struct {
	ID   int64
	Name string
}

// IsZero reports whether the reference is unset.
func (r Ref) IsZero() bool { return r.ID == 0 }

// UnmarshalJSON accepts [id, "name"], false and null.
func (r *Ref) UnmarshalJSON(data []byte) error {
	*r = Ref{}
	if isFalsy(data) {
		return nil
	}
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("decoding reference %s: %w", data, err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("reference %s: expected [id, name]", data)
	}
	if err := json.Unmarshal(pair[0], &r.ID); err != nil {
		return fmt.Errorf("reference id %s: %w", pair[0], err)
	}
	if err := json.Unmarshal(pair[1], &r.Name); err != nil {
		return fmt.Errorf("reference name %s: %w", pair[1], err)
	}
	return nil
}

// MarshalJSON encodes the reference back to [id, "name"], or false.
func (r Ref) MarshalJSON() ([]byte, error) {
	if r.IsZero() {
		return []byte("false"), nil
	}
	return json.Marshal([]any{r.ID, r.Name})
}

// Text is a string field the ledger reports as false when empty.
type Text string

// UnmarshalJSON accepts a string, false and null.
func (t *Text) UnmarshalJSON(data []byte) error {
	if isFalsy(data) {
		*t = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = Text(s)
	return nil
}

func isFalsy(data []byte) bool {
	data = bytes.TrimSpace(data)
	return bytes.Equal(data, []byte("false")) || bytes.Equal(data, []byte("null"))
}

// SalesOrder is one row of the sales listing.
type SalesOrder struct {
	ID          int64           `json:"id"`
	Name        Text            `json:"name"`
	Customer    Ref             `json:"partner_id"`
	DateOrder   Text            `json:"date_order"`
	AmountTotal decimal.Decimal `json:"amount_total"`
	State       Text            `json:"state"`
	Salesperson Ref             `json:"user_id"`
	Team        Ref             `json:"team_id"`
}

// Lead is one row of the CRM listing.
type Lead struct {
	ID              int64           `json:"id"`
	Name            Text            `json:"name"`
	ContactName     Text            `json:"contact_name"`
	Email           Text            `json:"email_from"`
	Phone           Text            `json:"phone"`
	ExpectedRevenue decimal.Decimal `json:"expected_revenue"`
	Stage           Ref             `json:"stage_id"`
	Salesperson     Ref             `json:"user_id"`
	Team            Ref             `json:"team_id"`
	CreateDate      Text            `json:"create_date"`
}

// SumSales totals AmountTotal over orders.
func SumSales(orders []SalesOrder) decimal.Decimal {
	total := decimal.Zero
	for _, o := range orders {
		total = total.Add(o.AmountTotal)
	}
	return total
}

// SumExpectedRevenue totals ExpectedRevenue over leads.
func SumExpectedRevenue(leads []Lead) decimal.Decimal {
	total := decimal.Zero
	for _, l := range leads {
		total = total.Add(l.ExpectedRevenue)
	}
	return total
}
