package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgerlens/internal/model"
	"github.com/cleared-dev/ledgerlens/internal/rpc"
)

// Remote entity and field names of ledger lines.
const (
	lineEntity   = "account.move.line"
	accountField = "account_id"
	dateField    = "date"
	stateField   = "parent_state"
)

// Aggregator folds server-side grouped debit/credit sums into signed totals.
type Aggregator struct {
	caller rpc.Caller
}

// NewAggregator creates an Aggregator reading through caller.
func NewAggregator(caller rpc.Caller) *Aggregator {
	return &Aggregator{caller: caller}
}

// Aggregate returns the signed total of posted lines on accountIDs within
// window. An empty id set is zero without a remote call. No rounding is
// applied.
func (a *Aggregator) Aggregate(ctx context.Context, creds rpc.Credentials, accountIDs []int64, window model.DateWindow, sign model.SignConvention) (decimal.Decimal, error) {
	if !sign.Valid() {
		return decimal.Zero, fmt.Errorf("aggregating: invalid sign convention %d", int(sign))
	}
	groups, err := a.Groups(ctx, creds, accountIDs, window)
	if err != nil {
		return decimal.Zero, err
	}
	return model.Fold(groups, sign), nil
}

// Groups issues one grouped-sum query for accountIDs within window and
// returns the per-account debit/credit totals. An empty id set returns nil
// without a remote call.
func (a *Aggregator) Groups(ctx context.Context, creds rpc.Credentials, accountIDs []int64, window model.DateWindow) ([]model.LedgerLineGroup, error) {
	if len(accountIDs) == 0 {
		return nil, nil
	}

	domain := rpc.Domain{
		rpc.Where(accountField, "in", accountIDs),
		rpc.Where(dateField, ">=", window.StartString()),
		rpc.Where(dateField, "<=", window.EndString()),
		rpc.Where(stateField, "=", model.PostedState),
	}
	raw, err := a.caller.Call(ctx, creds, lineEntity, "read_group",
		[]any{domain, []string{accountField, "debit", "credit"}, []string{accountField}},
		map[string]any{"lazy": false})
	if err != nil {
		return nil, fmt.Errorf("reading grouped ledger lines: %w", err)
	}

	groups, err := decodeGroups(raw)
	if err != nil {
		return nil, fmt.Errorf("reading grouped ledger lines: %w", err)
	}
	return groups, nil
}

func decodeGroups(raw json.RawMessage) ([]model.LedgerLineGroup, error) {
	var rows []map[string]any
	if len(bytes.TrimSpace(raw)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("decoding groups: %w", err)
		}
		switch x := v.(type) {
		case nil, bool:
			// The ledger answers false or null for "no groups".
		case []any:
			for i, item := range x {
				row, ok := item.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("group %d: expected object, got %T", i, item)
				}
				rows = append(rows, row)
			}
		default:
			return nil, fmt.Errorf("decoding groups: expected array, got %T", v)
		}
	}

	groups := make([]model.LedgerLineGroup, 0, len(rows))
	for i, row := range rows {
		debit, err := toDecimal(row["debit"])
		if err != nil {
			return nil, fmt.Errorf("group %d debit: %w", i, err)
		}
		credit, err := toDecimal(row["credit"])
		if err != nil {
			return nil, fmt.Errorf("group %d credit: %w", i, err)
		}
		groups = append(groups, model.LedgerLineGroup{
			AccountID: toID(row[accountField]),
			Debit:     debit,
			Credit:    credit,
			Count:     int(toID(row["__count"])),
		})
	}
	return groups, nil
}

// toDecimal converts a sum field. Missing, null and false sums are zero.
func toDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case json.Number:
		return decimal.NewFromString(n.String())
	case float64:
		return decimal.NewFromFloat(n), nil
	case string:
		return decimal.NewFromString(n)
	case nil, bool:
		return decimal.Zero, nil
	default:
		return decimal.Zero, fmt.Errorf("cannot convert %T to decimal", v)
	}
}

// toID reads an id from a number or a many-to-one [id, name] pair.
func toID(v any) int64 {
	switch x := v.(type) {
	case json.Number:
		n, _ := x.Int64()
		return n
	case float64:
		return int64(x)
	case []any:
		if len(x) > 0 {
			return toID(x[0])
		}
	}
	return 0
}
