package accounts

import (
	"context"
	"fmt"

	"github.com/cleared-dev/ledgerlens/internal/model"
	"github.com/cleared-dev/ledgerlens/internal/rpc"
)

// Remote entity and field names of the chart of accounts.
const (
	accountEntity    = "account.account"
	accountTypeField = "account_type"
)

// Classifier resolves account classifications to concrete account ids on
// the remote ledger.
type Classifier struct {
	caller rpc.Caller
}

// NewClassifier creates a Classifier reading through caller.
func NewClassifier(caller rpc.Caller) *Classifier {
	return &Classifier{caller: caller}
}

// AccountIDsForTypes returns the ids of every account whose type is in
// types. It always issues exactly one search, even for an empty list.
func (c *Classifier) AccountIDsForTypes(ctx context.Context, creds rpc.Credentials, types []model.AccountType) ([]int64, error) {
	codes := make([]string, len(types))
	for i, t := range types {
		codes[i] = string(t)
	}

	domain := rpc.Domain{rpc.Where(accountTypeField, "in", codes)}
	raw, err := c.caller.Call(ctx, creds, accountEntity, "search_read",
		[]any{domain},
		map[string]any{"fields": []string{"id"}})
	if err != nil {
		return nil, fmt.Errorf("searching accounts: %w", err)
	}

	var accts []model.Account
	if err := rpc.Decode(raw, &accts); err != nil {
		return nil, fmt.Errorf("searching accounts: %w", err)
	}
	return model.AccountIDs(accts), nil
}

// IDsForSection resolves the account ids of a statement section and
// returns them with the section's classification.
func (c *Classifier) IDsForSection(ctx context.Context, creds rpc.Credentials, section model.Section) ([]int64, Classification, error) {
	cls, ok := Lookup(section)
	if !ok {
		return nil, Classification{}, fmt.Errorf("unknown statement section %q", section)
	}
	ids, err := c.AccountIDsForTypes(ctx, creds, cls.Types)
	if err != nil {
		return nil, Classification{}, fmt.Errorf("classifying %s: %w", section, err)
	}
	return ids, cls, nil
}
