// Package listing reads filtered sales orders and CRM leads from the
// remote ledger, along with the salesperson and team lookups used to
// build filters.
package listing

import (
	"context"
	"fmt"

	"github.com/cleared-dev/ledgerlens/internal/model"
	"github.com/cleared-dev/ledgerlens/internal/rpc"
)

const (
	salesEntity = "sale.order"
	leadEntity  = "crm.lead"
	userEntity  = "res.users"
	teamEntity  = "crm.team"

	// DefaultLimit caps the rows a listing returns.
	DefaultLimit = 1000

	salespersonLimit = 500
	teamLimit        = 200
)

var (
	salesFields = []string{"name", "partner_id", "date_order", "amount_total", "state", "user_id", "team_id"}
	leadFields  = []string{"name", "contact_name", "email_from", "phone", "expected_revenue", "stage_id", "user_id", "team_id", "create_date"}
	refFields   = []string{"id", "name"}
)

// Service runs listing queries.
type Service struct {
	caller rpc.Caller
	limit  int
}

// NewService creates a Service reading through caller. A limit of zero or
// less uses DefaultLimit.
func NewService(caller rpc.Caller, limit int) *Service {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Service{caller: caller, limit: limit}
}

// Sales lists sales orders matching f, filtered on the order date.
func (s *Service) Sales(ctx context.Context, creds rpc.Credentials, f Filter) ([]model.SalesOrder, error) {
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("listing sales: %w", err)
	}
	var orders []model.SalesOrder
	if err := s.search(ctx, creds, salesEntity, f.Domain("date_order"), salesFields, s.limit, &orders); err != nil {
		return nil, fmt.Errorf("listing sales: %w", err)
	}
	return orders, nil
}

// Leads lists CRM leads matching f, filtered on the creation date.
func (s *Service) Leads(ctx context.Context, creds rpc.Credentials, f Filter) ([]model.Lead, error) {
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("listing leads: %w", err)
	}
	var leads []model.Lead
	if err := s.search(ctx, creds, leadEntity, f.Domain("create_date"), leadFields, s.limit, &leads); err != nil {
		return nil, fmt.Errorf("listing leads: %w", err)
	}
	return leads, nil
}

// Salespersons lists internal (non-portal) users.
func (s *Service) Salespersons(ctx context.Context, creds rpc.Credentials) ([]model.Partner, error) {
	var users []model.Partner
	domain := rpc.Domain{rpc.Where("share", "=", false)}
	if err := s.search(ctx, creds, userEntity, domain, refFields, salespersonLimit, &users); err != nil {
		return nil, fmt.Errorf("listing salespersons: %w", err)
	}
	return users, nil
}

// Teams lists sales teams.
func (s *Service) Teams(ctx context.Context, creds rpc.Credentials) ([]model.Partner, error) {
	var teams []model.Partner
	if err := s.search(ctx, creds, teamEntity, nil, refFields, teamLimit, &teams); err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}
	return teams, nil
}

func (s *Service) search(ctx context.Context, creds rpc.Credentials, entity string, domain rpc.Domain, fields []string, limit int, out any) error {
	raw, err := s.caller.Call(ctx, creds, entity, "search_read",
		[]any{domain},
		map[string]any{"fields": fields, "limit": limit})
	if err != nil {
		return err
	}
	if err := rpc.Decode(raw, out); err != nil {
		return fmt.Errorf("decoding %s rows: %w", entity, err)
	}
	return nil
}
