package listing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledgerlens/internal/model"
	"github.com/cleared-dev/ledgerlens/internal/rpc"
	"github.com/cleared-dev/ledgerlens/internal/rpc/rpctest"
)

var creds = rpc.Credentials{UID: 2, Secret: "secret"}

func salesLedger() *rpctest.Ledger {
	l := rpctest.New()
	l.AddRecord("sale.order", map[string]any{
		"id": 1, "name": "S00001", "partner_id": []any{10, "Acme"},
		"date_order": "2024-05-05 09:30:00", "amount_total": 1200.5, "state": "sale",
		"user_id": []any{7, "Asha"}, "team_id": []any{3, "Direct"},
	})
	l.AddRecord("sale.order", map[string]any{
		"id": 2, "name": "S00002", "partner_id": []any{11, "Globex"},
		"date_order": "2024-05-31 23:00:00", "amount_total": 300, "state": "draft",
		"user_id": []any{8, "Ravi"}, "team_id": false,
	})
	l.AddRecord("sale.order", map[string]any{
		"id": 3, "name": "S00003", "partner_id": false,
		"date_order": "2024-06-01 00:00:00", "amount_total": 50, "state": "sale",
		"user_id": false, "team_id": []any{3, "Direct"},
	})
	return l
}

func TestSales(t *testing.T) {
	l := salesLedger()
	svc := NewService(l, 0)

	orders, err := svc.Sales(context.Background(), creds, Filter{Year: 2024, Month: 5})
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "S00001", string(orders[0].Name))
	assert.Equal(t, "Acme", orders[0].Customer.Name)
	assert.Equal(t, "S00002", string(orders[1].Name))
	assert.True(t, orders[1].Team.IsZero())
	assert.Equal(t, "1500.5", model.SumSales(orders).String())

	calls := l.Calls()
	require.Len(t, calls, 1)
	assert.JSONEq(t, `{"fields":["name","partner_id","date_order","amount_total","state","user_id","team_id"],"limit":1000}`, string(calls[0].Kwargs))
}

func TestSales_ByPeople(t *testing.T) {
	svc := NewService(salesLedger(), 0)

	orders, err := svc.Sales(context.Background(), creds, Filter{TeamID: 3})
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, int64(1), orders[0].ID)
	assert.Equal(t, int64(3), orders[1].ID)

	orders, err = svc.Sales(context.Background(), creds, Filter{SalespersonID: 8})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "Ravi", orders[0].Salesperson.Name)
}

func TestSales_Limit(t *testing.T) {
	orders, err := NewService(salesLedger(), 1).Sales(context.Background(), creds, Filter{})
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestSales_InvalidFilter(t *testing.T) {
	l := salesLedger()
	_, err := NewService(l, 0).Sales(context.Background(), creds, Filter{Month: 4})
	require.Error(t, err)
	assert.Empty(t, l.Calls())
}

func TestLeads(t *testing.T) {
	l := rpctest.New()
	l.AddRecord("crm.lead", map[string]any{
		"id": 1, "name": "Website redesign", "contact_name": "Priya", "email_from": "priya@example.com",
		"phone": false, "expected_revenue": 25000, "stage_id": []any{1, "New"},
		"user_id": []any{7, "Asha"}, "team_id": []any{3, "Direct"}, "create_date": "2024-03-14 11:00:00",
	})
	l.AddRecord("crm.lead", map[string]any{
		"id": 2, "name": "Old lead", "contact_name": false, "email_from": false,
		"phone": "555-0100", "expected_revenue": 0, "stage_id": false,
		"user_id": false, "team_id": false, "create_date": "2023-01-02 08:00:00",
	})

	leads, err := NewService(l, 0).Leads(context.Background(), creds, Filter{Year: 2024, Month: 3, Day: 14})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "Priya", string(leads[0].ContactName))
	assert.Empty(t, string(leads[0].Phone))
	assert.Equal(t, "New", leads[0].Stage.Name)
	assert.True(t, leads[0].ExpectedRevenue.Equal(model.SumExpectedRevenue(leads)))

	require.Len(t, l.Calls(), 1)
	assert.JSONEq(t, `[[["create_date",">=","2024-03-14 00:00:00"],["create_date","<=","2024-03-14 23:59:59"]]]`, string(l.Calls()[0].Args))
}

func TestSalespersonsAndTeams(t *testing.T) {
	l := rpctest.New()
	l.AddRecord("res.users", map[string]any{"id": 7, "name": "Asha", "share": false})
	l.AddRecord("res.users", map[string]any{"id": 9, "name": "Portal user", "share": true})
	l.AddRecord("crm.team", map[string]any{"id": 3, "name": "Direct"})
	svc := NewService(l, 0)

	users, err := svc.Salespersons(context.Background(), creds)
	require.NoError(t, err)
	assert.Equal(t, []model.Partner{{ID: 7, Name: "Asha"}}, users)

	teams, err := svc.Teams(context.Background(), creds)
	require.NoError(t, err)
	assert.Equal(t, []model.Partner{{ID: 3, Name: "Direct"}}, teams)

	calls := l.Calls()
	require.Len(t, calls, 2)
	assert.JSONEq(t, `{"fields":["id","name"],"limit":500}`, string(calls[0].Kwargs))
	assert.JSONEq(t, `[[]]`, string(calls[1].Args))
	assert.JSONEq(t, `{"fields":["id","name"],"limit":200}`, string(calls[1].Kwargs))
}

func TestRemoteErrorPropagates(t *testing.T) {
	l := rpctest.New()
	l.SetHook(func(context.Context, string, string) error {
		return &rpc.RemoteError{Message: "Access Denied"}
	})

	_, err := NewService(l, 0).Teams(context.Background(), creds)
	var re *rpc.RemoteError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "Access Denied", re.Message)
}
