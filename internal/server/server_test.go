package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledgerlens/internal/listing"
	"github.com/cleared-dev/ledgerlens/internal/model"
	"github.com/cleared-dev/ledgerlens/internal/rpc"
	"github.com/cleared-dev/ledgerlens/internal/rpc/rpctest"
	"github.com/cleared-dev/ledgerlens/internal/statements"
)

type fakeAuth struct{}

func (fakeAuth) Login(_ context.Context, username, password string) (rpc.Session, error) {
	if username == "admin" && password == "admin" {
		return rpc.Session{UID: 2, Username: username}, nil
	}
	return rpc.Session{}, rpc.ErrInvalidCredentials
}

var today = time.Date(2024, 12, 31, 15, 4, 5, 0, time.UTC)

func newLedger() *rpctest.Ledger {
	l := rpctest.New()
	l.AddAccount(101, model.AccountTypeAssetCash)
	l.AddAccount(201, model.AccountTypeLiabilityPayable)
	l.AddAccount(301, model.AccountTypeEquity)
	l.AddAccount(401, model.AccountTypeIncome)
	l.AddAccount(601, model.AccountTypeExpense)

	l.AddLine(101, "2024-01-10", "1000", "0", model.PostedState)
	l.AddLine(201, "2024-01-10", "0", "300", model.PostedState)
	l.AddLine(301, "2024-01-10", "0", "500", model.PostedState)
	l.AddLine(401, "2024-02-01", "0", "400", model.PostedState)
	l.AddLine(601, "2024-03-01", "200", "0", model.PostedState)

	l.AddRecord("sale.order", map[string]any{
		"id": 1, "name": "S00001", "partner_id": []any{10, "Acme"},
		"date_order": "2024-05-05 09:30:00", "amount_total": 1200.5, "state": "sale",
		"user_id": []any{7, "Asha"}, "team_id": []any{3, "Direct"},
	})
	l.AddRecord("crm.team", map[string]any{"id": 3, "name": "Direct"})
	return l
}

func newServer(caller rpc.Caller) *Server {
	return New(Options{
		Composer: statements.NewComposer(caller),
		Listings: listing.NewService(caller, 0),
		Auth:     fakeAuth{},
		Now:      func() time.Time { return today },
	})
}

func do(t *testing.T, h http.Handler, method, target, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if authed {
		req.Header.Set(headerUID, "2")
		req.Header.Set(headerSecret, "admin")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var env map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func TestHealthz(t *testing.T) {
	rec := do(t, newServer(newLedger()).Routes(), http.MethodGet, "/healthz", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(headerRequestID))
}

func TestRequestIDPropagates(t *testing.T) {
	h := newServer(newLedger()).Routes()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(headerRequestID, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(headerRequestID))
}

func TestLogin(t *testing.T) {
	h := newServer(newLedger()).Routes()

	rec := do(t, h, http.MethodPost, "/api/login", `{"username":"admin","password":"admin"}`, false)
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "success", env["status"])
	assert.Equal(t, map[string]any{"uid": float64(2), "username": "admin"}, env["data"])

	rec = do(t, h, http.MethodPost, "/api/login", `{"username":"admin","password":"nope"}`, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/login", `{"username":"admin"}`, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/login", `not json`, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCredentialsRequired(t *testing.T) {
	l := newLedger()
	h := newServer(l).Routes()

	rec := do(t, h, http.MethodGet, "/api/reports/profit-and-loss?year=2024", "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "error", decode(t, rec)["status"])
	assert.Empty(t, l.Calls())
}

func TestRespondEnvelope(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	respondJSON(rec, req, http.StatusCreated, map[string]int{"n": 1})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	assert.JSONEq(t, `{"status":"success","data":{"n":1}}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	respondError(rec, req, http.StatusBadGateway, "ledger unavailable")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"status":"error","message":"ledger unavailable"}`, rec.Body.String())
}

func TestProfitAndLoss(t *testing.T) {
	h := newServer(newLedger()).Routes()

	rec := do(t, h, http.MethodGet, "/api/reports/profit-and-loss?year=2024", "", true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, float64(2024), data["year"])
	assert.Equal(t, "400", data["total_income"])
	assert.Equal(t, "200", data["net_income"])

	for _, q := range []string{"", "year=twenty", "year=0"} {
		rec = do(t, h, http.MethodGet, "/api/reports/profit-and-loss?"+q, "", true)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestBalanceSheet(t *testing.T) {
	h := newServer(newLedger()).Routes()

	rec := do(t, h, http.MethodGet, "/api/reports/balance-sheet?date=2024-12-31", "", true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, "2024-12-31", data["date"])
	assert.Equal(t, "1000", data["total_assets"])
	assert.Equal(t, "300", data["total_liabilities"])
	assert.Equal(t, "700", data["total_equity"])
	assert.Equal(t, "0", data["balance_difference"])
	assert.Equal(t, true, data["balanced"])

	rec = do(t, h, http.MethodGet, "/api/reports/balance-sheet?date=2024-01-01", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	data = decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, "0", data["total_assets"])
	assert.Equal(t, true, data["balanced"])
}

func TestBalanceSheet_DefaultsToToday(t *testing.T) {
	h := newServer(newLedger()).Routes()
	rec := do(t, h, http.MethodGet, "/api/reports/balance-sheet", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2024-12-31", decode(t, rec)["data"].(map[string]any)["date"])
}

func TestBalanceSheet_BadDate(t *testing.T) {
	l := newLedger()
	h := newServer(l).Routes()

	rec := do(t, h, http.MethodGet, "/api/reports/balance-sheet?date=31/12/2024", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, h, http.MethodGet, "/api/reports/balance-sheet?date=1999-12-31", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, l.Calls())
}

func TestSales(t *testing.T) {
	h := newServer(newLedger()).Routes()

	rec := do(t, h, http.MethodGet, "/api/sales?year=2024&month=5&salesperson=all", "", true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, float64(1), data["count"])
	assert.Equal(t, "1200.5", data["total_amount"])

	rec = do(t, h, http.MethodGet, "/api/sales?year=2024&format=csv", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "sales_report_2024-12-31.csv")
	assert.Equal(t, "Order No,Customer,Date,Amount,Status,Salesperson,Team\nS00001,Acme,2024-05-05 09:30:00,1200.5,sale,Asha,Direct\n", rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/sales?year=2023", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	data = decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, []any{}, data["orders"])
}

func TestListingBadFilter(t *testing.T) {
	l := newLedger()
	h := newServer(l).Routes()

	for _, q := range []string{"month=5", "year=2024&day=3", "year=abc", "team=x"} {
		rec := do(t, h, http.MethodGet, "/api/crm?"+q, "", true)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
	assert.Empty(t, l.Calls())
}

func TestCRMCSVHeaderOnly(t *testing.T) {
	h := newServer(newLedger()).Routes()
	rec := do(t, h, http.MethodGet, "/api/crm?format=CSV", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "crm_report_2024-12-31.csv")
	assert.Equal(t, "Lead Name,Contact,Email,Phone,Expected Revenue,Stage,Salesperson,Team,Created On\n", rec.Body.String())
}

func TestTeamsAndSalespersons(t *testing.T) {
	h := newServer(newLedger()).Routes()

	rec := do(t, h, http.MethodGet, "/api/teams", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{map[string]any{"id": float64(3), "name": "Direct"}}, decode(t, rec)["data"])

	rec = do(t, h, http.MethodGet, "/api/salespersons", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, decode(t, rec)["data"])
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"remote", &rpc.RemoteError{Op: "crm.team.search_read", Message: "Access Denied"}, http.StatusBadGateway, "Access Denied"},
		{"timeout", &rpc.TransportError{Op: "crm.team.search_read", Err: context.DeadlineExceeded}, http.StatusGatewayTimeout, ""},
		{"unreachable", &rpc.TransportError{Op: "crm.team.search_read", Status: 503, Err: io.ErrUnexpectedEOF}, http.StatusBadGateway, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLedger()
			l.SetHook(func(context.Context, string, string) error { return tt.err })

			rec := do(t, newServer(l).Routes(), http.MethodGet, "/api/teams", "", true)
			assert.Equal(t, tt.status, rec.Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, decode(t, rec)["message"])
			}
		})
	}
}

func TestSupersededReportAnswersConflict(t *testing.T) {
	l := newLedger()
	var once sync.Once
	blocked := make(chan struct{})

	// Aggregations for 2023 park until their request is cancelled.
	caller := rpc.CallerFunc(func(ctx context.Context, creds rpc.Credentials, entity, method string, args []any, kwargs map[string]any) (json.RawMessage, error) {
		raw, _ := json.Marshal(args)
		if method == "read_group" && strings.Contains(string(raw), "2023-01-01") {
			once.Do(func() { close(blocked) })
			<-ctx.Done()
			return nil, &rpc.TransportError{Op: entity + "." + method, Err: ctx.Err()}
		}
		return l.Call(ctx, creds, entity, method, args, kwargs)
	})
	h := newServer(caller).Routes()

	older := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		older <- do(t, h, http.MethodGet, "/api/reports/profit-and-loss?year=2023", "", true)
	}()

	select {
	case <-blocked:
	case <-time.After(2 * time.Second):
		t.Fatal("older request never reached the ledger")
	}

	newer := do(t, h, http.MethodGet, "/api/reports/profit-and-loss?year=2024", "", true)
	assert.Equal(t, http.StatusOK, newer.Code)

	select {
	case rec := <-older:
		assert.Equal(t, http.StatusConflict, rec.Code)
	case <-time.After(2 * time.Second):
		t.Fatal("older request was not superseded")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newServer(newLedger()).Routes()
	do(t, h, http.MethodGet, "/healthz", "", false)

	rec := do(t, h, http.MethodGet, "/metrics", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ledgerlens_http_requests_total")
}
