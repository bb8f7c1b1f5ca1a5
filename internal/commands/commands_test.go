package commands_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledgerlens/internal/commands"
	"github.com/cleared-dev/ledgerlens/internal/config"
	"github.com/cleared-dev/ledgerlens/internal/model"
	"github.com/cleared-dev/ledgerlens/internal/rpc/rpctest"
)

func runLedgerlens(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := commands.NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// project starts a fake ledger and writes a config pointing at it. It
// returns the flags every command needs.
func project(t *testing.T) (*rpctest.Ledger, []string) {
	t.Helper()
	l := rpctest.New()
	l.AddUser("admin", "secret", 2)

	l.AddAccount(101, model.AccountTypeAssetCash)
	l.AddAccount(201, model.AccountTypeLiabilityPayable)
	l.AddAccount(301, model.AccountTypeEquity)
	l.AddAccount(401, model.AccountTypeIncome)
	l.AddAccount(501, model.AccountTypeExpenseDirectCost)
	l.AddAccount(601, model.AccountTypeExpense)
	l.AddAccount(701, model.AccountTypeExpenseDepreciation)

	l.AddLine(101, "2023-01-05", "1000000", "0", model.PostedState)
	l.AddLine(201, "2023-01-05", "0", "350000", model.PostedState)
	l.AddLine(301, "2023-01-05", "0", "500000", model.PostedState)
	l.AddLine(401, "2023-04-01", "0", "500000", model.PostedState)
	l.AddLine(501, "2023-04-02", "200000", "0", model.PostedState)
	l.AddLine(601, "2023-05-01", "150000", "0", model.PostedState)
	l.AddLine(701, "2023-12-31", "20000", "0", model.PostedState)

	l.AddRecord("sale.order", map[string]any{
		"id": 1, "name": "S00001", "partner_id": []any{10, "Acme"},
		"date_order": "2023-05-05 09:30:00", "amount_total": 1200.5, "state": "sale",
		"user_id": []any{7, "Asha"}, "team_id": false,
	})
	l.AddRecord("crm.lead", map[string]any{
		"id": 1, "name": "Website redesign", "contact_name": "Priya", "email_from": false,
		"phone": false, "expected_revenue": 25000, "stage_id": []any{1, "New"},
		"user_id": false, "team_id": false, "create_date": "2023-05-14 11:00:00",
	})

	srv := httptest.NewServer(l.Handler())
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cfg := config.Default(srv.URL, "test")
	cfg.Remote.Retries = 0
	cfg.Log.Level = "error"
	path := filepath.Join(dir, config.FileName)
	require.NoError(t, config.Save(path, cfg))

	return l, []string{
		"--config", path,
		"--env-file", filepath.Join(dir, ".env"),
		"--username", "admin",
		"--password", "secret",
	}
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	out, err := runLedgerlens(t, "init", dir, "--url", "https://erp.example.com", "--database", "prod")
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized ledgerlens config")

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, "https://erp.example.com", cfg.Remote.URL)
	assert.Equal(t, "prod", cfg.Remote.Database)

	env, err := os.ReadFile(filepath.Join(dir, ".env"))
	require.NoError(t, err)
	assert.Contains(t, string(env), "LEDGERLENS_PASSWORD=")

	ignore, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, ".env\n", string(ignore))

	_, err = runLedgerlens(t, "init", dir, "--url", "https://erp.example.com", "--database", "prod")
	require.Error(t, err, "init must not overwrite without --force")

	_, err = runLedgerlens(t, "init", dir, "--url", "https://erp.example.com", "--database", "prod", "--force")
	require.NoError(t, err)
	ignore, err = os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, ".env\n", string(ignore), ".gitignore entry is not duplicated")
}

func TestInit_RequiresURL(t *testing.T) {
	_, err := runLedgerlens(t, "init", t.TempDir(), "--database", "prod")
	require.Error(t, err)
}

func TestLogin(t *testing.T) {
	_, flags := project(t)

	out, err := runLedgerlens(t, append([]string{"login"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as admin (uid 2)")
}

func TestLogin_WrongPassword(t *testing.T) {
	_, flags := project(t)
	flags[len(flags)-1] = "wrong"

	_, err := runLedgerlens(t, append([]string{"login"}, flags...)...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid credentials")
}

func TestLogin_CredentialsFromEnv(t *testing.T) {
	_, flags := project(t)
	t.Setenv("LEDGERLENS_USERNAME", "admin")
	t.Setenv("LEDGERLENS_PASSWORD", "secret")

	out, err := runLedgerlens(t, append([]string{"login"}, flags[:4]...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "uid 2")
}

func TestLogin_MissingCredentials(t *testing.T) {
	_, flags := project(t)
	t.Setenv("LEDGERLENS_USERNAME", "")
	t.Setenv("LEDGERLENS_PASSWORD", "")

	_, err := runLedgerlens(t, append([]string{"login"}, flags[:4]...)...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "username and password are required")
}

func TestProfitAndLoss(t *testing.T) {
	_, flags := project(t)

	out, err := runLedgerlens(t, append([]string{"pnl", "--year", "2023"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Profit & Loss 2023")
	assert.Contains(t, out, "300000.00")
	assert.Regexp(t, `Net income\s+130000\.00`, out)

	out, err = runLedgerlens(t, append([]string{"pnl", "--year", "2023", "--json"}, flags...)...)
	require.NoError(t, err)
	var stmt map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &stmt))
	assert.Equal(t, "130000", stmt["net_income"])
}

func TestBalanceSheet(t *testing.T) {
	_, flags := project(t)

	out, err := runLedgerlens(t, append([]string{"balance-sheet", "--date", "2023-12-31"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Balance Sheet as of 2023-12-31")
	assert.Contains(t, out, "Balanced: yes")

	out, err = runLedgerlens(t, append([]string{"balance-sheet", "--date", "2023-12-31", "--json"}, flags...)...)
	require.NoError(t, err)
	var stmt map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &stmt))
	assert.Equal(t, "1000000", stmt["total_assets"])
	assert.Equal(t, "350000", stmt["total_liabilities"])
	assert.Equal(t, "650000", stmt["total_equity"])
	assert.Equal(t, true, stmt["balanced"])
}

func TestBalanceSheet_BadDate(t *testing.T) {
	l, flags := project(t)

	_, err := runLedgerlens(t, append([]string{"balance-sheet", "--date", "12/31/2023"}, flags...)...)
	require.Error(t, err)
	assert.Empty(t, l.Calls())
}

func TestSales(t *testing.T) {
	_, flags := project(t)

	out, err := runLedgerlens(t, append([]string{"sales", "--year", "2023", "--csv"}, flags...)...)
	require.NoError(t, err)
	assert.Equal(t, "Order No,Customer,Date,Amount,Status,Salesperson,Team\nS00001,Acme,2023-05-05 09:30:00,1200.5,sale,Asha,N/A\n", out)

	out, err = runLedgerlens(t, append([]string{"sales", "--year", "2023", "--month", "5"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "S00001")
	assert.Contains(t, out, "1 orders, total 1200.50")

	out, err = runLedgerlens(t, append([]string{"sales", "--year", "2024"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "0 orders, total 0.00")
}

func TestCRM_ToFile(t *testing.T) {
	_, flags := project(t)
	path := filepath.Join(t.TempDir(), "leads.csv")

	out, err := runLedgerlens(t, append([]string{"crm", "--csv", "--out", path}, flags...)...)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Website redesign,Priya,N/A,N/A,25000,New,N/A,N/A,2023-05-14 11:00:00")
}

func TestCRM_InvalidFilter(t *testing.T) {
	l, flags := project(t)

	_, err := runLedgerlens(t, append([]string{"crm", "--month", "5"}, flags...)...)
	require.Error(t, err)
	assert.Empty(t, l.Calls())
}

func TestVersion(t *testing.T) {
	out, err := runLedgerlens(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "dev (commit: none")
}
