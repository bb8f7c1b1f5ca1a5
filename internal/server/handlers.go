package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cleared-dev/ledgerlens/internal/export"
	"github.com/cleared-dev/ledgerlens/internal/listing"
	"github.com/cleared-dev/ledgerlens/internal/model"
	"github.com/cleared-dev/ledgerlens/internal/statements"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if in.Username == "" || in.Password == "" {
		respondError(w, r, http.StatusBadRequest, "username and password are required")
		return
	}

	session, err := s.auth.Login(r.Context(), in.Username, in.Password)
	if err != nil {
		s.fail(w, r, "login failed", err)
		return
	}
	respondJSON(w, r, http.StatusOK, session)
}

func (s *Server) handleProfitAndLoss(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil || year < 1 || year > 9999 {
		respondError(w, r, http.StatusBadRequest, "year must be a four-digit year")
		return
	}
	creds := credentialsFrom(r.Context())

	var stmt model.PnLStatement
	err = statements.Run(r.Context(), s.reports, reportKey(creds.UID, "profit-and-loss"),
		func(ctx context.Context) (model.PnLStatement, error) {
			return s.composer.ProfitAndLoss(ctx, creds, year)
		},
		func(v model.PnLStatement) { stmt = v })
	if err != nil {
		s.fail(w, r, "profit and loss failed", err)
		return
	}
	respondJSON(w, r, http.StatusOK, stmt)
}

func (s *Server) handleBalanceSheet(w http.ResponseWriter, r *http.Request) {
	asOf := model.Day(s.now())
	if v := r.URL.Query().Get("date"); v != "" {
		d, err := model.ParseDate(v)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		asOf = d
	}
	if asOf.Before(s.composer.Epoch()) {
		respondError(w, r, http.StatusBadRequest,
			fmt.Sprintf("date precedes %s", s.composer.Epoch().Format(model.DateLayout)))
		return
	}
	creds := credentialsFrom(r.Context())

	var stmt model.BalanceSheetStatement
	err := statements.Run(r.Context(), s.reports, reportKey(creds.UID, "balance-sheet"),
		func(ctx context.Context) (model.BalanceSheetStatement, error) {
			return s.composer.BalanceSheet(ctx, creds, asOf)
		},
		func(v model.BalanceSheetStatement) { stmt = v })
	if err != nil {
		s.fail(w, r, "balance sheet failed", err)
		return
	}

	checked := stmt.Check(s.tolerance)
	if !checked.Balanced {
		s.log.Warn("balance sheet does not balance",
			zap.String("date", stmt.Date.Format(model.DateLayout)),
			zap.Stringer("difference", stmt.BalanceDifference))
	}
	respondJSON(w, r, http.StatusOK, checked)
}

type salesBody struct {
	Orders []model.SalesOrder `json:"orders"`
	Count  int                `json:"count"`
	Total  decimal.Decimal    `json:"total_amount"`
}

func (s *Server) handleSales(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	orders, err := s.listings.Sales(r.Context(), credentialsFrom(r.Context()), f)
	if err != nil {
		s.fail(w, r, "sales listing failed", err)
		return
	}

	if wantsCSV(r) {
		s.respondCSV(w, r, "sales", func(w io.Writer) error { return export.WriteSales(w, orders) })
		return
	}
	if orders == nil {
		orders = []model.SalesOrder{}
	}
	respondJSON(w, r, http.StatusOK, salesBody{Orders: orders, Count: len(orders), Total: model.SumSales(orders)})
}

type leadsBody struct {
	Leads []model.Lead    `json:"leads"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total_expected_revenue"`
}

func (s *Server) handleLeads(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	leads, err := s.listings.Leads(r.Context(), credentialsFrom(r.Context()), f)
	if err != nil {
		s.fail(w, r, "crm listing failed", err)
		return
	}

	if wantsCSV(r) {
		s.respondCSV(w, r, "crm", func(w io.Writer) error { return export.WriteLeads(w, leads) })
		return
	}
	if leads == nil {
		leads = []model.Lead{}
	}
	respondJSON(w, r, http.StatusOK, leadsBody{Leads: leads, Count: len(leads), Total: model.SumExpectedRevenue(leads)})
}

func (s *Server) handleSalespersons(w http.ResponseWriter, r *http.Request) {
	users, err := s.listings.Salespersons(r.Context(), credentialsFrom(r.Context()))
	if err != nil {
		s.fail(w, r, "salesperson lookup failed", err)
		return
	}
	if users == nil {
		users = []model.Partner{}
	}
	respondJSON(w, r, http.StatusOK, users)
}

func (s *Server) handleTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := s.listings.Teams(r.Context(), credentialsFrom(r.Context()))
	if err != nil {
		s.fail(w, r, "team lookup failed", err)
		return
	}
	if teams == nil {
		teams = []model.Partner{}
	}
	respondJSON(w, r, http.StatusOK, teams)
}

func (s *Server) respondCSV(w http.ResponseWriter, r *http.Request, kind string, write func(io.Writer) error) {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		s.log.Error("writing csv", zap.String("kind", kind), zap.Error(err))
		respondError(w, r, http.StatusInternalServerError, "writing csv failed")
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(kind, s.now())))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := statusFor(err)
	fields := []zap.Field{
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		s.log.Error(msg, fields...)
	} else {
		s.log.Warn(msg, fields...)
	}
	respondError(w, r, status, messageFor(err))
}

func reportKey(uid int64, report string) string {
	return strconv.FormatInt(uid, 10) + ":" + report
}

func wantsCSV(r *http.Request) bool {
	return strings.EqualFold(r.URL.Query().Get("format"), "csv")
}

// parseFilter reads year, month, day, salesperson and team. Empty values
// and "all" select everything.
func parseFilter(q url.Values) (listing.Filter, error) {
	var f listing.Filter
	var err error
	if f.Year, err = intParam(q, "year"); err != nil {
		return f, err
	}
	if f.Month, err = intParam(q, "month"); err != nil {
		return f, err
	}
	if f.Day, err = intParam(q, "day"); err != nil {
		return f, err
	}
	sp, err := intParam(q, "salesperson")
	if err != nil {
		return f, err
	}
	team, err := intParam(q, "team")
	if err != nil {
		return f, err
	}
	f.SalespersonID, f.TeamID = int64(sp), int64(team)
	return f, f.Validate()
}

func intParam(q url.Values, name string) (int, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" || strings.EqualFold(v, "all") {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	return n, nil
}
