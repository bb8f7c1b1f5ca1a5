// Package rpctest provides an in-memory remote ledger for tests.
package rpctest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgerlens/internal/model"
	"github.com/cleared-dev/ledgerlens/internal/rpc"
)

// Line is a stored ledger line.
type Line struct {
	AccountID int64
	Date      time.Time
	Debit     decimal.Decimal
	Credit    decimal.Decimal
	State     string // "posted", "draft", ...
}

// Call records one call the fake received.
type Call struct {
	Entity string
	Method string
	Args   json.RawMessage
	Kwargs json.RawMessage
}

// Hook runs before every call is answered. A non-nil error is returned to
// the caller instead of the answer.
type Hook func(ctx context.Context, entity, method string) error

// Ledger is a fake remote ledger implementing rpc.Caller. It answers
// account.account search_read, account.move.line read_group and
// search_read over arbitrary stored records.
type Ledger struct {
	mu       sync.Mutex
	accounts []model.Account
	lines    []Line
	records  map[string][]map[string]any
	calls    []Call
	hook     Hook
	users    map[string]user
}

type user struct {
	uid      int64
	password string
}

// New creates an empty Ledger.
func New() *Ledger {
	return &Ledger{
		records: make(map[string][]map[string]any),
		users:   make(map[string]user),
	}
}

// AddAccount stores an account of the given type.
func (l *Ledger) AddAccount(id int64, typ model.AccountType) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts = append(l.accounts, model.Account{ID: id, Type: typ})
}

// AddLine stores a ledger line. Amounts are decimal strings.
func (l *Ledger) AddLine(accountID int64, date, debit, credit, state string) {
	d, err := time.Parse(model.DateLayout, date)
	if err != nil {
		panic(err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, Line{
		AccountID: accountID,
		Date:      d,
		Debit:     decimal.RequireFromString(debit),
		Credit:    decimal.RequireFromString(credit),
		State:     state,
	})
}

// AddRecord stores a generic record for search_read on entity.
func (l *Ledger) AddRecord(entity string, rec map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records[entity] = append(l.records[entity], rec)
}

// SetHook installs h, replacing any previous hook.
func (l *Ledger) SetHook(h Hook) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hook = h
}

// Calls returns a copy of the calls received so far.
func (l *Ledger) Calls() []Call {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Call(nil), l.calls...)
}

// CallCount returns how many calls for entity.method were received.
func (l *Ledger) CallCount(entity, method string) int {
	n := 0
	for _, c := range l.Calls() {
		if c.Entity == entity && c.Method == method {
			n++
		}
	}
	return n
}

// Call implements rpc.Caller.
func (l *Ledger) Call(ctx context.Context, _ rpc.Credentials, entity, method string, args []any, kwargs map[string]any) (json.RawMessage, error) {
	rawArgs, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	rawKwargs, err := json.Marshal(kwargs)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.calls = append(l.calls, Call{Entity: entity, Method: method, Args: rawArgs, Kwargs: rawKwargs})
	hook := l.hook
	l.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, entity, method); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, &rpc.TransportError{Op: entity + "." + method, Err: err}
	}

	var positional []json.RawMessage
	if err := json.Unmarshal(rawArgs, &positional); err != nil {
		return nil, err
	}
	var domain []term
	if len(positional) > 0 {
		if domain, err = parseDomain(positional[0]); err != nil {
			return nil, &rpc.RemoteError{Op: entity + "." + method, Message: err.Error()}
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	switch {
	case entity == "account.account" && method == "search_read":
		return l.searchAccounts(domain)
	case entity == "account.move.line" && method == "read_group":
		return l.readGroup(domain)
	case method == "search_read":
		return l.searchRecords(entity, domain, kwargs)
	}
	return nil, &rpc.RemoteError{Op: entity + "." + method, Message: "method not supported by fake ledger"}
}

type term struct {
	field string
	op    string
	value any
}

func parseDomain(raw json.RawMessage) ([]term, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var items [][]any
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("malformed domain %s: %w", raw, err)
	}
	terms := make([]term, 0, len(items))
	for _, it := range items {
		if len(it) != 3 {
			return nil, fmt.Errorf("malformed domain term %v", it)
		}
		field, _ := it[0].(string)
		op, _ := it[1].(string)
		terms = append(terms, term{field: field, op: op, value: it[2]})
	}
	return terms, nil
}

func (l *Ledger) searchAccounts(domain []term) (json.RawMessage, error) {
	rows := []map[string]any{}
	for _, a := range l.accounts {
		if matchAll(domain, map[string]any{"id": a.ID, "account_type": string(a.Type)}) {
			rows = append(rows, map[string]any{"id": a.ID})
		}
	}
	return json.Marshal(rows)
}

func (l *Ledger) readGroup(domain []term) (json.RawMessage, error) {
	type agg struct {
		debit, credit decimal.Decimal
		count         int
	}
	groups := make(map[int64]*agg)
	for _, line := range l.lines {
		rec := map[string]any{
			"account_id":   line.AccountID,
			"date":         line.Date.Format(model.DateLayout),
			"parent_state": line.State,
		}
		if !matchAll(domain, rec) {
			continue
		}
		g, ok := groups[line.AccountID]
		if !ok {
			g = &agg{}
			groups[line.AccountID] = g
		}
		g.debit = g.debit.Add(line.Debit)
		g.credit = g.credit.Add(line.Credit)
		g.count++
	}

	ids := make([]int64, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	rows := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		g := groups[id]
		rows = append(rows, map[string]any{
			"account_id": []any{id, fmt.Sprintf("Account %d", id)},
			"debit":      json.Number(g.debit.String()),
			"credit":     json.Number(g.credit.String()),
			"__count":    g.count,
		})
	}
	return json.Marshal(rows)
}

func (l *Ledger) searchRecords(entity string, domain []term, kwargs map[string]any) (json.RawMessage, error) {
	limit := 0
	switch v := kwargs["limit"].(type) {
	case int:
		limit = v
	case float64:
		limit = int(v)
	case json.Number:
		n, _ := v.Int64()
		limit = int(n)
	}
	rows := []map[string]any{}
	for _, rec := range l.records[entity] {
		if !matchAll(domain, rec) {
			continue
		}
		rows = append(rows, rec)
		if limit > 0 && len(rows) == limit {
			break
		}
	}
	return json.Marshal(rows)
}

func matchAll(domain []term, rec map[string]any) bool {
	for _, t := range domain {
		if !match(t, rec[t.field]) {
			return false
		}
	}
	return true
}

func match(t term, got any) bool {
	switch t.op {
	case "=":
		return equal(got, t.value)
	case "in":
		list, _ := t.value.([]any)
		for _, v := range list {
			if equal(got, v) {
				return true
			}
		}
		return false
	case ">=":
		return compare(got, t.value) >= 0
	case "<=":
		return compare(got, t.value) <= 0
	}
	return false
}

// Values are compared through their string forms; stored many-to-one
// fields ([id, name]) compare by id.
func key(v any) string {
	switch x := v.(type) {
	case []any:
		if len(x) > 0 {
			return key(x[0])
		}
		return ""
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

func equal(a, b any) bool { return key(a) == key(b) }

func compare(a, b any) int { return strings.Compare(key(a), key(b)) }
