package rpctest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/cleared-dev/ledgerlens/internal/rpc"
)

// AddUser registers a login. Calls over Handler must present the uid and
// password of a registered user.
func (l *Ledger) AddUser(username, password string, uid int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.users[username] = user{uid: uid, password: password}
}

func (l *Ledger) authenticate(username, password string) (int64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	u, ok := l.users[username]
	if !ok || u.password != password {
		return 0, false
	}
	return u.uid, true
}

func (l *Ledger) authorized(uid int64, secret string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, u := range l.users {
		if u.uid == uid && u.password == secret {
			return true
		}
	}
	return false
}

// Handler serves the ledger over JSON-RPC at any path, answering
// common.login and object.execute_kw.
func (l *Ledger) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     any `json:"id"`
			Params struct {
				Service string            `json:"service"`
				Method  string            `json:"method"`
				Args    []json.RawMessage `json:"args"`
			} `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		resp := rpc.Response{JSONRPC: "2.0", ID: req.ID}
		result, err := l.dispatch(r, req.Params.Service, req.Params.Method, req.Params.Args)

		var re *rpc.RemoteError
		var te *rpc.TransportError
		switch {
		case errors.As(err, &te):
			http.Error(w, te.Error(), http.StatusBadGateway)
			return
		case errors.As(err, &re):
			resp.Error = &rpc.RPCError{
				Code:    200,
				Message: "Odoo Server Error",
				Data:    &rpc.ErrorData{Name: re.Name, Message: re.Message},
			}
		case err != nil:
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		default:
			resp.Result = result
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})
}

func (l *Ledger) dispatch(r *http.Request, service, method string, args []json.RawMessage) (json.RawMessage, error) {
	switch {
	case service == "common" && method == "login":
		var username, password string
		if len(args) != 3 || json.Unmarshal(args[1], &username) != nil || json.Unmarshal(args[2], &password) != nil {
			return nil, &rpc.RemoteError{Op: "common.login", Message: "malformed login"}
		}
		if uid, ok := l.authenticate(username, password); ok {
			return json.Marshal(uid)
		}
		return json.RawMessage("false"), nil

	case service == "object" && method == "execute_kw":
		if len(args) < 5 {
			return nil, &rpc.RemoteError{Op: "object.execute_kw", Message: fmt.Sprintf("expected at least 5 args, got %d", len(args))}
		}
		var creds rpc.Credentials
		var entity, call string
		if err := errors.Join(
			json.Unmarshal(args[1], &creds.UID),
			json.Unmarshal(args[2], &creds.Secret),
			json.Unmarshal(args[3], &entity),
			json.Unmarshal(args[4], &call),
		); err != nil {
			return nil, &rpc.RemoteError{Op: "object.execute_kw", Message: err.Error()}
		}
		if !l.authorized(creds.UID, creds.Secret) {
			return nil, &rpc.RemoteError{Op: entity + "." + call, Message: "Access Denied", Name: "odoo.exceptions.AccessDenied"}
		}

		var positional []any
		kwargs := map[string]any{}
		if len(args) > 5 {
			if err := json.Unmarshal(args[5], &positional); err != nil {
				return nil, &rpc.RemoteError{Op: entity + "." + call, Message: err.Error()}
			}
		}
		if len(args) > 6 {
			if err := json.Unmarshal(args[6], &kwargs); err != nil {
				return nil, &rpc.RemoteError{Op: entity + "." + call, Message: err.Error()}
			}
		}
		return l.Call(r.Context(), creds, entity, call, positional, kwargs)
	}
	return nil, &rpc.RemoteError{Op: service + "." + method, Message: "unknown service method"}
}
