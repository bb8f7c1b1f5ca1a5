package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Credentials is the opaque session pair forwarded on every call. The
// client never stores, validates or refreshes it.
type Credentials struct {
	UID    int64
	Secret string
}

// Session is the result of a successful login.
type Session struct {
	UID      int64  `json:"uid"`
	Username string `json:"username"`
}

// Caller issues one call against the remote ledger and returns the
// unwrapped, undecoded result.
type Caller interface {
	Call(ctx context.Context, creds Credentials, entity, method string, args []any, kwargs map[string]any) (json.RawMessage, error)
}

// CallerFunc adapts a function to Caller.
type CallerFunc func(ctx context.Context, creds Credentials, entity, method string, args []any, kwargs map[string]any) (json.RawMessage, error)

// Call implements Caller.
func (f CallerFunc) Call(ctx context.Context, creds Credentials, entity, method string, args []any, kwargs map[string]any) (json.RawMessage, error) {
	return f(ctx, creds, entity, method, args, kwargs)
}

// Request is a JSON-RPC 2.0 call to the ledger's /jsonrpc endpoint.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  Params `json:"params"`
	ID      string `json:"id"`
}

// Params addresses a service method on the ledger.
type Params struct {
	Service string `json:"service"`
	Method  string `json:"method"`
	Args    []any  `json:"args"`
}

// Response is a JSON-RPC 2.0 response. Result is kept raw so callers
// decode it into their own shapes.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      any             `json:"id"`
}

// RPCError is the error member of a Response. Data carries the ledger's
// exception name and message.
type RPCError struct {
	Code    int        `json:"code"`
	Message string     `json:"message"`
	Data    *ErrorData `json:"data,omitempty"`
}

// ErrorData carries the backend exception details.
type ErrorData struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Options configures a Client.
type Options struct {
	URL          string // base URL; requests go to URL + "/jsonrpc"
	Database     string
	Timeout      time.Duration // per attempt
	Retries      int           // extra attempts after a TransportError
	RetryBackoff time.Duration // first backoff, doubled each retry
	HTTPClient   *http.Client
	Logger       *zap.Logger
}

// Client is the RemoteLedgerClient: it speaks JSON-RPC to the ledger.
type Client struct {
	endpoint string
	opts     Options
	http     *http.Client
	log      *zap.Logger
}

// NewClient creates a Client. Zero-valued options fall back to defaults.
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 250 * time.Millisecond
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		endpoint: strings.TrimRight(opts.URL, "/") + "/jsonrpc",
		opts:     opts,
		http:     httpClient,
		log:      logger,
	}
}

// Call runs entity.method through object.execute_kw. args and kwargs are
// forwarded verbatim.
func (c *Client) Call(ctx context.Context, creds Credentials, entity, method string, args []any, kwargs map[string]any) (json.RawMessage, error) {
	if args == nil {
		args = []any{}
	}
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	op := entity + "." + method
	params := Params{
		Service: "object",
		Method:  "execute_kw",
		Args:    []any{c.opts.Database, creds.UID, creds.Secret, entity, method, args, kwargs},
	}
	return c.invoke(ctx, op, entity, method, params)
}

// Login exchanges a username and password for a session uid.
func (c *Client) Login(ctx context.Context, username, password string) (Session, error) {
	params := Params{
		Service: "common",
		Method:  "login",
		Args:    []any{c.opts.Database, username, password},
	}
	raw, err := c.invoke(ctx, "common.login", "common", "login", params)
	if err != nil {
		return Session{}, err
	}

	var uid int64
	if isFalsy(raw) {
		return Session{}, ErrInvalidCredentials
	}
	if err := json.Unmarshal(raw, &uid); err != nil {
		return Session{}, &TransportError{Op: "common.login", Err: fmt.Errorf("decoding uid: %w", err)}
	}
	if uid == 0 {
		return Session{}, ErrInvalidCredentials
	}
	return Session{UID: uid, Username: username}, nil
}

func (c *Client) invoke(ctx context.Context, op, entity, method string, params Params) (json.RawMessage, error) {
	start := time.Now()
	backoff := c.opts.RetryBackoff

	for attempt := 0; ; attempt++ {
		result, err := c.roundTrip(ctx, op, params)
		if err == nil {
			observeCall(entity, method, outcomeOK, time.Since(start))
			return result, nil
		}

		if !IsRetryable(err) || attempt >= c.opts.Retries || ctx.Err() != nil {
			observeCall(entity, method, outcomeOf(err), time.Since(start))
			c.log.Debug("ledger call failed",
				zap.String("op", op),
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			return nil, err
		}

		c.log.Warn("retrying ledger call",
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(err))

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			observeCall(entity, method, outcomeOf(err), time.Since(start))
			return nil, &TransportError{Op: op, Err: ctx.Err()}
		case <-timer.C:
		}
		backoff *= 2
	}
}

func (c *Client) roundTrip(ctx context.Context, op string, params Params) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	body, err := json.Marshal(Request{
		JSONRPC: "2.0",
		Method:  "call",
		Params:  params,
		ID:      uuid.NewString(),
	})
	if err != nil {
		// Unencodable arguments are a caller bug, not a transport fault.
		return nil, fmt.Errorf("ledger %s: encoding request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ledger %s: building request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("reading response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{Op: op, Status: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}

	var rpcResp Response
	if err := json.Unmarshal(data, &rpcResp); err != nil {
		return nil, &TransportError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decoding envelope: %w", err)}
	}
	if rpcResp.Error != nil {
		re := &RemoteError{Op: op, Code: rpcResp.Error.Code, Message: rpcResp.Error.Message}
		if d := rpcResp.Error.Data; d != nil {
			re.Name = d.Name
			if d.Message != "" {
				re.Message = d.Message
			}
		}
		return nil, re
	}
	return rpcResp.Result, nil
}

// Decode unmarshals a call result into v. An absent, null or false result
// leaves v untouched, matching the ledger's habit of returning false for
// empty answers.
func Decode(raw json.RawMessage, v any) error {
	if isFalsy(raw) {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding ledger result: %w", err)
	}
	return nil
}

func isFalsy(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null" || s == "false"
}
