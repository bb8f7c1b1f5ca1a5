package rpc

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidCredentials is returned by Login when the ledger rejects the
// username/password pair.
var ErrInvalidCredentials = errors.New("invalid credentials")

// TransportError is a connectivity, timeout or envelope-decoding failure.
// Calls are read-only, so a TransportError is safe to retry.
type TransportError struct {
	Op     string // "entity.method" or "common.login"
	Status int    // HTTP status, 0 when no response was received
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("ledger transport %s: HTTP %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("ledger transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RemoteError is an explicit error payload returned by the ledger. It is
// never retried.
type RemoteError struct {
	Op      string
	Code    int
	Message string
	// Name is the backend exception class when the ledger reports one,
	// e.g. "odoo.exceptions.AccessDenied".
	Name string
}

func (e *RemoteError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("ledger %s: %s (%s)", e.Op, e.Message, e.Name)
	}
	return fmt.Sprintf("ledger %s: %s", e.Op, e.Message)
}

// IsRetryable reports whether err is a TransportError that was not caused
// by the caller cancelling its context.
func IsRetryable(err error) bool {
	var te *TransportError
	if !errors.As(err, &te) {
		return false
	}
	return !errors.Is(err, context.Canceled)
}
