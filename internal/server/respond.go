package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/cleared-dev/ledgerlens/internal/rpc"
	"github.com/cleared-dev/ledgerlens/internal/statements"
)

// envelope is the body of every JSON response.
type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	render.Status(r, status)
	render.JSON(w, r, envelope{Status: "success", Data: data})
}

func respondError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, envelope{Status: "error", Message: msg})
}

// statusFor maps an engine error to an HTTP status.
func statusFor(err error) int {
	var remote *rpc.RemoteError
	var transport *rpc.TransportError
	switch {
	case errors.Is(err, statements.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, rpc.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.As(err, &remote):
		return http.StatusBadGateway
	case errors.As(err, &transport):
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// messageFor returns the text shown to the client for err. Remote errors
// carry the ledger's own message.
func messageFor(err error) string {
	var remote *rpc.RemoteError
	switch {
	case errors.Is(err, statements.ErrSuperseded):
		return "superseded by a newer request"
	case errors.As(err, &remote):
		return remote.Message
	}
	return err.Error()
}
