// Package server exposes statements and listings over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cleared-dev/ledgerlens/internal/listing"
	"github.com/cleared-dev/ledgerlens/internal/model"
	"github.com/cleared-dev/ledgerlens/internal/rpc"
	"github.com/cleared-dev/ledgerlens/internal/statements"
)

// Authenticator exchanges a username and password for a session.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (rpc.Session, error)
}

// Options wires a Server.
type Options struct {
	Composer  *statements.Composer
	Listings  *listing.Service
	Auth      Authenticator
	Tolerance decimal.Decimal
	Logger    *zap.Logger
	// Now defaults to time.Now. Balance sheets without a date use today.
	Now func() time.Time
}

// Server serves the HTTP API.
type Server struct {
	composer  *statements.Composer
	listings  *listing.Service
	auth      Authenticator
	tolerance decimal.Decimal
	log       *zap.Logger
	now       func() time.Time
	reports   *statements.Supersede
}

// New creates a Server.
func New(opts Options) *Server {
	s := &Server{
		composer:  opts.Composer,
		listings:  opts.Listings,
		auth:      opts.Auth,
		tolerance: opts.Tolerance,
		log:       opts.Logger,
		now:       opts.Now,
		reports:   statements.NewSupersede(),
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.tolerance.IsZero() {
		s.tolerance = model.DefaultBalanceTolerance
	}
	return s
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(loggerMiddleware(s.log))
	r.Use(metricsMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(requireCredentials)

			r.Get("/reports/profit-and-loss", s.handleProfitAndLoss)
			r.Get("/reports/balance-sheet", s.handleBalanceSheet)
			r.Get("/sales", s.handleSales)
			r.Get("/crm", s.handleLeads)
			r.Get("/salespersons", s.handleSalespersons)
			r.Get("/teams", s.handleTeams)
		})
	})
	return r
}

// Run serves on addr until ctx is done, then shuts down gracefully within
// shutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server starting", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}
