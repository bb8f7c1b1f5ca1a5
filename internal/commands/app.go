package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/cleared-dev/ledgerlens/internal/config"
	"github.com/cleared-dev/ledgerlens/internal/listing"
	"github.com/cleared-dev/ledgerlens/internal/logging"
	"github.com/cleared-dev/ledgerlens/internal/rpc"
	"github.com/cleared-dev/ledgerlens/internal/statements"
)

// app is the wired engine a command runs against.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	client   *rpc.Client
	composer *statements.Composer
	listings *listing.Service
}

func newApp(opts *rootOptions) (*app, error) {
	cfg, err := config.Resolve(opts.configPath, opts.envFile)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	epoch, err := cfg.Epoch()
	if err != nil {
		return nil, err
	}

	client := rpc.NewClient(rpc.Options{
		URL:          cfg.Remote.URL,
		Database:     cfg.Remote.Database,
		Timeout:      cfg.Remote.Timeout,
		Retries:      cfg.Remote.Retries,
		RetryBackoff: cfg.Remote.RetryBackoff,
		Logger:       logger.Named("rpc"),
	})
	return &app{
		cfg:      cfg,
		log:      logger,
		client:   client,
		composer: statements.NewComposer(client, statements.WithEpoch(epoch), statements.WithLogger(logger.Named("statements"))),
		listings: listing.NewService(client, cfg.Reports.ListingLimit),
	}, nil
}

// close flushes the logger.
func (a *app) close() {
	_ = a.log.Sync()
}

// login authenticates with the flag or LEDGERLENS_USERNAME/PASSWORD
// credentials and returns the session credentials for later calls.
func (a *app) login(ctx context.Context, opts *rootOptions) (rpc.Session, rpc.Credentials, error) {
	username := firstNonEmpty(opts.username, os.Getenv(config.EnvPrefix+"USERNAME"))
	password := firstNonEmpty(opts.password, os.Getenv(config.EnvPrefix+"PASSWORD"))
	if username == "" || password == "" {
		return rpc.Session{}, rpc.Credentials{}, errors.New("username and password are required (--username/--password or LEDGERLENS_USERNAME/LEDGERLENS_PASSWORD)")
	}

	session, err := a.client.Login(ctx, username, password)
	if err != nil {
		return rpc.Session{}, rpc.Credentials{}, fmt.Errorf("logging in as %s: %w", username, err)
	}
	return session, rpc.Credentials{UID: session.UID, Secret: password}, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
