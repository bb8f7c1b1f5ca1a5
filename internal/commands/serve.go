package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cleared-dev/ledgerlens/internal/server"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve statements and listings over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			if listen == "" {
				listen = a.cfg.Server.Listen
			}
			srv := server.New(server.Options{
				Composer:  a.composer,
				Listings:  a.listings,
				Auth:      a.client,
				Tolerance: a.cfg.Reports.BalanceTolerance,
				Logger:    a.log.Named("http"),
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a.log.Info("serving ledger reports",
				zap.String("listen", listen),
				zap.String("remote", a.cfg.Remote.URL),
				zap.String("database", a.cfg.Remote.Database))
			return srv.Run(ctx, listen, a.cfg.Server.ShutdownTimeout)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default server.listen from config)")

	return cmd
}
