package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerlens/internal/buildinfo"
	"github.com/cleared-dev/ledgerlens/internal/config"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	envFile    string
	username   string
	password   string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:     "ledgerlens",
		Short:   "Financial statements and sales listings from a remote ledger",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", config.FileName, "config file")
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before LEDGERLENS_* overrides")
	flags.StringVar(&opts.username, "username", "", "ledger username (default $LEDGERLENS_USERNAME)")
	flags.StringVar(&opts.password, "password", "", "ledger password (default $LEDGERLENS_PASSWORD)")

	rootCmd.AddCommand(
		newInitCommand(),
		newLoginCommand(opts),
		newProfitAndLossCommand(opts),
		newBalanceSheetCommand(opts),
		newSalesCommand(opts),
		newCRMCommand(opts),
		newServeCommand(opts),
	)

	return rootCmd
}
