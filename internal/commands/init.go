package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerlens/internal/config"
)

func newInitCommand() *cobra.Command {
	var remoteURL string
	var database string
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Write a starter ledgerlens.yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			if err := runInit(absDir, remoteURL, database, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized ledgerlens config at %s\n", filepath.Join(absDir, config.FileName))
			return nil
		},
	}

	cmd.Flags().StringVar(&remoteURL, "url", "", "ledger base URL (required)")
	_ = cmd.MarkFlagRequired("url")
	cmd.Flags().StringVar(&database, "database", "", "ledger database (required)")
	_ = cmd.MarkFlagRequired("database")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")

	return cmd
}

func runInit(dir, remoteURL, database string, force bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	path := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking config: %w", err)
	}

	cfg := config.Default(remoteURL, database)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(path, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Credentials live in .env, which stays out of version control.
	envPath := filepath.Join(dir, ".env")
	if _, err := os.Stat(envPath); errors.Is(err, os.ErrNotExist) {
		env := config.EnvPrefix + "USERNAME=\n" + config.EnvPrefix + "PASSWORD=\n"
		if err := os.WriteFile(envPath, []byte(env), 0o600); err != nil {
			return fmt.Errorf("writing .env: %w", err)
		}
	}
	if err := ensureIgnored(filepath.Join(dir, ".gitignore"), ".env"); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}
	return nil
}

// ensureIgnored appends entry to the ignore file unless a line already
// matches it.
func ensureIgnored(path, entry string) error {
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	for _, line := range strings.Split(string(data), "\n") {
		if line == entry {
			return nil
		}
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	data = append(data, entry+"\n"...)
	return os.WriteFile(path, data, 0o644)
}
