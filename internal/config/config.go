package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/ledgerlens/internal/model"
)

// FileName is the default config file name.
const FileName = "ledgerlens.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LEDGERLENS_"

// Config represents the top-level ledgerlens.yaml configuration.
type Config struct {
	Remote  RemoteConfig  `yaml:"remote"`
	Reports ReportsConfig `yaml:"reports"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
}

// RemoteConfig locates the remote ledger and tunes calls to it.
type RemoteConfig struct {
	URL          string        `yaml:"url"`
	Database     string        `yaml:"database"`
	Timeout      time.Duration `yaml:"timeout"`
	Retries      int           `yaml:"retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// ReportsConfig controls statement and listing computation.
type ReportsConfig struct {
	EpochStart       string          `yaml:"epoch_start"` // YYYY-MM-DD
	BalanceTolerance decimal.Decimal `yaml:"balance_tolerance"`
	ListingLimit     int             `yaml:"listing_limit"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Listen          string        `yaml:"listen"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or console
}

// Load reads a ledgerlens.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default("", "")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for the given ledger.
func Default(remoteURL, database string) *Config {
	return &Config{
		Remote: RemoteConfig{
			URL:          remoteURL,
			Database:     database,
			Timeout:      30 * time.Second,
			Retries:      2,
			RetryBackoff: 250 * time.Millisecond,
		},
		Reports: ReportsConfig{
			EpochStart:       "2000-01-01",
			BalanceTolerance: model.DefaultBalanceTolerance,
			ListingLimit:     1000,
		},
		Server: ServerConfig{
			Listen:          ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Resolve builds the effective configuration: defaults, then the file at
// path if it exists, then envFile (a .env file, skipped when absent), then
// LEDGERLENS_* variables. The result is validated.
func Resolve(path, envFile string) (*Config, error) {
	cfg, err := Load(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		cfg = Default("", "")
	case err != nil:
		return nil, err
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from LEDGERLENS_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if v, ok := lookup(EnvPrefix + name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v, ok := lookup(EnvPrefix + name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = d
		}
	}

	str("URL", &c.Remote.URL)
	str("DATABASE", &c.Remote.Database)
	dur("TIMEOUT", &c.Remote.Timeout)
	num("RETRIES", &c.Remote.Retries)
	dur("RETRY_BACKOFF", &c.Remote.RetryBackoff)
	str("EPOCH_START", &c.Reports.EpochStart)
	num("LISTING_LIMIT", &c.Reports.ListingLimit)
	str("LISTEN", &c.Server.Listen)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	if v, ok := lookup(EnvPrefix + "BALANCE_TOLERANCE"); ok {
		d, err := decimal.NewFromString(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sBALANCE_TOLERANCE: %w", EnvPrefix, err))
		} else {
			c.Reports.BalanceTolerance = d
		}
	}
	return errors.Join(errs...)
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Remote.URL == "" {
		errs = append(errs, errors.New("remote.url is required"))
	} else if u, err := url.Parse(c.Remote.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("remote.url %q is not an absolute URL", c.Remote.URL))
	}
	if c.Remote.Database == "" {
		errs = append(errs, errors.New("remote.database is required"))
	}
	if c.Remote.Timeout < 0 || c.Remote.RetryBackoff < 0 {
		errs = append(errs, errors.New("remote timeouts must not be negative"))
	}
	if c.Remote.Retries < 0 {
		errs = append(errs, fmt.Errorf("remote.retries %d must not be negative", c.Remote.Retries))
	}
	if _, err := c.Epoch(); err != nil {
		errs = append(errs, err)
	}
	if c.Reports.BalanceTolerance.IsNegative() {
		errs = append(errs, fmt.Errorf("reports.balance_tolerance %s must not be negative", c.Reports.BalanceTolerance))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be json or console", c.Log.Format))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Epoch parses Reports.EpochStart.
func (c *Config) Epoch() (time.Time, error) {
	t, err := model.ParseDate(c.Reports.EpochStart)
	if err != nil {
		return time.Time{}, fmt.Errorf("reports.epoch_start: %w", err)
	}
	return t, nil
}
