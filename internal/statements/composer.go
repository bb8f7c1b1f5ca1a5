package statements

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cleared-dev/ledgerlens/internal/accounts"
	"github.com/cleared-dev/ledgerlens/internal/ledger"
	"github.com/cleared-dev/ledgerlens/internal/model"
	"github.com/cleared-dev/ledgerlens/internal/rpc"
)

// DefaultEpoch is the start of the as-of window: earlier than any activity
// the ledger records.
var DefaultEpoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Composer computes financial statements. It holds no per-request state
// and is safe for concurrent use.
type Composer struct {
	classifier *accounts.Classifier
	aggregator *ledger.Aggregator
	epoch      time.Time
	log        *zap.Logger
}

// Option configures a Composer.
type Option func(*Composer)

// WithEpoch overrides DefaultEpoch.
func WithEpoch(epoch time.Time) Option {
	return func(c *Composer) { c.epoch = model.Day(epoch) }
}

// WithLogger sets the logger. The default discards.
func WithLogger(l *zap.Logger) Option {
	return func(c *Composer) { c.log = l }
}

// NewComposer creates a Composer reading the ledger through caller.
func NewComposer(caller rpc.Caller, opts ...Option) *Composer {
	c := &Composer{
		classifier: accounts.NewClassifier(caller),
		aggregator: ledger.NewAggregator(caller),
		epoch:      DefaultEpoch,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Epoch returns the start of every balance-sheet window.
func (c *Composer) Epoch() time.Time { return c.epoch }

// ProfitAndLoss computes the P&L of a fiscal year. Either every section
// resolves or the statement fails.
func (c *Composer) ProfitAndLoss(ctx context.Context, creds rpc.Credentials, year int) (model.PnLStatement, error) {
	if year < 1 || year > 9999 {
		return model.PnLStatement{}, fmt.Errorf("profit and loss: invalid year %d", year)
	}
	start := time.Now()
	window := model.FiscalYear(year)

	totals, err := c.totals(ctx, creds, model.ProfitAndLossSections, window)
	observeStatement("profit_and_loss", err, time.Since(start))
	if err != nil {
		return model.PnLStatement{}, fmt.Errorf("profit and loss %d: %w", year, err)
	}

	stmt := model.NewPnLStatement(year,
		totals[model.SectionIncome],
		totals[model.SectionCOGS],
		totals[model.SectionExpense],
		totals[model.SectionDepreciation],
	)
	c.log.Info("computed profit and loss",
		zap.Int("year", year),
		zap.Stringer("net_income", stmt.NetIncome),
		zap.Duration("took", time.Since(start)))
	return stmt, nil
}

// BalanceSheet computes the balance sheet as of a date. The balance
// difference is reported, never treated as an error.
func (c *Composer) BalanceSheet(ctx context.Context, creds rpc.Credentials, asOf time.Time) (model.BalanceSheetStatement, error) {
	window := model.AsOf(c.epoch, asOf)
	if err := window.Validate(); err != nil {
		return model.BalanceSheetStatement{}, fmt.Errorf("balance sheet: %w", err)
	}
	start := time.Now()

	totals, err := c.totals(ctx, creds, model.BalanceSheetSections, window)
	observeStatement("balance_sheet", err, time.Since(start))
	if err != nil {
		return model.BalanceSheetStatement{}, fmt.Errorf("balance sheet %s: %w", window.EndString(), err)
	}

	stmt := model.NewBalanceSheetStatement(asOf,
		totals[model.SectionAssets],
		totals[model.SectionLiabilities],
		totals[model.SectionEquity],
	)
	c.log.Info("computed balance sheet",
		zap.String("date", window.EndString()),
		zap.Stringer("difference", stmt.BalanceDifference),
		zap.Duration("took", time.Since(start)))
	return stmt, nil
}

// totals runs one classify-then-aggregate pipeline per section
// concurrently. The first failure cancels the others.
func (c *Composer) totals(ctx context.Context, creds rpc.Credentials, sections []model.Section, window model.DateWindow) (map[model.Section]decimal.Decimal, error) {
	results := make([]decimal.Decimal, len(sections))

	g, gctx := errgroup.WithContext(ctx)
	for i, section := range sections {
		g.Go(func() error {
			total, err := c.sectionTotal(gctx, creds, section, window)
			if err != nil {
				return err
			}
			results[i] = total
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	totals := make(map[model.Section]decimal.Decimal, len(sections))
	for i, section := range sections {
		totals[section] = results[i]
	}
	return totals, nil
}

func (c *Composer) sectionTotal(ctx context.Context, creds rpc.Credentials, section model.Section, window model.DateWindow) (decimal.Decimal, error) {
	ids, cls, err := c.classifier.IDsForSection(ctx, creds, section)
	if err != nil {
		return decimal.Zero, err
	}
	total, err := c.aggregator.Aggregate(ctx, creds, ids, window, cls.Sign)
	if err != nil {
		return decimal.Zero, fmt.Errorf("aggregating %s: %w", section, err)
	}
	c.log.Debug("section total",
		zap.String("section", string(section)),
		zap.Int("accounts", len(ids)),
		zap.Stringer("window", window),
		zap.Stringer("total", total))
	return total, nil
}
