package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/casacambio/cashledger/internal/app"
	"github.com/casacambio/cashledger/internal/domain"
	"github.com/casacambio/cashledger/internal/infrastructure/config"
	"github.com/casacambio/cashledger/internal/infrastructure/logger"
	"github.com/casacambio/cashledger/internal/usecase"
)

type registryService interface {
	CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	ListAccounts(ctx context.Context, afterID string, limit int) ([]*domain.Account, error)
	CreateCurrency(ctx context.Context, input usecase.CreateCurrencyInput) (*domain.Currency, error)
	ListCurrencies(ctx context.Context) ([]*domain.Currency, error)
}

type balanceService interface {
	GetBalance(ctx context.Context, accountID, currencyID string) (*domain.Snapshot, error)
	ListBalances(ctx context.Context, accountID string) ([]*domain.Snapshot, error)
	ListMovements(ctx context.Context, input usecase.ListMovementsInput) (*usecase.MovementPage, error)
}

type postingService interface {
	Post(ctx context.Context, input usecase.PostInput) (*domain.Movement, error)
	CheckFunds(ctx context.Context, accountID, currencyID string, amount decimal.Decimal) error
}

type transferService interface {
	Transfer(ctx context.Context, input usecase.TransferInput) (*domain.Transfer, error)
	GetTransfer(ctx context.Context, id string) (*domain.Transfer, error)
	CancelTransfer(ctx context.Context, id, actor string) (*domain.Transfer, error)
}

type openingService interface {
	Seed(ctx context.Context, input usecase.SeedInput) (*usecase.SeedResult, error)
}

type auditService interface {
	CheckChain(ctx context.Context, accountID, currencyID string, window usecase.ChainRange) (*domain.ChainReport, error)
	AuditSigns(ctx context.Context, accountID, currencyID string) ([]domain.SignFinding, error)
}

type reconciliationService interface {
	ComputeTrueBalance(ctx context.Context, accountID, currencyID string) (decimal.Decimal, error)
	Reconcile(ctx context.Context, input usecase.ReconcileInput) (*domain.ReconciliationResult, error)
	ReconcileAll(ctx context.Context, accountID, actor string, dryRun bool) (*domain.ReconciliationBatch, error)
}

// services is what the commands run against. connect fills it from a live
// database; tests fill it with stubs.
type services struct {
	registry       registryService
	balances       balanceService
	posting        postingService
	transfers      transferService
	openings       openingService
	audit          auditService
	reconciliation reconciliationService
}

type cli struct {
	out      io.Writer
	cfg      *config.Config
	logger   zerolog.Logger
	actor    string
	noEvents bool

	svc *services
	app *app.App
}

func newCLI(out io.Writer) *cli {
	return &cli{out: out, logger: zerolog.Nop()}
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cashledger",
		Short:         "Cash ledger admin tool",
		Long:          `Operates the cash ledger directly against its database: postings, audits and reconciliation.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.PersistentFlags().StringVar(&c.actor, "actor", defaultActor(), "Actor recorded on movements")
	root.PersistentFlags().BoolVar(&c.noEvents, "no-events", false, "Do not write outbox events")

	root.AddCommand(
		c.migrateCmd(),
		c.accountCmd(),
		c.currencyCmd(),
		c.balanceCmd(),
		c.movementsCmd(),
		c.postCmd(),
		c.fundsCheckCmd(),
		c.transferCmd(),
		c.transferStatusCmd(),
		c.transferCancelCmd(),
		c.seedCmd(),
		c.chainCmd(),
		c.auditSignsCmd(),
		c.trueBalanceCmd(),
		c.reconcileCmd(),
		c.reconcileAllCmd(),
		c.sweepCmd(),
		c.scheduleCmd(),
		c.outboxCmd(),
	)

	return root
}

func defaultActor() string {
	if u := os.Getenv("USER"); u != "" {
		return "cli:" + u
	}
	return ""
}

func (c *cli) loadConfig() error {
	if c.cfg != nil {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	c.cfg = cfg
	c.logger = logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	return nil
}

// connect opens the database unless services were already provided.
func (c *cli) connect(ctx context.Context) error {
	if c.svc != nil {
		return nil
	}

	a, err := app.New(ctx, c.cfg, c.logger, app.Options{NoEvents: c.noEvents})
	if err != nil {
		return err
	}

	c.app = a
	c.svc = &services{
		registry:       a.Registry,
		balances:       a.Balances,
		posting:        a.Posting,
		transfers:      a.Transfers,
		openings:       a.Openings,
		audit:          a.Audit,
		reconciliation: a.Reconciliation,
	}

	return nil
}

// requireApp connects and returns the live application, for commands that
// need more than the use cases.
func (c *cli) requireApp(ctx context.Context) (*app.App, error) {
	if err := c.connect(ctx); err != nil {
		return nil, err
	}
	if c.app == nil {
		return nil, errors.New("command needs a database connection")
	}
	return c.app, nil
}

func (c *cli) close() {
	if c.app != nil {
		c.app.Close()
	}
}

// parseAmount parses a decimal argument.
func parseAmount(name, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	return d, nil
}

// parseReference parses "kind:id".
func parseReference(s string) (*domain.Reference, error) {
	if s == "" {
		return nil, nil
	}

	kind, id, ok := strings.Cut(s, ":")
	if !ok || kind == "" || id == "" {
		return nil, fmt.Errorf("%w: expected kind:id, got %q", domain.ErrInvalidReference, s)
	}

	return &domain.Reference{Kind: kind, ID: id}, nil
}

// parseComponents builds a split balance from the --bills, --coins and
// --bank flags. It returns nil when none is set.
func parseComponents(bills, coins, bank string) (*domain.Components, error) {
	if bills == "" && coins == "" && bank == "" {
		return nil, nil
	}

	components := &domain.Components{}
	for _, f := range []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"bills", bills, &components.CashBills},
		{"coins", coins, &components.CashCoins},
		{"bank", bank, &components.Bank},
	} {
		if f.raw == "" {
			continue
		}

		v, err := parseAmount(f.name, f.raw)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}

	return components, nil
}

// parseTimeFlag parses an optional RFC 3339 flag value.
func parseTimeFlag(name, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return &t, nil
}
