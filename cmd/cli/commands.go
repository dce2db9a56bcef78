package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/casacambio/cashledger/internal/adapter/http/dto"
	"github.com/casacambio/cashledger/internal/domain"
	"github.com/casacambio/cashledger/internal/infrastructure/postgres"
	"github.com/casacambio/cashledger/internal/usecase"
)

// errChainBroken makes `chain` exit non-zero when the log has breaks.
var errChainBroken = errors.New("chain integrity check failed")

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *cli) migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	migrator := func() *postgres.Migrator {
		return postgres.NewMigrator(c.cfg.DatabaseURL, c.cfg.MigrationsPath, c.logger)
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return migrator().Up()
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return migrator().Down()
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				version, dirty, err := migrator().Version()
				if err != nil {
					return err
				}
				fmt.Fprintf(c.out, "version %d dirty=%v\n", version, dirty)
				return nil
			},
		},
	)

	return cmd
}

func (c *cli) accountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
	}

	var allowNegative bool
	create := &cobra.Command{
		Use:   "create NAME",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.connect(cmd.Context()); err != nil {
				return err
			}

			account, err := c.svc.registry.CreateAccount(cmd.Context(), usecase.CreateAccountInput{
				Name:                 args[0],
				AllowNegativeBalance: allowNegative,
			})
			if err != nil {
				return err
			}
			return printJSON(c.out, dto.AccountFromDomain(account))
		},
	}
	create.Flags().BoolVar(&allowNegative, "allow-negative", false, "Allow the balance to go below zero")

	var after string
	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.connect(cmd.Context()); err != nil {
				return err
			}

			accounts, err := c.svc.registry.ListAccounts(cmd.Context(), after, domain.ValidatePagination(limit))
			if err != nil {
				return err
			}

			resp := make([]*dto.AccountResponse, len(accounts))
			for i, a := range accounts {
				resp[i] = dto.AccountFromDomain(a)
			}
			return printJSON(c.out, resp)
		},
	}
	list.Flags().StringVar(&after, "after", "", "Resume after this account ID")
	list.Flags().IntVar(&limit, "limit", 50, "Page size")

	cmd.AddCommand(create, list)
	return cmd
}

func (c *cli) currencyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "currency",
		Short: "Manage currencies",
	}

	var precision int32
	create := &cobra.Command{
		Use:   "create CODE",
		Short: "Register a currency",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.connect(cmd.Context()); err != nil {
				return err
			}

			currency, err := c.svc.registry.CreateCurrency(cmd.Context(), usecase.CreateCurrencyInput{
				Code:      args[0],
				Precision: precision,
			})
			if err != nil {
				return err
			}
			return printJSON(c.out, dto.CurrencyFromDomain(currency))
		},
	}
	create.Flags().Int32Var(&precision, "precision", 2, "Decimal places allowed on amounts")

	list := &cobra.Command{
		Use:   "list",
		Short: "List currencies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.connect(cmd.Context()); err != nil {
				return err
			}

			currencies, err := c.svc.registry.ListCurrencies(cmd.Context())
			if err != nil {
				return err
			}

			resp := make([]*dto.CurrencyResponse, len(currencies))
			for i, cur := range currencies {
				resp[i] = dto.CurrencyFromDomain(cur)
			}
			return printJSON(c.out, resp)
		},
	}

	cmd.AddCommand(create, list)
	return cmd
}

func (c *cli) balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance ACCOUNT [CURRENCY]",
		Short: "Show an account's balances",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.connect(cmd.Context()); err != nil {
				return err
			}

			if len(args) == 2 {
				snap, err := c.svc.balances.GetBalance(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				return printJSON(c.out, dto.BalanceFromDomain(snap))
			}

			snaps, err := c.svc.balances.ListBalances(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(c.out, dto.BalancesFromDomain(snaps))
		},
	}
}

func (c *cli) movementsCmd() *cobra.Command {
	var (
		after    int64
		limit    int
		from, to string
	)

	cmd := &cobra.Command{
		Use:   "movements ACCOUNT CURRENCY",
		Short: "List a balance's movements in sequence order",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fromT, err := parseTimeFlag("from", from)
			if err != nil {
				return err
			}
			toT, err := parseTimeFlag("to", to)
			if err != nil {
				return err
			}

			if err := c.connect(cmd.Context()); err != nil {
				return err
			}

			page, err := c.svc.balances.ListMovements(cmd.Context(), usecase.ListMovementsInput{
				AccountID:     args[0],
				CurrencyID:    args[1],
				From:          fromT,
				To:            toT,
				AfterSequence: after,
				Limit:         limit,
			})
			if err != nil {
				return err
			}
			return printJSON(c.out, dto.MovementPageFromUseCase(page))
		},
	}

	cmd.Flags().Int64Var(&after, "after", 0, "Resume after this sequence number")
	cmd.Flags().IntVar(&limit, "limit", 50, "Page size")
	cmd.Flags().StringVar(&from, "from", "", "Only movements at or after this RFC 3339 time")
	cmd.Flags().StringVar(&to, "to", "", "Only movements at or before this RFC 3339 time")

	return cmd
}

func (c *cli) postCmd() *cobra.Command {
	var (
		channel, description, ref, key string
		requireFunds                   bool
	)

	cmd := &cobra.Command{
		Use:   "post ACCOUNT CURRENCY KIND AMOUNT",
		Short: "Post a movement",
		Long:  "Post a movement. KIND is one of INGRESO, EGRESO, OPENING_BALANCE, TRANSFER_OUT, TRANSFER_IN, TRANSFER_REVERSAL, ADJUSTMENT; the sign of AMOUNT must match it.",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.ParseKind(args[2])
			if err != nil {
				return err
			}
			amount, err := parseAmount("amount", args[3])
			if err != nil {
				return err
			}
			ch, err := domain.ParseChannel(channel)
			if err != nil {
				return err
			}
			reference, err := parseReference(ref)
			if err != nil {
				return err
			}

			if err := c.connect(cmd.Context()); err != nil {
				return err
			}

			movement, err := c.svc.posting.Post(cmd.Context(), usecase.PostInput{
				AccountID:      args[0],
				CurrencyID:     args[1],
				Kind:           kind,
				Channel:        ch,
				Amount:         amount,
				Actor:          c.actor,
				Description:    description,
				Reference:      reference,
				IdempotencyKey: key,
				RequireFunds:   requireFunds,
			})
			if err != nil {
				return err
			}
			return printJSON(c.out, dto.MovementFromDomain(movement))
		},
	}

	cmd.Flags().StringVar(&channel, "channel", "", "Balance component for split balances: CASH_BILLS, CASH_COINS or BANK")
	cmd.Flags().StringVar(&description, "description", "", "Free-text description")
	cmd.Flags().StringVar(&ref, "ref", "", "Business reference as kind:id")
	cmd.Flags().StringVar(&key, "idempotency-key", "", "Deduplicate retries of this posting")
	cmd.Flags().BoolVar(&requireFunds, "require-funds", false, "Reject outflows that would overdraw the account")

	return cmd
}

func (c *cli) fundsCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "funds-check ACCOUNT CURRENCY AMOUNT",
		Short: "Check whether an outflow fits the account's overdraft policy",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount("amount", args[2])
			if err != nil {
				return err
			}

			if err := c.connect(cmd.Context()); err != nil {
				return err
			}

			resp := dto.FundsCheckResponse{AccountID: args[0], CurrencyID: args[1], Amount: amount, Sufficient: true}

			err = c.svc.posting.CheckFunds(cmd.Context(), args[0], args[1], amount)
			switch {
			case err == nil:
			case errors.Is(err, domain.ErrInsufficientFunds):
				resp.Sufficient = false
				resp.Reason = err.Error()
			default:
				return err
			}
			return printJSON(c.out, resp)
		},
	}
}

func (c *cli) transferCmd() *cobra.Command {
	var fromChannel, toChannel, description, key string

	cmd := &cobra.Command{
		Use:   "transfer FROM TO CURRENCY AMOUNT",
		Short: "Move funds between two accounts",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount("amount", args[3])
			if err != nil {
				return err
			}
			from, err := domain.ParseChannel(fromChannel)
			if err != nil {
				return err
			}
			to, err := domain.ParseChannel(toChannel)
			if err != nil {
				return err
			}

			if err := c.connect(cmd.Context()); err != nil {
				return err
			}

			transfer, err := c.svc.transfers.Transfer(cmd.Context(), usecase.TransferInput{
				FromAccountID:  args[0],
				ToAccountID:    args[1],
				CurrencyID:     args[2],
				Amount:         amount,
				Actor:          c.actor,
				Description:    description,
				IdempotencyKey: key,
				FromChannel:    from,
				ToChannel:      to,
			})
			if transfer != nil {
				if perr := printJSON(c.out, dto.TransferFromDomain(transfer)); perr != nil {
					return perr
				}
			}
			return err
		},
	}

	cmd.Flags().StringVar(&fromChannel, "from-channel", "", "Component debited on the origin")
	cmd.Flags().StringVar(&toChannel, "to-channel", "", "Component credited on the destination")
	cmd.Flags().StringVar(&description, "description", "", "Free-text description")
	cmd.Flags().StringVar(&key, "idempotency-key", "", "Deduplicate retries of this transfer")

	return cmd
}

func (c *cli) transferStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transfer-status ID",
		Short: "Show a transfer and its legs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.connect(cmd.Context()); err != nil {
				return err
			}

			transfer, err := c.svc.transfers.GetTransfer(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(c.out, dto.TransferFromDomain(transfer))
		},
	}
}

func (c *cli) transferCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transfer-cancel ID",
		Short: "Reverse the debit of a transfer left in flight",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.connect(cmd.Context()); err != nil {
				return err
			}

			transfer, err := c.svc.transfers.CancelTransfer(cmd.Context(), args[0], c.actor)
			if err != nil {
				return err
			}
			return printJSON(c.out, dto.TransferFromDomain(transfer))
		},
	}
}

func (c *cli) seedCmd() *cobra.Command {
	var (
		bills, coins, bank   string
		channel, description string
	)

	cmd := &cobra.Command{
		Use:   "seed ACCOUNT CURRENCY QUANTITY",
		Short: "Declare an opening balance, superseding the active one",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantity, err := parseAmount("quantity", args[2])
			if err != nil {
				return err
			}
			ch, err := domain.ParseChannel(channel)
			if err != nil {
				return err
			}

			input := usecase.SeedInput{
				AccountID:   args[0],
				CurrencyID:  args[1],
				Quantity:    quantity,
				Channel:     ch,
				Actor:       c.actor,
				Description: description,
			}

			input.Components, err = parseComponents(bills, coins, bank)
			if err != nil {
				return err
			}

			if err := c.connect(cmd.Context()); err != nil {
				return err
			}

			result, err := c.svc.openings.Seed(cmd.Context(), input)
			if err != nil {
				return err
			}
			return printJSON(c.out, dto.SeedFromUseCase(result))
		},
	}

	cmd.Flags().StringVar(&bills, "bills", "", "Cash held in bills")
	cmd.Flags().StringVar(&coins, "coins", "", "Cash held in coins")
	cmd.Flags().StringVar(&bank, "bank", "", "Cash held at the bank")
	cmd.Flags().StringVar(&channel, "channel", "", "Component the seeding movement lands on")
	cmd.Flags().StringVar(&description, "description", "", "Free-text description")

	return cmd
}

func (c *cli) chainCmd() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "chain ACCOUNT CURRENCY",
		Short: "Verify the balance chain of a pair's movement log",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fromT, err := parseTimeFlag("from", from)
			if err != nil {
				return err
			}
			toT, err := parseTimeFlag("to", to)
			if err != nil {
				return err
			}

			if err := c.connect(cmd.Context()); err != nil {
				return err
			}

			report, err := c.svc.audit.CheckChain(cmd.Context(), args[0], args[1], usecase.ChainRange{From: fromT, To: toT})
			if err != nil {
				return err
			}

			resp := dto.ChainReportFromDomain(report)
			if err := printJSON(c.out, resp); err != nil {
				return err
			}

			if !resp.Healthy {
				return fmt.Errorf("%w: %d chain breaks, %d calculation breaks",
					errChainBroken, len(resp.ChainBreaks), len(resp.CalculationBreaks))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Report findings at or after this RFC 3339 time")
	cmd.Flags().StringVar(&to, "to", "", "Report findings at or before this RFC 3339 time")

	return cmd
}

func (c *cli) auditSignsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit-signs ACCOUNT CURRENCY",
		Short: "List stored movements whose sign contradicts their kind",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.connect(cmd.Context()); err != nil {
				return err
			}

			findings, err := c.svc.audit.AuditSigns(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(c.out, dto.SignFindingsFromDomain(findings))
		},
	}
}

func (c *cli) trueBalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "true-balance ACCOUNT CURRENCY",
		Short: "Replay a pair's log and print the resulting balance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.connect(cmd.Context()); err != nil {
				return err
			}

			balance, err := c.svc.reconciliation.ComputeTrueBalance(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(c.out, dto.TrueBalanceResponse{AccountID: args[0], CurrencyID: args[1], TrueBalance: balance})
		},
	}
}

func (c *cli) reconcileCmd() *cobra.Command {
	var channel string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "reconcile ACCOUNT CURRENCY",
		Short: "Compare a snapshot with its replayed log and correct drift",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ch, err := domain.ParseChannel(channel)
			if err != nil {
				return err
			}

			if err := c.connect(cmd.Context()); err != nil {
				return err
			}

			result, err := c.svc.reconciliation.Reconcile(cmd.Context(), usecase.ReconcileInput{
				AccountID:  args[0],
				CurrencyID: args[1],
				Actor:      c.actor,
				Channel:    ch,
				DryRun:     dryRun,
			})
			if err != nil {
				return err
			}
			return printJSON(c.out, dto.ReconciliationFromDomain(result))
		},
	}

	cmd.Flags().StringVar(&channel, "channel", "", "Component the adjustment lands on")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report drift without correcting it")

	return cmd
}

func (c *cli) reconcileAllCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "reconcile-all ACCOUNT",
		Short: "Reconcile every balance of one account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.connect(cmd.Context()); err != nil {
				return err
			}

			batch, err := c.svc.reconciliation.ReconcileAll(cmd.Context(), args[0], c.actor, dryRun)
			if err != nil {
				return err
			}
			return printJSON(c.out, dto.ReconciliationBatchFromDomain(batch))
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report drift without correcting it")

	return cmd
}
