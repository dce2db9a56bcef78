package main

import (
	"github.com/spf13/cobra"

	"github.com/casacambio/cashledger/internal/adapter/http/dto"
)

func (c *cli) sweepCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Reconcile every balance in the ledger once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.requireApp(cmd.Context())
			if err != nil {
				return err
			}

			batch, err := a.Scheduler(dryRun).RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(c.out, dto.ReconciliationBatchFromDomain(batch))
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report drift without correcting it")

	return cmd
}

func (c *cli) scheduleCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the reconciliation sweep on SWEEP_SCHEDULE until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.requireApp(cmd.Context())
			if err != nil {
				return err
			}

			s := a.Scheduler(dryRun)
			if err := s.Start(cmd.Context()); err != nil {
				return err
			}

			<-cmd.Context().Done()

			c.logger.Info().Msg("waiting for running sweep to finish")
			<-s.Stop().Done()

			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report drift without correcting it")

	return cmd
}

func (c *cli) outboxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Operate the event outbox",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "drain",
		Short: "Publish every pending event and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.requireApp(cmd.Context())
			if err != nil {
				return err
			}

			publisher, closePublisher, err := a.EventPublisher()
			if err != nil {
				return err
			}
			defer closePublisher()

			n, err := publisher.Drain(cmd.Context())
			c.logger.Info().Int("published", n).Msg("outbox drained")
			return err
		},
	})

	return cmd
}
