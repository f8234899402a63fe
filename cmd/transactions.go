package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/crosspost/internal/analytics"
	"github.com/crosspost/internal/client"
	"github.com/crosspost/internal/status"
	"github.com/crosspost/pkg/models"
)

// TransactionsCommand returns the transactions command
func TransactionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "transactions",
		Usage: "Follow escrow payments",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List transactions",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "tab",
						Usage: "Filter: all, pending, active, completed, or refunded",
						Value: "all",
					},
				},
				Action: runTransactionsList,
			},
			{
				Name:      "show",
				Usage:     "Show one transaction with its stage progress",
				ArgsUsage: "<transaction-id>",
				Action:    runTransactionsShow,
			},
			{
				Name:      "track",
				Usage:     "Attach a tracking number to a payment-held transaction",
				ArgsUsage: "<transaction-id> <tracking-number>",
				Action:    runTransactionsTrack,
			},
		},
	}
}

func runTransactionsList(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	_, messaging := buildClients(cfg)

	txns, err := messaging.ListTransactions(c.Context)
	if err != nil {
		return fmt.Errorf("failed to fetch transactions: %w", err)
	}
	txns = analytics.FilterByTab(analytics.Tab(c.String("tab")), txns)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLISTING\tAMOUNT\tSTATUS\tTRACKING")
	for _, t := range txns {
		tracking := ""
		if t.TrackingNumber != nil {
			tracking = *t.TrackingNumber
		}
		display := status.For(status.KindTransaction, t.Status)
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n",
			t.ID, t.ListingID, models.FormatCents(t.AmountCents), display.Label, tracking)
	}
	return w.Flush()
}

func runTransactionsShow(c *cli.Context) error {
	id, err := argID(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	_, messaging := buildClients(cfg)

	txn, err := messaging.GetTransaction(c.Context, id)
	if err != nil {
		return fmt.Errorf("failed to fetch transaction %d: %w", id, err)
	}

	fmt.Printf("transaction %d: %s for listing %d\n",
		txn.ID, models.FormatCents(txn.AmountCents), txn.ListingID)

	idx, refunded := status.StageIndex(txn.Status)
	if refunded {
		fmt.Println("status: refunded")
		return nil
	}
	for i, stage := range status.TransactionStages() {
		mark := " "
		if idx >= 0 && i <= idx {
			mark = "x"
		}
		fmt.Printf("[%s] %s\n", mark, status.For(status.KindTransaction, stage).Label)
	}
	if txn.TrackingNumber != nil {
		fmt.Printf("tracking: %s\n", *txn.TrackingNumber)
	}
	return nil
}

func runTransactionsTrack(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("expected a transaction id and a tracking number")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	_, messaging := buildClients(cfg)

	id, err := parseID(c.Args().Get(0))
	if err != nil {
		return err
	}

	// Tracking only attaches while the payment is held in escrow.
	txn, err := messaging.GetTransaction(c.Context, id)
	if err != nil {
		return fmt.Errorf("failed to fetch transaction %d: %w", id, err)
	}
	if !status.CanAttachTracking(*txn) {
		return fmt.Errorf("transaction %d is %s; tracking can only be added while payment is held",
			txn.ID, txn.Status)
	}

	updated, err := messaging.AddTracking(c.Context, id, client.TrackingForm{
		TrackingNumber: c.Args().Get(1),
	})
	if err != nil {
		return fmt.Errorf("failed to add tracking: %w", err)
	}
	fmt.Printf("transaction %d tracking set to %s\n", updated.ID, *updated.TrackingNumber)
	return nil
}
