package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/crosspost/internal/analytics"
	"github.com/crosspost/internal/sync"
	"github.com/crosspost/pkg/models"
)

// WatchCommand returns the watch command
func WatchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Follow listings, jobs, and payments from the terminal",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "refresh",
				Usage: "Seconds between screen refreshes",
				Value: 5,
			},
		},
		Action: runWatch,
	}
}

func runWatch(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	core, messaging := buildClients(cfg)
	store := buildStore(cfg, core, messaging)

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()
	go store.Start(ctx)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	ticker := time.NewTicker(time.Duration(c.Int("refresh")) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-interrupt:
			fmt.Println()
			return nil
		case <-ticker.C:
			printSummary(store)
		}
	}
}

func printSummary(store *sync.Store) {
	txns := store.Transactions()
	jobs := store.Jobs()
	listings := store.Listings()

	fmt.Printf("\n── %s ──\n", time.Now().Format("15:04:05"))
	if !txns.Loaded && !jobs.Loaded && !listings.Loaded {
		fmt.Println("waiting for first poll...")
		return
	}

	fmt.Printf("earned %s | pending %s | avg sale %s\n",
		models.FormatCents(analytics.TotalEarned(txns.Value)),
		models.FormatCents(analytics.PendingPayout(txns.Value)),
		models.FormatCents(analytics.AverageSalePrice(txns.Value)))
	fmt.Printf("listings: %d active, %d sold\n",
		analytics.ActiveListingCount(listings.Value),
		analytics.SoldListingCount(listings.Value))

	counts := analytics.JobCountsByStatus(jobs.Value)
	fmt.Printf("jobs: %d pending, %d posting, %d posted, %d failed\n",
		counts["pending"], counts["posting"], counts["posted"], counts["failed"])

	for name, err := range map[string]error{
		"transactions": txns.Err,
		"jobs":         jobs.Err,
		"listings":     listings.Err,
	} {
		if err != nil {
			fmt.Printf("! %s poll failing (showing last known data): %v\n", name, err)
		}
	}
}
