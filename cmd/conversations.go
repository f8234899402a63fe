package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/crosspost/internal/client"
	"github.com/crosspost/internal/status"
	"github.com/crosspost/pkg/models"
)

// ConversationsCommand returns the conversations command
func ConversationsCommand() *cli.Command {
	return &cli.Command{
		Name:  "conversations",
		Usage: "Review buyer negotiations",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List conversations",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "listing", Usage: "Filter by listing id"},
					&cli.StringFlag{Name: "status", Usage: "Filter by status"},
				},
				Action: runConversationsList,
			},
			{
				Name:      "show",
				Usage:     "Show a conversation with its message history",
				ArgsUsage: "<conversation-id>",
				Action:    runConversationsShow,
			},
			{
				Name:      "checkout",
				Usage:     "Start the escrow payment flow for a conversation",
				ArgsUsage: "<conversation-id>",
				Action:    runConversationsCheckout,
			},
		},
	}
}

func runConversationsList(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	_, messaging := buildClients(cfg)

	convos, err := messaging.ListConversations(c.Context, client.ConversationFilter{
		ListingID: c.Int64("listing"),
		Status:    c.String("status"),
	})
	if err != nil {
		return fmt.Errorf("failed to fetch conversations: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLISTING\tSTATUS\tPRICE")
	for _, convo := range convos {
		price := "-"
		if cents, ok := status.EffectivePrice(convo); ok {
			price = models.FormatCents(cents)
		}
		listingID := "-"
		if convo.ListingID != nil {
			listingID = fmt.Sprintf("%d", *convo.ListingID)
		}
		display := status.For(status.KindConversation, convo.Status)
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", convo.ID, listingID, display.Label, price)
	}
	return w.Flush()
}

func runConversationsShow(c *cli.Context) error {
	id, err := argID(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	_, messaging := buildClients(cfg)

	detail, err := messaging.GetConversation(c.Context, id)
	if err != nil {
		return fmt.Errorf("failed to fetch conversation %d: %w", id, err)
	}

	fmt.Printf("conversation %d with %s (%s)\n", detail.ID, detail.Buyer.Name, detail.Status)
	if detail.Listing != nil {
		fmt.Printf("listing: %s ($%.2f)\n", detail.Listing.Title, detail.Listing.Price)
	}
	if cents, ok := status.EffectivePrice(detail.Conversation); ok {
		fmt.Printf("price: %s\n", models.FormatCents(cents))
	}
	for _, msg := range detail.Messages {
		fmt.Printf("%s %s: %s\n", msg.SentAt.Format("01-02 15:04"), msg.Role, msg.Content)
	}
	return nil
}

func runConversationsCheckout(c *cli.Context) error {
	id, err := argID(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	_, messaging := buildClients(cfg)

	checkout, err := messaging.CreateCheckout(c.Context, id)
	if err != nil {
		return fmt.Errorf("failed to create checkout: %w", err)
	}
	fmt.Printf("transaction %d created\ncheckout: %s\n", checkout.TransactionID, checkout.CheckoutURL)
	return nil
}
