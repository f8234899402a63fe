package cmd

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/crosspost/internal/client"
	"github.com/crosspost/internal/config"
	"github.com/crosspost/internal/sync"
)

// loadConfig reads and validates the configuration named by the global
// --config flag.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// buildClients constructs the two service clients from config.
func buildClients(cfg *config.Config) (*client.CoreClient, *client.MessagingClient) {
	rps := cfg.Client.RequestsPerSecond
	return client.NewCoreClient(cfg.Services.CoreURL, rps),
		client.NewMessagingClient(cfg.Services.MessagingURL, rps)
}

// argID parses the single positional id argument.
func argID(c *cli.Context) (int64, error) {
	if c.NArg() != 1 {
		return 0, fmt.Errorf("expected exactly one id argument")
	}
	return parseID(c.Args().First())
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// buildStore wires a polling store over the two clients with the
// configured per-resource intervals.
func buildStore(cfg *config.Config, core *client.CoreClient, messaging *client.MessagingClient) *sync.Store {
	return sync.NewStore(core, messaging, sync.Intervals{
		Listings:      config.Interval(cfg.Poll.Listings),
		Jobs:          config.Interval(cfg.Poll.Jobs),
		Conversations: config.Interval(cfg.Poll.Conversations),
		Transactions:  config.Interval(cfg.Poll.Transactions),
		Stats:         config.Interval(cfg.Poll.Stats),
	})
}
