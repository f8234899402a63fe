package cmd

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/crosspost/internal/dashboard"
)

// DashboardCommand returns the dashboard command
func DashboardCommand() *cli.Command {
	return &cli.Command{
		Name:  "dashboard",
		Usage: "Start the local seller dashboard",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port for the dashboard server (overrides config)",
			},
		},
		Action: runDashboard,
	}
}

func runDashboard(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	port := cfg.Dashboard.Port
	if c.IsSet("port") {
		port = c.Int("port")
	}

	core, messaging := buildClients(cfg)
	store := buildStore(cfg, core, messaging)

	// Pollers live for exactly as long as the dashboard; cancelling
	// the context tears down every timer and in-flight fetch.
	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()
	go store.Start(ctx)

	log.Info().
		Int("port", port).
		Str("core", cfg.Services.CoreURL).
		Str("messaging", cfg.Services.MessagingURL).
		Msg("starting dashboard")

	server := dashboard.NewServer(port, store, core, messaging)
	return server.Start()
}
