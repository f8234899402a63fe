package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/crosspost/cmd"
)

const (
	version = "0.1.0"
)

func main() {
	// Local .env files carry service URLs during development.
	godotenv.Load()

	app := &cli.App{
		Name:    "crosspost",
		Usage:   "Seller console for cross-posting listings and tracking sales",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
			if c.Bool("verbose") {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			return nil
		},
		Commands: []*cli.Command{
			cmd.DashboardCommand(),
			cmd.WatchCommand(),
			cmd.ListingsCommand(),
			cmd.JobsCommand(),
			cmd.TransactionsCommand(),
			cmd.ConversationsCommand(),
			cmd.ConfigCommand(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
