package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "gamecrypt",
		Usage: "player records and leaderboard stored behind a contract gateway",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a config file (yaml, json or toml)",
				EnvVars: []string{"GAMECRYPT_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			playersCommand(),
			leaderboardCommand(),
			statsCommand(),
			createCommand(),
			decryptCommand(),
			messageCommand(),
			seedCommand(),
			eventsCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
