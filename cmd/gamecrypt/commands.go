package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v2"

	"github.com/vlbabney57/GameCrypt-Engine/internal/game"
	"github.com/vlbabney57/GameCrypt-Engine/pkg/codec"
	"github.com/vlbabney57/GameCrypt-Engine/pkg/dashboard"
	"github.com/vlbabney57/GameCrypt-Engine/pkg/model"
)

var jsonFlag = &cli.BoolFlag{Name: "json", Usage: "print JSON instead of a table"}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// truncate mirrors the list view, which shows the start of each encoding.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func playersCommand() *cli.Command {
	return &cli.Command{
		Name:  "players",
		Usage: "list player records",
		Flags: []cli.Flag{jsonFlag},
		Action: func(c *cli.Context) error {
			return withService(c, func(ctx context.Context, d *deps) error {
				players := d.svc.Snapshot().Players
				if c.Bool("json") {
					return printJSON(players)
				}
				if len(players) == 0 {
					fmt.Println("No player data found")
					return nil
				}
				tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tHP\tATK\tDEF\tOWNER\tCREATED")
				for _, p := range players {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
						p.ID, p.PlayerName,
						truncate(p.EncryptedHP, 15), truncate(p.EncryptedATK, 15), truncate(p.EncryptedDEF, 15),
						p.ShortOwner(), time.Unix(p.Timestamp, 0).UTC().Format(time.RFC3339))
				}
				return tw.Flush()
			})
		},
	}
}

func leaderboardCommand() *cli.Command {
	return &cli.Command{
		Name:  "leaderboard",
		Usage: "show the top players",
		Flags: []cli.Flag{jsonFlag},
		Action: func(c *cli.Context) error {
			return withService(c, func(ctx context.Context, d *deps) error {
				top := dashboard.Leaderboard(d.svc.Snapshot().Leaderboard)
				if c.Bool("json") {
					return printJSON(top)
				}
				tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "RANK\tNAME\tSCORE")
				for _, e := range top {
					fmt.Fprintf(tw, "%d\t%s\t%s\n", e.Rank, e.Name, codec.FormatNumber(e.Score))
				}
				return tw.Flush()
			})
		},
	}
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "show player count and average stats",
		Flags: []cli.Flag{jsonFlag},
		Action: func(c *cli.Context) error {
			return withService(c, func(ctx context.Context, d *deps) error {
				stats := dashboard.Compute(d.svc.Snapshot().Players)
				if c.Bool("json") {
					return printJSON(stats)
				}
				fmt.Printf("Total Players: %d\nAverage HP:    %s\nAverage ATK:   %s\nAverage DEF:   %s\n",
					stats.TotalPlayers, stats.AverageHP, stats.AverageATK, stats.AverageDEF)
				return nil
			})
		},
	}
}

func createCommand() *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "create a player with the connected wallet",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Required: true},
			&cli.StringFlag{Name: "hp", Required: true},
			&cli.StringFlag{Name: "atk", Required: true},
			&cli.StringFlag{Name: "def", Required: true},
		},
		Action: func(c *cli.Context) error {
			return withService(c, func(ctx context.Context, d *deps) error {
				d.svc.OpenModal()
				d.svc.UpdateForm(game.Form{
					PlayerName: c.String("name"),
					HP:         c.String("hp"),
					ATK:        c.String("atk"),
					DEF:        c.String("def"),
				})
				rec, err := d.svc.CreatePlayer(ctx)
				if err != nil {
					if st := d.svc.Snapshot().Status; st.Visible && st.Status == game.StatusError {
						return errors.New(st.Message)
					}
					return err
				}
				fmt.Println(d.svc.Snapshot().Status.Message)
				return printJSON(rec)
			})
		},
	}
}

func decryptCommand() *cli.Command {
	return &cli.Command{
		Name:  "decrypt",
		Usage: "sign the decrypt message and reveal a stat",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "id", Required: true},
			&cli.StringFlag{Name: "field", Required: true, Usage: "hp, atk or def"},
		},
		Action: func(c *cli.Context) error {
			return withService(c, func(ctx context.Context, d *deps) error {
				if err := d.svc.Select(c.Int("id")); err != nil {
					return err
				}
				v, err := d.svc.Decrypt(ctx, model.Field(c.String("field")))
				if err != nil {
					return err
				}
				if v == nil {
					fmt.Println("hidden")
					return nil
				}
				fmt.Println(codec.FormatNumber(*v))
				return nil
			})
		},
	}
}

func messageCommand() *cli.Command {
	return &cli.Command{
		Name:  "message",
		Usage: "print the message a wallet signs to decrypt",
		Action: func(c *cli.Context) error {
			return withService(c, func(ctx context.Context, d *deps) error {
				fmt.Println(d.svc.SignatureParams().Message())
				return nil
			})
		},
	}
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "create random players, several sessions writing at once",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "count", Value: 10},
			&cli.IntFlag{Name: "sessions", Value: 4},
			&cli.Int64Flag{Name: "seed", Usage: "random seed (defaults to the current time)"},
		},
		Action: func(c *cli.Context) error {
			return withService(c, func(ctx context.Context, d *deps) error {
				n := c.Int("sessions")
				if n < 1 {
					n = 1
				}
				sessions := []*game.Service{d.svc}
				for i := 1; i < n; i++ {
					s := d.newSession()
					defer s.Close()
					sessions = append(sessions, s)
				}

				seed := c.Int64("seed")
				if seed == 0 {
					seed = time.Now().UnixNano()
				}
				created, err := game.Seed(ctx, sessions, c.Int("count"), seed)
				fmt.Printf("created %d players\n", created)
				return err
			})
		},
	}
}
