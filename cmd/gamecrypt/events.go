package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/vlbabney57/GameCrypt-Engine/pkg/config"
	"github.com/vlbabney57/GameCrypt-Engine/pkg/events"
	"github.com/vlbabney57/GameCrypt-Engine/pkg/logger"
)

func eventsCommand() *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "follow player.created events on the Kafka topic",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "group", Usage: "consumer group (defaults to kafka.group_id)"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if len(cfg.Kafka.Brokers) == 0 {
				return errors.New("kafka.brokers is not configured")
			}
			l, err := logger.New(logger.Config{Level: cfg.LogLevel, Environment: cfg.Environment, ServiceName: cfg.ServiceName})
			if err != nil {
				return err
			}
			defer l.Sync()

			group := c.String("group")
			if group == "" {
				group = cfg.Kafka.GroupID
			}
			sub := events.NewSubscriber(events.SubscriberConfig{
				Brokers: cfg.Kafka.Brokers,
				Topic:   cfg.Kafka.Topic,
				GroupID: group,
			})
			defer sub.Close()

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			deliveries, errs := sub.Subscribe(ctx)
			var lastErr error
			for {
				select {
				case d, ok := <-deliveries:
					if !ok {
						if ctx.Err() != nil {
							return nil
						}
						if errs != nil {
							if err, ok := <-errs; ok {
								return err
							}
						}
						return lastErr
					}
					if err := printJSON(d.Event); err != nil {
						return err
					}
					if err := sub.Commit(ctx, d); err != nil {
						l.Error("failed to commit offset", err, zap.Int64("offset", d.Offset))
					}
				case err, ok := <-errs:
					if !ok {
						errs = nil
						continue
					}
					lastErr = err
					l.Warn("event stream", zap.Error(err))
				}
			}
		},
	}
}
