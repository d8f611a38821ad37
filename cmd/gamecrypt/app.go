package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/vlbabney57/GameCrypt-Engine/internal/game"
	"github.com/vlbabney57/GameCrypt-Engine/pkg/config"
	"github.com/vlbabney57/GameCrypt-Engine/pkg/events"
	"github.com/vlbabney57/GameCrypt-Engine/pkg/gateway"
	"github.com/vlbabney57/GameCrypt-Engine/pkg/logger"
	"github.com/vlbabney57/GameCrypt-Engine/pkg/wallet"
)

// deps is everything a command needs, wired from config.
type deps struct {
	cfg     *config.AppConfig
	logger  *logger.Logger
	gateway gateway.Gateway
	wallet  wallet.Wallet
	events  events.Publisher
	svc     *game.Service
}

func bootstrap(c *cli.Context) (*deps, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Environment,
		ServiceName: cfg.ServiceName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx := c.Context
	gw, err := gateway.Open(ctx, cfg.Gateway, l)
	if err != nil {
		l.Sync()
		return nil, fmt.Errorf("failed to open gateway: %w", err)
	}

	w, err := wallet.Open(cfg.Wallet)
	if err != nil {
		gw.Close()
		l.Sync()
		return nil, err
	}
	if w.Connected() {
		l.Info("wallet connected", zap.String("address", w.Address()))
	}

	var pub events.Publisher = events.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		pub = events.NewKafkaPublisher(events.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		}, l.Named("events"))
	}

	d := &deps{cfg: cfg, logger: l, gateway: gw, wallet: w, events: pub}
	d.svc = d.newSession()
	return d, nil
}

// newSession builds a Service over the shared gateway, wallet and publisher.
func (d *deps) newSession() *game.Service {
	return game.NewService(d.logger.Named("game"), d.gateway, d.wallet, d.events, game.Options{
		SuccessBanner:   d.cfg.UI.SuccessBanner,
		ErrorBanner:     d.cfg.UI.ErrorBanner,
		DecryptDelay:    d.cfg.UI.DecryptDelay,
		ConflictRetries: d.cfg.Gateway.ConflictRetries,
		DurationDays:    d.cfg.Signature.DurationDays,
	})
}

// Close shuts components down in reverse order of creation.
func (d *deps) Close() {
	if err := d.svc.Close(); err != nil {
		d.logger.Error("failed to close service", err)
	}
	if err := d.events.Close(); err != nil {
		d.logger.Error("failed to close event publisher", err)
	}
	if err := d.gateway.Close(); err != nil {
		d.logger.Error("failed to close gateway", err)
	}
	d.logger.Sync()
}

// withService bootstraps, performs the initial load and runs fn. It is used
// by the one-shot commands, so an in-memory gateway is called out.
func withService(c *cli.Context, fn func(ctx context.Context, d *deps) error) error {
	d, err := bootstrap(c)
	if err != nil {
		return err
	}
	defer d.Close()

	if !d.cfg.Gateway.Persistent() {
		d.logger.Warn("memory backend keeps nothing between runs; set gateway.backend to file or a database to persist",
			zap.String("command", c.Command.Name),
		)
	}

	if err := d.svc.Init(c.Context); err != nil {
		return err
	}
	return fn(c.Context, d)
}
