package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/vlbabney57/GameCrypt-Engine/internal/api"
	"github.com/vlbabney57/GameCrypt-Engine/internal/game"
	"github.com/vlbabney57/GameCrypt-Engine/pkg/retry"
	"github.com/vlbabney57/GameCrypt-Engine/pkg/server"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API with periodic refresh",
		Action: func(c *cli.Context) error {
			d, err := bootstrap(c)
			if err != nil {
				return err
			}
			defer d.Close()
			l := d.logger

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			l.Info("gamecrypt initializing",
				zap.String("env", d.cfg.Environment),
				zap.String("backend", d.gateway.Backend()),
			)

			waitOpts := retry.DefaultOptions()
			waitOpts.Classifier = retry.On(game.ErrGatewayUnavailable)
			if err := retry.Do(ctx, func(ctx context.Context, attempt int) error {
				return d.svc.CheckAvailable(ctx)
			}, waitOpts); err != nil {
				l.Warn("starting while the contract is not available", zap.Error(err))
			}

			if err := d.svc.Init(ctx); err != nil {
				l.Warn("initial load failed", zap.Error(err))
			}

			sched, err := game.StartRefresher(ctx, d.svc, d.cfg.HTTP.RefreshInterval)
			if err != nil {
				return err
			}

			obsServer := server.New(d.cfg.Observability.Addr, l)
			obsServer.AddCheck("gateway", d.svc.CheckAvailable)
			go func() {
				if err := obsServer.Start(); err != nil {
					l.Error("observability server failed", err)
				}
			}()

			apiServer := api.New(api.Config{
				AllowedOrigins: d.cfg.HTTP.AllowedOrigins,
				JWTSecret:      d.cfg.HTTP.JWTSecret,
			}, d.svc, l.Named("api"))

			errCh := make(chan error, 1)
			go func() {
				errCh <- apiServer.Listen(d.cfg.HTTP.Addr)
			}()

			select {
			case <-ctx.Done():
				l.Info("gamecrypt stopping")
			case err = <-errCh:
				if err != nil && !errors.Is(err, context.Canceled) {
					l.Error("api server failed", err)
				}
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if sched != nil {
				if err := sched.Shutdown(); err != nil {
					l.Error("failed to stop scheduler", err)
				}
			}
			if err := apiServer.Shutdown(shutdownCtx); err != nil {
				l.Error("failed to stop api server", err)
			}
			obsServer.Shutdown(shutdownCtx)
			return err
		},
	}
}
