// Package api exposes the game service over HTTP.
package api

import (
	"context"
	"errors"
	"strings"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/vlbabney57/GameCrypt-Engine/internal/game"
	"github.com/vlbabney57/GameCrypt-Engine/pkg/logger"
	"github.com/vlbabney57/GameCrypt-Engine/pkg/model"
	"github.com/vlbabney57/GameCrypt-Engine/pkg/wallet"
)

// Game is the service surface the handlers drive.
type Game interface {
	Load(ctx context.Context) error
	CreatePlayer(ctx context.Context) (model.PlayerRecord, error)
	Decrypt(ctx context.Context, field model.Field) (*float64, error)
	OpenModal()
	CloseModal()
	UpdateForm(f game.Form)
	Select(id int) error
	CloseSelection()
	SetTab(t game.Tab) error
	Player(id int) (model.PlayerRecord, error)
	Snapshot() game.State
	SignatureParams() wallet.SignatureParams
}

// Config holds the HTTP settings.
type Config struct {
	AllowedOrigins []string
	// JWTSecret enables bearer auth on mutating routes when set.
	JWTSecret string
}

// Server wraps the fiber app.
type Server struct {
	app    *fiber.App
	game   Game
	logger *logger.Logger
}

// New builds the app and registers every route.
func New(cfg Config, g Game, l *logger.Logger) *Server {
	s := &Server{game: g, logger: l}

	s.app = fiber.New(fiber.Config{
		AppName:               "gamecrypt",
		DisableStartupMessage: true,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ErrorHandler:          s.handleError,
	})

	s.app.Use(recover.New())
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods: "GET,POST,PUT,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		MaxAge:       86400,
	}))

	api := s.app.Group("/api")

	api.Get("/state", s.getState)
	api.Get("/players", s.listPlayers)
	api.Get("/players/:id", s.getPlayer)
	api.Get("/dashboard", s.getDashboard)
	api.Get("/leaderboard", s.getLeaderboard)
	api.Get("/signature", s.getSignature)

	secured := api.Group("", RequireToken(cfg.JWTSecret))

	secured.Post("/refresh", s.refresh)
	secured.Put("/form", s.updateForm)
	secured.Post("/players", s.createPlayer)
	secured.Post("/modal/open", s.openModal)
	secured.Post("/modal/close", s.closeModal)
	secured.Post("/players/:id/select", s.selectPlayer)
	secured.Post("/selection/close", s.closeSelection)
	secured.Post("/decrypt/:field", s.decrypt)
	secured.Post("/tab/:tab", s.setTab)

	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves until Shutdown.
func (s *Server) Listen(addr string) error {
	s.logger.Info("starting api server", zap.String("addr", addr))
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, game.ErrPlayerNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, game.ErrUnknownField),
		errors.Is(err, game.ErrUnknownTab),
		errors.Is(err, game.ErrFormIncomplete),
		errors.Is(err, game.ErrNoSelection),
		errors.Is(err, game.ErrWalletNotConnected):
		return fiber.StatusBadRequest
	case errors.Is(err, game.ErrCreateInFlight), errors.Is(err, game.ErrDecryptInFlight):
		return fiber.StatusConflict
	case errors.Is(err, game.ErrGatewayUnavailable):
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := statusFor(err)
	if code >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", err, zap.String("method", c.Method()), zap.String("path", c.Path()))
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
