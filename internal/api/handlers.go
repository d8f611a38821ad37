package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/vlbabney57/GameCrypt-Engine/internal/game"
	"github.com/vlbabney57/GameCrypt-Engine/pkg/dashboard"
	"github.com/vlbabney57/GameCrypt-Engine/pkg/model"
)

func (s *Server) getState(c *fiber.Ctx) error {
	return c.JSON(s.game.Snapshot().View())
}

func (s *Server) listPlayers(c *fiber.Ctx) error {
	return c.JSON(s.game.Snapshot().Players)
}

func (s *Server) getPlayer(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "id must be an integer")
	}
	p, err := s.game.Player(id)
	if err != nil {
		return err
	}
	return c.JSON(p)
}

func (s *Server) getDashboard(c *fiber.Ctx) error {
	return c.JSON(dashboard.Compute(s.game.Snapshot().Players))
}

func (s *Server) getLeaderboard(c *fiber.Ctx) error {
	return c.JSON(dashboard.Leaderboard(s.game.Snapshot().Leaderboard))
}

type signatureResponse struct {
	PublicKey       string `json:"publicKey"`
	ContractAddress string `json:"contractAddress"`
	ChainID         int64  `json:"chainId"`
	StartTimestamp  int64  `json:"startTimestamp"`
	DurationDays    int    `json:"durationDays"`
	Message         string `json:"message"`
}

func (s *Server) getSignature(c *fiber.Ctx) error {
	p := s.game.SignatureParams()
	return c.JSON(signatureResponse{
		PublicKey:       p.PublicKey,
		ContractAddress: p.ContractAddress,
		ChainID:         p.ChainID,
		StartTimestamp:  p.StartTimestamp,
		DurationDays:    p.DurationDays,
		Message:         p.Message(),
	})
}

func (s *Server) refresh(c *fiber.Ctx) error {
	if err := s.game.Load(c.UserContext()); err != nil {
		return err
	}
	return c.JSON(s.game.Snapshot().View())
}

func (s *Server) updateForm(c *fiber.Ctx) error {
	var f game.Form
	if err := c.BodyParser(&f); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid form body")
	}
	s.game.UpdateForm(f)
	st := s.game.Snapshot()
	return c.JSON(fiber.Map{"form": st.Form, "canSubmit": st.CanSubmit()})
}

func (s *Server) createPlayer(c *fiber.Ctx) error {
	rec, err := s.game.CreatePlayer(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(rec)
}

func (s *Server) openModal(c *fiber.Ctx) error {
	s.game.OpenModal()
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) closeModal(c *fiber.Ctx) error {
	s.game.CloseModal()
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) selectPlayer(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "id must be an integer")
	}
	if err := s.game.Select(id); err != nil {
		return err
	}
	return c.JSON(s.game.Snapshot().Selected)
}

func (s *Server) closeSelection(c *fiber.Ctx) error {
	s.game.CloseSelection()
	return c.SendStatus(fiber.StatusNoContent)
}

type decryptResponse struct {
	Field model.Field `json:"field"`
	Value *float64    `json:"value"`
}

// decrypt answers a rejected signature with a null value rather than an
// error, like a dismissed wallet prompt.
func (s *Server) decrypt(c *fiber.Ctx) error {
	field := model.Field(c.Params("field"))
	v, err := s.game.Decrypt(c.UserContext(), field)
	if err != nil && !errors.Is(err, game.ErrSignatureRejected) {
		return err
	}
	return c.JSON(decryptResponse{Field: field, Value: v})
}

func (s *Server) setTab(c *fiber.Ctx) error {
	if err := s.game.SetTab(game.Tab(c.Params("tab"))); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
