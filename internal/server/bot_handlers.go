package server

import (
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateBot handles POST /api/v1/bots
//
// The response is the only place the plaintext API key ever appears.
func (s *Server) CreateBot(c *fiber.Ctx) error {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Avatar      string `json:"avatar"`
		CanDraft    *bool  `json:"can_draft"`
		CanPublish  *bool  `json:"can_publish"`
		CanComment  *bool  `json:"can_comment"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	p := middleware.Principal(c)
	result, err := s.botService.Create(c.Context(), p.UserID, service.CreateBotInput{
		Name:        req.Name,
		Description: req.Description,
		Avatar:      req.Avatar,
		CanDraft:    req.CanDraft,
		CanPublish:  req.CanPublish,
		CanComment:  req.CanComment,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// GetBots handles GET /api/v1/bots
func (s *Server) GetBots(c *fiber.Ctx) error {
	p := middleware.Principal(c)
	bots, err := s.botService.List(c.Context(), p.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"bots": bots})
}

// GetBot handles GET /api/v1/bots/:id
func (s *Server) GetBot(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	p := middleware.Principal(c)
	profile, svcErr := s.botService.Get(c.Context(), p.UserID, id)
	if svcErr != nil {
		return respondError(c, svcErr)
	}
	return c.JSON(profile)
}

// UpdateBot handles PATCH /api/v1/bots/:id
//
// Status is not an editable field; revocation goes through DELETE.
func (s *Server) UpdateBot(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Avatar      *string `json:"avatar"`
		Trusted     *bool   `json:"trusted"`
		CanDraft    *bool   `json:"can_draft"`
		CanPublish  *bool   `json:"can_publish"`
		CanComment  *bool   `json:"can_comment"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	p := middleware.Principal(c)
	bot, svcErr := s.botService.Update(c.Context(), p.UserID, id, service.UpdateBotInput{
		Name:        req.Name,
		Description: req.Description,
		Avatar:      req.Avatar,
		Trusted:     req.Trusted,
		CanDraft:    req.CanDraft,
		CanPublish:  req.CanPublish,
		CanComment:  req.CanComment,
	})
	if svcErr != nil {
		return respondError(c, svcErr)
	}
	return c.JSON(bot)
}

// RevokeBot handles DELETE /api/v1/bots/:id
func (s *Server) RevokeBot(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	p := middleware.Principal(c)
	bot, svcErr := s.botService.Revoke(c.Context(), p.UserID, id)
	if svcErr != nil {
		return respondError(c, svcErr)
	}
	return c.JSON(bot)
}

// RegenerateBotKey handles POST /api/v1/bots/:id/regenerate-key
func (s *Server) RegenerateBotKey(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	p := middleware.Principal(c)
	result, svcErr := s.botService.RegenerateKey(c.Context(), p.UserID, id)
	if svcErr != nil {
		return respondError(c, svcErr)
	}
	return c.JSON(result)
}

// GetBotProfile handles GET /api/v1/bots/me, addressed by bot credential.
func (s *Server) GetBotProfile(c *fiber.Ctx) error {
	profile, err := s.botService.Profile(c.Context(), middleware.Principal(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}
