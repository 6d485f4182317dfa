package server

import (
	"inkwell/internal/middleware"
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetComments handles GET /api/v1/posts/:id/comments
func (s *Server) GetComments(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	comments, svcErr := s.commentService.List(c.Context(), id)
	if svcErr != nil {
		return respondError(c, svcErr)
	}
	return c.JSON(fiber.Map{"comments": comments})
}

// CreateComment handles POST /api/v1/posts/:id/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Body string `json:"body"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, svcErr := s.commentService.Create(c.Context(), middleware.Principal(c), id, req.Body)
	if svcErr != nil {
		return respondError(c, svcErr)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}
