package server

import (
	"inkwell/internal/middleware"
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetReactions handles GET /api/v1/posts/:id/reactions
func (s *Server) GetReactions(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	p := middleware.Principal(c)
	var userID uint
	if p.IsUser() {
		userID = p.UserID
	}

	summary, svcErr := s.engagementService.Reactions(c.Context(), userID, id)
	if svcErr != nil {
		return respondError(c, svcErr)
	}
	return c.JSON(summary)
}

// CreateReaction handles POST /api/v1/posts/:id/reactions
func (s *Server) CreateReaction(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Type string `json:"type"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	p := middleware.Principal(c)
	if svcErr := s.engagementService.React(c.Context(), p.UserID, id, models.ReactionType(req.Type)); svcErr != nil {
		return respondError(c, svcErr)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"post_id": id,
		"type":    req.Type,
	})
}

// DeleteReaction handles DELETE /api/v1/posts/:id/reactions/:type
func (s *Server) DeleteReaction(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	p := middleware.Principal(c)
	if svcErr := s.engagementService.Unreact(c.Context(), p.UserID, id, models.ReactionType(c.Params("type"))); svcErr != nil {
		return respondError(c, svcErr)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CreateBookmark handles POST /api/v1/posts/:id/bookmark
func (s *Server) CreateBookmark(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	p := middleware.Principal(c)
	if svcErr := s.engagementService.Bookmark(c.Context(), p.UserID, id); svcErr != nil {
		return respondError(c, svcErr)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"post_id": id, "bookmarked": true})
}

// DeleteBookmark handles DELETE /api/v1/posts/:id/bookmark
func (s *Server) DeleteBookmark(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	p := middleware.Principal(c)
	if svcErr := s.engagementService.Unbookmark(c.Context(), p.UserID, id); svcErr != nil {
		return respondError(c, svcErr)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetMyBookmarks handles GET /api/v1/me/bookmarks
func (s *Server) GetMyBookmarks(c *fiber.Ctx) error {
	p := middleware.Principal(c)
	pag := parsePagination(c, 20)

	bookmarks, err := s.engagementService.ListBookmarks(c.Context(), p.UserID, pag.Limit, pag.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"bookmarks": bookmarks})
}

// GetTags handles GET /api/v1/tags
func (s *Server) GetTags(c *fiber.Ctx) error {
	tags, err := s.tagService.List(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"tags": tags})
}
