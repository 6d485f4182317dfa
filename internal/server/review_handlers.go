package server

import (
	"inkwell/internal/lifecycle"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetReviewQueue handles GET /api/v1/reviews
func (s *Server) GetReviewQueue(c *fiber.Ctx) error {
	pag := parsePagination(c, 20)
	in := service.ListPostsInput{
		Status:    models.PostStatus(c.Query("status")),
		Format:    models.PostFormat(c.Query("format")),
		SortBy:    c.Query("sort", "updated_at"),
		SortOrder: c.Query("order", "desc"),
		Limit:     pag.Limit,
		Offset:    pag.Offset,
	}

	posts, total, err := s.postService.ReviewQueue(c.Context(), middleware.Principal(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"posts":  posts,
		"total":  total,
		"limit":  pag.Limit,
		"offset": pag.Offset,
	})
}

// ApprovePost handles POST /api/v1/posts/:id/approve
func (s *Server) ApprovePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	result, svcErr := s.postService.Publish(c.Context(), middleware.Principal(c), id, lifecycle.EventApprove)
	if svcErr != nil {
		return respondError(c, svcErr)
	}
	return c.JSON(result)
}

// RejectPost handles POST /api/v1/posts/:id/reject
func (s *Server) RejectPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Reason string `json:"reason"`
	}
	// The body is optional; a bare reject carries no reason.
	_ = c.BodyParser(&req)

	result, svcErr := s.postService.Reject(c.Context(), middleware.Principal(c), id, req.Reason)
	if svcErr != nil {
		return respondError(c, svcErr)
	}
	return c.JSON(result)
}
