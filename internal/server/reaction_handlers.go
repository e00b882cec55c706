package server

import (
	"colloquy/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ToggleReaction flips the caller's reaction of the requested type on a comment.
func (s *Server) ToggleReaction(c *fiber.Ctx) error {
	var req struct {
		Type string `json:"type"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}
	return s.toggle(c, req.Type)
}

// LikeComment is a convenience alias for toggling a like reaction.
func (s *Server) LikeComment(c *fiber.Ctx) error {
	return s.toggle(c, models.ReactionLike)
}

// BookmarkComment is a convenience alias for toggling a bookmark reaction.
func (s *Server) BookmarkComment(c *fiber.Ctx) error {
	return s.toggle(c, models.ReactionBookmark)
}

func (s *Server) toggle(c *fiber.Ctx, reactionType string) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	result, err := s.commentService.ToggleReaction(ctx, commentID, userID, reactionType, c.IP())
	if err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}

	return c.JSON(fiber.Map{
		"type":   reactionType,
		"active": result.Active,
		"count":  result.Count,
	})
}
