package server

import (
	"colloquy/internal/models"
	"colloquy/internal/service"
	"colloquy/internal/thread"

	"github.com/gofiber/fiber/v2"
)

// SubmitComment creates a comment or reply on an article. Guests may submit
// with a name and email; the response then carries a one-time guest token that
// authorizes later edits and deletes of that comment.
func (s *Server) SubmitComment(c *fiber.Ctx) error {
	ctx := c.UserContext()

	articleID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Content    string `json:"content"`
		ParentID   *uint  `json:"parent_id"`
		GuestName  string `json:"guest_name"`
		GuestEmail string `json:"guest_email"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}

	created, err := s.commentService.SubmitComment(ctx, service.SubmitCommentInput{
		ArticleID:  articleID,
		ParentID:   req.ParentID,
		Content:    req.Content,
		AuthorID:   actorID(c),
		GuestName:  req.GuestName,
		GuestEmail: req.GuestEmail,
		ClientIP:   c.IP(),
	})
	if err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}

	resp := fiber.Map{"comment": created}
	if created.GuestToken != "" {
		resp["guest_token"] = created.GuestToken
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// GetComments returns the article's comment tree (public). Sort applies to
// root comments only; replies always read oldest first.
func (s *Server) GetComments(c *fiber.Ctx) error {
	ctx := c.UserContext()

	articleID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	sortMode := thread.NormalizeSort(c.Query("sort"))
	nodes, err := s.commentService.ListComments(ctx, articleID, sortMode, actorID(c), c.Get("X-Guest-Token"))
	if err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}

	return c.JSON(fiber.Map{
		"sort":     sortMode,
		"comments": nodes,
	})
}

// UpdateComment edits a comment's content (author only, inside the edit window).
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	ctx := c.UserContext()

	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	var req struct {
		Content string `json:"content"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}

	updated, err := s.commentService.EditComment(ctx, service.EditCommentInput{
		CommentID:  commentID,
		ActorID:    actorID(c),
		GuestToken: c.Get("X-Guest-Token"),
		Content:    req.Content,
	})
	if err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}

	return c.JSON(updated)
}

// DeleteComment soft-deletes a comment (author within the window, moderators anytime).
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	ctx := c.UserContext()

	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	if err := s.commentService.DeleteComment(ctx, service.DeleteCommentInput{
		CommentID:  commentID,
		ActorID:    actorID(c),
		GuestToken: c.Get("X-Guest-Token"),
	}); err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}

	return c.SendStatus(fiber.StatusOK)
}
