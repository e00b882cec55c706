package server

import (
	"errors"

	"colloquy/internal/models"
	"colloquy/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Register creates a new account.
func (s *Server) Register(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req service.RegisterInput
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}

	user, err := s.authService.Register(ctx, req)
	if err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

// Login verifies credentials and returns a JWT.
func (s *Server) Login(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req service.LoginInput
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}

	token, user, err := s.authService.Login(ctx, req)
	if err != nil {
		status := fiber.StatusInternalServerError
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == "UNAUTHORIZED" {
			status = fiber.StatusUnauthorized
		}
		return models.RespondWithError(c, status, err)
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}
