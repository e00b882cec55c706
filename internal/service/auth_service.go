package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"colloquy/internal/config"
	"colloquy/internal/models"
	"colloquy/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles account registration and login token issuance.
type AuthService struct {
	cfg   *config.Config
	users repository.UserRepository
}

// NewAuthService creates an AuthService.
func NewAuthService(cfg *config.Config, userRepo repository.UserRepository) *AuthService {
	return &AuthService{cfg: cfg, users: userRepo}
}

// RegisterInput carries a new account registration.
type RegisterInput struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

// Register creates a new account with a hashed password. New accounts start on
// the free tier with zero reputation.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	if len(username) < 3 {
		return nil, models.NewValidationError("Username must be at least 3 characters")
	}
	if !strings.Contains(input.Email, "@") {
		return nil, models.NewValidationError("A valid email is required")
	}
	if len(input.Password) < 8 {
		return nil, models.NewValidationError("Password must be at least 8 characters")
	}

	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		displayName = username
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:             username,
		DisplayName:          displayName,
		Email:                strings.ToLower(strings.TrimSpace(input.Email)),
		Password:             string(hashed),
		Role:                 "user",
		MembershipTier:       models.TierFree,
		MentionNotifications: true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, models.NewValidationError("Username or email already taken")
	}
	return user, nil
}

// LoginInput carries login credentials.
type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login verifies credentials and returns a signed JWT plus the user record.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (string, *models.User, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(input.Username))
	if err != nil {
		return "", nil, models.NewUnauthorizedError("Invalid username or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)) != nil {
		return "", nil, models.NewUnauthorizedError("Invalid username or password")
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", nil, models.NewInternalError(err)
	}
	return token, user, nil
}

func (s *AuthService) issueToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub": fmt.Sprintf("%d", user.ID),
		"exp": time.Now().Add(24 * time.Hour).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}
