package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"hr-attendance-backend/internal/domain"
	"hr-attendance-backend/internal/ports"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type AuthService struct {
	Users          ports.UserStore
	JWTSecret      string
	AccessTokenTTL time.Duration
	Logger         *slog.Logger
	Now            func() time.Time
}

type AuthResult struct {
	AccessToken string
	User        domain.User
	ExpiresAt   time.Time
}

type LoginInput struct {
	Email    string
	Password string
}

func (s AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, domain.Invalid("email and password are required")
	}
	user, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issueToken(user)
}

// Me returns the user behind an authenticated principal.
func (s AuthService) Me(ctx context.Context, p domain.Principal) (*domain.User, error) {
	user, err := s.Users.Get(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("User not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s AuthService) issueToken(user *domain.User) (*AuthResult, error) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	ttl := s.AccessTokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	exp := now.Add(ttl)

	claims := jwt.MapClaims{
		"sub":        fmt.Sprintf("%d", user.ID),
		"email":      user.Email,
		"role":       string(user.Role),
		"token_type": "access",
		"exp":        exp.Unix(),
		"iat":        now.Unix(),
	}
	if user.EmployeeID != nil {
		claims["employee_id"] = fmt.Sprintf("%d", *user.EmployeeID)
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.JWTSecret))
	if err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("user logged in", "user_id", user.ID, "role", string(user.Role))
	}
	return &AuthResult{AccessToken: token, User: *user, ExpiresAt: exp}, nil
}
