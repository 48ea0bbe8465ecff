package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/isp-dashboard/internal/domain/models"
)

// ErrInvalidCredentials is returned for an unknown user or a wrong password.
var ErrInvalidCredentials = errors.New("invalid username or password")

// ErrInvalidToken is returned when a token fails validation or its user is gone.
var ErrInvalidToken = errors.New("invalid token")

// UserStore looks users up in the users file.
type UserStore interface {
	FindUser(ctx context.Context, match func(models.User) bool) (models.User, bool, error)
}

// Session is the result of a successful login.
type Session struct {
	Token     string
	Principal models.Principal
}

// Service authenticates users and resolves session tokens to principals.
type Service struct {
	users  UserStore
	tokens *TokenManager
	logger *zap.Logger
}

// NewService wires a new auth service instance.
func NewService(users UserStore, tokens *TokenManager, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{users: users, tokens: tokens, logger: logger}
}

// Login checks the credentials and issues a session token.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, found, err := s.users.FindUser(ctx, func(u models.User) bool {
		return u.Username == username
	})
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !found || !CheckPassword(user.Password, password) {
		s.logger.Info("login rejected", zap.String("username", username))
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(user.ID.String(), user.Username, user.Role)
	if err != nil {
		return nil, err
	}

	s.logger.Info("login succeeded", zap.String("username", username), zap.String("role", user.Role))
	return &Session{Token: token, Principal: models.NewPrincipal(user)}, nil
}

// Resolve validates a token and loads the current state of its user, so
// role and rate changes apply without a new login.
func (s *Service) Resolve(ctx context.Context, token string) (models.Principal, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		s.logger.Debug("token rejected", zap.Error(err))
		return models.Principal{}, ErrInvalidToken
	}

	id := models.ID(claims.Subject)
	user, found, err := s.users.FindUser(ctx, func(u models.User) bool {
		return u.ID == id
	})
	if err != nil {
		return models.Principal{}, fmt.Errorf("find user: %w", err)
	}
	if !found {
		return models.Principal{}, ErrInvalidToken
	}
	return models.NewPrincipal(user), nil
}
