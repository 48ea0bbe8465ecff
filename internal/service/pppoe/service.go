package pppoe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/isp-dashboard/internal/domain/models"
	"github.com/mamadbah2/isp-dashboard/pkg/clients/routeros"
)

// ErrInvalidID is returned when no secret id is given.
var ErrInvalidID = errors.New("user id is required")

// Service manages PPPoE secrets on the router.
type Service struct {
	client routeros.Client
	logger *zap.Logger
}

// NewService wires a new PPPoE service instance.
func NewService(client routeros.Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{client: client, logger: logger}
}

// UpdateUser patches a secret. When the name changes, sessions already
// connected under that name are dropped so the change applies at once;
// failing to drop them does not fail the update.
func (s *Service) UpdateUser(ctx context.Context, id string, update models.PPPoEUpdate) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidID
	}

	fields := routeros.SecretFields{
		Name:     update.Name,
		Password: update.Password,
		Profile:  update.Profile,
		Service:  update.Service,
		Comment:  update.Comment,
	}
	if err := s.client.UpdateSecret(ctx, id, fields); err != nil {
		return err
	}
	s.logger.Info("pppoe secret updated", zap.String("id", id))

	if update.Name != "" {
		s.disconnect(ctx, update.Name)
	}
	return nil
}

// DeleteUser removes a secret.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidID
	}
	if err := s.client.RemoveSecret(ctx, id); err != nil {
		return err
	}
	s.logger.Info("pppoe secret removed", zap.String("id", id))
	return nil
}

// DisableUser disables the secret with the given name and drops its
// sessions. It reports false when the router has no such secret.
func (s *Service) DisableUser(ctx context.Context, name string) (bool, error) {
	secret, err := s.client.FindSecretByName(ctx, name)
	if err != nil {
		return false, err
	}
	if secret == nil {
		return false, nil
	}
	if secret.Disabled == "true" {
		return true, nil
	}

	if err := s.client.SetSecretDisabled(ctx, secret.ID, true); err != nil {
		return false, fmt.Errorf("disable %s: %w", name, err)
	}
	s.disconnect(ctx, name)
	return true, nil
}

func (s *Service) disconnect(ctx context.Context, name string) {
	sessions, err := s.client.ActiveSessions(ctx, name)
	if err != nil {
		s.logger.Info("disconnect skipped", zap.String("name", name), zap.Error(err))
		return
	}
	if len(sessions) == 0 {
		s.logger.Debug("user offline, no session to disconnect", zap.String("name", name))
		return
	}

	for _, session := range sessions {
		if session.ID == "" {
			continue
		}
		if err := s.client.RemoveActiveSession(ctx, session.ID); err != nil {
			s.logger.Info("disconnect skipped", zap.String("name", name), zap.String("session", session.ID), zap.Error(err))
			continue
		}
	}
	s.logger.Info("disconnected active sessions", zap.String("name", name), zap.Int("sessions", len(sessions)))
}
