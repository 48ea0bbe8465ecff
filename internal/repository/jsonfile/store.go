// Package jsonfile persists the dashboard collections as whole JSON files,
// the format the web dashboard shares with this service.
package jsonfile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/mamadbah2/isp-dashboard/internal/config"
	"github.com/mamadbah2/isp-dashboard/internal/domain/models"
)

// Store reads and rewrites the flat files. Reads of missing or malformed
// files degrade to empty collections; writes replace the file atomically.
type Store struct {
	paths  config.StorageConfig
	logger *zap.Logger
	mu     sync.Mutex
}

// NewStore builds a file store over the configured paths.
func NewStore(paths config.StorageConfig, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{paths: paths, logger: logger}
}

// LoadPayments returns every payment record.
func (s *Store) LoadPayments(ctx context.Context) ([]models.Payment, error) {
	data, err := s.readRaw(ctx, s.paths.PaymentsFile)
	if err != nil {
		return nil, err
	}

	var payments []models.Payment
	if !s.decode(s.paths.PaymentsFile, data, &payments) || payments == nil {
		return []models.Payment{}, nil
	}
	return payments, nil
}

// SavePayments rewrites the payments file.
func (s *Store) SavePayments(ctx context.Context, payments []models.Payment) error {
	return s.write(ctx, s.paths.PaymentsFile, payments)
}

// LoadCustomers returns the customer records keyed by PPPoE username.
func (s *Store) LoadCustomers(ctx context.Context) (map[string]models.Customer, error) {
	data, err := s.readRaw(ctx, s.paths.CustomersFile)
	if err != nil {
		return nil, err
	}

	var customers map[string]models.Customer
	if !s.decode(s.paths.CustomersFile, data, &customers) || customers == nil {
		return map[string]models.Customer{}, nil
	}
	return customers, nil
}

// LoadUsers returns the operator accounts. The file holds either a bare
// array or an object with a "users" array.
func (s *Store) LoadUsers(ctx context.Context) ([]models.User, error) {
	data, err := s.readRaw(ctx, s.paths.UsersFile)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var users []models.User
		if !s.decode(s.paths.UsersFile, trimmed, &users) || users == nil {
			return []models.User{}, nil
		}
		return users, nil
	}

	var envelope struct {
		Users []models.User `json:"users"`
	}
	if !s.decode(s.paths.UsersFile, trimmed, &envelope) || envelope.Users == nil {
		return []models.User{}, nil
	}
	return envelope.Users, nil
}

// FindUser returns the first user accepted by match.
func (s *Store) FindUser(ctx context.Context, match func(models.User) bool) (models.User, bool, error) {
	users, err := s.LoadUsers(ctx)
	if err != nil {
		return models.User{}, false, err
	}
	for _, u := range users {
		if match(u) {
			return u, true, nil
		}
	}
	return models.User{}, false, nil
}

// LoadSettings returns the billing settings; found is false when nothing
// usable is stored yet.
func (s *Store) LoadSettings(ctx context.Context) (models.BillingSettings, bool, error) {
	data, err := s.readRaw(ctx, s.paths.SettingsFile)
	if err != nil {
		return models.BillingSettings{}, false, err
	}

	var settings models.BillingSettings
	if !s.decode(s.paths.SettingsFile, data, &settings) {
		return models.BillingSettings{}, false, nil
	}
	return settings, true, nil
}

// SaveSettings rewrites the billing settings file.
func (s *Store) SaveSettings(ctx context.Context, settings models.BillingSettings) error {
	return s.write(ctx, s.paths.SettingsFile, settings)
}

// LoadEmailSettings returns the "email" section of the app config file.
func (s *Store) LoadEmailSettings(ctx context.Context) (models.EmailSettings, error) {
	doc, err := s.loadAppConfig(ctx)
	if err != nil {
		return models.EmailSettings{}, err
	}

	var email models.EmailSettings
	if section, ok := doc["email"]; ok {
		if err := json.Unmarshal(section, &email); err != nil {
			s.logger.Warn("email settings malformed, ignoring", zap.Error(err))
			return models.EmailSettings{}, nil
		}
	}
	return email, nil
}

// SaveEmailSettings replaces the "email" section and keeps every other key
// of the app config file as it was.
func (s *Store) SaveEmailSettings(ctx context.Context, email models.EmailSettings) error {
	doc, err := s.loadAppConfig(ctx)
	if err != nil {
		return err
	}

	section, err := json.Marshal(email)
	if err != nil {
		return fmt.Errorf("encode email settings: %w", err)
	}
	doc["email"] = section

	return s.write(ctx, s.paths.AppConfigFile, doc)
}

func (s *Store) loadAppConfig(ctx context.Context) (map[string]json.RawMessage, error) {
	data, err := s.readRaw(ctx, s.paths.AppConfigFile)
	if err != nil {
		return nil, err
	}

	var doc map[string]json.RawMessage
	if !s.decode(s.paths.AppConfigFile, data, &doc) || doc == nil {
		return map[string]json.RawMessage{}, nil
	}
	return doc, nil
}

// readRaw returns the file contents, or nil when the file is missing or
// unreadable. Only a cancelled context is reported as an error.
func (s *Store) readRaw(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("collection file unreadable, treating as empty", zap.String("path", path), zap.Error(err))
		}
		return nil, nil
	}
	return data, nil
}

// decode unmarshals data into v and reports whether it succeeded. Empty data
// counts as a failure without logging.
func (s *Store) decode(path string, data []byte, v any) bool {
	if len(bytes.TrimSpace(data)) == 0 {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.logger.Warn("collection file malformed, treating as empty", zap.String("path", path), zap.Error(err))
		return false
	}
	return true
}

func (s *Store) write(ctx context.Context, path string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}

	s.logger.Debug("collection file written", zap.String("path", path), zap.Int("bytes", len(data)))
	return nil
}
