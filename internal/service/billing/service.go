package billing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/isp-dashboard/internal/domain/models"
)

// ErrPaymentNotFound indicates no payment carries the requested id.
var ErrPaymentNotFound = errors.New("payment not found")

// ErrStatusRequired indicates an update without a status.
var ErrStatusRequired = errors.New("status is required")

// Store is the persistence used by billing operations.
type Store interface {
	LoadPayments(ctx context.Context) ([]models.Payment, error)
	SavePayments(ctx context.Context, payments []models.Payment) error
	LoadSettings(ctx context.Context) (models.BillingSettings, bool, error)
	SaveSettings(ctx context.Context, settings models.BillingSettings) error
	LoadEmailSettings(ctx context.Context) (models.EmailSettings, error)
	SaveEmailSettings(ctx context.Context, email models.EmailSettings) error
}

// Service implements payment bookkeeping and billing settings.
type Service struct {
	store  Store
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time
	mu     sync.Mutex
}

// NewService wires a new billing service instance.
func NewService(store Store, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, loc: loc, logger: logger, now: time.Now}
}

// UpdatePayment changes a payment's status and, optionally, its amount and
// notes. Completing a payment stamps it with the current time.
func (s *Service) UpdatePayment(ctx context.Context, id string, update models.PaymentUpdate) (models.Payment, error) {
	if strings.TrimSpace(update.Status) == "" {
		return models.Payment{}, ErrStatusRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	payments, err := s.store.LoadPayments(ctx)
	if err != nil {
		return models.Payment{}, fmt.Errorf("load payments: %w", err)
	}

	idx := -1
	for i, p := range payments {
		if p.ID.String() == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return models.Payment{}, ErrPaymentNotFound
	}

	p := payments[idx]
	p.Apply(update, s.now())
	payments[idx] = p

	if err := s.store.SavePayments(ctx, payments); err != nil {
		return models.Payment{}, fmt.Errorf("save payments: %w", err)
	}

	s.logger.Info("payment updated", zap.String("id", id), zap.String("status", p.Status), zap.String("username", p.Username))
	return p, nil
}

// Summary computes the dashboard billing figures in the billing time zone.
func (s *Service) Summary(ctx context.Context) (models.BillingSummary, error) {
	payments, err := s.store.LoadPayments(ctx)
	if err != nil {
		return models.BillingSummary{}, fmt.Errorf("load payments: %w", err)
	}

	now := s.now().In(s.loc)
	total, month, today, unpaid := decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
	var summary models.BillingSummary

	for _, p := range payments {
		amount := decimal.NewFromFloat(p.Amount.Float64())
		if !p.Completed() {
			unpaid = unpaid.Add(amount)
			summary.PendingCount++
			continue
		}

		total = total.Add(amount)
		t, ok := p.Time()
		if !ok {
			continue
		}
		local := t.In(s.loc)
		if local.Year() == now.Year() && local.Month() == now.Month() {
			month = month.Add(amount)
			if local.Day() == now.Day() {
				today = today.Add(amount)
			}
		}
	}

	summary.TotalRevenue = total.InexactFloat64()
	summary.ThisMonthRevenue = month.InexactFloat64()
	summary.TodaysRevenue = today.InexactFloat64()
	summary.TotalUnpaid = unpaid.InexactFloat64()
	return summary, nil
}

// Settings returns the billing settings with the email password masked.
func (s *Service) Settings(ctx context.Context) (models.SettingsPayload, error) {
	settings, err := s.billingSettings(ctx)
	if err != nil {
		return models.SettingsPayload{}, err
	}

	email, err := s.store.LoadEmailSettings(ctx)
	if err != nil {
		return models.SettingsPayload{}, fmt.Errorf("load email settings: %w", err)
	}
	if email.Password != "" {
		email.Password = models.MaskedPassword
	}

	return models.SettingsPayload{BillingSettings: settings, Email: &email}, nil
}

// SaveSettings stores billing settings and, when present, the email
// settings. A masked password keeps the stored one.
func (s *Service) SaveSettings(ctx context.Context, payload models.SettingsPayload) error {
	if err := s.store.SaveSettings(ctx, payload.BillingSettings); err != nil {
		return fmt.Errorf("save billing settings: %w", err)
	}

	if payload.Email == nil {
		return nil
	}

	email := *payload.Email
	if email.Password == models.MaskedPassword {
		stored, err := s.store.LoadEmailSettings(ctx)
		if err != nil {
			return fmt.Errorf("load email settings: %w", err)
		}
		email.Password = stored.Password
	}

	if err := s.store.SaveEmailSettings(ctx, email); err != nil {
		return fmt.Errorf("save email settings: %w", err)
	}
	return nil
}

// EmailSettings returns the stored SMTP settings unmasked, for senders.
func (s *Service) EmailSettings(ctx context.Context) (models.EmailSettings, error) {
	return s.store.LoadEmailSettings(ctx)
}

// IsolationCandidates returns the usernames to isolate today: customers with
// an unpaid invoice for the current month, but only on the configured drop
// day. Any other day it returns nil.
func (s *Service) IsolationCandidates(ctx context.Context) ([]string, error) {
	settings, err := s.billingSettings(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().In(s.loc)
	if settings.AutoDropDate <= 0 || now.Day() != settings.AutoDropDate {
		return nil, nil
	}

	payments, err := s.store.LoadPayments(ctx)
	if err != nil {
		return nil, fmt.Errorf("load payments: %w", err)
	}

	seen := make(map[string]struct{})
	for _, p := range payments {
		if p.Completed() || p.Username == "" {
			continue
		}
		month, year, ok := p.InvoicePeriod(s.loc)
		if !ok || month != int(now.Month())-1 || year != now.Year() {
			continue
		}
		seen[p.Username] = struct{}{}
	}

	usernames := make([]string, 0, len(seen))
	for u := range seen {
		usernames = append(usernames, u)
	}
	sort.Strings(usernames)
	return usernames, nil
}

func (s *Service) billingSettings(ctx context.Context) (models.BillingSettings, error) {
	settings, found, err := s.store.LoadSettings(ctx)
	if err != nil {
		return models.BillingSettings{}, fmt.Errorf("load billing settings: %w", err)
	}
	if !found {
		return models.DefaultBillingSettings(), nil
	}
	return settings, nil
}
