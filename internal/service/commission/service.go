package commission

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/isp-dashboard/internal/domain/models"
)

// ErrUnauthenticated is returned when no viewer is attached to the request.
var ErrUnauthenticated = errors.New("unauthenticated")

// ErrForbidden is returned when the viewer is neither admin nor partner.
var ErrForbidden = errors.New("forbidden")

// Store supplies the read-only collections.
type Store interface {
	LoadPayments(ctx context.Context) ([]models.Payment, error)
	LoadCustomers(ctx context.Context) (map[string]models.Customer, error)
	LoadUsers(ctx context.Context) ([]models.User, error)
}

// Report is one of the payloads served by the commission stats endpoint.
type Report interface {
	ViewerRole() string
}

// Service authorizes viewers, loads the collections and runs the aggregator.
type Service struct {
	store  Store
	agg    *Aggregator
	logger *zap.Logger
}

// NewService wires a new commission service instance.
func NewService(store Store, agg *Aggregator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, agg: agg, logger: logger}
}

// Stats returns the admin report for admins and the self view for partners.
// Authorization happens before any collection is read.
func (s *Service) Stats(ctx context.Context, viewer *models.Principal, period Period) (Report, error) {
	if err := authorize(viewer); err != nil {
		return nil, err
	}

	ds, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("computing commission stats",
		zap.String("viewer", viewer.Username),
		zap.Bool("admin", viewer.IsAdmin()),
		zap.Bool("filtered", period.Filtered()),
		zap.Int("month", period.Month),
		zap.Int("year", period.Year),
		zap.Int("payments", len(ds.Payments)),
		zap.Int("customers", len(ds.Customers)),
		zap.Int("users", len(ds.Users)))

	if viewer.IsAdmin() {
		return s.agg.Admin(ds, period), nil
	}
	return s.agg.Partner(ds, period, *viewer), nil
}

// YearlyStats breaks the viewer's totals down by month for the given year.
func (s *Service) YearlyStats(ctx context.Context, viewer *models.Principal, year int) (Report, error) {
	if err := authorize(viewer); err != nil {
		return nil, err
	}

	ds, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	if viewer.IsAdmin() {
		out := &models.AdminYearlyReport{Role: models.RoleAdmin, Year: year, YearlyStats: make([]models.AdminMonthStats, 0, 12)}
		for month := 0; month < 12; month++ {
			report := s.agg.Admin(ds, MonthOf(month, year))
			out.YearlyStats = append(out.YearlyStats, models.NewAdminMonthStats(month, report.GrandTotal))
		}
		return out, nil
	}

	out := &models.PartnerYearlyReport{Role: models.RolePartner, Year: year, YearlyStats: make([]models.PartnerMonthStats, 0, 12)}
	for month := 0; month < 12; month++ {
		report := s.agg.Partner(ds, MonthOf(month, year), *viewer)
		out.YearlyStats = append(out.YearlyStats, models.NewPartnerMonthStats(month, report.Stats))
	}
	return out, nil
}

// AdminReport computes the operator-wide report without a viewer; used by
// the monthly close job.
func (s *Service) AdminReport(ctx context.Context, period Period) (*models.AdminReport, error) {
	ds, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return s.agg.Admin(ds, period), nil
}

func (s *Service) load(ctx context.Context) (Dataset, error) {
	payments, err := s.store.LoadPayments(ctx)
	if err != nil {
		return Dataset{}, fmt.Errorf("load payments: %w", err)
	}
	customers, err := s.store.LoadCustomers(ctx)
	if err != nil {
		return Dataset{}, fmt.Errorf("load customers: %w", err)
	}
	users, err := s.store.LoadUsers(ctx)
	if err != nil {
		return Dataset{}, fmt.Errorf("load users: %w", err)
	}
	return Dataset{Payments: payments, Customers: customers, Users: users}, nil
}

func authorize(viewer *models.Principal) error {
	if viewer == nil {
		return ErrUnauthenticated
	}
	if !viewer.IsAdmin() && !viewer.IsPartner() {
		return ErrForbidden
	}
	return nil
}
