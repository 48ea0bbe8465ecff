package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/isp-dashboard/internal/config"
	"github.com/mamadbah2/isp-dashboard/internal/domain/models"
)

// MonthCloser closes the previous billing month.
type MonthCloser interface {
	ClosePreviousMonth(ctx context.Context) (*models.CommissionSnapshot, bool, error)
}

// IsolationSource lists the usernames due for isolation today.
type IsolationSource interface {
	IsolationCandidates(ctx context.Context) ([]string, error)
}

// Isolator disables a subscriber on the router.
type Isolator interface {
	DisableUser(ctx context.Context, name string) (bool, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron       *cron.Cron
	cfg        config.ReportingConfig
	closer     MonthCloser
	candidates IsolationSource
	isolator   Isolator
	logger     *zap.Logger
}

// NewScheduler creates a new scheduler running in the billing time zone.
// A nil isolator disables the isolation job.
func NewScheduler(cfg config.ReportingConfig, loc *time.Location, closer MonthCloser, candidates IsolationSource, isolator Isolator, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}

	c := cron.New(cron.WithLocation(loc), cron.WithChain(cron.Recover(cronLogger{logger})))

	return &Scheduler{
		cron:       c,
		cfg:        cfg,
		closer:     closer,
		candidates: candidates,
		isolator:   isolator,
		logger:     logger,
	}
}

// Start registers the jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler")

	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.closeMonth); err != nil {
		return fmt.Errorf("schedule monthly close %q: %w", s.cfg.CronSchedule, err)
	}

	if s.isolator != nil && s.cfg.IsolationCronSchedule != "" {
		if _, err := s.cron.AddFunc(s.cfg.IsolationCronSchedule, s.isolate); err != nil {
			return fmt.Errorf("schedule isolation %q: %w", s.cfg.IsolationCronSchedule, err)
		}
	} else {
		s.logger.Info("router not configured, isolation job disabled")
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) closeMonth() {
	s.logger.Info("closing previous billing month")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	snapshot, closed, err := s.closer.ClosePreviousMonth(ctx)
	if err != nil {
		s.logger.Error("failed to close billing month", zap.Error(err))
		return
	}
	if closed {
		s.logger.Info("billing month closed",
			zap.Int("month", snapshot.Month),
			zap.Int("year", snapshot.Year),
			zap.Int("partners", len(snapshot.Agents)),
			zap.Float64("commission", snapshot.GrandTotal.Commission))
	}
}

func (s *Scheduler) isolate() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if _, err := s.RunIsolation(ctx); err != nil {
		s.logger.Error("isolation run failed", zap.Error(err))
	}
}

// RunIsolation disables every subscriber due for isolation and returns how
// many were disabled. One failing subscriber does not stop the rest.
func (s *Scheduler) RunIsolation(ctx context.Context) (int, error) {
	if s.isolator == nil {
		return 0, nil
	}

	usernames, err := s.candidates.IsolationCandidates(ctx)
	if err != nil {
		return 0, fmt.Errorf("list isolation candidates: %w", err)
	}
	if len(usernames) == 0 {
		return 0, nil
	}

	s.logger.Info("isolating unpaid subscribers", zap.Int("candidates", len(usernames)))

	disabled := 0
	for _, name := range usernames {
		found, err := s.isolator.DisableUser(ctx, name)
		if err != nil {
			s.logger.Error("failed to isolate subscriber", zap.String("username", name), zap.Error(err))
			continue
		}
		if !found {
			s.logger.Warn("no pppoe secret for subscriber", zap.String("username", name))
			continue
		}
		disabled++
	}

	s.logger.Info("isolation finished", zap.Int("disabled", disabled), zap.Int("candidates", len(usernames)))
	return disabled, nil
}

// cronLogger adapts zap to the cron.Logger interface.
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Infow(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
