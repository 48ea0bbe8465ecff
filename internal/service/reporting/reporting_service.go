package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/isp-dashboard/internal/domain/models"
	"github.com/mamadbah2/isp-dashboard/internal/repository/mongodb"
	"github.com/mamadbah2/isp-dashboard/internal/repository/sheets"
	"github.com/mamadbah2/isp-dashboard/internal/service/commission"
)

const (
	periodLayout     = "2006-01"
	commissionsRange = "Commissions!A:I"
	periodColumn     = "Commissions!A:A"
	totalLabel       = "TOTAL"
)

// ReportSource computes the admin commission report of a period.
type ReportSource interface {
	AdminReport(ctx context.Context, period commission.Period) (*models.AdminReport, error)
}

// Notifier delivers a text summary to the operator.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, subject, body string) error
}

// Service closes billing months: it snapshots the commission report and
// fans it out to the configured sinks. Nil sinks are skipped.
type Service struct {
	source    ReportSource
	archive   mongodb.Repository
	sheet     sheets.Repository
	notifiers []Notifier
	loc       *time.Location
	logger    *zap.Logger
	now       func() time.Time
}

// NewService wires a new reporting service instance.
func NewService(source ReportSource, archive mongodb.Repository, sheet sheets.Repository, notifiers []Notifier, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		source:    source,
		archive:   archive,
		sheet:     sheet,
		notifiers: notifiers,
		loc:       loc,
		logger:    logger,
		now:       time.Now,
	}
}

// ClosePreviousMonth closes the calendar month before now. A month that is
// already archived is not closed again; the returned bool reports whether
// this call did the close.
func (s *Service) ClosePreviousMonth(ctx context.Context) (*models.CommissionSnapshot, bool, error) {
	month, year := previousMonth(s.now().In(s.loc))

	if s.archive != nil {
		existing, err := s.archive.FindSnapshot(ctx, month, year)
		if err != nil {
			s.logger.Warn("snapshot lookup failed, closing anyway", zap.Error(err))
		} else if existing != nil {
			s.logger.Info("month already closed", zap.Int("month", month), zap.Int("year", year))
			return existing, false, nil
		}
	}

	snapshot, err := s.CloseMonth(ctx, month, year)
	if err != nil {
		return nil, false, err
	}
	return snapshot, true, nil
}

// CloseMonth computes the admin report of a zero-based month and delivers
// it to every sink. Sink failures are logged and do not stop the others.
func (s *Service) CloseMonth(ctx context.Context, month, year int) (*models.CommissionSnapshot, error) {
	report, err := s.source.AdminReport(ctx, commission.MonthOf(month, year))
	if err != nil {
		return nil, fmt.Errorf("compute commission report: %w", err)
	}

	snapshot := models.CommissionSnapshot{
		Month:      month,
		Year:       year,
		Agents:     report.Agents,
		GrandTotal: report.GrandTotal,
		CreatedAt:  s.now().UTC(),
	}
	log := s.logger.With(zap.String("period", periodLabel(month, year)))

	if s.archive != nil {
		if err := s.archive.SaveSnapshot(ctx, snapshot); err != nil {
			log.Error("failed to archive commission snapshot", zap.Error(err))
		} else {
			log.Info("commission snapshot archived")
		}
	}

	if s.sheet != nil {
		if err := s.exportRows(ctx, snapshot); err != nil {
			log.Error("failed to export commissions to sheet", zap.Error(err))
		}
	}

	subject := fmt.Sprintf("Commission report %s", periodLabel(month, year))
	body := FormatSummary(snapshot)
	for _, n := range s.notifiers {
		if err := n.Notify(ctx, subject, body); err != nil {
			log.Error("failed to send commission summary", zap.String("notifier", n.Name()), zap.Error(err))
			continue
		}
		log.Info("commission summary sent", zap.String("notifier", n.Name()))
	}

	return &snapshot, nil
}

// exportRows appends one row per partner plus a total row, unless rows for
// the period are already in the sheet.
func (s *Service) exportRows(ctx context.Context, snapshot models.CommissionSnapshot) error {
	label := periodLabel(snapshot.Month, snapshot.Year)

	existing, err := s.sheet.ReadRange(ctx, periodColumn)
	if err != nil {
		return fmt.Errorf("load exported periods: %w", err)
	}
	for _, row := range existing {
		if len(row) > 0 && fmt.Sprint(row[0]) == label {
			s.logger.Info("commissions already exported", zap.String("period", label))
			return nil
		}
	}

	return s.sheet.AppendRows(ctx, commissionsRange, CommissionRows(snapshot))
}

// CommissionRows lays a snapshot out as spreadsheet rows: period, partner id,
// name, role, rate, paid, unpaid, revenue, commission.
func CommissionRows(snapshot models.CommissionSnapshot) [][]interface{} {
	label := periodLabel(snapshot.Month, snapshot.Year)
	rows := make([][]interface{}, 0, len(snapshot.Agents)+1)

	for _, a := range snapshot.Agents {
		rows = append(rows, []interface{}{
			label, a.ID.String(), a.Name, a.Role, a.Rate, a.PaidCount, a.UnpaidCount, a.TotalRevenue, a.Commission,
		})
	}

	gt := snapshot.GrandTotal
	rows = append(rows, []interface{}{label, totalLabel, "", "", "", "", "", gt.Revenue, gt.Commission})
	return rows
}

// FormatSummary renders the plain-text summary sent to the operator.
func FormatSummary(snapshot models.CommissionSnapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Commission report %s\n", periodLabel(snapshot.Month, snapshot.Year))
	fmt.Fprintf(&b, "Revenue: %s\n", formatAmount(snapshot.GrandTotal.Revenue))
	fmt.Fprintf(&b, "Commission: %s\n", formatAmount(snapshot.GrandTotal.Commission))
	fmt.Fprintf(&b, "Net revenue: %s\n", formatAmount(snapshot.GrandTotal.NetRevenue))

	if len(snapshot.Agents) == 0 {
		b.WriteString("\nNo partner activity.")
		return b.String()
	}

	b.WriteString("\nPartners:")
	for _, a := range snapshot.Agents {
		fmt.Fprintf(&b, "\n- %s (%s%%): %s commission on %s, %d paid / %d unpaid",
			a.Name, formatRate(a.Rate), formatAmount(a.Commission), formatAmount(a.TotalRevenue), a.PaidCount, a.UnpaidCount)
	}
	return b.String()
}

func previousMonth(now time.Time) (month, year int) {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	prev := first.AddDate(0, -1, 0)
	return int(prev.Month()) - 1, prev.Year()
}

func periodLabel(month, year int) string {
	return time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, time.UTC).Format(periodLayout)
}

// formatAmount renders whole rupiah with dot thousands separators.
func formatAmount(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	digits := fmt.Sprintf("%.0f", v)

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString("Rp ")
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return b.String()
}

func formatRate(rate float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", rate), "0"), ".")
}
