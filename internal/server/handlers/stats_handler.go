package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/isp-dashboard/internal/domain/models"
	"github.com/mamadbah2/isp-dashboard/internal/server/middleware"
	"github.com/mamadbah2/isp-dashboard/internal/service/commission"
)

// CommissionService computes the commission reports.
type CommissionService interface {
	Stats(ctx context.Context, viewer *models.Principal, period commission.Period) (commission.Report, error)
	YearlyStats(ctx context.Context, viewer *models.Principal, year int) (commission.Report, error)
}

// StatsHandler serves the partner commission endpoint.
type StatsHandler struct {
	svc    CommissionService
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time
}

// NewStatsHandler constructs the commission stats handler. loc decides the
// default year of the yearly breakdown.
func NewStatsHandler(svc CommissionService, loc *time.Location, logger *zap.Logger) *StatsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &StatsHandler{svc: svc, loc: loc, logger: logger, now: time.Now}
}

// AgentStats handles GET /api/billing/stats/agent?month=&year=[&type=yearly].
func (h *StatsHandler) AgentStats(c *gin.Context) {
	viewer := middleware.PrincipalFrom(c)

	var (
		report commission.Report
		err    error
	)

	if c.Query("type") == "yearly" {
		year := h.now().In(h.loc).Year()
		if raw := strings.TrimSpace(c.Query("year")); raw != "" {
			year, err = strconv.Atoi(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "year must be an integer"})
				return
			}
		}
		report, err = h.svc.YearlyStats(c.Request.Context(), viewer, year)
	} else {
		period, perr := parsePeriod(c.Query("month"), c.Query("year"))
		if perr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": perr.Error()})
			return
		}
		report, err = h.svc.Stats(c.Request.Context(), viewer, period)
	}

	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *StatsHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, commission.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	case errors.Is(err, commission.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	default:
		h.logger.Error("failed computing commission stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// parsePeriod filters only when both month and year are present.
func parsePeriod(rawMonth, rawYear string) (commission.Period, error) {
	rawMonth, rawYear = strings.TrimSpace(rawMonth), strings.TrimSpace(rawYear)
	if rawMonth == "" || rawYear == "" {
		return commission.AllTime(), nil
	}

	month, err := strconv.Atoi(rawMonth)
	if err != nil || month < 0 || month > 11 {
		return commission.Period{}, errors.New("month must be an integer between 0 and 11")
	}
	year, err := strconv.Atoi(rawYear)
	if err != nil {
		return commission.Period{}, errors.New("year must be an integer")
	}
	return commission.MonthOf(month, year), nil
}
