package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/isp-dashboard/internal/domain/models"
	"github.com/mamadbah2/isp-dashboard/internal/service/billing"
)

// BillingService covers payments, the billing summary and settings.
type BillingService interface {
	Summary(ctx context.Context) (models.BillingSummary, error)
	UpdatePayment(ctx context.Context, id string, update models.PaymentUpdate) (models.Payment, error)
	Settings(ctx context.Context) (models.SettingsPayload, error)
	SaveSettings(ctx context.Context, payload models.SettingsPayload) error
}

// BillingHandler serves the billing endpoints.
type BillingHandler struct {
	svc    BillingService
	logger *zap.Logger
}

// NewBillingHandler constructs the billing handler.
func NewBillingHandler(svc BillingService, logger *zap.Logger) *BillingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BillingHandler{svc: svc, logger: logger}
}

// Summary handles GET /api/billing/stats.
func (h *BillingHandler) Summary(c *gin.Context) {
	summary, err := h.svc.Summary(c.Request.Context())
	if err != nil {
		h.logger.Error("failed computing billing summary", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// UpdatePayment handles PUT /api/billing/payments/:id.
func (h *BillingHandler) UpdatePayment(c *gin.Context) {
	var req models.PaymentUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status is required"})
		return
	}

	payment, err := h.svc.UpdatePayment(c.Request.Context(), c.Param("id"), req)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true, "payment": payment})
	case errors.Is(err, billing.ErrStatusRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status is required"})
	case errors.Is(err, billing.ErrPaymentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
	default:
		h.logger.Error("failed updating payment", zap.String("id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update payment"})
	}
}

// GetSettings handles GET /api/billing/settings.
func (h *BillingHandler) GetSettings(c *gin.Context) {
	settings, err := h.svc.Settings(c.Request.Context())
	if err != nil {
		h.logger.Error("failed loading billing settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load settings"})
		return
	}
	c.JSON(http.StatusOK, settings)
}

// SaveSettings handles POST /api/billing/settings.
func (h *BillingHandler) SaveSettings(c *gin.Context) {
	var payload models.SettingsPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.svc.SaveSettings(c.Request.Context(), payload); err != nil {
		h.logger.Error("failed saving billing settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save settings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Settings saved successfully"})
}
