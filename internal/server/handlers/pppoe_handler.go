package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/isp-dashboard/internal/domain/models"
	"github.com/mamadbah2/isp-dashboard/internal/service/pppoe"
)

// PPPoEService manages router secrets.
type PPPoEService interface {
	UpdateUser(ctx context.Context, id string, update models.PPPoEUpdate) error
	DeleteUser(ctx context.Context, id string) error
}

// PPPoEHandler serves the PPPoE secret endpoints. A nil service means no
// router is configured.
type PPPoEHandler struct {
	svc    PPPoEService
	logger *zap.Logger
}

// NewPPPoEHandler constructs the PPPoE handler.
func NewPPPoEHandler(svc PPPoEService, logger *zap.Logger) *PPPoEHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PPPoEHandler{svc: svc, logger: logger}
}

// UpdateUser handles PUT /api/pppoe/users/:id.
func (h *PPPoEHandler) UpdateUser(c *gin.Context) {
	if !h.available(c) {
		return
	}

	var req models.PPPoEUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.svc.UpdateUser(c.Request.Context(), c.Param("id"), req); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeleteUser handles DELETE /api/pppoe/users/:id.
func (h *PPPoEHandler) DeleteUser(c *gin.Context) {
	if !h.available(c) {
		return
	}

	if err := h.svc.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *PPPoEHandler) available(c *gin.Context) bool {
	if h.svc == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "router is not configured"})
		return false
	}
	return true
}

func (h *PPPoEHandler) writeError(c *gin.Context, err error) {
	if errors.Is(err, pppoe.ErrInvalidID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User ID is required"})
		return
	}
	h.logger.Error("router operation failed", zap.String("id", c.Param("id")), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
