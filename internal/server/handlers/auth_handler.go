package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/isp-dashboard/internal/auth"
	"github.com/mamadbah2/isp-dashboard/internal/domain/models"
	"github.com/mamadbah2/isp-dashboard/internal/server/middleware"
)

// AuthService logs users in.
type AuthService interface {
	Login(ctx context.Context, username, password string) (*auth.Session, error)
}

// AuthHandler serves login, logout and the current-user endpoint.
type AuthHandler struct {
	svc        AuthService
	cookieName string
	ttl        time.Duration
	logger     *zap.Logger
}

// NewAuthHandler constructs the auth handler.
func NewAuthHandler(svc AuthService, cookieName string, ttl time.Duration, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{svc: svc, cookieName: cookieName, ttl: ttl, logger: logger}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type userView struct {
	ID             models.ID           `json:"id"`
	Username       string              `json:"username"`
	Role           string              `json:"role"`
	AgentRate      float64             `json:"agentRate"`
	TechnicianRate float64             `json:"technicianRate"`
	Capabilities   []models.Capability `json:"capabilities"`
}

func newUserView(p *models.Principal) userView {
	return userView{
		ID:             p.ID,
		Username:       p.Username,
		Role:           p.Role,
		AgentRate:      p.AgentRate,
		TechnicianRate: p.TechnicianRate,
		Capabilities:   p.Capabilities.List(),
	}
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required"})
		return
	}

	session, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
			return
		}
		h.logger.Error("login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, session.Token, int(h.ttl.Seconds()), "/", "", c.Request.TLS != nil, true)
	c.JSON(http.StatusOK, gin.H{"token": session.Token, "user": newUserView(&session.Principal)})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, "", -1, "/", "", c.Request.TLS != nil, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	principal := middleware.PrincipalFrom(c)
	if principal == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": newUserView(principal)})
}
