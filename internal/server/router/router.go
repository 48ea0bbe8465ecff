package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/isp-dashboard/internal/server/handlers"
	"github.com/mamadbah2/isp-dashboard/internal/server/middleware"
)

// Handlers groups the HTTP handlers mounted by the router.
type Handlers struct {
	Auth    *handlers.AuthHandler
	Stats   *handlers.StatsHandler
	Billing *handlers.BillingHandler
	PPPoE   *handlers.PPPoEHandler
}

// Options configures the authentication middleware.
type Options struct {
	Resolver   middleware.PrincipalResolver
	CookieName string
	// LoginLimiter throttles login attempts per IP. Nil uses one attempt
	// every two seconds with a burst of five.
	LoginLimiter *middleware.RateLimiter
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, opts Options, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.LoginLimiter == nil {
		opts.LoginLimiter = middleware.NewRateLimiter(2*time.Second, 5)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authn := middleware.Authenticate(opts.Resolver, opts.CookieName, logger.Named("auth"))

	api := r.Group("/api")
	{
		api.POST("/auth/login", opts.LoginLimiter.Middleware(), h.Auth.Login)
		api.POST("/auth/logout", h.Auth.Logout)
		api.GET("/auth/me", authn, h.Auth.Me)
	}

	billing := api.Group("/billing", authn)
	{
		billing.GET("/stats", middleware.RequireAdmin(), h.Billing.Summary)
		billing.GET("/stats/agent", h.Stats.AgentStats)
		billing.PUT("/payments/:id", middleware.RequireAdmin(), h.Billing.UpdatePayment)
		billing.GET("/settings", middleware.RequireAdmin(), h.Billing.GetSettings)
		billing.POST("/settings", middleware.RequireAdmin(), h.Billing.SaveSettings)
	}

	pppoe := api.Group("/pppoe", authn, middleware.RequireAdmin())
	{
		pppoe.PUT("/users/:id", h.PPPoE.UpdateUser)
		pppoe.DELETE("/users/:id", h.PPPoE.DeleteUser)
	}

	logger.Info("router initialized")

	return r
}
