package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/isp-dashboard/internal/auth"
	"github.com/mamadbah2/isp-dashboard/internal/config"
	"github.com/mamadbah2/isp-dashboard/internal/repository/jsonfile"
	"github.com/mamadbah2/isp-dashboard/internal/repository/mongodb"
	"github.com/mamadbah2/isp-dashboard/internal/repository/sheets"
	"github.com/mamadbah2/isp-dashboard/internal/scheduler"
	"github.com/mamadbah2/isp-dashboard/internal/server/handlers"
	"github.com/mamadbah2/isp-dashboard/internal/server/middleware"
	"github.com/mamadbah2/isp-dashboard/internal/server/router"
	billingsvc "github.com/mamadbah2/isp-dashboard/internal/service/billing"
	commissionsvc "github.com/mamadbah2/isp-dashboard/internal/service/commission"
	emailsvc "github.com/mamadbah2/isp-dashboard/internal/service/email"
	pppoesvc "github.com/mamadbah2/isp-dashboard/internal/service/pppoe"
	reportingsvc "github.com/mamadbah2/isp-dashboard/internal/service/reporting"
	whatsappsvc "github.com/mamadbah2/isp-dashboard/internal/service/whatsapp"
	"github.com/mamadbah2/isp-dashboard/pkg/clients/routeros"
	whatsappclient "github.com/mamadbah2/isp-dashboard/pkg/clients/whatsapp"
	"github.com/mamadbah2/isp-dashboard/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)
	gin.SetMode(gin.ReleaseMode)

	loc := cfg.Billing.Location()
	store := jsonfile.NewStore(cfg.Storage, baseLogger.Named("repo.jsonfile"))

	tokens, err := auth.NewTokenManager(cfg.Auth)
	if err != nil {
		baseLogger.Fatal("failed to init token manager", zap.Error(err))
	}
	authSvc := auth.NewService(store, tokens, baseLogger.Named("svc.auth"))

	commissionSvc := commissionsvc.NewService(store, commissionsvc.NewAggregator(loc), baseLogger.Named("svc.commission"))
	billingSvc := billingsvc.NewService(store, loc, baseLogger.Named("svc.billing"))

	var pppoeSvc *pppoesvc.Service
	if cfg.Router.Enabled() {
		routerClient := routeros.NewClient(cfg.Router, baseLogger.Named("client.routeros"))
		pppoeSvc = pppoesvc.NewService(routerClient, baseLogger.Named("svc.pppoe"))
		baseLogger.Info("router integration enabled", zap.String("base_url", cfg.Router.BaseURL))
	} else {
		baseLogger.Warn("router base url missing, pppoe management and isolation disabled")
	}

	var archive mongodb.Repository
	if cfg.MongoDB.Enabled() {
		connectCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		mongoRepo, err := mongodb.NewMongoDBRepository(connectCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		cancel()
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		archive = mongoRepo
	}

	var sheet sheets.Repository
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		sheet = sheetsRepo
	}

	notifiers := []reportingsvc.Notifier{emailsvc.NewNotifier(billingSvc, baseLogger.Named("svc.email"))}
	if cfg.WhatsApp.Enabled() {
		whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
		notifiers = append(notifiers, whatsappsvc.NewNotifier(whatsClient, cfg.WhatsApp.ReportRecipient, baseLogger.Named("svc.whatsapp")))
	} else {
		baseLogger.Warn("whatsapp credentials missing, monthly summaries will not be sent over whatsapp")
	}

	reportingSvc := reportingsvc.NewService(commissionSvc, archive, sheet, notifiers, loc, baseLogger.Named("svc.reporting"))

	var pppoeHandlerSvc handlers.PPPoEService
	var isolator scheduler.Isolator
	if pppoeSvc != nil {
		pppoeHandlerSvc = pppoeSvc
		isolator = pppoeSvc
	}

	loginLimiter := middleware.NewRateLimiter(2*time.Second, 5)
	defer loginLimiter.Stop()

	engine := router.New(router.Handlers{
		Auth:    handlers.NewAuthHandler(authSvc, cfg.Auth.CookieName, cfg.Auth.TokenTTL, baseLogger.Named("handlers.auth")),
		Stats:   handlers.NewStatsHandler(commissionSvc, loc, baseLogger.Named("handlers.stats")),
		Billing: handlers.NewBillingHandler(billingSvc, baseLogger.Named("handlers.billing")),
		PPPoE:   handlers.NewPPPoEHandler(pppoeHandlerSvc, baseLogger.Named("handlers.pppoe")),
	}, router.Options{
		Resolver:     authSvc,
		CookieName:   cfg.Auth.CookieName,
		LoginLimiter: loginLimiter,
	}, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(cfg.Reporting, loc, reportingSvc, billingSvc, isolator, baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("timezone", loc.String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
