package main

import (
	"context"
	"log/slog"
	"syscall"

	evbus "github.com/vardius/message-bus"

	"github.com/ai-trader/trader-portal/internal"
	"github.com/ai-trader/trader-portal/internal/adapters"
	"github.com/ai-trader/trader-portal/internal/app/analytics"
	"github.com/ai-trader/trader-portal/internal/app/api/core"
	"github.com/ai-trader/trader-portal/internal/app/api/v0/handlers"
	"github.com/ai-trader/trader-portal/internal/app/assets"
	"github.com/ai-trader/trader-portal/internal/app/audit"
	"github.com/ai-trader/trader-portal/internal/app/features"
	"github.com/ai-trader/trader-portal/internal/app/labeling"
	"github.com/ai-trader/trader-portal/internal/app/metrics"
	"github.com/ai-trader/trader-portal/internal/app/pipeline"
	"github.com/ai-trader/trader-portal/internal/app/strategies"
	"github.com/ai-trader/trader-portal/internal/app/trading"
	"github.com/ai-trader/trader-portal/internal/app/users"
	"github.com/ai-trader/trader-portal/internal/config"
	"github.com/ai-trader/trader-portal/internal/domain"
)

func main() {
	ctx := internal.SignalAwareContext(context.Background(), syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)

	cfg, err := config.GetConfig()
	internal.AssertNoError(err)

	internal.SetupLogging(cfg.Advanced.LogLevel, cfg.Advanced.LogFormat)

	slog.Info("starting trader portal", "version", internal.Version)

	rawDb, err := adapters.NewDatabase(cfg.Database)
	internal.AssertNoError(err)

	database, err := adapters.NewSqlRepository(rawDb)
	internal.AssertNoError(err)

	metricsServer := adapters.NewMetricsServer(cfg)

	if cfg.Audit.Enabled {
		var observers []adapters.AuditObserver
		if cfg.Statistics.Enabled {
			observers = append(observers, metricsServer)
		}
		err = adapters.RegisterAuditing(rawDb, cfg.Audit.Entities, observers...)
		internal.AssertNoError(err)
	}

	queueSize := 100
	eventBus := evbus.New(queueSize)

	userManager, err := users.NewUserManager(cfg, eventBus, database)
	internal.AssertNoError(err)

	strategyManager, err := strategies.NewStrategyManager(cfg, eventBus, database, database)
	internal.AssertNoError(err)

	assetManager, err := assets.NewAssetManager(cfg, eventBus, database, database)
	internal.AssertNoError(err)

	featureManager, err := features.NewFeatureManager(cfg, eventBus, database, database, database)
	internal.AssertNoError(err)

	labelManager, err := labeling.NewLabelManager(cfg, eventBus, database, database, database, database,
		database, database)
	internal.AssertNoError(err)

	tradingManager, err := trading.NewTradingManager(cfg, eventBus, database, database, database, database)
	internal.AssertNoError(err)

	analyticsManager, err := analytics.NewAnalyticsManager(cfg, eventBus, database, database, database)
	internal.AssertNoError(err)

	auditManager := audit.NewManager(database)

	_, err = audit.NewAuthEventRecorder(eventBus)
	internal.AssertNoError(err)

	// startup tasks run under the system principal
	startupCtx := domain.SetUserInfo(ctx, domain.SystemContextUserInfo())

	err = userManager.EnsureDefaultAdmin(startupCtx)
	internal.AssertNoError(err)

	_, err = labelManager.EnsureLabelingStrategy(startupCtx)
	internal.AssertNoError(err)

	if cfg.Statistics.Enabled {
		_, err = metrics.NewCollector(cfg, eventBus, metricsServer)
		internal.AssertNoError(err)

		go metricsServer.Run(ctx)
	}

	scheduler, err := pipeline.NewScheduler(cfg, featureManager, labelManager, analyticsManager)
	internal.AssertNoError(err)

	go scheduler.Run(ctx)

	sessionWrapper := handlers.NewSessionWrapper(cfg)
	validator := handlers.NewValidator()
	authenticator := handlers.NewAuthenticationHandler(userManager, sessionWrapper)

	apiFrontend := handlers.NewRestApi(sessionWrapper,
		handlers.NewAuthEndpoint(cfg, sessionWrapper, validator, userManager),
		handlers.NewUserEndpoint(authenticator, validator, userManager),
		handlers.NewStrategyEndpoint(authenticator, validator, strategyManager),
		handlers.NewAssetEndpoint(authenticator, validator, assetManager),
		handlers.NewSignalEndpoint(authenticator, featureManager, labelManager),
		handlers.NewTradingEndpoint(authenticator, validator, tradingManager),
		handlers.NewAnalyticsEndpoint(authenticator, analyticsManager),
		handlers.NewAuditEndpoint(authenticator, auditManager),
	)

	webSrv, err := core.NewServer(cfg, apiFrontend)
	internal.AssertNoError(err)

	go webSrv.Run(ctx, cfg.Web.ListeningAddress)

	// wait until the context gets cancelled
	<-ctx.Done()

	slog.Info("stopped trader portal")
}
