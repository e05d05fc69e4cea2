package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"

	catalogapp "github.com/dukaandost/backend/internal/application/catalog"
	chatapp "github.com/dukaandost/backend/internal/application/chat"
	promotionapp "github.com/dukaandost/backend/internal/application/promotion"
	reportapp "github.com/dukaandost/backend/internal/application/report"
	tradeapp "github.com/dukaandost/backend/internal/application/trade"
	"github.com/dukaandost/backend/internal/infrastructure/cache"
	"github.com/dukaandost/backend/internal/infrastructure/config"
	"github.com/dukaandost/backend/internal/infrastructure/event"
	"github.com/dukaandost/backend/internal/infrastructure/logger"
	"github.com/dukaandost/backend/internal/infrastructure/metrics"
	"github.com/dukaandost/backend/internal/infrastructure/persistence"
	"github.com/dukaandost/backend/internal/infrastructure/scheduler"
	"github.com/dukaandost/backend/internal/infrastructure/whatsapp"
	"github.com/dukaandost/backend/internal/interfaces/http/handler"
	"github.com/dukaandost/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to config.toml (defaults to ./config.toml when present)")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadFrom(*configPath)
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(logger.FromLogConfig(cfg.Log, cfg.App.Name))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Dukaan-Dost",
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", cfg.App.Version),
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry and metrics
	log, businessMetrics, shutdownTelemetry := setupTelemetry(ctx, cfg, log)
	defer shutdownTelemetry()

	var recorderOpts []metrics.RecorderOption
	if cfg.Metrics.RuntimeCollectors {
		recorderOpts = append(recorderOpts, metrics.WithRuntimeCollectors())
	}
	recorder := metrics.NewRecorder(recorderOpts...)
	observers := []metrics.Observer{recorder}
	if businessMetrics != nil {
		observers = append(observers, businessMetrics)
	}
	sink := metrics.NewSink(observers...)

	// File-backed stores
	storeOpts := []persistence.FileStoreOption{persistence.WithLockRetryDelay(cfg.Store.LockRetryDelay)}
	productRepo := persistence.NewCSVProductRepository(cfg.Store.ProductsFile, log, storeOpts...)
	orderLedger := persistence.NewCSVOrderLedger(cfg.Store.OrdersFile, log, storeOpts...)
	offerRepo := persistence.NewTextOfferRepository(cfg.Store.OffersFile, log, storeOpts...)

	// Outbound messaging
	messenger, err := whatsapp.NewClient(whatsapp.ClientConfig{
		Token:         cfg.WhatsApp.Token,
		PhoneNumberID: cfg.WhatsApp.PhoneNumberID,
		BaseURL:       cfg.WhatsApp.BaseURL,
		APIVersion:    cfg.WhatsApp.APIVersion,
		Timeout:       cfg.WhatsApp.Timeout,
	}, log)
	if err != nil {
		log.Fatal("Failed to create WhatsApp client", zap.Error(err))
	}

	// Shared chat state
	sessions := chatapp.NewSessionStore()
	admins := chatapp.NewAdminRegistry()

	// Event bus: low stock alerts go to signed-in owners
	eventBus := event.NewSyncEventBus(log)
	lowStockHandler := tradeapp.NewLowStockAlertHandler(admins, messenger, log, sink)
	eventBus.Subscribe(lowStockHandler, lowStockHandler.EventTypes()...)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		_ = eventBus.Stop(context.Background())
	}()

	// Application services
	productService := catalogapp.NewProductService(productRepo, log)
	orderService := tradeapp.NewOrderService(productRepo, orderLedger, log,
		tradeapp.WithEventPublisher(eventBus),
		tradeapp.WithMetrics(sink),
		tradeapp.WithLowStockThreshold(cfg.Store.LowStockThreshold),
	)
	offerService := promotionapp.NewOfferService(offerRepo, log)

	renderer, closeRenderer := setupChartRenderer(cfg.Chart, log)
	defer closeRenderer()
	reportOpts := []reportapp.ReportServiceOption{
		reportapp.WithCostRatio(decimal.NewFromFloat(cfg.Store.CostRatio)),
	}
	if archive := setupChartArchive(ctx, cfg, log); archive != nil {
		reportOpts = append(reportOpts, reportapp.WithChartArchive(archive))
	}
	reportService := reportapp.NewReportService(productRepo, orderLedger, renderer, log, reportOpts...)

	chatRouter := chatapp.NewRouter(
		chatapp.RouterConfig{
			AdminPIN:       cfg.Admin.PIN,
			SupportContact: cfg.Shop.SupportContact,
		},
		messenger,
		productService,
		orderService,
		offerService,
		reportService,
		sessions,
		admins,
		log,
	)

	// Message de-duplication
	messageStore, err := cache.NewMessageStore(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to create message store", zap.Error(err))
	}
	defer func() {
		if err := messageStore.Close(); err != nil {
			log.Warn("Error closing message store", zap.Error(err))
		}
	}()

	// Background sweeps
	sweeps := scheduler.NewSweepRunner(log, scheduler.WithObserver(sink))
	if cfg.Scheduler.Enabled {
		notifier := tradeapp.NewStatusNotifier(orderLedger, messenger, log, sink)
		if err := sweeps.Register(scheduler.AdvanceOrdersJob(orderService, cfg.Scheduler.AdvanceEvery, log)); err != nil {
			log.Fatal("Failed to register advance sweep", zap.Error(err))
		}
		if err := sweeps.Register(scheduler.NotifyOrdersJob(notifier, cfg.Scheduler.NotifyEvery, log)); err != nil {
			log.Fatal("Failed to register notify sweep", zap.Error(err))
		}
		if err := sweeps.Start(ctx); err != nil {
			log.Fatal("Failed to start sweeps", zap.Error(err))
		}
	} else {
		log.Info("Background sweeps disabled")
	}

	// HTTP
	var checks []handler.HealthCheck
	if pinger, ok := messageStore.(interface{ Ping(context.Context) error }); ok {
		checks = append(checks, handler.HealthCheck{Name: "redis", Check: pinger.Ping})
	}
	checks = append(checks, handler.HealthCheck{Name: "orders", Check: func(ctx context.Context) error {
		_, err := orderLedger.Load(ctx)
		return err
	}})

	webhookHandler := handler.NewWebhookHandler(
		handler.WebhookConfig{
			VerifyToken: cfg.WhatsApp.VerifyToken,
			AppSecret:   cfg.WhatsApp.AppSecret,
			DedupeTTL:   cfg.WhatsApp.DedupeTTL,
		},
		chatRouter,
		messageStore,
		log,
		handler.WithWebhookMetrics(sink),
	)

	routerCfg := router.Config{
		ServiceName:    cfg.Telemetry.ServiceName,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		Tracing:        cfg.Telemetry.Enabled,
	}
	handlers := router.Handlers{
		Webhook:     webhookHandler,
		System:      handler.NewSystemHandler(cfg.App.Name, cfg.App.Version, checks...),
		HTTPMetrics: recorder,
	}
	if cfg.Metrics.Enabled {
		routerCfg.MetricsPath = cfg.Metrics.Path
		handlers.Metrics = recorder.Handler()
	}
	engine, err := router.New(routerCfg, handlers, log)
	if err != nil {
		log.Fatal("Failed to build router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	if sweeps.IsRunning() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.Scheduler.StopTimeout)
		defer stopCancel()
		if err := sweeps.Stop(stopCtx); err != nil {
			log.Warn("Sweeps did not stop cleanly", zap.Error(err))
		}
	}

	log.Info("Server exited gracefully")
}
