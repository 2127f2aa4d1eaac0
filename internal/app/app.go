// Package app wires the application together. Every engine is constructed
// exactly once at startup and injected by reference; there is no hidden
// global registry.
package app

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/payflow/server/internal/module/payment"
	"github.com/payflow/server/internal/module/payment/provider"
	"github.com/payflow/server/internal/module/refund"
	"github.com/payflow/server/internal/module/subscription"
	"github.com/payflow/server/internal/module/webhook"
	"github.com/payflow/server/internal/shared/cache"
	"github.com/payflow/server/internal/shared/config"
	"github.com/payflow/server/internal/shared/events"
	"github.com/payflow/server/internal/shared/logger"
	"github.com/payflow/server/internal/shared/metrics"
	"github.com/payflow/server/internal/shared/middleware"
	"github.com/payflow/server/internal/store"
)

// App represents the application.
type App struct {
	config *config.Config
	router *gin.Engine
	logger *zap.Logger
	redis  redis.UniversalClient

	eventBus *events.Bus
	metrics  *metrics.Metrics

	paymentService      *payment.Service
	refundService       *refund.Service
	subscriptionService *subscription.Service

	paymentHandler      *payment.Handler
	refundHandler       *refund.Handler
	subscriptionHandler *subscription.Handler
	webhookHandler      *webhook.Handler
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	log, err := logger.New(&logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Development: cfg.Log.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	app := &App{
		config:   cfg,
		logger:   log,
		eventBus: events.NewBus(log),
		metrics:  metrics.New("payflow"),
	}

	// Provider gateway: Stripe behind a circuit breaker, instrumented.
	var gateway provider.Gateway = provider.NewStripeGateway(&provider.StripeConfig{
		APIKey:        cfg.Stripe.APIKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
	})
	gateway = provider.NewBreakerGateway(gateway, provider.BreakerSettings{})
	gateway = provider.NewInstrumentedGateway(gateway, app.metrics)

	// Webhook dedup: Redis when configured, process memory otherwise.
	var eventStore webhook.EventStore
	if cfg.Redis.Address != "" {
		client, err := cache.NewRedisClient(&cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("init redis: %w", err)
		}
		app.redis = client
		eventStore = webhook.NewRedisEventStore(client, cfg.Webhook.DedupTTL)
		log.Info("webhook dedup backed by redis", zap.String("address", cfg.Redis.Address))
	} else {
		eventStore = webhook.NewMemoryEventStore(cfg.Webhook.DedupTTL)
	}

	// Lifecycle engines share the gateway; each owns its entity store.
	app.paymentService = payment.NewService(
		store.New[payment.Payment](),
		gateway,
		payment.Policy{
			GatewayTimeout:            cfg.Stripe.Timeout,
			AllowTestRefundProcessing: cfg.Payment.AllowTestRefundProcessing,
		},
		log,
	)
	app.refundService = refund.NewService(
		store.New[refund.Refund](),
		app.paymentService,
		gateway,
		cfg.Stripe.Timeout,
		log,
	)
	app.subscriptionService = subscription.NewService(
		store.New[subscription.Subscription](),
		gateway,
		cfg.Stripe.Timeout,
		log,
	)

	dispatcher := webhook.NewDispatcher(app.paymentService, app.subscriptionService, app.eventBus, log)

	app.paymentHandler = payment.NewHandler(app.paymentService)
	app.refundHandler = refund.NewHandler(app.refundService)
	app.subscriptionHandler = subscription.NewHandler(app.subscriptionService)
	app.webhookHandler = webhook.NewHandler(gateway, dispatcher, eventStore, app.metrics, log)

	app.setupRouter()
	return app, nil
}

// setupRouter configures the gin router and registers all routes.
func (a *App) setupRouter() {
	if !a.config.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.Recovery(a.logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(a.logger))
	r.Use(middleware.Metrics(a.metrics))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	a.paymentHandler.RegisterRoutes(api)
	a.refundHandler.RegisterRoutes(api)
	a.subscriptionHandler.RegisterRoutes(api)

	a.webhookHandler.RegisterRoutes(r.Group("/"))

	a.router = r
}

// Router returns the HTTP router.
func (a *App) Router() *gin.Engine {
	return a.router
}

// EventBus returns the domain event bus so collaborators can subscribe
// before the server starts.
func (a *App) EventBus() *events.Bus {
	return a.eventBus
}

// Stop releases application resources.
func (a *App) Stop() {
	if a.redis != nil {
		if err := cache.Close(a.redis); err != nil {
			a.logger.Error("failed to close redis client", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
