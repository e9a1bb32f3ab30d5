package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	authapp "github.com/storefront/backend/internal/application/auth"
	cartapp "github.com/storefront/backend/internal/application/cart"
	catalogapp "github.com/storefront/backend/internal/application/catalog"
	"github.com/storefront/backend/internal/application/checkout"
	orderapp "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/application/profile"
	"github.com/storefront/backend/internal/application/purchase"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/identity"
	infraauth "github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/backend"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/migration"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/render"
	"github.com/storefront/backend/internal/infrastructure/seed"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

const version = "1.0.0"

//	@title			Storefront BFF API
//	@version		1.0
//	@description	Storefront API with demo and OIDC sign-in over the shop backend
//	@BasePath		/api/v1

//	@securityDefinitions.apikey	SessionAuth
//	@in							header
//	@name						Authorization
//	@description				Session token from sign-in. Format: "Bearer {token}"; the session cookie works too

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	providers, err := telemetry.Setup(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Warn("Telemetry shutdown failed", zap.Error(err))
		}
	}()
	log = providers.Logs.Bridge(log)
	if providers.Profiler.IsEnabled() {
		log.Info("Continuous profiling enabled",
			zap.String("server", cfg.Telemetry.Profiling.ServerAddress),
			zap.Bool("span_profiles", providers.Tracer.IsSpanProfilesEnabled()),
		)
	}

	log.Info("Starting storefront",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("backend", cfg.Backend.BaseURL),
	)

	db, err := persistence.NewDatabaseWithLogger(&cfg.Database,
		logger.NewGormLogger(log, logger.GormLevel(cfg.Log.Level), 200*time.Millisecond))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Telemetry.DBTracing {
		if err := telemetry.RegisterDBTracing(db.DB, db.Driver, log); err != nil {
			log.Warn("Database tracing unavailable", zap.Error(err))
		}
	}
	if err := migrate(db, log); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}

	demoUsers := persistence.NewGormDemoUserRepository(db.DB)
	deliveries := persistence.NewGormDeliveryRepository(db.DB)
	seeder := seed.NewSeeder(demoUsers, log)
	if cfg.Auth.DemoEnabled {
		if _, err := seeder.ApplyPath(ctx, cfg.Auth.DemoUsersFile); err != nil {
			log.Warn("Some demo users were not seeded", zap.Error(err))
		}
		if cfg.Auth.WatchDemoUsers && cfg.Auth.DemoUsersFile != "" {
			watcher := seed.NewWatcher(cfg.Auth.DemoUsersFile, seeder, log)
			go func() {
				if err := watcher.Run(ctx); err != nil {
					log.Warn("Demo users watcher stopped", zap.Error(err))
				}
			}()
		}
	}

	stores, err := cache.NewStoreFactory(cfg.Redis, cfg.Cart,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.IsProduction()),
	).CreateStores(ctx)
	if err != nil {
		log.Fatal("Failed to create session stores", zap.Error(err))
	}
	defer func() {
		if err := stores.Close(); err != nil {
			log.Warn("Error closing Redis", zap.Error(err))
		}
	}()

	client := backend.NewClient(cfg.Backend.BaseURL,
		backend.WithTimeout(cfg.Backend.Timeout),
		backend.WithMaxResponseSize(cfg.Backend.MaxResponseBytes),
		backend.WithLogger(log),
	)
	products := backend.NewProductGateway(client)

	authOpts := []authapp.Option{authapp.WithMetrics(providers.Metrics)}
	oidcProvider, err := infraauth.NewZitadelProvider(cfg.OIDC, &http.Client{Timeout: cfg.Backend.Timeout}, log)
	switch {
	case err == nil:
		authOpts = append(authOpts, authapp.WithOIDC(oidcProvider))
	case errors.Is(err, infraauth.ErrOIDCDisabled):
		log.Info("OIDC sign-in not configured; demo mode only")
	default:
		log.Fatal("Failed to configure OIDC", zap.Error(err))
	}

	authService := authapp.NewService(
		stores.Sessions,
		stores.LoginStates,
		demoUsers,
		infraauth.NewSessionTokenService(cfg.Session),
		stores.Blacklist,
		authapp.Config{
			DefaultMode:   identity.AuthMode(cfg.Auth.DefaultMode),
			DemoEnabled:   cfg.Auth.DemoEnabled,
			LoginStateTTL: cfg.OIDC.LoginStateTTL,
		},
		log,
		authOpts...,
	)

	formatter, err := render.NewFormatter("en-US", cfg.Pricing.Currency)
	if err != nil {
		log.Fatal("Invalid pricing currency", zap.Error(err))
	}
	carts := cartapp.NewService(stores.Carts, backend.NewCartGateway(client), products, authService,
		pricingPolicy(cfg.Pricing), formatter, providers.Metrics, log)
	authService.AddLoginHook(carts)

	orders := backend.NewOrderGateway(client)
	productService := catalogapp.NewProductService(products, render.NewMarkdown(), formatter, log)
	checkoutService := checkout.NewService(carts, orders, deliveries, authService, providers.Metrics, log)
	orderService := orderapp.NewService(orders, products, deliveries, authService, formatter, log)
	purchaseService := purchase.NewService(backend.NewPurchaseGateway(client), authService, log)
	profileService := profile.NewService(backend.NewUserGateway(client), demoUsers, authService, log)

	systemHandler := handler.NewSystemHandler(cfg.App.Name, version)
	systemHandler.AddCheck("database", db.Ping)
	if stores.Redis != nil {
		systemHandler.AddCheck("redis", func(ctx context.Context) error {
			return stores.Redis.Ping(ctx).Err()
		})
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Order matters: request IDs and logging wrap everything, tracing wraps
	// the session lookup, and the session is resolved before rate limiting keys on it.
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{ServiceName: cfg.Telemetry.ServiceName, Enabled: cfg.Telemetry.Enabled}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.SecureWithConfig(middleware.SecurityConfig{
		HSTSEnabled:           cfg.Session.CookieSecure,
		HSTSMaxAge:            31536000,
		HSTSIncludeSubdomains: true,
	}))
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.Timeout(cfg.HTTP.WriteTimeout))
	engine.Use(middleware.HTTPMetrics(providers.Metrics))

	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer limiter.Stop()
		engine.Use(middleware.RateLimit(limiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}
	var authLimiter *middleware.RateLimiter
	if cfg.HTTP.AuthRateLimitEnabled {
		authLimiter = middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		defer authLimiter.Stop()
	}

	router.RegisterProbes(engine, systemHandler)

	r := router.NewRouter(engine, router.WithAPIVersion(cfg.App.APIVersion))
	r.Use(
		middleware.Session(middleware.SessionConfig{
			Resolver:   authService,
			CookieName: cfg.Session.CookieName,
			Logger:     log,
		}),
		middleware.TracingAttributeInjector(),
	)
	router.RegisterStorefront(r, router.Handlers{
		System:   systemHandler,
		Auth:     handler.NewAuthHandler(authService, handler.CookieConfigFrom(cfg.Session), cfg.App.PublicURL, middleware.DefaultLogin),
		Products: handler.NewProductHandler(productService, authService),
		Cart:     handler.NewCartHandler(carts),
		Checkout: handler.NewCheckoutHandler(checkoutService),
		Orders:   handler.NewOrderHandler(orderService),
		Purchase: handler.NewPurchaseHandler(purchaseService),
		Profile:  handler.NewProfileHandler(profileService),
	}, router.Options{
		LoginPath:   middleware.DefaultLogin,
		AuthLimiter: authLimiter,
	})
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr), zap.String("stores", stores.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}
	log.Info("Server exited gracefully")
}

// migrate applies pending schema migrations. The migrator is not closed
// because closing it would close the shared connection pool.
func migrate(db *persistence.Database, log *zap.Logger) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, db.Driver, log)
	if err != nil {
		return err
	}
	return m.Up()
}

func pricingPolicy(cfg config.PricingConfig) cart.PricingPolicy {
	return cart.PricingPolicy{
		TaxRate:               decimal.NewFromFloat(cfg.TaxRate),
		ShippingFee:           decimal.NewFromFloat(cfg.ShippingFee),
		FreeShippingThreshold: decimal.NewFromFloat(cfg.FreeShippingThreshold),
		Currency:              cfg.Currency,
	}
}
