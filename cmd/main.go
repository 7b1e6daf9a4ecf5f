package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-service/internal/api"
	"storefront-service/internal/config"
	"storefront-service/internal/consumer"
	"storefront-service/internal/events"
	"storefront-service/internal/otp"
	"storefront-service/internal/repository"
	"storefront-service/internal/service"
	"storefront-service/migrations"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	commerceClient, err := repository.ConnectMongo(ctx, cfg.CommerceMongoURI, cfg.ConnectRetries)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to commerce store")
	}
	identityClient, err := repository.ConnectMongo(ctx, cfg.IdentityMongoURI, cfg.ConnectRetries)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to identity store")
	}
	commerceDB := commerceClient.Database(cfg.CommerceDatabase)
	identityDB := identityClient.Database(cfg.IdentityDatabase)

	if err := repository.EnsureCommerceIndexes(ctx, commerceDB); err != nil {
		log.Fatal().Err(err).Msg("Failed to create commerce indexes")
	}
	if err := repository.EnsureIdentityIndexes(ctx, identityDB); err != nil {
		log.Fatal().Err(err).Msg("Failed to create identity indexes")
	}

	historyDB, err := repository.ConnectMySQL(ctx, cfg.HistoryDB, cfg.ConnectRetries)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to history database")
	}
	if err := migrations.AutoMigrateStatusHistory(ctx, 3, historyDB); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate order_status_history table")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})

	orderWriter := config.NewKafkaWriter(cfg.KafkaBrokers, cfg.OrderTopic)
	notificationWriter := config.NewKafkaWriter(cfg.KafkaBrokers, cfg.NotificationTopic)

	cartRepo := repository.NewCartRepository(commerceDB)
	orderRepo := repository.NewOrderRepository(commerceDB)
	catalogRepo := repository.NewCatalogRepository(commerceDB)
	profileRepo := repository.NewProfileRepository(identityDB)
	historyRepo := repository.NewHistoryRepository(historyDB)

	cartService := service.NewCartService(cartRepo)
	orderService := service.NewOrderService(
		orderRepo,
		cartRepo,
		historyRepo,
		events.NewPublisher(orderWriter),
		service.NewRedisIdempotency(rdb, cfg.IdempotencyTTL),
	)
	catalogService := service.NewCatalogService(catalogRepo, rdb, cfg.CatalogCacheTTL)
	profileService := service.NewProfileService(
		profileRepo,
		otp.NewRedisStore(rdb),
		otp.NewKafkaSender(notificationWriter),
		cfg.VerificationCodeTTL,
	)

	if err := catalogService.PreWarmCache(ctx); err != nil {
		log.Warn().Err(err).Msg("Catalog cache not pre-warmed")
	}

	reconciler := consumer.NewReconciler(
		config.NewKafkaReader(cfg.KafkaBrokers, cfg.OrderTopic, cfg.ReconcilerGroupID),
		cartRepo,
	)
	go reconciler.Run(ctx)

	guard := api.NewGuard(profileService)

	e := echo.New()
	e.HideBanner = true

	limiterConfig := middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(10),
				Burst:     30,
				ExpiresIn: 3 * time.Minute,
			}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusTooManyRequests, map[string]interface{}{"success": false, "error": "rate limit exceeded"})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, map[string]interface{}{"success": false, "error": "rate limit exceeded"})
		},
	}

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Idempotency-Key"},
	}))
	e.Use(middleware.RateLimiterWithConfig(limiterConfig))

	api.RegisterRoutes(e, api.Handlers{
		Cart:    api.NewCartHandler(cartService, guard),
		Order:   api.NewOrderHandler(orderService, guard),
		Catalog: api.NewCatalogHandler(catalogService),
		Profile: api.NewProfileHandler(profileService),
		Guard:   guard,
	}, cfg.JWTSecret)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error shutting down HTTP server")
	}
	for _, w := range []interface{ Close() error }{orderWriter, notificationWriter} {
		if err := w.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing kafka writer")
		}
	}
	_ = rdb.Close()
	_ = historyDB.Close()
	_ = commerceClient.Disconnect(shutdownCtx)
	_ = identityClient.Disconnect(shutdownCtx)
}
