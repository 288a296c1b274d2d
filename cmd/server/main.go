package main

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tailor-app/internal/config"
	"tailor-app/internal/handler"
	"tailor-app/internal/repository"
	"tailor-app/internal/services"
	"tailor-app/internal/taxonomy"
	"tailor-app/internal/utils"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger, err := utils.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("Failed to build logger:", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, shutdownManager := utils.NewShutdownManager(context.Background(), logger)
	shutdownManager.StartListening()

	tx, err := taxonomy.Load(cfg.Taxonomy.File)
	if err != nil {
		logger.Fatal("Failed to load taxonomy", zap.Error(err))
	}
	cred, err := services.LoadAdminCredential(cfg.Auth.CredentialsFile)
	if err != nil {
		logger.Fatal("Failed to load admin credentials", zap.Error(err))
	}

	mongoClient, err := utils.NewMongoDBConnection(ctx, cfg.MongoDB.URI)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	shutdownManager.Register("mongodb", mongoClient.Disconnect)

	orderRepo := repository.NewOrderRepository(mongoClient.Database(cfg.MongoDB.DBName))
	if err := orderRepo.EnsureIndexes(ctx); err != nil {
		logger.Warn("Failed to create order indexes", zap.Error(err))
	}

	// Redis is optional; without it the services run uncached.
	var cache services.Cache
	if cfg.Redis.URL != "" {
		rdb, err := utils.NewRedisClient(ctx, cfg.Redis.URL, cfg.Redis.Prefix)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		shutdownManager.Register("redis", func(context.Context) error {
			return rdb.Close()
		})
		cache = rdb
	} else {
		logger.Info("REDIS_URL not set, caching and idempotency keys disabled")
	}

	jwtUtil := utils.NewJWTUtil(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
	authService := services.NewAuthService(*cred, jwtUtil, cache, logger)
	orderService := services.NewOrderService(orderRepo, tx, cache, logger)

	gin.SetMode(cfg.Server.GinMode)
	router := handler.SetupRouter(handler.RouterDeps{
		Orders:      handler.NewOrderHandler(orderService),
		Auth:        handler.NewAuthHandler(authService, int(cfg.Auth.SessionTTL.Seconds()), cfg.Auth.CookieSecure),
		Taxonomy:    handler.NewTaxonomyHandler(tx),
		Sessions:    authService,
		Logger:      logger,
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	server := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}

	go func() {
		logger.Info("Order service listening", zap.String("addr", server.Addr), zap.String("taxonomy", tx.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	shutdownManager.Register("http", server.Shutdown)

	<-shutdownManager.Done()
}
