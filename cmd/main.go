package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/omniflow/omniflow-backend/internal/ai"
	"github.com/omniflow/omniflow-backend/internal/db"
	"github.com/omniflow/omniflow-backend/internal/handlers"
	"github.com/omniflow/omniflow-backend/internal/logger"
	"github.com/omniflow/omniflow-backend/internal/middleware"
	"github.com/omniflow/omniflow-backend/internal/observability"
	"github.com/omniflow/omniflow-backend/internal/repos"
	"github.com/omniflow/omniflow-backend/internal/server"
	"github.com/omniflow/omniflow-backend/internal/services"
	"github.com/omniflow/omniflow-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 86400, log)

	// Tracing
	shutdownTracing := observability.Init(context.Background(), log, observability.Config{
		ServiceName: "omniflow-backend",
		Environment: utils.GetEnv("APP_ENV", "development", log),
		Version:     utils.GetEnv("APP_VERSION", "dev", log),
	})
	defer func() {
		if shutdownTracing != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(ctx); err != nil {
				log.Warn("Tracing shutdown failed", "error", err)
			}
		}
	}()

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	productRepo := repos.NewProductRepo(thePG, log)
	orderRepo := repos.NewOrderRepo(thePG, log)
	reviewRepo := repos.NewReviewRepo(thePG, log)
	couponRepo := repos.NewCouponRepo(thePG, log)
	blacklistRepo := repos.NewBlacklistRepo(thePG, log)
	searchLogRepo := repos.NewSearchLogRepo(thePG, log)
	systemLogRepo := repos.NewSystemLogRepo(thePG, log)
	aiCallLogRepo := repos.NewAICallLogRepo(thePG, log)

	// Services
	log.Info("Setting up Services from main...")
	bucketService, err := services.NewBucketService(log)
	if err != nil {
		log.Warn("Could not init BucketService", "error", err)
	}
	recorder := services.NewAICallRecorder(log, aiCallLogRepo)
	invoker, err := ai.NewGeminiInvoker(log, recorder)
	if err != nil {
		log.Error("Could not init GeminiInvoker", "error", err)
		os.Exit(1)
	}
	prompts, err := services.NewPromptCatalog(log)
	if err != nil {
		log.Error("Could not load prompt catalog", "error", err)
		os.Exit(1)
	}
	velocity, err := services.NewRedisVelocityCounter(log)
	if err != nil {
		log.Warn("Redis unavailable, using SQL velocity counter", "error", err)
		velocity = services.NewSQLVelocityCounter(log, orderRepo)
	}
	speechService, err := services.NewSpeechService(log)
	if err != nil {
		log.Warn("Could not init SpeechService, voice commands disabled", "error", err)
		speechService = nil
	}
	avatarService, err := services.NewAvatarService(log, bucketService)
	if err != nil {
		log.Error("Could not init AvatarService", "error", err)
		os.Exit(1)
	}
	fraudService := services.NewFraudService(log, invoker, prompts, velocity, orderRepo, blacklistRepo, systemLogRepo)
	orderService := services.NewOrderService(thePG, log, orderRepo, productRepo, fraudService, bucketService)
	searchService := services.NewSearchService(log, invoker, prompts, productRepo, searchLogRepo)
	negotiationService := services.NewNegotiationService(log, invoker, prompts, productRepo, couponRepo)
	pricingService := services.NewPricingService(log, invoker, prompts, productRepo)
	reviewService := services.NewReviewService(log, invoker, prompts, reviewRepo)
	catalogService := services.NewCatalogService(log, invoker, prompts, bucketService, productRepo)
	analystService := services.NewAnalystService(log, invoker, prompts, orderRepo, productRepo, userRepo, systemLogRepo, searchLogRepo)
	userService := services.NewUserService(log, userRepo, couponRepo)
	authService := services.NewAuthService(thePG, log, userRepo, avatarService, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second)
	commanderService := services.NewCommanderService(log, invoker, prompts, speechService, productRepo, orderRepo, userRepo, orderService, userService, catalogService)

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	productHandler := handlers.NewProductHandler(catalogService)
	searchHandler := handlers.NewSearchHandler(searchService)
	orderHandler := handlers.NewOrderHandler(orderService)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	negotiationHandler := handlers.NewNegotiationHandler(negotiationService)
	pricingHandler := handlers.NewPricingHandler(pricingService)
	adminHandler := handlers.NewAdminHandler(analystService, commanderService, userService)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:        authHandler,
		AuthMiddleware:     authMiddleware,
		UserHandler:        userHandler,
		ProductHandler:     productHandler,
		SearchHandler:      searchHandler,
		OrderHandler:       orderHandler,
		ReviewHandler:      reviewHandler,
		NegotiationHandler: negotiationHandler,
		PricingHandler:     pricingHandler,
		AdminHandler:       adminHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Warn("Server failed", "error", err)
	}
}
