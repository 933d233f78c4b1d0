package server

import (
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/omniflow/omniflow-backend/internal/handlers"
	"github.com/omniflow/omniflow-backend/internal/middleware"
)

type RouterConfig struct {
	AuthHandler        *handlers.AuthHandler
	AuthMiddleware     *middleware.AuthMiddleware
	UserHandler        *handlers.UserHandler
	ProductHandler     *handlers.ProductHandler
	SearchHandler      *handlers.SearchHandler
	OrderHandler       *handlers.OrderHandler
	ReviewHandler      *handlers.ReviewHandler
	NegotiationHandler *handlers.NegotiationHandler
	PricingHandler     *handlers.PricingHandler
	AdminHandler       *handlers.AdminHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware("omniflow-backend"))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	api := router.Group("/api")
	{
		api.POST("/register", cfg.AuthHandler.Register)
		api.POST("/login", cfg.AuthHandler.Login)
		api.GET("/products", cfg.ProductHandler.List)
		api.GET("/products/:id", cfg.ProductHandler.Get)
		api.GET("/products/:id/reviews", cfg.ReviewHandler.ListByProduct)
		api.POST("/search", cfg.SearchHandler.Search)
		api.POST("/search/visual", cfg.SearchHandler.VisualSearch)
	}

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/api")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	{
		protected.GET("/me", cfg.UserHandler.GetMe)
		protected.GET("/me/coupons", cfg.UserHandler.MyCoupons)
		protected.POST("/orders", cfg.OrderHandler.Place)
		protected.GET("/orders", cfg.OrderHandler.ListMine)
		protected.GET("/orders/:id", cfg.OrderHandler.Get)
		protected.POST("/products/:id/reviews", cfg.ReviewHandler.Submit)
		protected.POST("/products/:id/negotiate", cfg.NegotiationHandler.Negotiate)
	}

	// ===============
	// || Admin     ||
	// ===============
	admin := router.Group("/api/admin")
	admin.Use(cfg.AuthMiddleware.RequireAuth(), cfg.AuthMiddleware.AdminOnly())
	{
		admin.POST("/products", cfg.ProductHandler.Create)
		admin.PATCH("/products/:id", cfg.ProductHandler.Update)
		admin.DELETE("/products/:id", cfg.ProductHandler.Delete)
		admin.POST("/products/:id/pin", cfg.ProductHandler.SetPinned)
		admin.POST("/products/:id/flash-sale", cfg.ProductHandler.SetFlashSale)
		admin.POST("/products/generate-listing", cfg.ProductHandler.GenerateListing)
		admin.POST("/products/magic-upload", cfg.ProductHandler.MagicUpload)

		admin.POST("/products/:id/spy", cfg.PricingHandler.SpyCompetitor)
		admin.POST("/products/:id/reprice", cfg.PricingHandler.Reprice)
		admin.POST("/repricing/run", cfg.PricingHandler.RunAutoRepricing)

		admin.GET("/orders", cfg.OrderHandler.ListRecent)
		admin.PATCH("/orders/:id/status", cfg.OrderHandler.UpdateStatus)

		admin.GET("/stats", cfg.AdminHandler.Stats)
		admin.POST("/analyst", cfg.AdminHandler.AskAnalyst)
		admin.GET("/trends", cfg.AdminHandler.TrendOracle)

		admin.POST("/commander/plan", cfg.AdminHandler.PlanCommand)
		admin.POST("/commander/execute", cfg.AdminHandler.ExecuteCommand)
		admin.POST("/commander/voice", cfg.AdminHandler.VoiceCommand)

		admin.GET("/users", cfg.AdminHandler.ListUsers)
		admin.PATCH("/users/:id/status", cfg.AdminHandler.SetUserStatus)
		admin.DELETE("/users/:id", cfg.AdminHandler.DeleteUser)
	}

	return router
}

func corsOrigins() []string {
	raw := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if raw == "" {
		return []string{"http://localhost:80", "http://localhost:3000", "http://localhost:5174"}
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}
