package api

import (
	"net/http"

	"marketplace/api/cart"
	"marketplace/api/health"
	"marketplace/api/middleware"
	"marketplace/api/order"
	"marketplace/config"

	"github.com/gin-gonic/gin"
)

// Router Route configuration
type Router struct {
	engine           *gin.Engine
	config           *config.Config
	healthController *health.Controller
	orderController  *order.Controller
	cartController   *cart.Controller
}

// NewRouter Create route configuration
func NewRouter(
	cfg *config.Config,
	healthController *health.Controller,
	orderController *order.Controller,
	cartController *cart.Controller,
) *Router {
	switch {
	case cfg.IsDevelopment():
		gin.SetMode(gin.DebugMode)
	case cfg.App.Env == "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Add middleware (order is important)
	engine.Use(middleware.RequestIDMiddleware())                      // 1. Generate request ID first
	engine.Use(middleware.RecoveryMiddleware())                       // 2. Recovery middleware
	engine.Use(middleware.LoggingMiddleware())                        // 3. Logging middleware
	engine.Use(middleware.CORSMiddleware(&cfg.CORS))                  // 4. CORS
	engine.Use(middleware.RateLimitMiddleware(&cfg.Server.RateLimit)) // 5. Rate limiting

	return &Router{
		engine:           engine,
		config:           cfg,
		healthController: healthController,
		orderController:  orderController,
		cartController:   cartController,
	}
}

// SetupRoutes Set up all routes
func (r *Router) SetupRoutes() {
	// Probes live at the root so orchestrators need no prefix
	r.healthController.RegisterRoutes(r.engine)

	apiGroup := r.engine.Group("/api/v1")
	{
		r.orderController.RegisterRoutes(apiGroup)
		r.cartController.RegisterRoutes(apiGroup)
	}

	r.engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":    r.config.App.Name,
			"version": r.config.App.Version,
			"env":     r.config.App.Env,
			"health":  "/health",
		})
	})
}

// GetEngine Get Gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
