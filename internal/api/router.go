package api

import (
	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/canteenx/canteen-system/docs"
	"github.com/canteenx/canteen-system/internal/api/handler"
	"github.com/canteenx/canteen-system/internal/api/middleware"
	"github.com/canteenx/canteen-system/internal/core/domain"
	"github.com/canteenx/canteen-system/internal/core/ports"
)

// Deps carries everything the HTTP layer needs. Registerer and Gatherer default
// to the global Prometheus registry.
type Deps struct {
	Logger     zerolog.Logger
	Tokens     middleware.TokenVerifier
	Auth       ports.AuthService
	Orders     ports.OrderService
	Foods      ports.FoodService
	Readiness  map[string]handler.DependencyCheck
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	if deps.Registerer == nil {
		deps.Registerer = prometheus.DefaultRegisterer
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLogger(deps.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "canteen",
		Registerer: deps.Registerer,
	}))

	authMiddleware := middleware.Auth(deps.Tokens)
	operatorsOnly := middleware.RBAC(domain.RoleCanteenStaff, domain.RoleAdmin)

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.GET("/auth/me", authHandler.Me, authMiddleware)

	// --- Order routes ---
	orderHandler := handler.NewOrderHandler(deps.Orders)
	orders := e.Group("/orders", authMiddleware)
	orders.POST("", orderHandler.Create)
	orders.GET("", orderHandler.List)
	orders.GET("/stats", orderHandler.Stats, operatorsOnly)
	orders.GET("/:id", orderHandler.Get)
	orders.PATCH("/:id/status", orderHandler.UpdateStatus)

	// --- Catalog routes ---
	foodHandler := handler.NewFoodHandler(deps.Foods)
	foods := e.Group("/foods", authMiddleware, operatorsOnly)
	foods.POST("", foodHandler.Create)
	foods.PATCH("/:id", foodHandler.Update)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Readiness)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?

	// --- Observability ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: deps.Gatherer,
	}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
