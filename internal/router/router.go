// Package router wires HTTP routes to handlers and middleware. Paths match
// the platform's external API contract: public catalog reads, token-gated
// booking operations and admin-gated management endpoints.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/tidyhome/booking-api/internal/config"
	"github.com/tidyhome/booking-api/internal/handler"
	"github.com/tidyhome/booking-api/internal/middleware"
)

// RegisterRoutes registers the full route table on the Echo instance. The
// Redis client may be nil, in which case rate limiting and response caching
// are disabled.
func RegisterRoutes(
	e *echo.Echo,
	cfg config.Config,
	rdb *redis.Client,
	auth *handler.AuthHandler,
	services *handler.ServiceHandler,
	bookings *handler.BookingHandler,
) {
	e.Use(middleware.RateLimit(config.LoadRateLimitConfig(), rdb))

	e.GET("/healthz", handler.Health)

	// Public: account creation, login, catalog browsing. The catalog reads
	// sit behind the response cache since they change rarely.
	e.POST("/register", auth.Register)
	e.POST("/login", auth.Login)
	e.POST("/refresh", auth.Refresh)

	cacheCfg := config.LoadCacheConfig()
	cache := middleware.ResponseCache(cacheCfg, rdb)
	e.GET("/services", services.List, cache)
	e.GET("/services/:id", services.Show, cache)

	// Token-gated routes.
	authed := e.Group("", middleware.JWTAuth(cfg.JWTSecret))
	authed.POST("/logout", auth.Logout)
	authed.GET("/user", auth.Me)

	authed.GET("/bookings", bookings.List)
	authed.POST("/bookings", bookings.Create)
	authed.GET("/bookings/:id", bookings.Show)
	authed.DELETE("/bookings/:id", bookings.Delete)
	authed.PATCH("/bookings/:id/cancel", bookings.Cancel)

	// Admin-gated routes: catalog management and arbitrary (table-allowed)
	// status transitions.
	admin := authed.Group("", middleware.RequireAdmin())
	// Catalog writes drop the cached reads so clients never see a deleted
	// or stale service for a full cache TTL.
	bust := middleware.CacheBust(cacheCfg, rdb, "/services")
	admin.POST("/services", services.Create, bust)
	admin.PUT("/services/:id", services.Update, bust)
	admin.DELETE("/services/:id", services.Delete, bust)
	admin.PATCH("/bookings/:id/status", bookings.UpdateStatus)
}
