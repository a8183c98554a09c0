// Package router maps HTTP routes onto handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/screenhall/booking-engine/internal/config"
	"github.com/screenhall/booking-engine/internal/handler"
	"github.com/screenhall/booking-engine/internal/middleware"
)

// Handlers bundles everything the route table needs.
type Handlers struct {
	Auth    *handler.AuthHandler
	Public  *handler.PublicHandler
	Booking *handler.BookingHandler
	Payment *handler.PaymentHandler
	Catalog *handler.CatalogHandler
}

// Register wires all routes. Public catalog reads go through the Redis
// response cache; everything goes through the rate limiter. Customer and
// owner groups are segregated by the role claim.
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	e.GET("/healthz", handler.Health)

	// Auth endpoints; logout works without an access token on purpose.
	auth := e.Group("/v1/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/refresh-access", h.Auth.RefreshAccess)
	auth.POST("/logout", h.Auth.Logout)

	// Public catalog, cached.
	pub := e.Group("/v1", middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	pub.GET("/sessions", h.Public.ListSessions)
	pub.GET("/sessions/:id", h.Public.GetSession)

	// The provider webhook authenticates by intent reference, not by user.
	e.POST("/v1/payments/:ref/reconcile", h.Payment.Reconcile)
	e.POST("/v1/payments/sandbox/webhook", h.Payment.SandboxWebhook)

	// Customer endpoints.
	customer := e.Group("/v1",
		middleware.JWTAuth(cfg.JWTSecret),
		middleware.RequireRole("CUSTOMER", "OWNER"))
	customer.GET("/me", h.Auth.Me)
	customer.POST("/sessions/:id/reserve", h.Booking.Reserve)
	customer.GET("/my-bookings", h.Booking.MyBookings)
	customer.GET("/bookings/:id", h.Booking.Get)
	customer.POST("/bookings/:id/pay", h.Payment.Initiate)

	// Owner catalog administration.
	owner := e.Group("/v1/owner",
		middleware.JWTAuth(cfg.JWTSecret),
		middleware.RequireRole("OWNER"))
	owner.POST("/halls", h.Catalog.CreateHall)
	owner.GET("/halls", h.Catalog.ListHalls)
	owner.POST("/halls/:id/seats", h.Catalog.CreateSeats)
	owner.PATCH("/seats/:id", h.Catalog.UpdateSeat)
	owner.POST("/sessions", h.Catalog.CreateSession)
	owner.PUT("/sessions/:id", h.Catalog.UpdateSession)
	owner.POST("/vouchers", h.Catalog.CreateVoucher)
	owner.GET("/vouchers", h.Catalog.ListVouchers)
}
