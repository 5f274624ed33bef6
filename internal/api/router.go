package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"spotmarket-backend/config"
	"spotmarket-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg *config.ServerConfig) *gin.Engine {
	r := gin.Default()

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// Reference data (cached)
		api.GET("/buildings", caching, h.GetBuildings)
		api.GET("/buildings/:building_id/spots", caching, h.GetBuildingSpots)
		api.GET("/spots/:spot_id", caching, h.GetSpot)

		// Private market
		api.POST("/spots", h.CreateSpot)
		api.POST("/spots/:spot_id/windows", h.AddSpotWindow)
		api.POST("/spots/search", h.SearchSpots)

		// Building allocation and waitlist
		api.POST("/buildings/:building_id/allocate", h.AllocateBuildingSpot)
		api.POST("/waitlist", h.JoinWaitlist)
		api.GET("/waitlist", h.GetWaitlist)

		// Booking lifecycle
		api.POST("/bookings", h.CreateBooking)
		api.GET("/bookings", h.GetBookings)
		api.POST("/bookings/:booking_id/end", h.EndBooking)
		api.POST("/bookings/:booking_id/cancel", h.CancelBooking)
		api.POST("/bookings/:booking_id/payment/confirm", h.ConfirmBookingPayment)

		// Users
		api.GET("/users/:user_id/preferences", h.GetPreferences)
		api.PUT("/users/:user_id/preferences", h.PutPreferences)
		api.GET("/users/:user_id/payment-due", h.GetPaymentDue)
	}

	return r
}
