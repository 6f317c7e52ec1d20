package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/unghost/donate.mozilla.org/internal/handlers"
	"github.com/unghost/donate.mozilla.org/internal/middleware"
	"github.com/unghost/donate.mozilla.org/internal/telemetry"
)

func NewRouter(donations *handlers.DonationHandler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(telemetry.TracingMiddleware())

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "donation-gateway"})
	})

	// Donation routes
	api := r.Group("/api")
	{
		api.POST("/stripe", donations.Stripe)
		api.POST("/paypal", donations.Paypal)
		api.GET("/paypal-redirect/:frequency/:locale", donations.PaypalRedirect)
		api.POST("/signup", donations.Signup)
	}

	return r
}
