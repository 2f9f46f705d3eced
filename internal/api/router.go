package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	iauth "github.com/sitepulse/sitepulse/internal/auth"
	"github.com/sitepulse/sitepulse/internal/handlers"
	"github.com/sitepulse/sitepulse/internal/middleware"
	"github.com/sitepulse/sitepulse/internal/push"
	"github.com/sitepulse/sitepulse/internal/services"
)

// RateLimitConfig bounds request rates per client IP and path.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, dispatcher push.Dispatcher, limits RateLimitConfig) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("push dispatcher must be provided")
	}

	analyticsSvc, err := services.NewAnalyticsService(db)
	if err != nil {
		return nil, err
	}
	pushSvc, err := services.NewPushService(db, dispatcher)
	if err != nil {
		return nil, err
	}
	authenticator, err := iauth.NewLocalAuthenticator(db, iauth.LocalConfig{})
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware. CORS runs before the rate limiter so preflights
	// are never throttled.
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())
	r.Use(middleware.RateLimit(limits.Requests, limits.Window))

	r.HandleMethodNotAllowed = true
	r.NoMethod(middleware.MethodNotAllowedHandler)
	r.NoRoute(middleware.NotFoundHandler)

	// Health endpoint (public)
	r.GET("/health", handlers.Health(db))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	analyticsHandler := handlers.NewAnalyticsHandler(analyticsSvc)
	authHandler := handlers.NewAuthHandler(db, jwt, authenticator)
	pushHandler := handlers.NewPushHandler(pushSvc)

	requireAuth := middleware.Auth(jwt)

	api := r.Group("/api")
	{
		// Event ingestion and reporting are called by the tracking snippet
		// embedded in public pages, so they carry no credentials.
		api.POST("/analytics/events", analyticsHandler.Track)
		api.GET("/analytics/report", analyticsHandler.Report)

		api.POST("/auth/login", authHandler.Login)
		api.GET("/auth/me", requireAuth, authHandler.Me)

		api.POST("/push/subscribe", pushHandler.Subscribe)
		api.POST("/push/send", requireAuth, pushHandler.Send)
		api.GET("/push/stats", requireAuth, pushHandler.Stats)
	}

	return r, nil
}
