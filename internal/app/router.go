package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"

	"carpool/internal/handler"
	"carpool/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	TripHandler         *handler.TripHandler
	OfferHandler        *handler.OfferHandler
	JoinHandler         *handler.JoinHandler
	SearchHandler       *handler.SearchHandler
	NotificationHandler *handler.NotificationHandler
	ChatHandler         *handler.ChatHandler
	GeocodeHandler      *handler.GeocodeHandler
	AdminHandler        *handler.AdminHandler
	ResponseCache       middleware.ResponseCache
	AllowedOrigins      []string
	NewRelicApp         *newrelic.Application
	Logger              zerolog.Logger
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(deps.AllowedOrigins))

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdentityMiddleware())
	router.Use(middleware.LoggerMiddleware(deps.Logger))
	router.Use(middleware.IdempotencyMiddleware(deps.ResponseCache))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Trip routes.
		trips := v1.Group("/trips")
		{
			trips.POST("", deps.TripHandler.Create)
			trips.GET("", deps.TripHandler.ListMine)
			trips.PUT("/:id", deps.TripHandler.Update)
			trips.DELETE("/:id", deps.TripHandler.Delete)
			trips.POST("/:id/join", deps.JoinHandler.JoinTrip)
		}

		// Offer routes.
		offers := v1.Group("/offers")
		{
			offers.POST("", deps.OfferHandler.Create)
			offers.GET("", deps.OfferHandler.ListMine)
			offers.PUT("/:id", deps.OfferHandler.Update)
			offers.DELETE("/:id", deps.OfferHandler.Delete)
			offers.POST("/:id/join", deps.JoinHandler.JoinOffer)
		}

		// Search routes.
		search := v1.Group("/search")
		{
			search.POST("/offers", deps.SearchHandler.SearchOffers)
			search.POST("/trips", deps.SearchHandler.SearchTrips)
		}

		// Join decision routes.
		joins := v1.Group("/joins")
		{
			joins.POST("/:id/accept", deps.JoinHandler.Accept)
			joins.POST("/:id/reject", deps.JoinHandler.Reject)
		}

		// Joined routes.
		joined := v1.Group("/joined")
		{
			joined.GET("/trips", deps.JoinHandler.JoinedTrips)
			joined.GET("/offers", deps.JoinHandler.JoinedOffers)
			joined.DELETE("/:type/:id", deps.JoinHandler.Leave)
		}

		// Notification routes.
		notifications := v1.Group("/notifications")
		{
			notifications.GET("", deps.NotificationHandler.List)
			notifications.PUT("/:id/read", deps.NotificationHandler.MarkRead)
		}

		v1.GET("/chat/:type/:id/room", deps.ChatHandler.Room)
		v1.GET("/geocode", deps.GeocodeHandler.Lookup)

		// Admin routes.
		admin := v1.Group("/admin")
		{
			admin.POST("/reconcile", deps.AdminHandler.Reconcile)
			admin.POST("/expire", deps.AdminHandler.Expire)
		}
	}

	return router
}
