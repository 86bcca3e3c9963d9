// internal/router/router.go
package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/javajoker/collab-backend/internal/auditlog"
	"github.com/javajoker/collab-backend/internal/config"
	"github.com/javajoker/collab-backend/internal/handlers"
	"github.com/javajoker/collab-backend/internal/middleware"
	"github.com/javajoker/collab-backend/internal/negotiation"
	"github.com/javajoker/collab-backend/internal/repository"
	"github.com/javajoker/collab-backend/internal/services"
)

const version = "1.0.0"

// Router is the HTTP surface together with the background work it owns.
type Router struct {
	Engine        *gin.Engine
	Notifications *services.NotificationService
	limiters      []*middleware.RateLimiter
}

// Close stops the rate limiter sweepers and waits for pending notifications.
func (r *Router) Close() {
	for _, l := range r.limiters {
		l.Stop()
	}
	r.Notifications.Wait()
}

func Initialize(repo repository.Repository, cfg *config.Config) *Router {
	clock := func() time.Time { return time.Now().UTC() }

	// Initialize services
	log := auditlog.New(repo, auditlog.WithClock(clock))
	engine := negotiation.NewEngine(clock)
	directoryService := services.NewDirectoryService(repo)
	notificationService := services.NewNotificationService(repo, directoryService)
	deliverableService := services.NewDeliverableService(repo, clock)
	collaborationService := services.NewCollaborationService(repo, engine, log, deliverableService, notificationService)
	chatService := services.NewChatService(repo, log, notificationService)

	// Initialize handlers
	collaborationHandler := handlers.NewCollaborationHandler(collaborationService)
	chatHandler := handlers.NewChatHandler(chatService)
	deliverableHandler := handlers.NewDeliverableHandler(deliverableService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	generalLimiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst, middleware.ByClientIP)
	messageLimiter := middleware.NewRateLimiter(rate.Every(time.Minute/time.Duration(cfg.RateLimit.MessagesPerMinute)), cfg.RateLimit.MessageBurst, middleware.ByUser)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(middleware.I18nMiddleware(cfg.I18n.DefaultLocale))
	r.Use(generalLimiter.Middleware())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": version,
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	v1.Use(middleware.AuthRequired(), middleware.PartyRequired(directoryService))
	{
		v1.GET("/notifications", notificationHandler.ListNotifications)

		collaborations := v1.Group("/collaborations")
		{
			collaborations.POST("", collaborationHandler.CreateCollaboration)
			collaborations.GET("", collaborationHandler.ListCollaborations)
			collaborations.GET("/conversations", chatHandler.Conversations)
			collaborations.GET("/:id", collaborationHandler.GetCollaboration)

			// Negotiation and lifecycle
			collaborations.PUT("/:id/terms", collaborationHandler.ProposeTerms)
			collaborations.POST("/:id/agree", collaborationHandler.AgreeToTerms)
			collaborations.POST("/:id/respond", collaborationHandler.Respond)
			collaborations.POST("/:id/decline", collaborationHandler.DeclineCollaboration)
			collaborations.POST("/:id/cancel", collaborationHandler.CancelCollaboration)
			collaborations.POST("/:id/complete", collaborationHandler.CompleteCollaboration)
			collaborations.POST("/:id/rating", collaborationHandler.RateCollaboration)

			// Chat
			collaborations.GET("/:id/messages", chatHandler.ListMessages)
			collaborations.POST("/:id/messages", messageLimiter.Middleware(), chatHandler.PostMessage)
			collaborations.POST("/:id/read", chatHandler.MarkRead)

			// Deliverables
			collaborations.GET("/:id/deliverables", deliverableHandler.ListDeliverables)
			collaborations.PATCH("/:id/deliverables/:deliverableId", deliverableHandler.UpdateDeliverable)
		}
	}

	return &Router{
		Engine:        r,
		Notifications: notificationService,
		limiters:      []*middleware.RateLimiter{generalLimiter, messageLimiter},
	}
}
