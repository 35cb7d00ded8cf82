package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ruralmed/clinicstock/internal/domain/models"
	"github.com/ruralmed/clinicstock/internal/server/handlers"
	"github.com/ruralmed/clinicstock/internal/service/auth"
	"github.com/ruralmed/clinicstock/internal/service/subscription"
)

// Handlers bundles the HTTP adapters the router mounts.
type Handlers struct {
	Auth         *handlers.AuthHandler
	Inventory    *handlers.InventoryHandler
	Analytics    *handlers.AnalyticsHandler
	Sync         *handlers.SyncHandler
	Subscription *handlers.SubscriptionHandler
	Insight      *handlers.InsightHandler
	Admin        *handlers.AdminHandler
}

// New wires the Gin engine with required routes and middlewares.
//
// Three access tiers: login and recovery are public, session routes come
// next, and everything touching clinic data additionally sits behind the
// subscription gate. Subscription and sync endpoints are deliberately NOT
// gated so an expired clinic can still renew and reconcile.
func New(h Handlers, authSvc *auth.Service, subSvc *subscription.Service, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/recovery/request", h.Auth.RecoveryRequest)
	api.POST("/auth/recovery/verify", h.Auth.RecoveryVerify)

	authed := api.Group("", requireSession(authSvc))

	authed.POST("/auth/logout", h.Auth.Logout)
	authed.GET("/auth/session", h.Auth.Session)

	authed.GET("/subscription", h.Subscription.Status)
	authed.POST("/subscription/renew", h.Subscription.Renew)

	authed.POST("/sync", h.Sync.Trigger)
	authed.GET("/sync/status", h.Sync.Status)

	gated := authed.Group("", subscriptionGate(subSvc, logger))

	gated.GET("/inventory", h.Inventory.List)
	gated.POST("/inventory/:id/consume", h.Inventory.Consume)

	// Catalog mutations are an admin concern; recording consumption is not.
	adminOnly := gated.Group("", requireAdmin())
	adminOnly.POST("/inventory", h.Inventory.Create)
	adminOnly.PUT("/inventory/:id", h.Inventory.Update)
	adminOnly.DELETE("/inventory/:id", h.Inventory.Delete)

	gated.GET("/logs", h.Inventory.Logs)
	gated.GET("/alerts/low-stock", h.Inventory.LowStock)
	gated.GET("/alerts/critical", h.Inventory.CriticalShortages)
	gated.GET("/alerts/expired", h.Inventory.Expired)

	gated.GET("/analytics/forecast", h.Analytics.Forecast)
	gated.GET("/analytics/at-risk", h.Analytics.AtRisk)
	gated.GET("/analytics/revenue", h.Analytics.Revenue)
	gated.GET("/analytics/top-items", h.Analytics.TopConsumption)

	gated.GET("/insights/inventory", h.Insight.Analyze)

	admin := gated.Group("/admin", requireAdmin())
	admin.POST("/reset", h.Admin.Reset)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

const sessionKey = "session"

// requireSession matches the Bearer token against the persisted single
// session and stashes the session user in the request context.
func requireSession(authSvc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing session token"})
			return
		}

		sess, err := authSvc.CurrentSession()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if sess == nil || sess.Token != token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session"})
			return
		}

		c.Set(sessionKey, sess)
		c.Next()
	}
}

// requireAdmin allows only Admin sessions through. Must run after
// requireSession.
func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := c.MustGet(sessionKey).(*models.SessionUser)
		if !ok || sess.Role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			return
		}
		c.Next()
	}
}

// subscriptionGate blocks clinic-data routes once the license has expired.
func subscriptionGate(subSvc *subscription.Service, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		expired, err := subSvc.Expired()
		if err != nil {
			logger.Error("subscription check failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if expired {
			c.AbortWithStatusJSON(http.StatusPaymentRequired, gin.H{"error": "subscription expired, renewal required"})
			return
		}
		c.Next()
	}
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
