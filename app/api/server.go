package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/streamerhq/streamer/app/cfg"
)

// NewServer creates the HTTP server with all routes configured
func NewServer(handler *Handler, apiAccessKey string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	setupRoutes(r, handler, apiAccessKey)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, apiAccessKey string) {
	// Hub-facing endpoint: challenges and content pushes share this path.
	r.GET("/posts", handler.GetPosts)
	r.POST("/posts", handler.PushPosts)

	// Read endpoints
	r.GET("/subscriptions", handler.ListSubscriptions)
	r.GET("/health", handler.GetHealth)

	// Admin endpoints
	auth := authMiddleware(apiAccessKey)
	r.POST("/subscriptions", auth, handler.AddSubscription)
	r.DELETE("/subscriptions", auth, handler.DeleteSubscription)
	r.POST("/admin/refresh", auth, handler.RefreshSubscriptions)

	if apiAccessKey == "" {
		slog.Warn("API_ACCESS_KEY not set, admin endpoints are open to anyone")
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":     "Streamer",
			"version":     cfg.GetVersion(),
			"description": "PubSubHubbub feed aggregator",
			"endpoints": gin.H{
				"posts":         "/posts",
				"subscriptions": "/subscriptions",
				"health":        "/health",
				"refresh":       "/admin/refresh (POST, requires X-API-Key header)",
			},
		})
	})

	// Favicon handler (return 204 to avoid 404s)
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
}

// authMiddleware guards the admin endpoints. An empty key means open
// access, mirroring a single-user deployment behind its own auth layer.
func authMiddleware(apiAccessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiAccessKey == "" {
			c.Next()
			return
		}

		providedKey := c.GetHeader("X-API-Key")

		if providedKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if providedKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "API key required",
				"message": "Provide API key in X-API-Key header or Authorization: Bearer <key>",
			})
			c.Abort()
			return
		}

		if providedKey != apiAccessKey {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid API key",
				"message": "The provided API key is not valid",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
