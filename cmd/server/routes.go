package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mark/internal/interfaces/http/handlers"
	"mark/internal/interfaces/http/middleware"
)

type routeDeps struct {
	webhookHandler             *handlers.WebhookHandler
	rebalanceOperationsHandler *handlers.RebalanceOperationsHandler
}

// applyCORSMiddleware allows any browser origin to call the API, echoing
// the request's Origin back rather than using a wildcard so credentialed
// requests still work.
func applyCORSMiddleware(r *gin.Engine) {
	r.Use(func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, Idempotency-Key, goldsky-webhook-secret")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})
}

func registerHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "mark",
			"version": "0.1.0",
		})
	})
}

func registerMetricsRoute(r *gin.Engine) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	v1 := r.Group("/api/v1")
	{
		v1.POST("/webhook", middleware.IdempotencyMiddleware(), d.webhookHandler.HandleWebhook)
		v1.GET("/rebalance-operations", d.rebalanceOperationsHandler.List)
	}
}
