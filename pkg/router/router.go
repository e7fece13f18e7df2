package router

import (
	"time"

	"groupchat/backend/internal/push"
	"groupchat/backend/internal/service"
	"groupchat/backend/internal/ws"
	"groupchat/backend/pkg/config"
	"groupchat/backend/pkg/errors"
	"groupchat/backend/pkg/logger"
	"groupchat/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// Track server start time for uptime reporting
var startTime = time.Now()

// Router is the main router for the application
type Router struct {
	Engine *gin.Engine
	Logger *logger.Logger
	Hub    *ws.Hub
	Config *config.Config
}

// New wires the HTTP surface around the hub: the websocket endpoint plus
// health and metrics.
func New(messages *service.MessageService, subscriptions *service.SubscriptionService, dispatcher *push.Dispatcher, log *logger.Logger) *Router {
	cfg := config.Get()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Logger first so every request is captured.
	engine.Use(logger.Middleware(log))
	engine.Use(errors.RecoveryWithLogger())
	engine.Use(corsMiddleware())

	rateLimiter := middleware.NewRateLimiter(log)
	engine.Use(rateLimiter.Middleware())

	hub := ws.NewHub(messages, subscriptions, dispatcher, ws.Config{
		DefaultPageSize: cfg.History.DefaultPageSize,
		MaxPageSize:     cfg.History.MaxPageSize,
		MaxMessageSize:  cfg.Security.MaxMessageSize,
		RateLimit:       rate.Limit(cfg.Security.RateLimit),
		RateBurst:       cfg.Security.RateLimitBurst,
	}, log)

	go hub.Run()

	return &Router{
		Engine: engine,
		Logger: log,
		Hub:    hub,
		Config: cfg,
	}
}

// SetupRoutes registers all application routes
func (r *Router) SetupRoutes() {
	r.Engine.GET("/healthz", r.healthCheckHandler())
	r.Engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Engine.GET("/ws", func(c *gin.Context) {
		ws.ServeWs(r.Hub, c)
	})
}

// healthCheckHandler returns a simple health check handler
func (r *Router) healthCheckHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":         "ok",
			"env":            r.Config.Server.Env,
			"uptime_seconds": int(time.Since(startTime).Seconds()),
			"time":           time.Now().Format(time.RFC3339),
		})
	}
}

// corsMiddleware allows cross-origin access, including websocket upgrade
// headers; the chat surface serves arbitrary origins.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Origin, Upgrade, Connection, Cache-Control")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Upgrade, Connection")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
