package httpapi

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/goldgpt/internal/httpapi/handlers"
	"github.com/suPer8Hu/goldgpt/internal/httpapi/middleware"
)

type Options struct {
	BasePath           string
	Limiter            middleware.Limiter // nil disables rate limiting
	RateLimitPerMinute int
	SlowRequest        time.Duration
	Log                *slog.Logger
}

func NewRouter(h *handlers.Handler, opts Options) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog(opts.Log, opts.SlowRequest))
	r.Use(middleware.Recovery(opts.Log))

	r.NoRoute(h.NotFound)
	r.NoMethod(h.MethodNotAllowed)

	limited := middleware.RateLimit(opts.Limiter, opts.RateLimitPerMinute, opts.Log)

	api := r.Group(opts.BasePath)
	api.GET("/health", h.Health)

	api.POST("/chat", limited, h.Chat)
	api.GET("/chat/history", h.ChatHistory)
	api.GET("/chat/session/:id", h.GetSession)
	api.POST("/chat/session/:id", h.SaveSession)
	api.DELETE("/chat/session/:id", h.DeleteSession)

	api.POST("/generate-image", limited, h.GenerateImage)
	api.GET("/generate-image/jobs/:id", h.GetImageJob)
	api.GET("/images", h.ListImages)
	api.GET("/images/:filename", h.ServeImage)

	api.GET("/prices", h.Prices)
	api.GET("/products", h.Products)
	return r
}
