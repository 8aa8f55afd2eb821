package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/goldgpt/internal/common"
)

// Limiter is satisfied by redisstore.Store.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, int, error)
}

// RateLimit allows perMinute requests per client IP. Limiter errors let the
// request through.
func RateLimit(l Limiter, perMinute int, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil || perMinute <= 0 {
			c.Next()
			return
		}

		allowed, remaining, err := l.Allow(c.Request.Context(), c.ClientIP(), perMinute, time.Minute)
		if err != nil {
			log.Warn("rate limiter unavailable, allowing request", "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(perMinute))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !allowed {
			common.AbortFail(c, http.StatusTooManyRequests, "Too many requests, please slow down")
			return
		}
		c.Next()
	}
}
