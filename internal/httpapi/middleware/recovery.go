package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/goldgpt/internal/common"
)

// Recovery turns panics into a 500 {"error": ...} and logs the stack.
func Recovery(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("panic recovered",
					"request_id", RequestIDFrom(c),
					"path", c.Request.URL.Path,
					"panic", rec,
					"stack", string(debug.Stack()),
				)
				common.AbortFail(c, http.StatusInternalServerError, "Internal server error")
			}
		}()
		c.Next()
	}
}
