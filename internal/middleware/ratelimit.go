package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rulemate-india/core/internal/pkg/redis"
)

const rateLimitWindow = time.Minute

// RateLimit enforces a fixed per-minute request budget per client IP. Redis
// failures let the request through.
func RateLimit(rc *redis.Client, perMinute int, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rc == nil || perMinute <= 0 {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		window := time.Now().Unix() / int64(rateLimitWindow/time.Second)
		key := fmt.Sprintf("rulemate:rate_limit:%s:%d", ip, window)

		count, err := rc.IncrWindow(c.Request.Context(), key, rateLimitWindow)
		if err != nil {
			log.Warn("rate limit check failed", zap.String("request_id", RequestID(c)), zap.Error(err))
			c.Next()
			return
		}

		if count > int64(perMinute) {
			log.Info("rate limited", zap.String("ip", ip), zap.String("request_id", RequestID(c)))
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"ok":      0,
				"code":    http.StatusTooManyRequests,
				"message": "Too many questions in a short time. Please wait a minute and try again.",
			})
			return
		}

		c.Next()
	}
}
