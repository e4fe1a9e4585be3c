package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const demoActiveKeyPrefix = "demo:active:"

// DemoActivityMiddleware marks the demo account as active so operators can
// see live demo usage. The key holds the last request line and expires
// after the configured idle timeout.
func DemoActivityMiddleware(rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleVal, ok := c.Get("role")
		if !ok || roleVal != "demo" {
			c.Next()
			return
		}
		userIDVal, ok := c.Get("userID")
		if !ok {
			c.Next()
			return
		}
		userID, ok := userIDVal.(int)
		if !ok {
			c.Next()
			return
		}

		if ttl <= 0 {
			ttl = 10 * time.Minute
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		key := fmt.Sprintf("%s%d", demoActiveKeyPrefix, userID)
		lastSeen := c.Request.Method + " " + c.Request.URL.Path
		_ = rdb.Set(ctx, key, lastSeen, ttl).Err()

		c.Next()
	}
}
