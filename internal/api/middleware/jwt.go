package middleware

import (
	"net/http"
	"strings"

	"donelist/internal/api/auth"
	"donelist/internal/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware 校验 Bearer 令牌并将请求者身份写入上下文。
//
// 这是所有受保护路由的唯一入口，校验失败一律 401。
// net/http 的 header 查找本身不区分大小写，部分客户端发送
// 首字母大写的 authorization 键也能被正确识别。
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	secret := []byte(jwtSecret)
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			metrics.AuthFailuresTotal.Inc()
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			c.Abort()
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			metrics.AuthFailuresTotal.Inc()
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			c.Abort()
			return
		}

		user, err := auth.VerifyToken(secret, parts[1])
		if err != nil {
			metrics.AuthFailuresTotal.Inc()
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set("userID", int(user.ID))
		c.Set("email", user.Email)
		c.Set("role", user.Role)
		c.Next()
	}
}
