package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/jobconnect-app/utils"
)

// WebSocketAuthMiddleware -> auth untuk endpoint ws; browser tidak bisa set
// header di handshake websocket jadi token lewat query string
func WebSocketAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.AbortWithStatus(401)
			return
		}

		claims, err := utils.ValidateToken(token)
		if err != nil {
			c.AbortWithStatus(401)
			return
		}

		c.Set(PrincipalKey, claims.Principal())
		c.Next()
	}
}
