package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/jobconnect-app/models"
	"github.com/yeremiapane/jobconnect-app/utils"
)

const PrincipalKey = "principal"

// AuthMiddleware -> Principal Resolver. Memetakan request ber-token ke
// {type, id} sebelum core disentuh; tanpa identitas valid request berhenti
// di sini.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("authorization header missing"))
			c.Abort()
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid token format"))
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := utils.ValidateToken(tokenString)
		if err != nil {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid or expired token"))
			c.Abort()
			return
		}

		c.Set(PrincipalKey, claims.Principal())
		c.Set("token", tokenString)
		c.Next()
	}
}

// PrincipalFrom mengambil principal hasil resolve dari context
func PrincipalFrom(c *gin.Context) (models.Principal, bool) {
	v, exists := c.Get(PrincipalKey)
	if !exists {
		return models.Principal{}, false
	}
	p, ok := v.(models.Principal)
	if !ok || !p.Valid() {
		return models.Principal{}, false
	}
	return p, true
}

// RequireActorType membatasi endpoint ke satu jenis principal saja
func RequireActorType(t models.ActorType) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok || p.Type != t {
			utils.RespondError(c, http.StatusForbidden, errors.New("forbidden"))
			c.Abort()
			return
		}
		c.Next()
	}
}
