package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AylerH/DB-GPT/internal/auth"
	"github.com/AylerH/DB-GPT/pkg/api"
)

// ContextKeyAPIKey holds the accepted bearer token, if any.
const ContextKeyAPIKey = "api_key"

// Auth checks the bearer token against the gate's allow-list.
func Auth(gate *auth.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := gate.Check(auth.BearerToken(c.GetHeader("Authorization")))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.InvalidAPIKey())
			return
		}
		if token != "" {
			c.Set(ContextKeyAPIKey, token)
		}
		c.Next()
	}
}
