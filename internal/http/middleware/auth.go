package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	actorIDKey   = "actor_id"
	actorRoleKey = "actor_role"
)

// RequireAuth validates the Bearer token and stores the actor id and role in
// the context for handlers to pass down.
func RequireAuth(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return key, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token claims"})
			return
		}
		if uid, ok := claims["user_id"].(float64); ok {
			c.Set(actorIDKey, int64(uid))
		}
		if role, ok := claims["role"].(string); ok {
			c.Set(actorRoleKey, role)
		}
		c.Next()
	}
}

// GetActorID returns the authenticated user id, or 0 when unauthenticated.
func GetActorID(c *gin.Context) int64 {
	if v, ok := c.Get(actorIDKey); ok {
		if id, ok := v.(int64); ok {
			return id
		}
	}
	return 0
}

// GetActorRole returns the authenticated user's role.
func GetActorRole(c *gin.Context) string {
	if v, ok := c.Get(actorRoleKey); ok {
		if role, ok := v.(string); ok {
			return role
		}
	}
	return ""
}
