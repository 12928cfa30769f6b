package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-rental-marketplace/internal/application"
	"github.com/oksasatya/go-rental-marketplace/pkg/helpers"
	"github.com/oksasatya/go-rental-marketplace/pkg/response"
)

// Context keys set by Auth
const (
	CtxUserIDKey    = "userID"
	CtxUserEmailKey = "userEmail"
	CtxUserTypeKey  = "userType"
	CtxUserNameKey  = "userName"
)

// Auth validates the session token and ensures the session it names is the
// active one in Redis. It sets userID, userEmail, userType and userName in
// the Gin context on success.
func Auth(rdb *redis.Client, jwt *helpers.JWTManager, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c, cookieName)
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, "missing session token", nil)
			return
		}
		claims, err := jwt.Parse(token)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "invalid session token", nil)
			return
		}

		if rdb == nil {
			c.Set(CtxUserIDKey, claims.UserID)
			c.Set(CtxUserEmailKey, claims.Email)
			c.Next()
			return
		}

		// Retrieve session from Redis as a hash
		data, err := rdb.HGetAll(c.Request.Context(), application.SessionKey(claims.UserID)).Result()
		if err != nil || len(data) == 0 {
			response.Abort(c, http.StatusUnauthorized, "session not found", nil)
			return
		}
		if data["sid"] != claims.SessionID {
			response.Abort(c, http.StatusUnauthorized, "session expired", nil)
			return
		}

		c.Set(CtxUserIDKey, data["user_id"])
		c.Set(CtxUserEmailKey, data["email"])
		c.Set(CtxUserTypeKey, data["user_type"])
		c.Set(CtxUserNameKey, data["username"])
		c.Next()
	}
}
