package middleware

import (
	"net/http"
	"strings"

	"masu/utils"

	"github.com/gin-gonic/gin"
)

// MemberAuthMiddleware resolves a signed-in member from the bearer token.
// In optional mode an absent or invalid token just leaves the request
// anonymous; the wizard works for guests too.
func MemberAuthMiddleware(optional bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			if optional {
				c.Next()
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Insufficient authorization",
				"code":  0,
			})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		memberID, email, err := utils.ExtractMemberFromToken(tokenString)
		if err != nil || memberID == "" {
			if optional {
				c.Next()
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Insufficient authorization",
				"code":  0,
			})
			return
		}

		c.Set("memberID", memberID)
		c.Set("memberEmail", email)
		c.Next()
	}
}
