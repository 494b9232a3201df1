package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CookieName is the cookie carrying the session token.
const CookieName = "token"

const claimsKey = "claims"

// Gate enforces a valid session token on protected routes. The token is read
// from the "token" HttpOnly cookie; a missing or invalid token aborts the
// request with 401 before the handler runs. On success the decoded claims are
// stored in the gin context.
func Gate(tokens *TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(CookieName)
		if err != nil || cookie == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "unauthorized access"})
			return
		}
		claims, err := tokens.Parse(cookie)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "unauthorized access"})
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// ClaimsFromContext returns the claims stored by Gate, if any.
func ClaimsFromContext(c *gin.Context) (Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(Claims)
	return claims, ok
}
