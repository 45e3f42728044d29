package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Session issuance is delegated to the identity provider; this middleware
// only validates the HS256 token it issued and extracts the subject.

const (
	userIDKey    = "userID"
	userEmailKey = "userEmail"
)

type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func parseToken(tokenStr, secret string) (*sessionClaims, bool) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, false
	}
	return claims, true
}

func bearerToken(c *gin.Context) (string, bool) {
	auth := c.GetHeader("Authorization")
	if auth == "" {
		return "", false
	}
	parts := strings.Split(auth, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// Auth rejects requests without a valid session token.
func Auth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized"})
			return
		}
		claims, valid := parseToken(token, jwtSecret)
		if !valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized"})
			return
		}
		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized"})
			return
		}
		c.Set(userIDKey, userID)
		c.Set(userEmailKey, claims.Email)
		c.Next()
	}
}

// OptionalAuth extracts the session identity when a token is present but
// lets anonymous uploaders through. They carry only a claimed email, read
// by the handler from the request itself.
func OptionalAuth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if claims, valid := parseToken(token, jwtSecret); valid {
				if userID, err := uuid.Parse(claims.Subject); err == nil {
					c.Set(userIDKey, userID)
					c.Set(userEmailKey, claims.Email)
				}
			}
		}
		c.Next()
	}
}

// UserID returns the authenticated user, if any.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// UserEmail returns the verified email of the authenticated user.
func UserEmail(c *gin.Context) string {
	v, ok := c.Get(userEmailKey)
	if !ok {
		return ""
	}
	email, _ := v.(string)
	return email
}
