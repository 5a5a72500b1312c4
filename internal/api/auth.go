package api

import (
	"crypto/subtle"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware returns a Gin middleware that validates bearer tokens
// against SYSCOIN_API_AUTH_TOKEN. If the token is not set, all requests are
// allowed (dev mode) — the query surface is read-only and the admin
// create-handlers are meant for local demonstration, not production write
// access (SPEC_FULL §2 "HTTP surface").
func AuthMiddleware() gin.HandlerFunc {
	token := os.Getenv("SYSCOIN_API_AUTH_TOKEN")

	if token == "" && os.Getenv("GIN_MODE") == "release" {
		log.Println("[api] SECURITY WARNING: SYSCOIN_API_AUTH_TOKEN is not set in release mode. " +
			"All protected endpoints are publicly accessible.")
	}

	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "missing Authorization header",
				"hint":  "use: Authorization: Bearer <SYSCOIN_API_AUTH_TOKEN>",
			})
			c.Abort()
			return
		}

		parts := strings.SplitN(auth, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid Authorization header format"})
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(token)) != 1 {
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		c.Next()
	}
}
