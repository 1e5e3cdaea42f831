package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// The router registers GET, POST, PUT and DELETE routes only, and clients send
// the bearer token plus the correlation headers.
var (
	corsMethods = strings.Join([]string{
		http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
	}, ",")
	corsHeaders = strings.Join([]string{
		"Authorization", "Content-Type", requestIDHeader, TraceIDHeader,
	}, ",")
)

// CORS answers preflight requests and marks allowed origins. A "*" entry in
// the allow list opens the API to every origin, without credentials.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	allowAll := false
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			if allowAll {
				c.Header("Access-Control-Allow-Origin", "*")
			} else if _, ok := allowed[origin]; ok {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Access-Control-Allow-Credentials", "true")
				c.Header("Vary", "Origin")
			}
			c.Header("Access-Control-Expose-Headers", TraceIDHeader)
		}

		if c.Request.Method == http.MethodOptions {
			c.Header("Access-Control-Allow-Methods", corsMethods)
			c.Header("Access-Control-Allow-Headers", corsHeaders)
			c.Header("Access-Control-Max-Age", "3600")

			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
