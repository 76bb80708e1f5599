package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/httprate"

	"devisportal/internal/pkg/response"
)

// RateLimit limits requests per client IP using httprate's sliding window counter.
func RateLimit(requests int, window time.Duration) gin.HandlerFunc {
	limiter := httprate.Limit(
		requests,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			// body is written by the gin side
		}),
	)

	return func(c *gin.Context) {
		passed := false
		limiter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			passed = true
		})).ServeHTTP(c.Writer, c.Request)

		if !passed {
			response.Error(c, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests, try again later")
			c.Abort()
			return
		}
		c.Next()
	}
}
