package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// unmatchedRoute labels requests that hit no route, so scanners cannot blow
// up label cardinality
const unmatchedRoute = "unmatched"

// HTTPObserver records served requests
type HTTPObserver interface {
	HTTPRequest(method, route string, status int, elapsed time.Duration)
}

// Metrics reports every request to observer, labelled by route pattern
func Metrics(observer HTTPObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		observer.HTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
