package utils

import "github.com/gin-gonic/gin"

// NoCache marks every answer as uncacheable, documents change live
func NoCache() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("cache-control", "no-cache")
		c.Next()
	}
}
