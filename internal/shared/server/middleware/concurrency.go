package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"

	"github.com/vipulchinmay/projectaushadX/internal/shared/server/respond"
)

// Admission bounds the number of requests running pipeline work at once.
// Excess requests wait for a slot until their context is cancelled.
func Admission(limit int) gin.HandlerFunc {
	if limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	sem := semaphore.NewWeighted(int64(limit))
	return func(c *gin.Context) {
		if err := sem.Acquire(c.Request.Context(), 1); err != nil {
			respond.Error(c, http.StatusServiceUnavailable, "cancelled", "Request cancelled while waiting")
			return
		}
		defer sem.Release(1)
		c.Next()
	}
}
