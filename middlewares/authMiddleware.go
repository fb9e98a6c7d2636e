package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mmdatafocus/shop_ledger/utils"
)

const CorrelationHeader = "x-correlation-id"

// RequireSession rejects requests that carry no user or no business.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if username, ok := utils.GetUsernameFromContext(ctx); !ok || username == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if businessId, ok := utils.GetBusinessIdFromContext(ctx); !ok || businessId == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "business_id is required"})
			return
		}
		c.Next()
	}
}

// CorrelationId attaches the caller's correlation id, or a fresh one, to the request and echoes it back.
func CorrelationId() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := c.GetHeader(CorrelationHeader)
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Header(CorrelationHeader, cid)
		c.Next()
	}
}
