// Package ctxutil carries HTTP request data into the context handed to services.
package ctxutil

import (
	"context"

	"marketplace/api/response"
	"marketplace/pkg/logger"

	"github.com/gin-gonic/gin"
)

// WithRequestID returns the request context tagged with the request id, so
// service and repository logs can be correlated with the HTTP access log.
func WithRequestID(c *gin.Context) context.Context {
	return logger.ContextWithRequestID(c.Request.Context(), response.GetRequestID(c))
}
