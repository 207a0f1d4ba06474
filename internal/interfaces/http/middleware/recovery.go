package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/keyip-smiles/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/keyip-smiles/pkg/errors"
)

// Recovery turns a handler panic into a logged COMMON_001 response.
func Recovery(logger logging.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered interface{}) {
		logger.WithContext(c.Request.Context()).Error("panic recovered",
			logging.String("path", c.Request.URL.Path),
			logging.String("panic", fmt.Sprint(recovered)))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"code":       errors.CodeInternal.String(),
			"message":    "internal server error",
			"request_id": GetRequestID(c),
		})
	})
}
