package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/turtacn/keyip-smiles/internal/infrastructure/monitoring/logging"
)

func TestRequestID_Generated(t *testing.T) {
	var fromCtx, fromGin string
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		fromCtx, _ = logging.RequestIDFromContext(c.Request.Context())
		fromGin = GetRequestID(c)
	})

	w := serve(t, r, httptest.NewRequest(http.MethodGet, "/", nil))
	id := w.Header().Get(HeaderRequestID)
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.Equal(t, id, fromCtx)
	assert.Equal(t, id, fromGin)
}

func TestRequestID_Propagated(t *testing.T) {
	r := newEngine(RequestID())
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	w := serve(t, r, req)
	assert.Equal(t, "abc-123", w.Header().Get(HeaderRequestID))
}

func TestRequestID_OversizedIsReplaced(t *testing.T) {
	r := newEngine(RequestID())
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(HeaderRequestID, strings.Repeat("x", 200))
	w := serve(t, r, req)
	assert.Len(t, w.Header().Get(HeaderRequestID), 36)
}
