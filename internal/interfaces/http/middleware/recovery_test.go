package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/turtacn/keyip-smiles/internal/infrastructure/monitoring/logging"
)

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(RequestID(), Recovery(logging.NewLoggerFromCore(core)))
	r.GET("/panic", func(*gin.Context) { panic("kaboom") })

	w := serve(t, r, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "COMMON_001", body["code"])
	assert.Equal(t, w.Header().Get(HeaderRequestID), body["request_id"])

	entries := logs.FilterMessage("panic recovered").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "kaboom", entries[0].ContextMap()["panic"])
}
