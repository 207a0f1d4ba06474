package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/turtacn/keyip-smiles/internal/infrastructure/monitoring/logging"
)

func TestRequestLogging_Levels(t *testing.T) {
	tests := []struct {
		path  string
		level zapcore.Level
		msg   string
	}{
		{"/ok", zapcore.InfoLevel, "HTTP request completed"},
		{"/bad", zapcore.WarnLevel, "HTTP request completed with client error"},
		{"/boom", zapcore.ErrorLevel, "HTTP request completed with server error"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			r := newEngine(RequestID(), RequestLogging(logging.NewLoggerFromCore(core), DefaultLoggingConfig()))

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set(HeaderRequestID, "rid-1")
			serve(t, r, req)

			entries := logs.All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.level, entries[0].Level)
			assert.Equal(t, tt.msg, entries[0].Message)
			fields := entries[0].ContextMap()
			assert.Equal(t, tt.path, fields["path"])
			assert.Equal(t, "rid-1", fields["request_id"])
		})
	}
}

func TestRequestLogging_SkipsProbes(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := newEngine(RequestLogging(logging.NewLoggerFromCore(core), DefaultLoggingConfig()))
	serve(t, r, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Zero(t, logs.Len())
}

func TestRequestLogging_Slow(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := newEngine(RequestLogging(logging.NewLoggerFromCore(core), LoggingConfig{SlowThreshold: time.Nanosecond}))
	serve(t, r, httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "HTTP request completed (slow)", logs.All()[0].Message)
}
