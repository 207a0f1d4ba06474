package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/keyip-smiles/pkg/errors"
)

// ---------------------------------------------------------------------------
// Test Helpers
// ---------------------------------------------------------------------------

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, opts...)
	require.NoError(t, err)
	return c
}

type testLogger struct {
	mu      sync.Mutex
	lastMsg string
	count   int32
}

func (l *testLogger) Debugf(format string, args ...interface{}) { l.log(format, args...) }
func (l *testLogger) Infof(format string, args ...interface{})  { l.log(format, args...) }
func (l *testLogger) Errorf(format string, args ...interface{}) { l.log(format, args...) }

func (l *testLogger) log(format string, args ...interface{}) {
	atomic.AddInt32(&l.count, 1)
	l.mu.Lock()
	l.lastMsg = fmt.Sprintf(format, args...)
	l.mu.Unlock()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ---------------------------------------------------------------------------
// Constructor Tests
// ---------------------------------------------------------------------------

func TestNewClient_Success(t *testing.T) {
	c, err := NewClient("http://smiles.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "http://smiles.example.com", c.baseURL)
	assert.Equal(t, 3, c.retryMax)
	assert.Contains(t, c.userAgent, "smiles-go-client/")
	assert.Empty(t, c.apiKey)
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	for _, u := range []string{"", "ftp://invalid", "invalid-url", "http://[::1"} {
		_, err := NewClient(u)
		require.Error(t, err, u)
		assert.True(t, errors.IsCode(err, errors.CodeInvalidParam), u)
	}
}

// ---------------------------------------------------------------------------
// Transport Tests
// ---------------------------------------------------------------------------

func TestClient_Do_RequestHeaders(t *testing.T) {
	var ids sync.Map
	handler := func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "smiles-cli/1", r.Header.Get("User-Agent"))
		_, dup := ids.LoadOrStore(r.Header.Get("X-Request-ID"), true)
		assert.False(t, dup, "request ids must be unique")
		w.WriteHeader(http.StatusOK)
	}
	c := newTestClient(t, handler, WithAPIKey("secret"), WithUserAgent("smiles-cli/1"))
	require.NoError(t, c.get(context.Background(), "/a", nil))
	require.NoError(t, c.get(context.Background(), "/b", nil))
}

func TestClient_Do_NoAuthorizationWithoutKey(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get("Content-Type"), "no body, no content type")
	})
	require.NoError(t, c.get(context.Background(), "/", nil))
}

func TestClient_Do_4xxError(t *testing.T) {
	var calls int32
	handler := func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"code": "SMI_006", "message": "unclosed ring", "detail": "offset=4", "request_id": "srv-1",
		})
	}
	c := newTestClient(t, handler)
	err := c.get(context.Background(), "/test", nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "SMI_006", apiErr.Code)
	assert.Equal(t, "srv-1", apiErr.RequestID)
	assert.True(t, apiErr.IsParseFailure())
	assert.Contains(t, apiErr.Error(), "unclosed ring (offset=4)")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "4xx is not retried")
}

func TestClient_Do_NonJSONError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadRequest)
	})
	err := c.get(context.Background(), "/", nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Message, "bad gateway")
	assert.NotEmpty(t, apiErr.RequestID)
}

func TestClient_Do_5xxRetry(t *testing.T) {
	var calls int32
	handler := func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
	logger := &testLogger{}
	c := newTestClient(t, handler, WithRetryWait(time.Millisecond, 2*time.Millisecond), WithLogger(logger))
	require.NoError(t, c.get(context.Background(), "/test", nil))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Positive(t, atomic.LoadInt32(&logger.count))
}

func TestClient_Do_5xxRetryExhausted(t *testing.T) {
	var calls int32
	handler := func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}
	c := newTestClient(t, handler, WithRetryMax(2), WithRetryWait(time.Millisecond, 2*time.Millisecond))
	err := c.get(context.Background(), "/test", nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsServerError())
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_Do_429RetryAfter(t *testing.T) {
	var calls int32
	handler := func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
	c := newTestClient(t, handler)
	start := time.Now()
	require.NoError(t, c.get(context.Background(), "/test", nil))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.GreaterOrEqual(t, time.Since(start), time.Second)
}

func TestClient_Do_429WithoutRetryAfter(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"code": "COMMON_007", "message": "slow down"})
	})
	err := c.get(context.Background(), "/", nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsRateLimited())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_Do_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	c, err := NewClient(server.URL, WithRetryMax(1), WithRetryWait(time.Millisecond, 2*time.Millisecond))
	require.NoError(t, err)
	assert.Error(t, c.get(context.Background(), "/test", nil))
}

func TestClient_Do_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestClient(t, func(http.ResponseWriter, *http.Request) {})
	assert.ErrorIs(t, c.get(ctx, "/test", nil), context.Canceled)
}

func TestClient_Do_ContextTimeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.get(ctx, "/test", nil), context.DeadlineExceeded)
}

func TestClient_Do_BadResponseBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{"))
	})
	var out Health
	assert.Error(t, c.get(context.Background(), "/", &out))
}

func TestCalculateBackoff(t *testing.T) {
	c := &Client{retryWaitMin: 100 * time.Millisecond, retryWaitMax: 300 * time.Millisecond}
	b1 := c.calculateBackoff(1)
	assert.GreaterOrEqual(t, b1, 100*time.Millisecond)
	assert.Less(t, b1, 125*time.Millisecond)

	b5 := c.calculateBackoff(5)
	assert.GreaterOrEqual(t, b5, 300*time.Millisecond)
	assert.Less(t, b5, 375*time.Millisecond)

	tiny := &Client{retryWaitMin: time.Nanosecond, retryWaitMax: time.Nanosecond}
	assert.Equal(t, time.Nanosecond, tiny.calculateBackoff(1))
}

// ---------------------------------------------------------------------------
// APIError Tests
// ---------------------------------------------------------------------------

func TestAPIError_Methods(t *testing.T) {
	assert.True(t, (&APIError{StatusCode: 404}).IsNotFound())
	assert.True(t, (&APIError{StatusCode: 429}).IsRateLimited())
	assert.True(t, (&APIError{StatusCode: 503}).IsServerError())
	assert.False(t, (&APIError{StatusCode: 400}).IsServerError())
	assert.True(t, (&APIError{Code: "SMI_001"}).IsParseFailure())
	assert.False(t, (&APIError{Code: "COMMON_002"}).IsParseFailure())

	e := &APIError{StatusCode: 400, Code: "COMMON_002", Message: "bad", RequestID: "r"}
	assert.Equal(t, "smiles: COMMON_002 (HTTP 400): bad [request_id=r]", e.Error())
}

// ---------------------------------------------------------------------------
// Operation Tests
// ---------------------------------------------------------------------------

func TestClient_ParseRequestBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/smiles/parse", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]interface{}{"smiles": "CCO", "mode": "guess", "smarts_warnings": true}, body)
		writeJSON(w, http.StatusOK, map[string]interface{}{"smiles": "CCO", "formula": "C2H6O", "mode": "guess"})
	})

	out, err := c.Parse(context.Background(), "CCO", &ParseOptions{Mode: "guess", SmartsWarnings: true})
	require.NoError(t, err)
	assert.Equal(t, "C2H6O", out.Formula)
	assert.Equal(t, "guess", out.Mode)
}

func TestClient_ArgumentValidation(t *testing.T) {
	c := newTestClient(t, func(http.ResponseWriter, *http.Request) {
		t.Error("no request expected")
	})
	ctx := context.Background()

	_, err := c.Parse(ctx, "", nil)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
	_, err = c.ParseReaction(ctx, "", nil)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
	_, err = c.ParseBatch(ctx, nil, nil)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
}
