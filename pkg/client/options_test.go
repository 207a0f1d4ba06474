package client

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWithHTTPClient(t *testing.T) {
	custom := &http.Client{Timeout: time.Minute}
	c := &Client{}
	WithHTTPClient(custom)(c)
	assert.Same(t, custom, c.httpClient)

	WithHTTPClient(nil)(c)
	assert.Same(t, custom, c.httpClient)
}

func TestWithLogger(t *testing.T) {
	logger := &testLogger{}
	c := &Client{}
	WithLogger(logger)(c)
	assert.Same(t, logger, c.logger)
}

func TestWithAPIKey(t *testing.T) {
	c := &Client{}
	WithAPIKey("k")(c)
	assert.Equal(t, "k", c.apiKey)
}

func TestWithRetryMax(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected int
	}{
		{"positive value", 5, 5},
		{"zero value", 0, 0},
		{"negative value ignored", -1, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Client{retryMax: 3}
			WithRetryMax(tt.input)(c)
			assert.Equal(t, tt.expected, c.retryMax)
		})
	}
}

func TestWithRetryWait(t *testing.T) {
	tests := []struct {
		name            string
		min, max        time.Duration
		wantMin, wantMx time.Duration
	}{
		{"valid", 10 * time.Millisecond, 50 * time.Millisecond, 10 * time.Millisecond, 50 * time.Millisecond},
		{"max below min", 10 * time.Millisecond, 5 * time.Millisecond, 10 * time.Millisecond, time.Second},
		{"zero min", 0, 50 * time.Millisecond, time.Millisecond, time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Client{retryWaitMin: time.Millisecond, retryWaitMax: time.Second}
			WithRetryWait(tt.min, tt.max)(c)
			assert.Equal(t, tt.wantMin, c.retryWaitMin)
			assert.Equal(t, tt.wantMx, c.retryWaitMax)
		})
	}
}

func TestWithUserAgent(t *testing.T) {
	c := &Client{userAgent: "default"}
	WithUserAgent("")(c)
	assert.Equal(t, "default", c.userAgent)
	WithUserAgent("custom/1.0")(c)
	assert.Equal(t, "custom/1.0", c.userAgent)
}
