package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/keyip-smiles/pkg/errors"
)

// RateLimiter decides whether a request identified by key may proceed.
type RateLimiter interface {
	Allow(key string) (bool, RateLimitInfo)
}

// RateLimitInfo is the limiter state reported in response headers.
type RateLimitInfo struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RateLimitConfig holds configuration for the rate limit middleware.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	// KeyFunc extracts the limiter key; defaults to the client IP.
	KeyFunc   func(c *gin.Context) string
	SkipPaths []string
	// CleanupInterval controls how often idle buckets are dropped.
	CleanupInterval time.Duration
}

// DefaultRateLimitConfig returns a limit of 10 rps with bursts of 20.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 10,
		BurstSize:         20,
		SkipPaths:         []string{"/healthz", "/readyz", "/metrics"},
		CleanupInterval:   5 * time.Minute,
	}
}

func clientIPKey(c *gin.Context) string { return c.ClientIP() }

// ─────────────────────────────────────────────────────────────────────────────
// Token bucket
// ─────────────────────────────────────────────────────────────────────────────

type tokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

// TokenBucketLimiter is an in-memory RateLimiter with one bucket per key.
type TokenBucketLimiter struct {
	rate      float64
	burstSize int
	now       func() time.Time

	mu      sync.RWMutex
	buckets map[string]*tokenBucket

	cleanupInterval time.Duration
	stop            chan struct{}
	stopOnce        sync.Once
}

// NewTokenBucketLimiter creates a limiter refilling rate tokens per second up
// to burstSize.  A positive cleanupInterval starts a goroutine that drops
// idle buckets; call Stop to end it.
func NewTokenBucketLimiter(rate float64, burstSize int, cleanupInterval time.Duration) *TokenBucketLimiter {
	l := &TokenBucketLimiter{
		rate:            rate,
		burstSize:       burstSize,
		now:             time.Now,
		buckets:         make(map[string]*tokenBucket),
		cleanupInterval: cleanupInterval,
		stop:            make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go l.cleanupLoop()
	}
	return l
}

func (l *TokenBucketLimiter) bucket(key string, now time.Time) *tokenBucket {
	l.mu.RLock()
	b, ok := l.buckets[key]
	l.mu.RUnlock()
	if ok {
		return b
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok = l.buckets[key]; !ok {
		b = &tokenBucket{tokens: float64(l.burstSize), lastRefill: now}
		l.buckets[key] = b
	}
	return b
}

func (l *TokenBucketLimiter) Allow(key string) (bool, RateLimitInfo) {
	now := l.now()
	b := l.bucket(key, now)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.tokens += now.Sub(b.lastRefill).Seconds() * l.rate
	if b.tokens > float64(l.burstSize) {
		b.tokens = float64(l.burstSize)
	}
	b.lastRefill = now

	info := RateLimitInfo{
		Limit:   l.burstSize,
		ResetAt: now.Add(time.Duration(float64(time.Second) / l.rate)),
	}
	if b.tokens >= 1 {
		b.tokens--
		info.Remaining = int(b.tokens)
		return true, info
	}
	return false, info
}

func (l *TokenBucketLimiter) cleanupLoop() {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stop:
			return
		}
	}
}

// cleanup drops buckets that are full and idle for a whole interval.
func (l *TokenBucketLimiter) cleanup() {
	threshold := l.now().Add(-l.cleanupInterval)

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, b := range l.buckets {
		b.mu.Lock()
		if b.lastRefill.Before(threshold) && b.tokens >= float64(l.burstSize)-1 {
			delete(l.buckets, key)
		}
		b.mu.Unlock()
	}
}

// Stop ends the cleanup goroutine.  It is safe to call more than once.
func (l *TokenBucketLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// BucketCount returns the number of tracked keys.
func (l *TokenBucketLimiter) BucketCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.buckets)
}

// ─────────────────────────────────────────────────────────────────────────────
// Middleware
// ─────────────────────────────────────────────────────────────────────────────

// RateLimit rejects requests over the limit with 429 and Retry-After.
func RateLimit(limiter RateLimiter, config RateLimitConfig) gin.HandlerFunc {
	skip := make(map[string]bool, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skip[p] = true
	}
	keyFunc := config.KeyFunc
	if keyFunc == nil {
		keyFunc = clientIPKey
	}

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		allowed, info := limiter.Allow(keyFunc(c))
		c.Header("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(info.ResetAt.Unix(), 10))
		if allowed {
			c.Next()
			return
		}

		retry := int(time.Until(info.ResetAt).Seconds())
		if retry < 1 {
			retry = 1
		}
		c.Header("Retry-After", strconv.Itoa(retry))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"code":       errors.CodeRateLimited.String(),
			"message":    "rate limit exceeded, please retry later",
			"request_id": GetRequestID(c),
		})
	}
}
