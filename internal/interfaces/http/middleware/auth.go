package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/keyip-smiles/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/keyip-smiles/pkg/errors"
)

// HeaderAPIKey is accepted as an alternative to a bearer token.
const HeaderAPIKey = "X-API-Key"

const keyIDKey = "api_key_id"

// AuthConfig configures APIKeyAuth.
type AuthConfig struct {
	// Keys maps key id to secret.  The id is logged, the secret never is.
	Keys map[string]string
	// SkipPaths bypass authentication, as do their sub-paths.
	SkipPaths []string
}

// DefaultAuthSkipPaths keeps probes and scraping unauthenticated.
func DefaultAuthSkipPaths() []string {
	return []string{"/healthz", "/readyz", "/metrics"}
}

type apiKey struct {
	id     string
	digest [sha256.Size]byte
}

// APIKeyAuth rejects requests that carry no known key with 401.  Keys are
// read from "Authorization: Bearer <key>" first and X-API-Key second.  An
// empty key set disables the check.
func APIKeyAuth(cfg AuthConfig, logger logging.Logger) gin.HandlerFunc {
	if len(cfg.Keys) == 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	keys := make([]apiKey, 0, len(cfg.Keys))
	for id, secret := range cfg.Keys {
		keys = append(keys, apiKey{id: id, digest: sha256.Sum256([]byte(secret))})
	}

	return func(c *gin.Context) {
		if skipAuth(c.Request.URL.Path, cfg.SkipPaths) {
			c.Next()
			return
		}

		presented := extractBearerToken(c.Request)
		if presented == "" {
			presented = strings.TrimSpace(c.GetHeader(HeaderAPIKey))
		}
		if presented == "" {
			unauthorized(c, "authentication required")
			return
		}

		id, ok := matchKey(keys, presented)
		if !ok {
			logger.WithContext(c.Request.Context()).Warn("rejected api key",
				logging.String("path", c.Request.URL.Path),
				logging.String("client_ip", c.ClientIP()))
			unauthorized(c, "invalid api key")
			return
		}
		c.Set(keyIDKey, id)
		c.Next()
	}
}

// GetAPIKeyID returns the id of the key that authenticated the request.
func GetAPIKeyID(c *gin.Context) string {
	return c.GetString(keyIDKey)
}

// matchKey compares digests in constant time and visits every key.
func matchKey(keys []apiKey, presented string) (string, bool) {
	digest := sha256.Sum256([]byte(presented))
	var match string
	found := false
	for _, k := range keys {
		if subtle.ConstantTimeCompare(digest[:], k.digest[:]) == 1 {
			match, found = k.id, true
		}
	}
	return match, found
}

func skipAuth(path string, skip []string) bool {
	for _, p := range skip {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func unauthorized(c *gin.Context, message string) {
	c.Header("WWW-Authenticate", `Bearer realm="smiles"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":       errors.CodeUnauthorized.String(),
		"message":    message,
		"request_id": GetRequestID(c),
	})
}
