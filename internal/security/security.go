package security

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/gin-gonic/gin"

	apperrors "github.com/xthxr/DevAura/internal/errors"
)

// apiCSP locks down JSON responses; nothing served by the API renders markup.
const apiCSP = "default-src 'none'; frame-ancestors 'none'"

// SecurityConfig holds security configuration
type SecurityConfig struct {
	RequestTimeout time.Duration `json:"request_timeout"`
	MaxBodyBytes   int64         `json:"max_body_bytes"`
	EnableHSTS     bool          `json:"enable_hsts"`
	// Paths under these prefixes keep the browser defaults for CSP.
	CSPExemptPrefixes []string `json:"csp_exempt_prefixes"`
}

// DefaultSecurityConfig returns secure defaults
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		RequestTimeout:    30 * time.Second,
		MaxBodyBytes:      64 << 10,
		CSPExemptPrefixes: []string{"/swagger"},
	}
}

// SecurityMiddleware bundles the request hardening applied to every route
type SecurityMiddleware struct {
	config SecurityConfig
}

// NewSecurityMiddleware creates a new security middleware instance
func NewSecurityMiddleware(config SecurityConfig) *SecurityMiddleware {
	return &SecurityMiddleware{config: config}
}

// Handlers returns the middleware chain in the order the router installs it.
func (sm *SecurityMiddleware) Handlers() []gin.HandlerFunc {
	return []gin.HandlerFunc{
		sm.SecurityHeaders,
		sm.RequestTimeout,
		sm.ValidateContentType,
		sm.LimitBody,
	}
}

// SecurityHeaders adds the response headers every API reply carries
func (sm *SecurityMiddleware) SecurityHeaders(c *gin.Context) {
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("X-Frame-Options", "DENY")
	c.Header("X-XSS-Protection", "1; mode=block")
	c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
	c.Header("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

	if sm.config.EnableHSTS || c.Request.TLS != nil {
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
	}

	if !sm.cspExempt(c.Request.URL.Path) {
		c.Header("Content-Security-Policy", apiCSP)
	}

	c.Next()
}

func (sm *SecurityMiddleware) cspExempt(path string) bool {
	for _, prefix := range sm.config.CSPExemptPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// ValidateContentType rejects request bodies the handlers cannot decode.
// Requests without a body or Content-Type pass through.
func (sm *SecurityMiddleware) ValidateContentType(c *gin.Context) {
	contentType := c.GetHeader("Content-Type")
	if contentType == "" {
		c.Next()
		return
	}

	if !strings.Contains(strings.ToLower(contentType), "application/json") {
		builder := errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("unsupported content type")
		c.Error(apperrors.NewAppError(builder, apperrors.CategoryValidation, http.StatusUnsupportedMediaType))
		c.Abort()
		return
	}

	c.Next()
}

// LimitBody caps how much of the request body handlers may read
func (sm *SecurityMiddleware) LimitBody(c *gin.Context) {
	if sm.config.MaxBodyBytes > 0 && c.Request.Body != nil {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, sm.config.MaxBodyBytes)
	}
	c.Next()
}

// RequestTimeout bounds the request context; provider calls and database
// queries observe it
func (sm *SecurityMiddleware) RequestTimeout(c *gin.Context) {
	if sm.config.RequestTimeout <= 0 {
		c.Next()
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), sm.config.RequestTimeout)
	defer cancel()

	c.Request = c.Request.WithContext(ctx)
	c.Header("X-Timeout", strconv.Itoa(int(sm.config.RequestTimeout.Seconds())))

	c.Next()
}
