package v1

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lawrencemontaril/noynay-app/internal/domain"
	"github.com/lawrencemontaril/noynay-app/internal/policy"
	"github.com/lawrencemontaril/noynay-app/pkg/auth"
	"github.com/lawrencemontaril/noynay-app/pkg/metrics"
)

const claimsKey = "auth.claims"

type userGate interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// Authenticate validates the bearer token and gates out inactive accounts.
// The resolved claims are stored on the gin context for the handlers.
func Authenticate(jwtManager *auth.JWTManager, users userGate) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "missing bearer token"})
			return
		}

		claims, err := jwtManager.ValidateAccessToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid or expired token"})
			return
		}

		// Deactivation takes effect immediately, not at token expiry.
		u, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil || !u.IsActive {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "account is not active"})
			return
		}

		// Role and patient link come from the live record, so a promotion
		// or revocation applies without reissuing tokens.
		claims.Role = u.Role
		claims.PatientID = u.PatientID

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireAction enforces the role/action policy table.
func RequireAction(action policy.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := mustClaims(c)
		if claims == nil {
			return
		}
		if !policy.Can(claims.Role, action) {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: "access denied"})
			return
		}
		c.Next()
	}
}

// mustClaims pulls the authenticated claims set by Authenticate, aborting
// with 401 when the route was wired without it.
func mustClaims(c *gin.Context) *domain.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return nil
	}
	claims, ok := v.(*domain.Claims)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return nil
	}
	return claims
}

// RequestLogger emits one structured line per request.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}

// Metrics records the request counters and latency histogram.
func Metrics(m *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}

		m.InFlightGauge.Inc()
		start := time.Now()
		c.Next()
		m.InFlightGauge.Dec()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.RequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}
