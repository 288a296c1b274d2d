package utils

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tailor-app/internal/models"
)

const (
	SessionCookie = "session"

	ctxPrincipal = "principal"
	ctxToken     = "token"
	ctxLogger    = "logger"
)

// SessionAuthenticator resolves a raw session token to the principal it was issued for.
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Principal, error)
}

// BearerToken extracts the session token from the Authorization header or the session cookie.
func BearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie
	}
	return ""
}

// AuthMiddleware rejects requests without a valid session with 401.
func AuthMiddleware(auth SessionAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}

		principal, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}

		c.Set(ctxPrincipal, principal)
		c.Set(ctxToken, token)
		c.Next()
	}
}

// RequireRoles checks that the authenticated principal has one of the allowed roles.
func RequireRoles(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}

		for _, allowed := range allowedRoles {
			if principal.Role == allowed {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Access denied"})
	}
}

func PrincipalFrom(c *gin.Context) (*models.Principal, bool) {
	v, exists := c.Get(ctxPrincipal)
	if !exists {
		return nil, false
	}
	p, ok := v.(*models.Principal)
	return p, ok && p != nil
}

func TokenFrom(c *gin.Context) string {
	return c.GetString(ctxToken)
}

// RequestLogger injects the logger into the request and logs one line per request.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Set(ctxLogger, logger)

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error("request", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
	}
}

// LoggerFrom returns the request logger, or a no-op logger outside RequestLogger.
func LoggerFrom(c *gin.Context) *zap.Logger {
	if v, ok := c.Get(ctxLogger); ok {
		if l, ok := v.(*zap.Logger); ok {
			return l
		}
	}
	return zap.NewNop()
}
