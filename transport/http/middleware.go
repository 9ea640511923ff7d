package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/walletgate/core"
	"github.com/layer-3/walletgate/internal/metrics"
	"github.com/layer-3/walletgate/service"
)

const walletKey = "wallet"

type identityContextKey struct{}

// Guard protects routes with wallet credentials
type Guard struct {
	authService *service.AuthService
	metrics     metrics.Recorder
	logger      *slog.Logger
}

// NewGuard creates a guard validating credentials with authService
func NewGuard(authService *service.AuthService, recorder metrics.Recorder, logger *slog.Logger) *Guard {
	return &Guard{
		authService: authService,
		metrics:     recorder,
		logger:      logger.With("component", "guard"),
	}
}

// RequireWallet rejects requests without a valid credential with 401
func (g *Guard) RequireWallet() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := g.authenticate(c, metrics.GuardStrict)
		if !ok {
			c.String(http.StatusUnauthorized, "Unauthorized")
			c.Abort()
			return
		}

		bindIdentity(c, identity)
		c.Next()
	}
}

// OptionalWallet binds the wallet when a valid credential is presented and
// lets every request through
func (g *Guard) OptionalWallet() gin.HandlerFunc {
	return func(c *gin.Context) {
		if identity, ok := g.authenticate(c, metrics.GuardPermissive); ok {
			bindIdentity(c, identity)
		}
		c.Next()
	}
}

func (g *Guard) authenticate(c *gin.Context, mode string) (core.Identity, bool) {
	token := extractToken(c.GetHeader("Authorization"))
	if token == "" {
		if mode == metrics.GuardStrict {
			g.reject(c, mode, "missing credential", "")
		} else {
			g.metrics.RecordGuardDecision(mode, metrics.GuardAnonymous)
		}
		return core.Identity{}, false
	}

	identity, err := g.authService.ValidateCredential(c.Request.Context(), token)
	if err != nil {
		reason := "malformed credential"
		if errors.Is(err, core.ErrExpiredCredential) {
			reason = "expired credential"
		}
		g.reject(c, mode, reason, g.authService.ClaimedIdentity(token))
		return core.Identity{}, false
	}

	g.metrics.RecordGuardDecision(mode, metrics.GuardAuthenticated)
	return identity, true
}

func (g *Guard) reject(c *gin.Context, mode, reason, claimed string) {
	outcome := metrics.GuardRejected
	if mode == metrics.GuardPermissive {
		outcome = metrics.GuardAnonymous
	}
	g.metrics.RecordGuardDecision(mode, outcome)

	attrs := []any{"mode", mode, "reason", reason, "path", c.Request.URL.Path}
	if claimed != "" {
		attrs = append(attrs, "claimed", claimed)
	}
	g.logger.Warn("credential rejected", attrs...)
}

// extractToken accepts both "Bearer <token>" and a bare token
func extractToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		header = strings.TrimSpace(header[7:])
	}
	return header
}

func bindIdentity(c *gin.Context, identity core.Identity) {
	c.Set(walletKey, identity)
	c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), identityContextKey{}, identity))
}

// WalletFromContext returns the identity bound by a guard
func WalletFromContext(c *gin.Context) (core.Identity, bool) {
	v, ok := c.Get(walletKey)
	if !ok {
		return core.Identity{}, false
	}
	identity, ok := v.(core.Identity)
	return identity, ok
}

// IdentityFromContext returns the identity bound by a guard to the request context
func IdentityFromContext(ctx context.Context) (core.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey{}).(core.Identity)
	return identity, ok
}

// RequestLogger logs one line per request
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", float64(time.Since(start).Nanoseconds()) / float64(time.Millisecond),
			"client_ip", c.ClientIP(),
		}
		if identity, ok := WalletFromContext(c); ok {
			attrs = append(attrs, "wallet", identity.PublicKey)
		}

		level := slog.LevelInfo
		if status >= 500 {
			level = slog.LevelError
		} else if status >= 400 {
			level = slog.LevelWarn
		}
		logger.Log(c.Request.Context(), level, "http_request", attrs...)
	}
}

// CORS sets cross-origin headers for the allowed origins. "*" allows any origin.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	allowAny := false
	allowed := map[string]struct{}{}
	for _, o := range allowedOrigins {
		o = strings.TrimSpace(o)
		if o == "*" {
			allowAny = true
		}
		allowed[strings.ToLower(o)] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			if allowAny {
				c.Header("Access-Control-Allow-Origin", "*")
			} else if _, ok := allowed[strings.ToLower(origin)]; ok {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
			c.Header("Access-Control-Max-Age", "86400")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
