package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/walletgate/internal/metrics"
	"github.com/layer-3/walletgate/ports"
	"github.com/layer-3/walletgate/service"
	"github.com/prometheus/client_golang/prometheus"
)

// Banner is served at the root path
const Banner = "Walletgate Service Online"

// RouterDeps is everything the router wires together
type RouterDeps struct {
	AuthService *service.AuthService
	Store       ports.Store
	Logger      *slog.Logger

	// CommentsEnabled gates POST /comment/post
	CommentsEnabled bool

	// Recorder defaults to metrics.Nop
	Recorder metrics.Recorder
	// Gatherer serves MetricsPath when set
	Gatherer    prometheus.Gatherer
	MetricsPath string

	// Limiter guards the /jwt routes when set
	Limiter        *RateLimiter
	AllowedOrigins []string
}

// SetupRouter sets up the Gin router
func SetupRouter(deps RouterDeps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Recorder == nil {
		deps.Recorder = metrics.Nop{}
	}
	if len(deps.AllowedOrigins) == 0 {
		deps.AllowedOrigins = []string{"*"}
	}

	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(deps.Logger), CORS(deps.AllowedOrigins))

	handlers := NewAuthHandlers(deps.AuthService, deps.Recorder, deps.Logger)
	users := NewUserHandlers(deps.Store, deps.Logger)
	comments := NewCommentHandlers(deps.Store, deps.CommentsEnabled, deps.Logger)
	guard := NewGuard(deps.AuthService, deps.Recorder, deps.Logger)

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, Banner)
	})
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.Gatherer != nil {
		path := deps.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.GET(path, gin.WrapH(metrics.Handler(deps.Gatherer)))
	}

	router.GET("/whoami", guard.OptionalWallet(), func(c *gin.Context) {
		identity, ok := WalletFromContext(c)
		if !ok {
			c.JSON(http.StatusOK, gin.H{"wallet": nil, "authenticated": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"wallet": identity.PublicKey, "authenticated": true})
	})

	// Auth routes
	auth := router.Group("/jwt")
	if deps.Limiter != nil {
		auth.Use(deps.Limiter.Middleware())
	}
	{
		auth.GET("/challenge/:publicKey", handlers.Challenge)
		auth.GET("/get", handlers.Get)
	}

	// Profile routes
	user := router.Group("/user")
	{
		user.GET("/me", guard.RequireWallet(), users.Me)
		user.POST("/assign", guard.RequireWallet(), users.Assign)
		user.GET("/get/:pubkey", users.Get)
	}

	// Comment routes
	comment := router.Group("/comment")
	{
		comment.POST("/post", guard.RequireWallet(), comments.Post)
		comment.GET("/get/:pubkey", comments.ByMint)
		comment.GET("/user/:pubkey", comments.ByUser)
	}

	return router
}
