package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"voice-dashboard/internal/auth"
	"voice-dashboard/internal/provider"
	"voice-dashboard/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const defaultMaxBodyBytes = 1 << 20

// RouterOptions holds the cross-cutting settings for NewRouter.
type RouterOptions struct {
	Logger      *slog.Logger
	CORSOrigins []string

	// Nil disables login/register rate limiting.
	Redis           *redis.Client
	LoginRateLimit  int
	LoginRateWindow time.Duration

	Webhook      provider.WebhookHandler
	MaxBodyBytes int64
}

// NewRouter wires every route onto a fresh gin engine.
// Keep this free of business logic; handlers delegate to internal services.
func NewRouter(h Handlers, opts RouterOptions) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}

	r := gin.New()
	r.Use(logger.Middleware(opts.Logger))
	r.Use(Recovery())
	r.Use(CORS(opts.CORSOrigins))
	r.Use(ClientIP())
	r.Use(BodyLimit(opts.MaxBodyBytes))

	// public
	r.GET("/health", h.Health)
	r.GET("/healthz", h.Ready)
	if opts.Webhook.Sink != nil {
		r.POST("/webhooks/provider/calls", opts.Webhook.HandleCallStatus)
	}

	requireSession := auth.RequireSession(h.Auth)
	limit := RateLimit(opts.Redis, "auth", opts.LoginRateLimit, opts.LoginRateWindow)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", limit, h.Register)
		authGroup.POST("/login", limit, h.Login)
		authGroup.POST("/logout", auth.OptionalSession(h.Auth), h.Logout)
		authGroup.GET("/me", requireSession, h.Me)
	}

	calls := api.Group("/calls", requireSession)
	{
		calls.GET("", h.ListCalls)
		calls.POST("", h.CreateCall)
		calls.GET("/stats/summary", h.CallStats)
		calls.GET("/:id", h.GetCall)
		calls.GET("/:id/transcript", h.CallTranscript)
		calls.GET("/:id/recording", h.CallRecording)
	}

	pathways := api.Group("/pathways", requireSession)
	{
		pathways.GET("", h.ListPathways)
		pathways.POST("", h.CreatePathway)
		pathways.GET("/:id", h.GetPathway)
		pathways.PUT("/:id", h.UpdatePathway)
		pathways.DELETE("/:id", h.DeletePathway)
	}

	kbs := api.Group("/knowledge-bases", requireSession)
	{
		kbs.GET("", h.ListKnowledgeBases)
		kbs.POST("", h.CreateKnowledgeBase)
		kbs.GET("/:id", h.GetKnowledgeBase)
		kbs.PUT("/:id", h.UpdateKnowledgeBase)
		kbs.DELETE("/:id", h.DeleteKnowledgeBase)
	}

	user := api.Group("/user", requireSession)
	{
		user.GET("/profile", h.GetProfile)
		user.PUT("/profile", h.UpdateProfile)
		user.DELETE("/account", h.DeleteAccount)
	}

	prov := api.Group("/provider", requireSession)
	{
		prov.GET("/voices", h.ListVoices)
		prov.GET("/analytics", h.Analytics)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	})
	return r
}
