// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/config"
	"github.com/tbourn/go-social-backend/internal/http/handlers"
	"github.com/tbourn/go-social-backend/internal/http/middleware"
	"github.com/tbourn/go-social-backend/internal/otp"
	"github.com/tbourn/go-social-backend/internal/realtime"
	"github.com/tbourn/go-social-backend/internal/repo"
	"github.com/tbourn/go-social-backend/internal/security"
	"github.com/tbourn/go-social-backend/internal/services"
)

// Deps carries the shared infrastructure the router wires into services.
type Deps struct {
	DB     *gorm.DB
	Codes  otp.Store
	Tokens *security.TokenManager
	Hub    *realtime.Hub
	Mail   services.Mailer
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Gzip compression
//  7. Metrics
//  8. Rate limiter (per user/IP, bypass on replay)
//  9. CORS and Security headers
//
// Authentication and the idempotency validator are attached per route group:
// the validator needs the authenticated user ID to scope replay lookups.
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	db := deps.DB

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-API-Key", // project-specific sensitive header example
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Compress responses for clients that accept it
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Interactive API docs (opt-in)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/hub
	notifSvc := &services.NotificationService{DB: db, Push: deps.Hub}
	friendSvc := &services.FriendshipService{DB: db, Notifier: notifSvc}
	msgSvc := &services.DirectMessageService{
		DB:              db,
		Links:           friendSvc,
		Notifier:        notifSvc,
		MaxContentRunes: cfg.MaxMessageRunes,
	}
	callSvc := &services.CallService{DB: db, Notifier: notifSvc}
	postSvc := &services.PostService{
		DB:              db,
		Notifier:        notifSvc,
		MaxContentRunes: cfg.MaxPostRunes,
	}
	userSvc := &services.UserService{DB: db, NameLocale: language.English}
	authSvc := &services.AuthService{
		DB:         db,
		Codes:      deps.Codes,
		Tokens:     deps.Tokens,
		Mail:       deps.Mail,
		CodeTTL:    cfg.Auth.OTPTTL,
		CodeLength: cfg.Auth.OTPLength,
	}

	h := handlers.New(authSvc, userSvc, friendSvc, msgSvc, callSvc, notifSvc, postSvc, db, cfg.IdempotencyTTL)

	// Realtime push channel (token via query param or Authorization header)
	gw := realtime.NewGateway(deps.Hub, deps.Tokens, cfg.WSSendBuffer)
	r.GET("/ws", gw.Handler())

	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)

	// Unauthenticated auth flows
	api.POST("/auth/register", h.Register)
	api.POST("/auth/confirm", h.ConfirmEmail)
	api.POST("/auth/login", h.Login)
	api.POST("/auth/password/forgot", h.ForgotPassword)
	api.POST("/auth/password/reset", h.ResetPassword)

	// Everything else requires a bearer token. The idempotency validator runs
	// after authentication so replay lookups are scoped to the real user.
	authed := api.Group("")
	authed.Use(middleware.RequireAuth(deps.Tokens, cfg.GinMode == "debug"))
	authed.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, userID uint, scope, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))
	{
		// Profiles
		authed.GET("/me", h.GetMe)
		authed.PUT("/me", h.UpdateMe)
		authed.GET("/users/:id", h.GetUser)
		authed.GET("/users/:id/posts", h.ListUserPosts)

		// Friendships
		authed.POST("/friendships", h.SendFriendRequest)
		authed.PUT("/friendships/:id", h.RespondFriendRequest)
		authed.GET("/friendships", h.ListFriendships)
		authed.GET("/friends", h.ListFriends)
		authed.GET("/friends/status/:userID", h.FriendshipStatus)

		// Direct messages
		authed.POST("/messages", h.SendMessage)
		authed.GET("/messages", h.ListMessages)
		authed.DELETE("/messages/:id", h.DeleteMessage)
		authed.GET("/conversations/:userID", h.GetConversation)

		// Calls
		authed.POST("/calls", h.InitiateCall)
		authed.PUT("/calls/:id/status", h.UpdateCallStatus)
		authed.GET("/calls", h.ListCalls)

		// Notifications
		authed.GET("/notifications", h.ListNotifications)
		authed.GET("/notifications/unread_count", h.UnreadCount)
		authed.PUT("/notifications/read/:id", h.MarkNotificationRead)

		// Posts, comments, likes
		authed.POST("/posts", h.CreatePost)
		authed.GET("/posts/:id", h.GetPost)
		authed.PUT("/posts/:id", h.UpdatePost)
		authed.DELETE("/posts/:id", h.DeletePost)
		authed.POST("/posts/:id/comments", h.AddComment)
		authed.GET("/posts/:id/comments", h.ListPostComments)
		authed.POST("/posts/:id/like", h.LikePost)
		authed.DELETE("/posts/:id/like", h.UnlikePost)
		authed.GET("/posts/:id/likes", h.PostLikeCount)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
