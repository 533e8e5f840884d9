// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, authentication, idempotency, and rate limiting.
//
// Two surfaces are mounted:
//   - /webhooks/*: called by the voice platform and the billing provider.
//     Authenticated by shared secret or signature; never rate limited.
//   - {APIBasePath}/*: the tenant dashboard API behind bearer auth.
package httpapi

import (
	"context"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-receptionist-backend/internal/blueprint"
	"github.com/tbourn/go-receptionist-backend/internal/config"
	"github.com/tbourn/go-receptionist-backend/internal/domain"
	"github.com/tbourn/go-receptionist-backend/internal/http/handlers"
	"github.com/tbourn/go-receptionist-backend/internal/http/middleware"
	"github.com/tbourn/go-receptionist-backend/internal/repo"
	"github.com/tbourn/go-receptionist-backend/internal/services"
)

// Deps are the stores and provider adapters the routes run on.
type Deps struct {
	DB *gorm.DB
	// Redis enables the shared rate limiter. Optional.
	Redis redis.Cmdable

	Assistants services.AssistantAPI
	Importer   services.NumberImporter
	Numbers    services.NumberProvider
	Checkout   services.CheckoutGateway
	Stripe     handlers.WebhookVerifier
}

// idempotencyStore adapts the repository free functions to the
// handlers.IdempotencyStore interface and the middleware lookup.
type idempotencyStore struct {
	db  *gorm.DB
	ttl time.Duration
}

// Get proxies repo.GetIdempotency; a missing or expired record is nil.
func (s idempotencyStore) Get(ctx context.Context, userID, scope, key string, now time.Time) (*domain.Idempotency, error) {
	rec, err := repo.GetIdempotency(ctx, s.db, userID, scope, key, now)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	return rec, err
}

// Save proxies repo.CreateIdempotency. A concurrent duplicate keeps the
// first stored response.
func (s idempotencyStore) Save(ctx context.Context, userID, scope, key string, status int, body []byte) error {
	_, err := repo.CreateIdempotency(ctx, s.db, userID, scope, key, status, body, s.ttl)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil
	}
	return err
}

// Exists is the middleware.IdempotencyLookup over the store.
func (s idempotencyStore) Exists(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
	rec, err := s.Get(ctx, userID, scope, key, now)
	return rec != nil, err
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter (per-route caps)
//  6. Metrics
//  7. CORS, security headers and compression
//
// The API group then adds, in order: Auth, RequireUser, the idempotency
// validator (before the limiter so replays bypass it) and the rate limiter.
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{middleware.HeaderVapiSecret, handlers.HeaderStripeSignature},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Body size limits; the voice webhook gets its own, larger cap
	r.Use(routeBodyLimits(orDefault(cfg.MaxBodyBytes, defaultMaxBody), map[string]int64{
		"/webhooks/vapi": orDefault(cfg.Vapi.MaxBodyBytes, defaultVapiMaxBody),
	}))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) CORS, security headers, compression
	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		EnablePolicy: true,
	}))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics", "/webhooks"})))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h, idem := newHandlers(deps, cfg)

	// Webhooks
	hooks := r.Group("/webhooks")
	{
		hooks.POST("/vapi", middleware.SharedSecret(middleware.HeaderVapiSecret, cfg.Vapi.WebhookSecret), h.VapiWebhook)
		hooks.POST("/stripe", h.StripeWebhook)
	}

	// Tenant API
	api := groupWithPrefix(r, cfg.APIBasePath) // e.g. "/api/v1"
	api.Use(
		middleware.Auth(middleware.AuthOptions{Secret: cfg.Auth.JWTSecret, Audience: cfg.Auth.Audience}),
		middleware.RequireUser(),
		middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, idem.Exists),
		newLimiter(deps.Redis, cfg).Handler(),
	)
	{
		// Onboarding
		api.POST("/checkout", h.Checkout)
		api.POST("/numbers", h.ProvisionNumber)

		// Account
		api.GET("/account", h.GetAccount)
		api.PUT("/account/persona", h.UpdatePersona)
		api.GET("/personas", h.ListPersonas)

		// Calls
		api.GET("/calls", h.ListCalls)
		api.GET("/calls/search", h.SearchCalls)
	}
}

// newHandlers builds the services over deps and the handler set over them.
func newHandlers(deps Deps, cfg config.Config) (*handlers.Handlers, idempotencyStore) {
	db := deps.DB
	catalog := domain.NewPersonaCatalog(cfg.Personas.Blueprints, cfg.Personas.Default)
	idem := idempotencyStore{db: db, ttl: cfg.IdempotencyTTL}

	h := handlers.New(handlers.Deps{
		Routing: &services.RoutingService{DB: db, Policy: services.RoutingPolicy{
			DefaultAssistantID:   cfg.Routing.DefaultAssistantID,
			FallbackBusinessName: cfg.Routing.FallbackBusinessName,
		}},
		Calls:    &services.CallLogService{DB: db},
		Checkout: &services.CheckoutService{DB: db, Gateway: deps.Checkout, Personas: catalog},
		Stripe:   deps.Stripe,
		Billing:  &services.BillingService{DB: db},
		Provisioning: &services.ProvisioningService{
			DB:                db,
			Numbers:           deps.Numbers,
			Importer:          deps.Importer,
			Personas:          catalog,
			MasterAssistantID: cfg.Vapi.MasterAssistantID,
			FriendlyPrefix:    cfg.Twilio.FriendlyPrefix,
		},
		Accounts: &services.AccountService{DB: db, Personas: catalog},
		Personas: &services.PersonaService{
			DB:         db,
			Assistants: deps.Assistants,
			Personas:   catalog,
			Builder:    blueprint.NewBuilder(nil, ""),
		},
		Catalog:     catalog,
		Idempotency: idem,
	})
	return h, idem
}

// newLimiter returns the Redis-backed limiter when a client is configured,
// else the in-process token bucket. The Redis budget per one-second window
// is the larger of the refill rate and the burst.
func newLimiter(rdb redis.Cmdable, cfg config.Config) middleware.Limiter {
	if rdb == nil {
		return middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	}
	limit := int(math.Ceil(cfg.RateRPS))
	if cfg.RateBurst > limit {
		limit = cfg.RateBurst
	}
	return middleware.NewRedisLimiter(rdb, limit, time.Second, middleware.KeyByUserOrIP())
}

// corsMiddleware allows any origin when none are configured, else echoes
// allow-listed origins.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	base := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderUserID, middleware.HeaderIdempotencyKey},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag", handlers.HeaderIdempotencyReplayed},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}

	if len(origins) == 0 {
		base.AllowAllOrigins = true
		// Force ACAO: * even for requests without an Origin header.
		return []gin.HandlerFunc{
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(base),
		}
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	base.AllowOrigins = origins
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(base),
	}
}

// Body caps used when the config leaves them unset.
const (
	defaultMaxBody     int64 = 1 << 20
	defaultVapiMaxBody int64 = 16 << 20
)

func orDefault(n, def int64) int64 {
	if n <= 0 {
		return def
	}
	return n
}

// routeBodyLimits caps the request body at def using http.MaxBytesReader, or
// at perRoute[FullPath] for the routes listed there. Requests exceeding the
// cap cause downstream body reads to error.
func routeBodyLimits(def int64, perRoute map[string]int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		n := def
		if v, ok := perRoute[c.FullPath()]; ok {
			n = v
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
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
