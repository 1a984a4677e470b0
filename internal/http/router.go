// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - The form routes keep their legacy paths and envelope so the deployed
//     front end keeps working unchanged
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/ewg-studio/go-site-backend/internal/cache"
	"github.com/ewg-studio/go-site-backend/internal/config"
	"github.com/ewg-studio/go-site-backend/internal/http/handlers"
	"github.com/ewg-studio/go-site-backend/internal/http/middleware"
	"github.com/ewg-studio/go-site-backend/internal/mail"
	"github.com/ewg-studio/go-site-backend/internal/services"
	"github.com/ewg-studio/go-site-backend/internal/storage"
)

// Deps bundles the injected infrastructure the routes are built on. Every
// field behind an interface can be swapped for a fake in tests.
type Deps struct {
	DB        *gorm.DB
	Cache     *cache.Store
	Files     *storage.Staging
	Validator services.EmailValidator
	Mailer    mail.Sender
	Instagram services.InstagramAPI
	Square    services.SquareAPI
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine: observability (tracing, metrics), rate limiting, CORS and security
// headers, health and metrics endpoints, the legacy form routes at the root,
// and the catalog proxy under /api.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter (sized for multipart attachment uploads)
//  6. Metrics
//  7. Rate limiter (per client IP; the site has no user accounts)
//  8. CORS and Security headers
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction. The form routes carry visitor
	// emails and phone numbers, so scrubbing is not optional here.
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit, sized for the attachment upload cap
	r.Use(limitBody(cfg.MaxUploadBytes))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Token-bucket rate limiter per client IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClientIP())
	r.Use(rl.Handler())

	// 8) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
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
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
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
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "route not found"})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"success": false, "message": "method not allowed"})
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Optional Swagger UI
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← clients/db/staging
	contactSvc := &services.ContactService{
		Validator:   deps.Validator,
		Mailer:      deps.Mailer,
		Inbox:       cfg.ContactInbox,
		NoReplyFrom: cfg.NoReplyFrom,
	}
	newsSvc := &services.NewsletterService{
		DB:          deps.DB,
		Validator:   deps.Validator,
		Mailer:      deps.Mailer,
		Inbox:       cfg.ContactInbox,
		NoReplyFrom: cfg.NoReplyFrom,
	}
	catalogSvc := &services.CatalogService{
		Cache:     deps.Cache,
		Instagram: deps.Instagram,
		Square:    deps.Square,
		PageSize:  cfg.InstagramPageSize,
	}

	contact := &handlers.ContactHandler{Svc: contactSvc, Files: deps.Files}
	news := &handlers.NewsletterHandler{Svc: newsSvc}
	catalog := &handlers.CatalogHandler{Svc: catalogSvc}
	uploads := &handlers.UploadHandler{Files: deps.Files}

	// Legacy form routes (paths are part of the front-end contract)
	r.POST("/send-email", contact.SendEmail)
	r.POST("/send-email/newsletter-sub", news.Subscribe)
	r.POST("/send-email/news-unsubscribe", news.Unsubscribe)
	r.DELETE("/uploads/:filename", uploads.Delete)

	// Catalog proxy. Payloads are JSON lists that compress well, so the group
	// is served gzipped.
	api := r.Group("/api", gzip.Gzip(gzip.DefaultCompression))
	{
		api.GET("/instagram", catalog.Instagram)
		api.GET("/instagram/:after", catalog.InstagramAfter)
		api.GET("/square", catalog.Square)
		api.GET("/square_images", catalog.SquareImages)
		api.POST("/square_item_stock", catalog.SquareStock)
		api.POST("/checkout", catalog.Checkout)
		api.GET("/data", catalog.Data)
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
