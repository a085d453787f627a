package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/codevault/codevault/internal/config"
	"github.com/codevault/codevault/internal/http/features/extract"
	"github.com/codevault/codevault/internal/http/features/settings"
	vaultfeature "github.com/codevault/codevault/internal/http/features/vault"
	"github.com/codevault/codevault/internal/http/middleware"
	"github.com/codevault/codevault/internal/httputil"
	"github.com/codevault/codevault/pkg/vault"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger          *slog.Logger
	VaultService    *vault.VaultService
	KeyService      *vault.KeyService
	JWTSecret       []byte
	RateLimitConfig config.RateLimitConfig
	SecurityHeaders config.SecurityHeadersConfig
	Validation      config.ValidationConfig
}

// NewRouter creates a new HTTP router with all routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(middleware.Recover(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.SecurityHeaders(cfg.SecurityHeaders))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Create rate limiters for different endpoint types
	rateLimiters := middleware.CreateRateLimiters(cfg.RateLimitConfig, cfg.Logger)

	auth := middleware.Auth(cfg.JWTSecret)

	// Vault routes
	vaultHandler := vaultfeature.NewHandler(cfg.Logger, cfg.VaultService)
	r.Group(func(r chi.Router) {
		r.Use(auth)
		r.Use(rateLimiters["vault"])
		r.Use(middleware.RequestSizeLimit(cfg.Validation.MaxRequestBodySize))
		r.Post("/v1/vault", vaultHandler.Create)
		r.Get("/v1/vault", vaultHandler.List)
		r.Get("/v1/vault/{domainID}", vaultHandler.Get)
		r.Put("/v1/vault/{domainID}/codes/{codeID}", vaultHandler.UpdateCodeStatus)
		r.Delete("/v1/vault/{domainID}", vaultHandler.Delete)
	})

	// Upload/extract route carries its own, larger body limit.
	extractHandler := extract.NewHandler(cfg.Logger, cfg.Validation.MaxUploadSize)
	r.Group(func(r chi.Router) {
		r.Use(auth)
		r.Use(rateLimiters["upload"])
		r.Use(middleware.RequestSizeLimit(cfg.Validation.MaxUploadSize))
		r.Post("/v1/vault/extract", extractHandler.Extract)
	})

	// Settings routes
	settingsHandler := settings.NewHandler(cfg.Logger, cfg.KeyService)
	r.Group(func(r chi.Router) {
		r.Use(auth)
		r.Use(rateLimiters["rotate"])
		r.Use(middleware.RequestSizeLimit(cfg.Validation.MaxRequestBodySize))
		r.Post("/v1/me/key/rotate", settingsHandler.RotateKey)
	})

	return r
}
