package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/tendant/scanvault/internal/config"
	"github.com/tendant/scanvault/internal/http/features/documents"
	"github.com/tendant/scanvault/internal/http/features/me"
	"github.com/tendant/scanvault/internal/http/features/oauth"
	"github.com/tendant/scanvault/internal/http/features/password"
	"github.com/tendant/scanvault/internal/http/middleware"
	"github.com/tendant/scanvault/internal/httputil"
	"github.com/tendant/scanvault/internal/metrics"
	"github.com/tendant/scanvault/pkg/auth"
	documentsvc "github.com/tendant/scanvault/pkg/documents"
	"github.com/tendant/scanvault/pkg/session"
)

const banner = "Authentication and Document API. Use /auth and /api/documents endpoints."

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger          *slog.Logger
	PasswordService *auth.PasswordService
	TokenService    *auth.TokenService
	OAuthFlow       *auth.OAuthFlow
	DocumentService *documentsvc.Service
	SessionStore    session.Store
	Metrics         *metrics.Metrics
	Session         config.SessionConfig
	RateLimitConfig config.RateLimitConfig
	SecurityHeaders config.SecurityHeadersConfig
	Validation      config.ValidationConfig
	CORS            config.CORSConfig
}

// NewRouter creates a new HTTP router with all routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recover(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.SecurityHeaders(cfg.SecurityHeaders))
	r.Use(middleware.RequestSizeLimit(cfg.Validation.MaxRequestBodySize))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{"message": banner})
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	// Create rate limiters for different endpoint types
	rateLimiters := middleware.CreateRateLimiters(cfg.RateLimitConfig, cfg.Logger)

	// Local credentials
	var observeReset password.ResetObserver
	if cfg.Metrics != nil {
		observeReset = cfg.Metrics.ObserveResetCode
	}
	passwordHandler := password.NewHandler(cfg.Logger, cfg.PasswordService, cfg.TokenService, observeReset)
	r.Group(func(r chi.Router) {
		r.Use(rateLimiters[middleware.LimitAuth])
		r.Post("/auth/register", passwordHandler.Register)
		r.Post("/auth/login", passwordHandler.Login)
	})
	r.Group(func(r chi.Router) {
		r.Use(rateLimiters[middleware.LimitReset])
		r.Post("/auth/forgot-password", passwordHandler.ForgotPassword)
		r.Post("/auth/reset-password", passwordHandler.ResetPassword)
	})

	// Profile (Bearer token)
	meHandler := me.NewHandler(cfg.Logger, cfg.PasswordService)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.TokenService))
		r.Get("/auth/profiles", meHandler.GetMe)
		r.Put("/auth/profiles", meHandler.UpdateMe)
	})

	// Provider login and the session-backed endpoints
	oauthHandler := oauth.NewHandler(cfg.OAuthFlow, cfg.Logger)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(middleware.SessionConfig{
			Store:  cfg.SessionStore,
			MaxAge: cfg.Session.MaxAge,
			Cookie: sessionCookie(cfg.Session),
			Logger: cfg.Logger,
		}))
		r.Get("/profile", oauthHandler.Profile)
		r.Get("/logout", oauthHandler.Logout)
		r.Group(func(r chi.Router) {
			r.Use(rateLimiters[middleware.LimitOAuth])
			r.Get("/auth/{provider}", oauthHandler.Start)
			r.Get("/auth/{provider}/callback", oauthHandler.Callback)
		})
	})

	// Documents (Bearer token)
	documentsHandler := documents.NewHandler(cfg.Logger, cfg.DocumentService)
	r.Route("/api/documents", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.TokenService))
		r.Mount("/", documentsHandler.Routes())
	})

	return r
}

func sessionCookie(cfg config.SessionConfig) httputil.CookieConfig {
	c := httputil.DefaultCookieConfig(cfg.CookieName)
	c.Secure = cfg.CookieSecure
	return c
}
