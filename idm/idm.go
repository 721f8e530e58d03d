// Package idm assembles the scanvault service from configuration: stores,
// session store, mail transport, OAuth providers, services and the HTTP
// router.
//
// Basic usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	app, err := idm.New(ctx, cfg, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer app.Close(context.Background())
//	http.ListenAndServe(":8000", app.Handler())
package idm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/tendant/scanvault/internal/config"
	httpserver "github.com/tendant/scanvault/internal/http"
	"github.com/tendant/scanvault/internal/http/middleware"
	"github.com/tendant/scanvault/internal/metrics"
	"github.com/tendant/scanvault/internal/notification"
	"github.com/tendant/scanvault/pkg/auth"
	"github.com/tendant/scanvault/pkg/documents"
	"github.com/tendant/scanvault/pkg/repository"
	"github.com/tendant/scanvault/pkg/repository/memstore"
	"github.com/tendant/scanvault/pkg/repository/mongostore"
	"github.com/tendant/scanvault/pkg/session"
)

// IDM is an assembled service instance.
type IDM struct {
	config *config.Config
	logger *slog.Logger

	users     repository.UserStore
	documents repository.DocumentStore
	sessions  session.Store
	mailer    auth.Mailer

	tokenService    *auth.TokenService
	passwordService *auth.PasswordService
	documentService *documents.Service
	oauthFlow       *auth.OAuthFlow
	metrics         *metrics.Metrics
	registry        *prometheus.Registry

	closers []func(context.Context) error
}

// New connects the configured backends and builds the services.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*IDM, error) {
	if cfg == nil {
		return nil, errors.New("idm: config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	i := &IDM{config: cfg, logger: logger}

	if err := i.openStores(ctx); err != nil {
		i.Close(ctx)
		return nil, err
	}
	if err := i.openSessions(ctx); err != nil {
		i.Close(ctx)
		return nil, err
	}
	if err := i.openMailer(); err != nil {
		i.Close(ctx)
		return nil, err
	}

	i.registry = prometheus.NewRegistry()
	i.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	i.metrics = metrics.New(i.registry)

	i.tokenService = auth.NewTokenService(auth.TokenConfig{
		Secret: []byte(cfg.JWTSecret),
		TTL:    cfg.AccessTokenTTL,
		Issuer: cfg.JWTIssuer,
	})
	otpService := auth.NewOTPService(i.users, auth.OTPConfig{
		Pepper: cfg.Pepper(),
		TTL:    cfg.OTPTTL,
	})
	i.passwordService = auth.NewPasswordService(i.users, otpService, i.mailer, auth.PasswordServiceOptions{
		Policy:                auth.NewPasswordPolicy(cfg.PasswordPolicy),
		StrictEmailValidation: cfg.Validation.StrictEmailValidation,
		BlockDisposableEmail:  cfg.Validation.BlockDisposableEmail,
		Logger:                logger,
	})
	i.documentService = documents.NewService(i.documents)
	i.oauthFlow = auth.NewOAuthFlow(Providers(cfg), auth.NewReconciler(i.users), i.tokenService, logger, i.metrics.ObserveOAuthLogin)

	logger.Info("service assembled",
		"store", cfg.StoreDriver,
		"sessions", cfg.Session.Store,
		"mail", cfg.Mail.Transport,
		"providers", i.oauthFlow.Providers(),
	)
	return i, nil
}

func (i *IDM) openStores(ctx context.Context) error {
	cfg := i.config
	switch cfg.StoreDriver {
	case config.StorePostgres:
		db, err := repository.NewDB(ctx, cfg.PostgresDSN())
		if err != nil {
			return fmt.Errorf("idm: connect postgres: %w", err)
		}
		i.closers = append(i.closers, func(context.Context) error { return db.Close() })
		if err := repository.EnsureSchema(ctx, db); err != nil {
			return fmt.Errorf("idm: %w", err)
		}
		i.users = repository.NewUsersRepository(db)
		i.documents = repository.NewDocumentsRepository(db)
		if cfg.Session.Store == config.SessionPostgres {
			i.sessions = repository.NewSessionsRepository(db)
		}
	case config.StoreMongo:
		store, err := mongostore.NewStore(ctx, cfg.MongoURL, cfg.DBName)
		if err != nil {
			return fmt.Errorf("idm: connect mongo: %w", err)
		}
		i.closers = append(i.closers, store.Close)
		if err := store.Ping(ctx); err != nil {
			return fmt.Errorf("idm: ping mongo: %w", err)
		}
		if err := store.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("idm: mongo indexes: %w", err)
		}
		i.users = store.Users()
		i.documents = store.Documents()
	case config.StoreMemory:
		i.logger.Warn("using in-memory store, data is lost on restart")
		i.users = memstore.NewUsers()
		i.documents = memstore.NewDocuments()
	default:
		return fmt.Errorf("idm: unknown store driver %q", cfg.StoreDriver)
	}
	return nil
}

func (i *IDM) openSessions(ctx context.Context) error {
	cfg := i.config.Session
	switch cfg.Store {
	case config.SessionMemory:
		i.sessions = session.NewMemoryStore()
	case config.SessionRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		i.closers = append(i.closers, func(context.Context) error { return client.Close() })
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("idm: ping redis: %w", err)
		}
		i.sessions = session.NewRedisStore(client, cfg.RedisPrefix)
	case config.SessionPostgres:
		if i.sessions == nil {
			return errors.New("idm: postgres sessions need the postgres store")
		}
	default:
		return fmt.Errorf("idm: unknown session store %q", cfg.Store)
	}
	return nil
}

func (i *IDM) openMailer() error {
	cfg := i.config
	switch cfg.Mail.Transport {
	case config.MailSMTP:
		if !cfg.HasSMTP() {
			i.logger.Warn("SMTP is not configured, reset codes are logged instead of sent")
			i.mailer = notification.NewLogMailer(i.logger)
			return nil
		}
		i.mailer = notification.NewEmailService(notification.EmailConfig{
			Host:     cfg.Mail.SMTPServer,
			Port:     cfg.Mail.SMTPPort,
			User:     cfg.Mail.SMTPEmail,
			Password: cfg.Mail.SMTPPassword,
			FromName: cfg.Mail.FromName,
		})
	case config.MailAMQP:
		m, err := notification.NewRabbitMailer(cfg.Mail.AMQPURL, cfg.Mail.AMQPExchange)
		if err != nil {
			return fmt.Errorf("idm: connect amqp: %w", err)
		}
		i.closers = append(i.closers, func(context.Context) error { return m.Close() })
		i.mailer = m
	case config.MailLog:
		i.mailer = notification.NewLogMailer(i.logger)
	default:
		return fmt.Errorf("idm: unknown mail transport %q", cfg.Mail.Transport)
	}
	return nil
}

// Providers builds an adapter for every provider with credentials set.
func Providers(cfg *config.Config) []auth.ProviderAdapter {
	var providers []auth.ProviderAdapter
	client := &http.Client{Timeout: cfg.ProviderTimeout}
	if cfg.HasGoogleOAuth() {
		providers = append(providers, auth.NewGoogleProvider(auth.ProviderConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURI,
			HTTPClient:   client,
		}))
	}
	if cfg.HasLinkedInOAuth() {
		providers = append(providers, auth.NewLinkedInProvider(auth.ProviderConfig{
			ClientID:     cfg.LinkedInClientID,
			ClientSecret: cfg.LinkedInClientSecret,
			RedirectURL:  cfg.LinkedInRedirectURI,
			HTTPClient:   client,
		}))
	}
	if cfg.HasFacebookOAuth() {
		providers = append(providers, auth.NewFacebookProvider(auth.ProviderConfig{
			ClientID:     cfg.FacebookAppID,
			ClientSecret: cfg.FacebookAppSecret,
			RedirectURL:  cfg.FacebookRedirectURI,
			HTTPClient:   client,
		}))
	}
	return providers
}

// Handler returns the HTTP handler with every route mounted.
func (i *IDM) Handler() http.Handler {
	return httpserver.NewRouter(httpserver.RouterConfig{
		Logger:          i.logger,
		PasswordService: i.passwordService,
		TokenService:    i.tokenService,
		OAuthFlow:       i.oauthFlow,
		DocumentService: i.documentService,
		SessionStore:    i.sessions,
		Metrics:         i.metrics,
		Session:         i.config.Session,
		RateLimitConfig: i.config.RateLimit,
		SecurityHeaders: i.config.SecurityHeaders,
		Validation:      i.config.Validation,
		CORS:            i.config.CORS,
	})
}

// SweepExpiredSessions deletes expired sessions every interval until ctx is
// done. Stores that expire entries on their own are left alone.
func (i *IDM) SweepExpiredSessions(ctx context.Context, interval time.Duration) {
	sweeper, ok := i.sessions.(interface {
		DeleteExpired(ctx context.Context) (int64, error)
	})
	if !ok {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sweeper.DeleteExpired(ctx)
			if err != nil {
				i.logger.Error("failed to sweep expired sessions", "error", err)
				continue
			}
			if n > 0 {
				i.logger.Debug("swept expired sessions", "count", n)
			}
		}
	}
}

// SessionStore returns the store backing browser sessions.
func (i *IDM) SessionStore() session.Store {
	return i.sessions
}

// AuthMiddleware returns middleware that requires a Bearer identity token.
// Use this to protect your own routes:
//
//	r.Group(func(r chi.Router) {
//	    r.Use(app.AuthMiddleware())
//	    r.Get("/protected", handler)
//	})
func (i *IDM) AuthMiddleware() func(http.Handler) http.Handler {
	return middleware.Auth(i.tokenService)
}

// GetUserIDFromContext extracts the user ID set by AuthMiddleware.
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	return middleware.GetUserID(ctx)
}

// Close releases backend connections in reverse order of opening.
func (i *IDM) Close(ctx context.Context) error {
	var errs []error
	for n := len(i.closers) - 1; n >= 0; n-- {
		if err := i.closers[n](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	i.closers = nil
	return errors.Join(errs...)
}
