package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tendant/scanvault/pkg/domain"
	"github.com/tendant/scanvault/pkg/session"
)

// SessionUserKey holds the JSON UserSummary of the signed-in user.
const SessionUserKey = "user"

// CallbackParams are the query parameters a provider appends to the redirect.
type CallbackParams struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// LoginResult is returned after a successful sign-in.
type LoginResult struct {
	AccessToken string             `json:"access_token"`
	TokenType   string             `json:"token_type"`
	User        domain.UserSummary `json:"user"`
}

// LoginObserver is told about every finished callback. result is "success"
// or a short failure reason.
type LoginObserver func(provider, result string)

// OAuthFlow drives the authorization-code flow for the configured providers.
type OAuthFlow struct {
	providers  map[string]ProviderAdapter
	reconciler *Reconciler
	tokens     *TokenService
	logger     *slog.Logger
	observe    LoginObserver
}

// NewOAuthFlow creates a flow over providers. observe may be nil.
func NewOAuthFlow(providers []ProviderAdapter, reconciler *Reconciler, tokens *TokenService, logger *slog.Logger, observe LoginObserver) *OAuthFlow {
	byName := make(map[string]ProviderAdapter, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	if logger == nil {
		logger = slog.Default()
	}
	if observe == nil {
		observe = func(string, string) {}
	}
	return &OAuthFlow{
		providers:  byName,
		reconciler: reconciler,
		tokens:     tokens,
		logger:     logger,
		observe:    observe,
	}
}

// Providers returns the names of the configured providers.
func (f *OAuthFlow) Providers() []string {
	names := make([]string, 0, len(f.providers))
	for name := range f.providers {
		names = append(names, name)
	}
	return names
}

// Start issues a state for provider in sess and returns the consent URL.
func (f *OAuthFlow) Start(sess *session.Session, provider string) (string, error) {
	p, ok := f.providers[provider]
	if !ok {
		return "", domain.ErrUnknownProvider
	}
	if sess == nil {
		return "", domain.ErrSessionUnavailable
	}
	state, err := IssueState(sess, provider)
	if err != nil {
		return "", fmt.Errorf("issue state: %w", err)
	}
	return p.AuthorizeURL(state), nil
}

// Callback completes the flow. The session user is written only after the
// exchange, profile fetch, reconciliation and token issuance all succeed.
func (f *OAuthFlow) Callback(ctx context.Context, sess *session.Session, provider string, params CallbackParams) (*LoginResult, error) {
	p, ok := f.providers[provider]
	if !ok {
		return nil, domain.ErrUnknownProvider
	}

	res, reason, err := f.callback(ctx, sess, p, params)
	if err != nil {
		f.observe(provider, reason)
		f.logger.Warn("oauth callback failed", "provider", provider, "reason", reason, "error", err)
		return nil, err
	}
	f.observe(provider, "success")
	f.logger.Info("oauth login", "provider", provider, "user_id", res.User.ID)
	return res, nil
}

func (f *OAuthFlow) callback(ctx context.Context, sess *session.Session, p ProviderAdapter, params CallbackParams) (*LoginResult, string, error) {
	provider := p.Name()

	if params.Error != "" {
		return nil, "provider_denied", &domain.ProviderDeniedError{
			Provider:    provider,
			Code:        params.Error,
			Description: params.ErrorDescription,
		}
	}
	if params.Code == "" || params.State == "" {
		return nil, "missing_params", domain.NewValidationError(domain.ErrMissingCallbackParams, "%s", domain.ErrMissingCallbackParams.Error())
	}
	if sess == nil {
		return nil, "no_session", domain.ErrSessionUnavailable
	}
	if !VerifyState(sess, provider, params.State) {
		return nil, "state_mismatch", domain.ErrStateMismatch
	}
	ConsumeState(sess, provider)

	accessToken, err := p.ExchangeCode(ctx, params.Code)
	if err != nil {
		return nil, "exchange_failed", err
	}

	profile, err := p.FetchProfile(ctx, accessToken)
	if err != nil {
		return nil, "profile_failed", err
	}

	user, err := f.reconciler.Upsert(ctx, provider, profile)
	if err != nil {
		return nil, "reconcile_failed", fmt.Errorf("reconcile %s account: %w", provider, err)
	}

	token, err := f.tokens.IssueForUser(user)
	if err != nil {
		return nil, "token_failed", fmt.Errorf("issue token: %w", err)
	}

	summary := user.Summary()
	raw, err := json.Marshal(summary)
	if err != nil {
		return nil, "session_failed", fmt.Errorf("encode session user: %w", err)
	}
	sess.Set(SessionUserKey, string(raw))

	return &LoginResult{AccessToken: token, TokenType: "bearer", User: summary}, "", nil
}

// SessionUser decodes the signed-in user from sess.
func SessionUser(sess *session.Session) (*domain.UserSummary, bool) {
	if sess == nil {
		return nil, false
	}
	raw, ok := sess.Get(SessionUserKey)
	if !ok || raw == "" {
		return nil, false
	}
	var u domain.UserSummary
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, false
	}
	return &u, true
}

// Logout clears the signed-in user and every pending provider state.
func (f *OAuthFlow) Logout(sess *session.Session) {
	if sess == nil {
		return
	}
	sess.Delete(SessionUserKey)
	for _, name := range []string{domain.ProviderGoogle, domain.ProviderLinkedIn, domain.ProviderFacebook} {
		ConsumeState(sess, name)
	}
	for name := range f.providers {
		ConsumeState(sess, name)
	}
}
