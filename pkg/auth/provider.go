package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tendant/scanvault/pkg/domain"
	"golang.org/x/oauth2"
)

// DefaultProviderTimeout bounds every outbound call to a provider.
const DefaultProviderTimeout = 10 * time.Second

// Profile is the normalized identity a provider reports.
type Profile struct {
	ExternalID string
	Email      string
	FirstName  string
	LastName   string
	Picture    string
	Extra      map[string]string
}

// ProviderAdapter speaks one provider's authorization-code flow.
type ProviderAdapter interface {
	Name() string
	// AuthorizeURL builds the consent URL carrying state.
	AuthorizeURL(state string) string
	// ExchangeCode trades the callback code for an access token.
	// Failures wrap domain.ErrTokenExchangeFailed.
	ExchangeCode(ctx context.Context, code string) (string, error)
	// FetchProfile reads the user's profile. Failures wrap
	// domain.ErrProfileFetchFailed or domain.ErrMissingEmail.
	FetchProfile(ctx context.Context, accessToken string) (*Profile, error)
}

// ProviderConfig holds one provider's client registration. Empty endpoint
// URLs fall back to the provider's public endpoints.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	AuthURL     string
	TokenURL    string
	UserInfoURL string

	// HTTPClient defaults to a client with DefaultProviderTimeout.
	HTTPClient *http.Client
}

// oauthProvider holds the parts every adapter shares.
type oauthProvider struct {
	name        string
	oauth       *oauth2.Config
	userInfoURL string
	client      *http.Client
	authOpts    []oauth2.AuthCodeOption
}

func newOAuthProvider(name string, cfg ProviderConfig, defaults ProviderConfig, scopes []string) oauthProvider {
	authURL := firstNonEmpty(cfg.AuthURL, defaults.AuthURL)
	tokenURL := firstNonEmpty(cfg.TokenURL, defaults.TokenURL)
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: DefaultProviderTimeout}
	}
	return oauthProvider{
		name: name,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   authURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		userInfoURL: firstNonEmpty(cfg.UserInfoURL, defaults.UserInfoURL),
		client:      client,
	}
}

func (p *oauthProvider) Name() string {
	return p.name
}

func (p *oauthProvider) AuthorizeURL(state string) string {
	return p.oauth.AuthCodeURL(state, p.authOpts...)
}

func (p *oauthProvider) ExchangeCode(ctx context.Context, code string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)
	tok, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrTokenExchangeFailed, p.name, err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("%w: %s: empty access_token", domain.ErrTokenExchangeFailed, p.name)
	}
	return tok.AccessToken, nil
}

// getJSON performs req and decodes a 2xx JSON body into v.
func (p *oauthProvider) getJSON(req *http.Request, v any) error {
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrProfileFetchFailed, p.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s: status %d: %s", domain.ErrProfileFetchFailed, p.name, resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %s: decode: %v", domain.ErrProfileFetchFailed, p.name, err)
	}
	return nil
}

func (p *oauthProvider) bearerRequest(ctx context.Context, accessToken string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrProfileFetchFailed, p.name, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func requireEmail(provider string, p *Profile) (*Profile, error) {
	if p.Email == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrMissingEmail, provider)
	}
	return p, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
