package auth

import (
	"context"

	"github.com/tendant/scanvault/pkg/domain"
)

var linkedInDefaults = ProviderConfig{
	AuthURL:     "https://www.linkedin.com/oauth/v2/authorization",
	TokenURL:    "https://www.linkedin.com/oauth/v2/accessToken",
	UserInfoURL: "https://api.linkedin.com/v2/userinfo",
}

// LinkedInProvider signs users in with LinkedIn's OpenID Connect product.
type LinkedInProvider struct {
	oauthProvider
}

// NewLinkedInProvider creates the LinkedIn adapter.
func NewLinkedInProvider(cfg ProviderConfig) *LinkedInProvider {
	return &LinkedInProvider{newOAuthProvider(domain.ProviderLinkedIn, cfg, linkedInDefaults, []string{"openid", "profile", "email"})}
}

type linkedInUserInfo struct {
	Sub        string `json:"sub"`
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Picture    string `json:"picture"`
}

// FetchProfile reads the OIDC userinfo endpoint.
func (p *LinkedInProvider) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	req, err := p.bearerRequest(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	var info linkedInUserInfo
	if err := p.getJSON(req, &info); err != nil {
		return nil, err
	}

	return requireEmail(p.name, &Profile{
		ExternalID: info.Sub,
		Email:      info.Email,
		FirstName:  info.GivenName,
		LastName:   info.FamilyName,
		Picture:    info.Picture,
	})
}
