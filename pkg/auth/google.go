package auth

import (
	"context"
	"strconv"

	"github.com/tendant/scanvault/pkg/domain"
	"golang.org/x/oauth2"
)

var googleDefaults = ProviderConfig{
	AuthURL:     "https://accounts.google.com/o/oauth2/auth",
	TokenURL:    "https://oauth2.googleapis.com/token",
	UserInfoURL: "https://www.googleapis.com/oauth2/v1/userinfo",
}

var googleScopes = []string{
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
}

// GoogleProvider signs users in with Google.
type GoogleProvider struct {
	oauthProvider
}

// NewGoogleProvider creates the Google adapter. The consent URL requests
// offline access and forces the consent prompt.
func NewGoogleProvider(cfg ProviderConfig) *GoogleProvider {
	p := &GoogleProvider{newOAuthProvider(domain.ProviderGoogle, cfg, googleDefaults, googleScopes)}
	p.authOpts = []oauth2.AuthCodeOption{oauth2.AccessTypeOffline, oauth2.ApprovalForce}
	return p
}

type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

// FetchProfile reads the v1 userinfo endpoint.
func (p *GoogleProvider) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	req, err := p.bearerRequest(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	var info googleUserInfo
	if err := p.getJSON(req, &info); err != nil {
		return nil, err
	}

	return requireEmail(p.name, &Profile{
		ExternalID: info.ID,
		Email:      info.Email,
		FirstName:  info.GivenName,
		LastName:   info.FamilyName,
		Picture:    info.Picture,
		Extra:      map[string]string{"verified_email": strconv.FormatBool(info.VerifiedEmail)},
	})
}
