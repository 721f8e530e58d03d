package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tendant/scanvault/pkg/domain"
)

var facebookDefaults = ProviderConfig{
	AuthURL:     "https://www.facebook.com/v12.0/dialog/oauth",
	TokenURL:    "https://graph.facebook.com/v12.0/oauth/access_token",
	UserInfoURL: "https://graph.facebook.com/me",
}

const facebookFields = "id,email,first_name,last_name,picture"

// FacebookProvider signs users in with Facebook Login.
type FacebookProvider struct {
	oauthProvider
}

// NewFacebookProvider creates the Facebook adapter.
func NewFacebookProvider(cfg ProviderConfig) *FacebookProvider {
	return &FacebookProvider{newOAuthProvider(domain.ProviderFacebook, cfg, facebookDefaults, []string{"email,public_profile"})}
}

type facebookUser struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Picture   struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
}

// FetchProfile reads /me from the Graph API. The token travels as a query
// parameter.
func (p *FacebookProvider) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	u, err := url.Parse(p.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrProfileFetchFailed, p.name, err)
	}
	q := u.Query()
	q.Set("fields", facebookFields)
	q.Set("access_token", accessToken)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrProfileFetchFailed, p.name, err)
	}

	var me facebookUser
	if err := p.getJSON(req, &me); err != nil {
		return nil, err
	}

	return requireEmail(p.name, &Profile{
		ExternalID: me.ID,
		Email:      me.Email,
		FirstName:  me.FirstName,
		LastName:   me.LastName,
		Picture:    me.Picture.Data.URL,
	})
}
