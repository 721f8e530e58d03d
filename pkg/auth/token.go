package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tendant/scanvault/pkg/domain"
)

// DefaultTokenTTL is the identity token lifetime when none is configured.
const DefaultTokenTTL = 24 * time.Hour

// TokenConfig holds token service configuration.
type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
	Issuer string
}

// TokenService issues and verifies HS256 identity tokens. Tokens are
// stateless; nothing is stored server-side.
type TokenService struct {
	config TokenConfig
	now    func() time.Time
}

// TokenOption customizes a TokenService.
type TokenOption func(*TokenService)

// WithClock replaces the clock used for exp/iat and for verification.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

// NewTokenService creates a new token service.
func NewTokenService(config TokenConfig, opts ...TokenOption) *TokenService {
	if config.TTL <= 0 {
		config.TTL = DefaultTokenTTL
	}
	s := &TokenService{config: config, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the default token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.config.TTL
}

// Issue signs claims with an expiry ttl from now. ttl <= 0 uses the default.
// The caller's map is not modified.
func (s *TokenService) Issue(claims map[string]any, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.config.TTL
	}
	now := s.now()

	mc := jwt.MapClaims{}
	for k, v := range claims {
		mc[k] = v
	}
	mc["iat"] = now.Unix()
	mc["exp"] = now.Add(ttl).Unix()
	if s.config.Issuer != "" {
		if _, ok := mc["iss"]; !ok {
			mc["iss"] = s.config.Issuer
		}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, mc)
	return token.SignedString(s.config.Secret)
}

// IssueForUser issues a token whose subject is the user id.
func (s *TokenService) IssueForUser(user *domain.User) (string, error) {
	return s.Issue(map[string]any{
		"sub":   user.ID.String(),
		"email": user.Email,
	}, 0)
}

// Verify checks signature and expiry and returns the claims. It fails with
// domain.ErrTokenExpired or domain.ErrTokenInvalid.
func (s *TokenService) Verify(tokenString string) (map[string]any, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrTokenInvalid
		}
		return s.config.Secret, nil
	},
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, domain.ErrTokenExpired
	}
	if err != nil || !token.Valid {
		return nil, domain.ErrTokenInvalid
	}
	return map[string]any(claims), nil
}

// SubjectID extracts the user id from verified claims.
func SubjectID(claims map[string]any) (uuid.UUID, error) {
	sub, _ := claims["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, domain.ErrTokenInvalid
	}
	return id, nil
}
