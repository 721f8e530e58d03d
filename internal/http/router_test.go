package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/scanvault/internal/config"
	"github.com/tendant/scanvault/internal/metrics"
	"github.com/tendant/scanvault/pkg/auth"
	"github.com/tendant/scanvault/pkg/documents"
	"github.com/tendant/scanvault/pkg/repository/memstore"
	"github.com/tendant/scanvault/pkg/session"
)

type codeMailer struct {
	mu    sync.Mutex
	codes map[string]string
}

func (m *codeMailer) SendOTP(ctx context.Context, to, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[to] = code
	return nil
}

func (m *codeMailer) code(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[to]
}

type testServer struct {
	server   *httptest.Server
	provider *httptest.Server
	users    *memstore.Users
	mailer   *codeMailer
	tokens   *auth.TokenService
	metrics  *metrics.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/token":
			_ = r.ParseForm()
			if r.PostForm.Get("code") != "good-code" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
				return
			}
			_, _ = w.Write([]byte(`{"access_token":"g-token","token_type":"Bearer","expires_in":3600}`))
		case "/userinfo":
			_, _ = w.Write([]byte(`{"id":"g-42","email":"grace@example.com","verified_email":true,"given_name":"Grace","family_name":"Hopper"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(provider.Close)

	users := memstore.NewUsers()
	mailer := &codeMailer{codes: map[string]string{}}
	tokens := auth.NewTokenService(auth.TokenConfig{Secret: []byte("router-test-secret"), TTL: time.Hour})
	otp := auth.NewOTPService(users, auth.OTPConfig{Pepper: []byte("pepper"), TTL: 15 * time.Minute})
	passwords := auth.NewPasswordService(users, otp, mailer, auth.PasswordServiceOptions{
		Policy: auth.NewPasswordPolicy(config.PasswordPolicyConfig{MinLength: 8}),
		Logger: logger,
	})
	m := metrics.New(prometheus.NewRegistry())
	google := auth.NewGoogleProvider(auth.ProviderConfig{
		ClientID:     "cid",
		ClientSecret: "csecret",
		RedirectURL:  "http://localhost/auth/google/callback",
		AuthURL:      provider.URL + "/authorize",
		TokenURL:     provider.URL + "/token",
		UserInfoURL:  provider.URL + "/userinfo",
		HTTPClient:   provider.Client(),
	})
	flow := auth.NewOAuthFlow([]auth.ProviderAdapter{google}, auth.NewReconciler(users), tokens, logger, m.ObserveOAuthLogin)

	handler := NewRouter(RouterConfig{
		Logger:          logger,
		PasswordService: passwords,
		TokenService:    tokens,
		OAuthFlow:       flow,
		DocumentService: documents.NewService(memstore.NewDocuments()),
		SessionStore:    session.NewMemoryStore(),
		Metrics:         m,
		Session:         config.SessionConfig{MaxAge: time.Hour, CookieName: "scanvault_session"},
		RateLimitConfig: config.RateLimitConfig{Enabled: false},
		SecurityHeaders: config.SecurityHeadersConfig{Enabled: true, ContentTypeOptions: "nosniff"},
		Validation:      config.ValidationConfig{MaxRequestBodySize: 1 << 20},
		CORS:            config.CORSConfig{AllowedOrigins: []string{"*"}, AllowCredentials: true},
	})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{server: srv, provider: provider, users: users, mailer: mailer, tokens: tokens, metrics: m}
}

// client returns a client with a cookie jar that does not follow redirects.
func (ts *testServer) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (ts *testServer) do(t *testing.T, c *http.Client, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, ts.server.URL+path, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c == nil {
		c = ts.server.Client()
	}
	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

func (ts *testServer) registerUser(t *testing.T, email string) (string, map[string]any) {
	t.Helper()
	resp, body := ts.do(t, nil, "POST", "/auth/register", "", map[string]string{
		"email":      email,
		"password":   "correct-horse",
		"first_name": "Ada",
		"last_name":  "Lovelace",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	return body["access_token"].(string), body["user"].(map[string]any)
}

func TestRouter_BannerHealthMetrics(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, nil, "GET", "/", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body["message"], "/api/documents")
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	resp, body = ts.do(t, nil, "GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])

	resp, err := ts.server.Client().Get(ts.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), `http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestRouter_RegisterLoginAndProfile(t *testing.T) {
	ts := newTestServer(t)

	token, user := ts.registerUser(t, "ada@example.com")
	claims, err := ts.tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user["id"], claims["sub"], "token subject is the stored user id")

	resp, body := ts.do(t, nil, "POST", "/auth/register", "", map[string]string{"email": "ada@example.com", "password": "another-pass"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "email already registered", body["error"])

	resp, body = ts.do(t, nil, "POST", "/auth/login", "", map[string]string{"email": "ada@example.com", "password": "correct-horse"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["access_token"])

	for _, creds := range []map[string]string{
		{"email": "ada@example.com", "password": "wrong-password"},
		{"email": "nobody@example.com", "password": "correct-horse"},
	} {
		resp, body = ts.do(t, nil, "POST", "/auth/login", "", creds)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "invalid email or password", body["error"], "failures are indistinguishable")
	}

	resp, body = ts.do(t, nil, "PUT", "/auth/profiles", token, map[string]string{"mobile_number": "+1 555 0100"})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "User profile details Updated Successfully", body["message"])
	assert.Equal(t, "+1 555 0100", body["user"].(map[string]any)["mobile_number"])

	resp, body = ts.do(t, nil, "PUT", "/auth/profiles", token, map[string]string{"mobile_number": "+1 555 0100"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "no changes made to profile", body["error"])

	resp, _ = ts.do(t, nil, "PUT", "/auth/profiles", "", map[string]string{"first_name": "X"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = ts.do(t, nil, "GET", "/auth/profiles", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ada@example.com", body["email"])
}

func TestRouter_PasswordReset(t *testing.T) {
	ts := newTestServer(t)
	ts.registerUser(t, "ada@example.com")

	resp, body := ts.do(t, nil, "POST", "/auth/forgot-password?email=ada@example.com", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	known := body["message"]
	code := ts.mailer.code("ada@example.com")
	require.NotEmpty(t, code)

	resp, body = ts.do(t, nil, "POST", "/auth/forgot-password", "", map[string]string{"email": "ghost@example.com"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, known, body["message"], "unknown emails get the same answer")

	resp, body = ts.do(t, nil, "POST", "/auth/reset-password", "", map[string]string{
		"otp": code, "new_password": "brand-new-pass", "confirm_password": "different-pass",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "passwords do not match", body["error"])

	resp, _ = ts.do(t, nil, "POST", "/auth/reset-password", "", map[string]string{
		"otp": code, "new_password": "brand-new-pass", "confirm_password": "brand-new-pass",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = ts.do(t, nil, "POST", "/auth/reset-password", "", map[string]string{
		"otp": code, "new_password": "third-password", "confirm_password": "third-password",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "codes are single use")
	assert.Equal(t, "invalid or expired OTP", body["error"])

	resp, _ = ts.do(t, nil, "POST", "/auth/login", "", map[string]string{"email": "ada@example.com", "password": "brand-new-pass"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_OAuthFlow(t *testing.T) {
	ts := newTestServer(t)
	c := ts.client(t)

	resp, body := ts.do(t, c, "GET", "/profile", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["authenticated"])

	resp, _ = ts.do(t, c, "GET", "/auth/google", "", nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	consent, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(consent.String(), ts.provider.URL+"/authorize"))
	state := consent.Query().Get("state")
	require.NotEmpty(t, state)

	resp, body = ts.do(t, c, "GET", "/auth/google/callback?code=good-code&state=forged", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid state parameter", body["error"])

	resp, body = ts.do(t, c, "GET", "/auth/google/callback?code=good-code&state="+url.QueryEscape(state), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "bearer", body["token_type"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "grace@example.com", user["email"])
	assert.Equal(t, "google", user["auth_provider"])

	resp, _ = ts.do(t, c, "GET", "/auth/google/callback?code=good-code&state="+url.QueryEscape(state), "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "state is single use")

	resp, body = ts.do(t, c, "GET", "/profile", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["authenticated"])

	resp, _ = ts.do(t, c, "GET", "/logout", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, body = ts.do(t, c, "GET", "/profile", "", nil)
	assert.Equal(t, false, body["authenticated"])
}

func TestRouter_OAuthErrors(t *testing.T) {
	ts := newTestServer(t)
	c := ts.client(t)

	resp, body := ts.do(t, c, "GET", "/auth/myspace", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "unknown oauth provider", body["error"])

	resp, body = ts.do(t, c, "GET", "/auth/google/callback?error=access_denied&error_description=user+said+no", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "google OAuth error: access_denied - user said no", body["error"])

	resp, _ = ts.do(t, c, "GET", "/auth/google/callback?state=x", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = ts.do(t, c, "GET", "/auth/google", "", nil)
	state := mustState(t, resp)
	resp, body = ts.do(t, c, "GET", "/auth/google/callback?code=bad-code&state="+url.QueryEscape(state), "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "failed to retrieve access token", body["error"])
	assert.Equal(t, 0, ts.users.Len(), "no account on a failed exchange")

	_, body = ts.do(t, c, "GET", "/profile", "", nil)
	assert.Equal(t, false, body["authenticated"])
}

func mustState(t *testing.T, resp *http.Response) string {
	t.Helper()
	require.Equal(t, http.StatusFound, resp.StatusCode)
	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	return loc.Query().Get("state")
}

func TestRouter_Documents(t *testing.T) {
	ts := newTestServer(t)
	alice, _ := ts.registerUser(t, "alice@example.com")
	bob, _ := ts.registerUser(t, "bob@example.com")

	resp, _ := ts.do(t, nil, "GET", "/api/documents/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, doc := ts.do(t, nil, "POST", "/api/documents/", alice, map[string]any{
		"document_name": "Conference card",
		"scan_type":     "business",
		"company_name":  "GopherCon",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, doc)
	id := doc["id"].(string)

	resp, body := ts.do(t, nil, "GET", "/api/documents/"+id, bob, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "document not found or unauthorized", body["error"])

	resp, _ = ts.do(t, nil, "GET", "/api/documents/not-an-id", alice, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = ts.do(t, nil, "PUT", "/api/documents/"+id, alice, map[string]any{"is_favorite": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["is_favorite"])

	resp, body = ts.do(t, nil, "PUT", "/api/documents/"+id, alice, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "no update fields provided", body["error"])

	for _, path := range []string{"/api/documents/", "/api/documents/search/?query=gopher", "/api/documents/type/business"} {
		req, _ := http.NewRequest("GET", ts.server.URL+path, nil)
		req.Header.Set("Authorization", "Bearer "+alice)
		resp, err := ts.server.Client().Do(req)
		require.NoError(t, err)
		var list []map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
		resp.Body.Close()
		assert.Len(t, list, 1, path)
	}

	resp, body = ts.do(t, nil, "GET", "/api/documents/type/selfie", alice, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid scan type, must be one of: id, business, book, document", body["error"])

	resp, _ = ts.do(t, nil, "GET", "/api/documents/?limit=-1", alice, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = ts.do(t, nil, "DELETE", "/api/documents/"+id, bob, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = ts.do(t, nil, "DELETE", "/api/documents/"+id, alice, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = ts.do(t, nil, "GET", "/api/documents/"+id, alice, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
