package idm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/scanvault/internal/config"
)

func loadConfig(t *testing.T, env map[string]string) *config.Config {
	t.Helper()
	t.Setenv("JWT_SECRET", "idm-test-secret")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("MAIL_TRANSPORT", "log")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	for k, v := range env {
		t.Setenv(k, v)
	}
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew_MemoryStack(t *testing.T) {
	app, err := New(context.Background(), loadConfig(t, nil), testLogger())
	require.NoError(t, err)
	defer app.Close(context.Background())

	srv := httptest.NewServer(app.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, _ := json.Marshal(map[string]string{"email": "ada@example.com", "password": "s3cret-pass"})
	resp, err = http.Post(srv.URL+"/auth/register", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tok struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tok))
	assert.NotEmpty(t, tok.AccessToken)
}

func TestAuthMiddleware_ProtectsCustomRoutes(t *testing.T) {
	app, err := New(context.Background(), loadConfig(t, nil), testLogger())
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Mount("/", app.Handler())
	r.Group(func(r chi.Router) {
		r.Use(app.AuthMiddleware())
		r.Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
			id, ok := GetUserIDFromContext(r.Context())
			if !ok {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			io.WriteString(w, id.String())
		})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	body, _ := json.Marshal(map[string]string{"email": "bob@example.com", "password": "s3cret-pass"})
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var tok struct {
		AccessToken string `json:"access_token"`
		User        struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tok))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, tok.User.ID, w.Body.String())
}

func TestProviders(t *testing.T) {
	cfg := loadConfig(t, map[string]string{
		"GOOGLE_CLIENT_ID":       "gid",
		"GOOGLE_CLIENT_SECRET":   "gsecret",
		"FACEBOOK_APP_ID":        "fid",
		"FACEBOOK_APP_SECRET":    "fsecret",
		"LINKEDIN_CLIENT_ID":     "lid",
		"LINKEDIN_CLIENT_SECRET": "",
	})

	var names []string
	for _, p := range Providers(cfg) {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"google", "facebook"}, names)
}

func TestNew_RejectsBadWiring(t *testing.T) {
	_, err := New(context.Background(), nil, nil)
	assert.Error(t, err)

	cfg := loadConfig(t, nil)
	cfg.StoreDriver = "sqlite"
	_, err = New(context.Background(), cfg, testLogger())
	assert.ErrorContains(t, err, `unknown store driver "sqlite"`)

	cfg = loadConfig(t, nil)
	cfg.Session.Store = config.SessionPostgres
	_, err = New(context.Background(), cfg, testLogger())
	assert.ErrorContains(t, err, "postgres sessions need the postgres store")
}
