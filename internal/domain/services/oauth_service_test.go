package services_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"accessible-env-backend/internal/domain/models"
	"accessible-env-backend/internal/domain/rules"
	"accessible-env-backend/internal/domain/services"
	"accessible-env-backend/internal/error/apperr"
	"accessible-env-backend/internal/error/code"
	"accessible-env-backend/internal/test/testutil"
)

func googleStub(t *testing.T, profile services.GoogleProfile) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "access",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(profile)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newOAuth(t *testing.T, e *env, srv *httptest.Server) *services.OAuthService {
	e.cfg.GoogleClientID = "client"
	e.cfg.GoogleClientSecret = "secret"
	e.cfg.GoogleRedirectURL = "http://localhost/callback"
	s := services.NewOAuthService(e.db, e.cfg, e.cache)
	s.OAuth.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"}
	s.UserInfoURL = srv.URL + "/userinfo"
	return s
}

func stateOf(t *testing.T, loginURL string) string {
	u, err := url.Parse(loginURL)
	require.NoError(t, err)
	state := u.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

func TestOAuthCallbackCreatesUser(t *testing.T) {
	e := newEnv(t)
	srv := googleStub(t, services.GoogleProfile{
		Subject:       "123",
		Email:         "Bob@Example.com",
		EmailVerified: true,
		Name:          "Bob",
		Locale:        "ru-RU",
	})
	s := newOAuth(t, e, srv)
	require.True(t, s.Enabled())

	loginURL, err := s.LoginURL(e.ctx)
	require.NoError(t, err)
	state := stateOf(t, loginURL)

	user, err := s.HandleCallback(e.ctx, state, "good-code")
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", user.Email)
	assert.Equal(t, models.AuthProviderGoogle, user.AuthProvider)
	assert.Equal(t, rules.RoleUser, user.Role)
	assert.Equal(t, "ru", user.Language)
	assert.True(t, user.EmailVerified)
	assert.Contains(t, user.Username, "bob_")

	_, err = s.HandleCallback(e.ctx, state, "good-code")
	requireCode(t, err, apperr.KindUnauthorized, code.ErrOAuth)

	// a second login finds the same account
	state = stateOf(t, mustLoginURL(t, s))
	again, err := s.HandleCallback(e.ctx, state, "good-code")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)
}

func TestOAuthCallbackFailures(t *testing.T) {
	e := newEnv(t)
	banned := testutil.CreateUser(t, e.db, rules.RoleUser)
	require.NoError(t, e.db.Model(banned).Update("status", models.UserStatusBanned).Error)
	srv := googleStub(t, services.GoogleProfile{Subject: "9", Email: banned.Email})
	s := newOAuth(t, e, srv)

	_, err := s.HandleCallback(e.ctx, "unknown-state", "good-code")
	requireCode(t, err, apperr.KindUnauthorized, code.ErrOAuth)

	_, err = s.HandleCallback(e.ctx, stateOf(t, mustLoginURL(t, s)), "bad-code")
	requireCode(t, err, apperr.KindUnauthorized, code.ErrOAuth)

	_, err = s.HandleCallback(e.ctx, stateOf(t, mustLoginURL(t, s)), "good-code")
	requireCode(t, err, apperr.KindForbidden, code.ErrUserInactive)
}

func TestOAuthStateFallsBackToMemory(t *testing.T) {
	e := newEnv(t)
	srv := googleStub(t, services.GoogleProfile{Subject: "1", Email: "carol@example.com"})
	s := newOAuth(t, e, srv)

	s.Cache = nil
	state := stateOf(t, mustLoginURL(t, s))
	_, err := s.HandleCallback(e.ctx, state, "good-code")
	require.NoError(t, err)
}

func TestOAuthDisabled(t *testing.T) {
	e := newEnv(t)
	s := services.NewOAuthService(e.db, e.cfg, e.cache)
	assert.False(t, s.Enabled())
	_, err := s.LoginURL(e.ctx)
	requireCode(t, err, apperr.KindValidation, code.ErrOAuth)
}

func mustLoginURL(t *testing.T, s *services.OAuthService) string {
	u, err := s.LoginURL(context.Background())
	require.NoError(t, err)
	return u
}
