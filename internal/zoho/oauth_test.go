package zoho

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOAuthConfig(domain string) OAuthConfig {
	return OAuthConfig{
		RefreshToken: "1000.refresh-token",
		ClientID:     "1000.CLIENTID",
		ClientSecret: "client-secret",
		AuthDomain:   domain,
	}
}

func TestTokenRefresher_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/oauth/v2/token", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "1000.refresh-token", q.Get("refresh_token"))
		assert.Equal(t, "1000.CLIENTID", q.Get("client_id"))
		assert.Equal(t, "client-secret", q.Get("client_secret"))
		assert.Equal(t, "refresh_token", q.Get("grant_type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"1000.access","api_domain":"https://www.zohoapis.in/","token_type":"Bearer","expires_in":1800}`))
	}))
	defer srv.Close()

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	r := NewTokenRefresher(testOAuthConfig(srv.URL+"/"), srv.Client(), nil)
	r.now = func() time.Time { return now }

	cred, err := r.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1000.access", cred.AccessToken)
	assert.Equal(t, "https://www.zohoapis.in", cred.APIDomain)
	assert.Equal(t, now.Add(30*time.Minute), cred.ExpiresAt)
}

func TestTokenRefresher_DefaultLifetime(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"access_token":"tok","api_domain":"https://www.zohoapis.in"}`))
	}))
	defer srv.Close()

	now := time.Now()
	r := NewTokenRefresher(testOAuthConfig(srv.URL), srv.Client(), nil)
	r.now = func() time.Time { return now }

	cred, err := r.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), cred.ExpiresAt)
}

func TestTokenRefresher_MissingFields(t *testing.T) {
	cases := map[string]string{
		"no access token": `{"api_domain":"https://www.zohoapis.in"}`,
		"no api domain":   `{"access_token":"tok"}`,
		"zoho error":      `{"error":"invalid_code"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			_, err := NewTokenRefresher(testOAuthConfig(srv.URL), srv.Client(), nil).Refresh(context.Background())

			var terr *TokenRefreshError
			require.ErrorAs(t, err, &terr)
			assert.ErrorIs(t, err, ErrIncompleteTokenResponse)
			assert.JSONEq(t, body, string(terr.UpstreamBody()))
		})
	}
}

func TestTokenRefresher_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
	}))
	defer srv.Close()

	_, err := NewTokenRefresher(testOAuthConfig(srv.URL), srv.Client(), nil).Refresh(context.Background())

	var terr *TokenRefreshError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, http.StatusBadRequest, terr.StatusCode)
	assert.Contains(t, terr.Error(), "invalid_client")
}

func TestTokenRefresher_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	}))
	defer srv.Close()

	_, err := NewTokenRefresher(testOAuthConfig(srv.URL), srv.Client(), nil).Refresh(context.Background())

	var terr *TokenRefreshError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "<html>oops</html>", string(terr.Body))
}

func TestTokenRefresher_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewTokenRefresher(testOAuthConfig(url), nil, nil).Refresh(context.Background())

	var terr *TokenRefreshError
	require.ErrorAs(t, err, &terr)
	assert.Zero(t, terr.StatusCode)
	assert.Contains(t, terr.Error(), "refresh request failed")
}

func TestTokenRefresher_MissingCredentials(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	cfg := testOAuthConfig(srv.URL)
	cfg.ClientSecret = ""
	_, err := NewTokenRefresher(cfg, srv.Client(), nil).Refresh(context.Background())

	var terr *TokenRefreshError
	require.ErrorAs(t, err, &terr)
	assert.True(t, errors.Is(err, ErrMissingOAuthCredentials))
	assert.Zero(t, calls.Load())
}

func TestNewTokenRefresher_DefaultDomain(t *testing.T) {
	r := NewTokenRefresher(OAuthConfig{ClientID: "id"}, nil, nil)
	assert.Equal(t, DefaultAuthDomain, r.config.AuthDomain)
	assert.Equal(t, "id", r.ClientID())
}

func TestAccessCredential_Valid(t *testing.T) {
	now := time.Now()
	cred := &AccessCredential{AccessToken: "a", APIDomain: "d", ExpiresAt: now.Add(2 * time.Minute)}

	assert.True(t, cred.Valid(now, time.Minute))
	assert.False(t, cred.Valid(now, 3*time.Minute))
	assert.False(t, (*AccessCredential)(nil).Valid(now, 0))
	assert.False(t, (&AccessCredential{APIDomain: "d", ExpiresAt: now.Add(time.Hour)}).Valid(now, 0))
}
