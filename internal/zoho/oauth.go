package zoho

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rishimehra/portfolio-api/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultAuthDomain is the India data-centre accounts server.
	DefaultAuthDomain = "https://accounts.zoho.in"

	defaultTokenLifetime = time.Hour
	maxResponseBytes     = 1 << 20
)

// OAuthConfig holds the long-lived credentials used to mint access tokens.
type OAuthConfig struct {
	RefreshToken string
	ClientID     string
	ClientSecret string
	AuthDomain   string
}

func (c OAuthConfig) complete() bool {
	return strings.TrimSpace(c.RefreshToken) != "" &&
		strings.TrimSpace(c.ClientID) != "" &&
		strings.TrimSpace(c.ClientSecret) != ""
}

// AccessCredential is a short-lived bearer token plus the tenant API base URL
// it must be used against.
type AccessCredential struct {
	AccessToken string    `json:"access_token"`
	APIDomain   string    `json:"api_domain"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Valid reports whether the credential is usable for at least skew longer.
func (c *AccessCredential) Valid(now time.Time, skew time.Duration) bool {
	if c == nil || c.AccessToken == "" || c.APIDomain == "" {
		return false
	}
	return now.Add(skew).Before(c.ExpiresAt)
}

// tokenResponse is the body returned by {authDomain}/oauth/v2/token.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	APIDomain   string `json:"api_domain"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Error       string `json:"error"`
}

// TokenRefresher exchanges the configured refresh token for an access token.
// It performs one network round trip per call and keeps no state.
type TokenRefresher struct {
	config OAuthConfig
	client *http.Client
	logger *logging.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// NewTokenRefresher creates a refresher for the given OAuth client.
func NewTokenRefresher(config OAuthConfig, client *http.Client, logger *logging.Logger) *TokenRefresher {
	if logger == nil {
		logger = logging.Default()
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	config.AuthDomain = strings.TrimRight(strings.TrimSpace(config.AuthDomain), "/")
	if config.AuthDomain == "" {
		config.AuthDomain = DefaultAuthDomain
	}
	return &TokenRefresher{
		config: config,
		client: client,
		logger: logger.With("component", "zoho.oauth"),
		tracer: otel.Tracer("portfolio.internal.zoho.oauth"),
		now:    time.Now,
	}
}

// ClientID identifies the OAuth client; credential caches key on it.
func (r *TokenRefresher) ClientID() string {
	return r.config.ClientID
}

// Refresh performs the refresh_token grant.
func (r *TokenRefresher) Refresh(ctx context.Context) (*AccessCredential, error) {
	ctx, span := r.tracer.Start(ctx, "zoho.oauth.refresh")
	defer span.End()
	span.SetAttributes(attribute.String("zoho.auth_domain", r.config.AuthDomain))

	if !r.config.complete() {
		err := &TokenRefreshError{Err: ErrMissingOAuthCredentials}
		r.fail(span, err)
		return nil, err
	}

	r.logger.Info("refreshing zoho access token",
		"refresh_token", logging.Redact(r.config.RefreshToken),
		"client_id", logging.Redact(r.config.ClientID),
		"client_secret", logging.Redact(r.config.ClientSecret),
		"auth_domain", r.config.AuthDomain,
	)

	params := url.Values{
		"refresh_token": {r.config.RefreshToken},
		"client_id":     {r.config.ClientID},
		"client_secret": {r.config.ClientSecret},
		"grant_type":    {"refresh_token"},
	}
	tokenURL := fmt.Sprintf("%s/oauth/v2/token?%s", r.config.AuthDomain, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, nil)
	if err != nil {
		terr := &TokenRefreshError{Err: fmt.Errorf("create refresh request: %w", err)}
		r.fail(span, terr)
		return nil, terr
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		terr := &TokenRefreshError{Err: fmt.Errorf("refresh request failed: %w", err)}
		r.fail(span, terr)
		return nil, terr
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		terr := &TokenRefreshError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read response body: %w", err)}
		r.fail(span, terr)
		return nil, terr
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		terr := &TokenRefreshError{StatusCode: resp.StatusCode, Body: body, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
		r.fail(span, terr)
		return nil, terr
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		terr := &TokenRefreshError{StatusCode: resp.StatusCode, Body: body, Err: fmt.Errorf("parse token response: %w", err)}
		r.fail(span, terr)
		return nil, terr
	}

	if tokenResp.AccessToken == "" || tokenResp.APIDomain == "" {
		terr := &TokenRefreshError{StatusCode: resp.StatusCode, Body: body, Err: ErrIncompleteTokenResponse}
		r.fail(span, terr)
		return nil, terr
	}

	lifetime := defaultTokenLifetime
	if tokenResp.ExpiresIn > 0 {
		lifetime = time.Duration(tokenResp.ExpiresIn) * time.Second
	}

	cred := &AccessCredential{
		AccessToken: tokenResp.AccessToken,
		APIDomain:   strings.TrimRight(tokenResp.APIDomain, "/"),
		ExpiresAt:   r.now().Add(lifetime),
	}
	r.logger.Info("zoho access token obtained",
		"access_token", logging.Redact(cred.AccessToken),
		"api_domain", cred.APIDomain,
		"expires_at", cred.ExpiresAt,
	)
	return cred, nil
}

func (r *TokenRefresher) fail(span trace.Span, err *TokenRefreshError) {
	span.RecordError(err)
	span.SetStatus(codes.Error, "token refresh failed")
	r.logger.Error("zoho token refresh failed",
		"status", err.StatusCode,
		"body", string(err.Body),
		"error", err.Err,
	)
}
