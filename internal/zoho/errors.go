package zoho

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrMissingOAuthCredentials is returned when the refresh token, client id
	// or client secret is not configured.
	ErrMissingOAuthCredentials = errors.New("zoho: oauth credentials not configured")

	// ErrIncompleteTokenResponse is returned when the token endpoint answers
	// without an access token or api domain.
	ErrIncompleteTokenResponse = errors.New("zoho: access token or api domain not found in response")

	// ErrMalformedResponse is returned when Bigin answers 2xx with a body that
	// is not JSON.
	ErrMalformedResponse = errors.New("zoho: malformed bigin response")

	// ErrRedirect is returned when Bigin answers with a redirect instead of a result.
	ErrRedirect = errors.New("zoho: unexpected redirect from bigin")
)

// TokenRefreshError reports a failed refresh_token exchange. Body holds the
// upstream response when one was received.
type TokenRefreshError struct {
	StatusCode int
	Body       []byte
	Err        error
}

func (e *TokenRefreshError) Error() string {
	var b strings.Builder
	b.WriteString("zoho: failed to refresh token")
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if len(e.Body) > 0 {
		fmt.Fprintf(&b, ": %s", strings.TrimSpace(string(e.Body)))
	} else if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *TokenRefreshError) Unwrap() error { return e.Err }

// UpstreamBody returns the raw token endpoint response, if any.
func (e *TokenRefreshError) UpstreamBody() []byte { return e.Body }

// CrmForwardError reports a failed contact creation against Bigin.
type CrmForwardError struct {
	StatusCode  int
	Body        []byte
	ContentType string
	Redirect    bool
	Err         error
}

func (e *CrmForwardError) Error() string {
	var b strings.Builder
	b.WriteString("zoho: bigin create contact failed")
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if len(e.Body) > 0 {
		fmt.Fprintf(&b, ": %s", strings.TrimSpace(string(e.Body)))
	}
	return b.String()
}

func (e *CrmForwardError) Unwrap() error { return e.Err }

// UpstreamBody returns the raw Bigin response, if any.
func (e *CrmForwardError) UpstreamBody() []byte { return e.Body }

// HTMLResponse reports whether Bigin answered with markup, which at this
// endpoint means a login page or redirect target rather than an API result.
func (e *CrmForwardError) HTMLResponse() bool {
	return strings.Contains(strings.ToLower(e.ContentType), "text/html")
}

// Unauthorized reports whether the access token was rejected.
func (e *CrmForwardError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}
