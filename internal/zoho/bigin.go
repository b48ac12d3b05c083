package zoho

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rishimehra/portfolio-api/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Contact is a Bigin Contacts record as accepted by the v2 API.
type Contact struct {
	FirstName   string   `json:"First_Name"`
	LastName    string   `json:"Last_Name"`
	Email       string   `json:"Email"`
	Mobile      string   `json:"Mobile"`
	Project     []string `json:"Project"`
	Description string   `json:"Description"`
}

// ContactResult is the outcome of a successful create call. Raw is the
// untouched Bigin response body.
type ContactResult struct {
	RecordID string
	Raw      json.RawMessage
}

type createContactsRequest struct {
	Data []Contact `json:"data"`
}

type createContactsResponse struct {
	Data []struct {
		Code    string `json:"code"`
		Status  string `json:"status"`
		Message string `json:"message"`
		Details struct {
			ID string `json:"id"`
		} `json:"details"`
	} `json:"data"`
}

// BiginClient creates contacts in Zoho Bigin.
type BiginClient struct {
	client *http.Client
	logger *logging.Logger
	tracer trace.Tracer
}

// NewBiginClient builds a client that never follows redirects: Bigin only
// redirects when the token or data centre is wrong.
func NewBiginClient(httpClient *http.Client, logger *logging.Logger) *BiginClient {
	if logger == nil {
		logger = logging.Default()
	}
	c := http.Client{Timeout: 30 * time.Second}
	if httpClient != nil {
		c = *httpClient
	}
	c.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &BiginClient{
		client: &c,
		logger: logger.With("component", "zoho.bigin"),
		tracer: otel.Tracer("portfolio.internal.zoho.bigin"),
	}
}

// CreateContact posts a single contact to {apiDomain}/bigin/v2/Contacts.
func (b *BiginClient) CreateContact(ctx context.Context, cred *AccessCredential, contact Contact) (*ContactResult, error) {
	ctx, span := b.tracer.Start(ctx, "zoho.bigin.create_contact")
	defer span.End()

	if cred == nil || cred.AccessToken == "" || cred.APIDomain == "" {
		err := &CrmForwardError{Err: fmt.Errorf("missing access credential")}
		b.fail(span, err)
		return nil, err
	}

	endpoint := strings.TrimRight(cred.APIDomain, "/") + "/bigin/v2/Contacts"
	span.SetAttributes(attribute.String("zoho.api_domain", cred.APIDomain))

	payload, err := json.Marshal(createContactsRequest{Data: []Contact{contact}})
	if err != nil {
		ferr := &CrmForwardError{Err: fmt.Errorf("marshal contact: %w", err)}
		b.fail(span, ferr)
		return nil, ferr
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		ferr := &CrmForwardError{Err: fmt.Errorf("create request: %w", err)}
		b.fail(span, ferr)
		return nil, ferr
	}
	req.Header.Set("Authorization", "Zoho-oauthtoken "+cred.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	b.logger.Info("sending contact to bigin", "url", endpoint, "access_token", logging.Redact(cred.AccessToken))

	resp, err := b.client.Do(req)
	if err != nil {
		ferr := &CrmForwardError{Err: fmt.Errorf("request failed: %w", err)}
		b.fail(span, ferr)
		return nil, ferr
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		ferr := &CrmForwardError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read response body: %w", err)}
		b.fail(span, ferr)
		return nil, ferr
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	contentType := resp.Header.Get("Content-Type")

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		ferr := &CrmForwardError{
			StatusCode:  resp.StatusCode,
			Body:        body,
			ContentType: contentType,
			Redirect:    true,
			Err:         fmt.Errorf("%w to %q", ErrRedirect, resp.Header.Get("Location")),
		}
		b.fail(span, ferr)
		return nil, ferr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		ferr := &CrmForwardError{StatusCode: resp.StatusCode, Body: body, ContentType: contentType}
		b.fail(span, ferr)
		return nil, ferr
	}

	if !json.Valid(body) {
		ferr := &CrmForwardError{StatusCode: resp.StatusCode, Body: body, ContentType: contentType, Err: ErrMalformedResponse}
		b.fail(span, ferr)
		return nil, ferr
	}

	result := &ContactResult{Raw: json.RawMessage(body)}
	var parsed createContactsResponse
	if err := json.Unmarshal(body, &parsed); err == nil && len(parsed.Data) > 0 {
		result.RecordID = parsed.Data[0].Details.ID
	}

	b.logger.Info("bigin contact created", "status", resp.StatusCode, "record_id", result.RecordID)
	return result, nil
}

func (b *BiginClient) fail(span trace.Span, err *CrmForwardError) {
	span.RecordError(err)
	span.SetStatus(codes.Error, "bigin create contact failed")
	if err.Redirect || err.HTMLResponse() {
		b.logger.Error("bigin returned a redirect or HTML instead of JSON; likely an authentication or data-centre problem",
			"status", err.StatusCode,
			"content_type", err.ContentType,
		)
	}
	b.logger.Error("bigin create contact failed",
		"status", err.StatusCode,
		"body", string(err.Body),
		"error", err.Err,
	)
}
