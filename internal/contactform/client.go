package contactform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/rishimehra/portfolio-api/internal/leads"
	"github.com/rishimehra/portfolio-api/pkg/logging"
)

const maxResponseBytes = 1 << 20

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("request failed with status code %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("request failed with status code %d", e.StatusCode)
}

// HTTPClient talks to /api/leadform and /api/send-email.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	logger  *logging.Logger
}

// NewHTTPClient creates a client for the API at baseURL.
func NewHTTPClient(baseURL string, client *http.Client, logger *logging.Logger) *HTTPClient {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  logger,
	}
}

// SubmitLead posts the submission and returns the CRM payload from the
// response's data field.
func (c *HTTPClient) SubmitLead(ctx context.Context, sub leads.LeadSubmission) (json.RawMessage, error) {
	var resp leads.SubmitResponse
	if err := c.post(ctx, "/api/leadform", sub, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

type failureRequest struct {
	FormData leads.LeadSubmission `json:"formData"`
	Error    string               `json:"error"`
}

// NotifyFailure asks the API to mail the operator about a failed submission.
func (c *HTTPClient) NotifyFailure(ctx context.Context, sub leads.LeadSubmission, errDetail string) error {
	return c.post(ctx, "/api/send-email", failureRequest{FormData: sub, Error: errDetail}, nil)
}

func (c *HTTPClient) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("contactform: encode %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("contactform: create %s request: %w", path, err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("contactform: post %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("contactform: read %s response: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: respBody}
		var msg struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &msg) == nil {
			apiErr.Message = msg.Message
		}
		c.logger.Warn("api request failed", "path", path, "status", resp.StatusCode, "request_id", reqID)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("contactform: decode %s response: %w", path, err)
	}
	return nil
}

var _ LeadAPI = (*HTTPClient)(nil)
