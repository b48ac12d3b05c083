package leads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rishimehra/portfolio-api/internal/zoho"
	"github.com/rishimehra/portfolio-api/pkg/logging"
)

// ContactCreator creates a CRM contact with a given credential.
type ContactCreator interface {
	CreateContact(ctx context.Context, cred *zoho.AccessCredential, contact zoho.Contact) (*zoho.ContactResult, error)
}

// ForwardMetrics receives CRM call outcomes.
type ForwardMetrics interface {
	ObserveCRMForward(status string, seconds float64)
}

// Forwarder pushes validated submissions into Bigin.
type Forwarder struct {
	credentials zoho.CredentialSource
	crm         ContactCreator
	metrics     ForwardMetrics
	logger      *logging.Logger
}

// NewForwarder creates a forwarder.
func NewForwarder(credentials zoho.CredentialSource, crm ContactCreator, metrics ForwardMetrics, logger *logging.Logger) *Forwarder {
	if logger == nil {
		logger = logging.Default()
	}
	return &Forwarder{
		credentials: credentials,
		crm:         crm,
		metrics:     metrics,
		logger:      logger,
	}
}

// Forward obtains an access credential and creates the contact. A token
// failure aborts before the CRM is contacted. Nothing is retried.
func (f *Forwarder) Forward(ctx context.Context, sub LeadSubmission) (*SubmissionOutcome, error) {
	cred, err := f.credentials.Get(ctx)
	if err != nil {
		f.logger.Error("leads: access token unavailable", "error", err)
		return nil, fmt.Errorf("leads: get access token: %w", err)
	}

	start := time.Now()
	result, err := f.crm.CreateContact(ctx, cred, MapToContact(sub))
	elapsed := time.Since(start).Seconds()
	if err != nil {
		f.observe("error", elapsed)
		var ferr *zoho.CrmForwardError
		if errors.As(err, &ferr) && ferr.Unauthorized() {
			f.credentials.Invalidate(ctx)
		}
		f.logger.Error("leads: crm forward failed", "error", err, "email", sub.Email)
		return nil, fmt.Errorf("leads: forward to crm: %w", err)
	}
	f.observe("success", elapsed)

	f.logger.Info("lead forwarded", "record_id", result.RecordID, "project_types", len(sub.ProjectTypes))
	return &SubmissionOutcome{RecordID: result.RecordID, Data: result.Raw}, nil
}

func (f *Forwarder) observe(status string, seconds float64) {
	if f.metrics == nil {
		return
	}
	f.metrics.ObserveCRMForward(status, seconds)
}
