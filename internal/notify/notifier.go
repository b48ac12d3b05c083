package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rishimehra/portfolio-api/pkg/logging"
)

// FailureSubject is the subject line of every failure notification.
const FailureSubject = "Error Submitting Contact Form"

// NotificationMetrics counts notification outcomes.
type NotificationMetrics interface {
	ObserveNotification(status string)
}

// FailureNotifier mails the operator when a lead could not be forwarded.
type FailureNotifier struct {
	sender  EmailSender
	to      string
	metrics NotificationMetrics
	tracer  trace.Tracer
	logger  *logging.Logger
}

// NewFailureNotifier creates a notifier that sends to the operator mailbox.
func NewFailureNotifier(sender EmailSender, to string, metrics NotificationMetrics, logger *logging.Logger) *FailureNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &FailureNotifier{
		sender:  sender,
		to:      to,
		metrics: metrics,
		tracer:  otel.Tracer("portfolio.internal.notify"),
		logger:  logger.With("component", "notify"),
	}
}

// Notify sends one plain-text message containing errDetail and the
// pretty-printed form data. A failed send is returned as a
// *NotificationError and is never retried.
func (n *FailureNotifier) Notify(ctx context.Context, formData any, errDetail string) error {
	ctx, span := n.tracer.Start(ctx, "notify.failure_email")
	defer span.End()

	body, err := FormatFailureBody(formData, errDetail)
	if err != nil {
		return n.fail(span, &NotificationError{To: n.to, Err: err})
	}
	if n.sender == nil {
		return n.fail(span, &NotificationError{To: n.to, Err: ErrNoSender})
	}

	if err := n.sender.Send(ctx, EmailMessage{To: n.to, Subject: FailureSubject, Body: body}); err != nil {
		return n.fail(span, &NotificationError{To: n.to, Err: err})
	}

	n.observe("success")
	n.logger.Info("failure notification sent", "to", n.to)
	return nil
}

func (n *FailureNotifier) fail(span trace.Span, err *NotificationError) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, "failure notification not sent")
	n.observe("error")
	n.logger.Error("failure notification not sent", "to", err.To, "error", err.Err)
	return err
}

func (n *FailureNotifier) observe(status string) {
	if n.metrics == nil {
		return
	}
	n.metrics.ObserveNotification(status)
}

// FormatFailureBody renders the notification text.
func FormatFailureBody(formData any, errDetail string) (string, error) {
	details, err := json.MarshalIndent(formData, "", "  ")
	if err != nil {
		return "", fmt.Errorf("notify: format contact details: %w", err)
	}
	return fmt.Sprintf("Error: %s\n\nContact Details:\n%s", errDetail, details), nil
}
