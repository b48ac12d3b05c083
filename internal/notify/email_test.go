package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
)

func TestNewSendGridSender_NilWithoutAPIKey(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{FromEmail: "contact@example.com"}, nil)
	if sender != nil {
		t.Error("expected nil sender when API key is empty")
	}
}

func TestNewSendGridSender_DefaultFromName(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{APIKey: "SG.test", FromEmail: "contact@example.com"}, nil)
	if sender == nil {
		t.Fatal("expected non-nil sender")
	}
	if sender.fromName != "Portfolio Contact Form" {
		t.Errorf("expected default from name, got %q", sender.fromName)
	}
}

func TestSendGridSender_Send_NilClient(t *testing.T) {
	var sender *SendGridSender
	if err := sender.Send(context.Background(), EmailMessage{To: "ops@example.com"}); err == nil {
		t.Error("expected error when sender is nil")
	}
}

func TestStubEmailSender_Send(t *testing.T) {
	sender := NewStubEmailSender(nil)
	if err := sender.Send(context.Background(), EmailMessage{To: "ops@example.com", Subject: "Test"}); err != nil {
		t.Errorf("stub sender should not return error, got: %v", err)
	}
}

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESSender_Send(t *testing.T) {
	client := &fakeSES{}
	sender := NewSESSender(client, SESConfig{FromEmail: "contact@example.com"}, nil)

	err := sender.Send(context.Background(), EmailMessage{To: "ops@example.com", Subject: "Subject", Body: "text"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	in := client.input
	if got := aws.ToString(in.FromEmailAddress); got != "Portfolio Contact Form <contact@example.com>" {
		t.Errorf("unexpected from %q", got)
	}
	if len(in.Destination.ToAddresses) != 1 || in.Destination.ToAddresses[0] != "ops@example.com" {
		t.Errorf("unexpected destination %v", in.Destination.ToAddresses)
	}
	if got := aws.ToString(in.Content.Simple.Body.Text.Data); got != "text" {
		t.Errorf("unexpected body %q", got)
	}
	if in.Content.Simple.Body.Html != nil {
		t.Error("expected no HTML part")
	}
}

func TestSESSender_SendError(t *testing.T) {
	client := &fakeSES{err: errors.New("throttled")}
	sender := NewSESSender(client, SESConfig{FromEmail: "contact@example.com"}, nil)

	if err := sender.Send(context.Background(), EmailMessage{To: "ops@example.com"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewSESSender_NilClient(t *testing.T) {
	if NewSESSender(nil, SESConfig{}, nil) != nil {
		t.Error("expected nil sender without client")
	}
}

type capturedMail struct {
	addr string
	auth smtp.Auth
	from string
	to   []string
	msg  string
}

func newCapturingSMTP(t *testing.T, cfg SMTPConfig, sendErr error) (*SMTPSender, *capturedMail) {
	t.Helper()
	sender := NewSMTPSender(cfg, nil)
	if sender == nil {
		t.Fatal("expected non-nil sender")
	}
	captured := &capturedMail{}
	sender.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		captured.addr, captured.auth, captured.from, captured.to, captured.msg = addr, a, from, to, string(msg)
		return sendErr
	}
	sender.now = func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) }
	return sender, captured
}

func TestSMTPSender_Send(t *testing.T) {
	sender, captured := newCapturingSMTP(t, SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "forms@example.com",
		Password: "app-password",
	}, nil)

	err := sender.Send(context.Background(), EmailMessage{
		To:      "contact@example.com",
		Subject: "Error Submitting Contact Form",
		Body:    "Error: boom\n\nContact Details:\n{}",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if captured.addr != "smtp.example.com:587" {
		t.Errorf("unexpected relay %q", captured.addr)
	}
	if captured.auth == nil {
		t.Error("expected PLAIN auth when credentials are set")
	}
	if captured.from != "forms@example.com" {
		t.Errorf("expected from to default to username, got %q", captured.from)
	}
	if len(captured.to) != 1 || captured.to[0] != "contact@example.com" {
		t.Errorf("unexpected recipients %v", captured.to)
	}
	for _, want := range []string{
		"From: forms@example.com\r\n",
		"To: contact@example.com\r\n",
		"Subject: Error Submitting Contact Form\r\n",
		"Date: Fri, 01 Mar 2024 10:00:00 +0000\r\n",
		"Content-Type: text/plain; charset=UTF-8\r\n\r\nError: boom\r\n\r\nContact Details:\r\n{}",
	} {
		if !strings.Contains(captured.msg, want) {
			t.Errorf("message missing %q:\n%s", want, captured.msg)
		}
	}
}

func TestSMTPSender_HeaderInjection(t *testing.T) {
	sender, captured := newCapturingSMTP(t, SMTPConfig{Host: "smtp.example.com", Username: "u", Password: "p"}, nil)

	err := sender.Send(context.Background(), EmailMessage{To: "ops@example.com", Subject: "hi\r\nBcc: victim@example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(captured.msg, "\r\nBcc:") {
		t.Errorf("subject injected a header:\n%s", captured.msg)
	}
	if captured.addr != "smtp.example.com:587" {
		t.Errorf("expected default port 587, got %q", captured.addr)
	}
}

func TestSMTPSender_SendError(t *testing.T) {
	sender, _ := newCapturingSMTP(t, SMTPConfig{Host: "smtp.example.com", Username: "u", Password: "p"}, errors.New("535 auth failed"))

	err := sender.Send(context.Background(), EmailMessage{To: "ops@example.com"})
	if err == nil || !strings.Contains(err.Error(), "535 auth failed") {
		t.Fatalf("expected relay error, got %v", err)
	}
}

func TestSMTPSender_CancelledContext(t *testing.T) {
	sender, captured := newCapturingSMTP(t, SMTPConfig{Host: "smtp.example.com"}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := sender.Send(ctx, EmailMessage{To: "ops@example.com"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if captured.addr != "" {
		t.Error("relay should not be contacted")
	}
}

func TestNewSMTPSender_NilWithoutHost(t *testing.T) {
	if NewSMTPSender(SMTPConfig{}, nil) != nil {
		t.Error("expected nil sender without host")
	}
}
