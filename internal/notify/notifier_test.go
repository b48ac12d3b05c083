package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishimehra/portfolio-api/pkg/logging"
)

type mockEmailSender struct {
	mu      sync.Mutex
	sent    []EmailMessage
	callErr error
}

func (m *mockEmailSender) Send(_ context.Context, msg EmailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.callErr != nil {
		return m.callErr
	}
	m.sent = append(m.sent, msg)
	return nil
}

type statusRecorder struct {
	statuses []string
}

func (r *statusRecorder) ObserveNotification(status string) {
	r.statuses = append(r.statuses, status)
}

func TestFailureNotifier_Notify(t *testing.T) {
	sender := &mockEmailSender{}
	metrics := &statusRecorder{}
	n := NewFailureNotifier(sender, "contact@rishimehra.in", metrics, nil)

	formData := json.RawMessage(`{"firstName":"A","projectTypes":["Blog"]}`)
	require.NoError(t, n.Notify(context.Background(), formData, "Request failed with status code 500"))

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "contact@rishimehra.in", msg.To)
	assert.Equal(t, "Error Submitting Contact Form", msg.Subject)
	assert.Equal(t, "Error: Request failed with status code 500\n\nContact Details:\n{\n  \"firstName\": \"A\",\n  \"projectTypes\": [\n    \"Blog\"\n  ]\n}", msg.Body)
	assert.Empty(t, msg.HTML)
	assert.Equal(t, []string{"success"}, metrics.statuses)
}

func TestFailureNotifier_SendFailure(t *testing.T) {
	relayErr := errors.New("connection refused")
	metrics := &statusRecorder{}
	n := NewFailureNotifier(&mockEmailSender{callErr: relayErr}, "ops@example.com", metrics, nil)

	err := n.Notify(context.Background(), map[string]string{"email": "a@b.com"}, "boom")

	var nerr *NotificationError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, "ops@example.com", nerr.To)
	assert.ErrorIs(t, err, relayErr)
	assert.Equal(t, []string{"error"}, metrics.statuses)
}

func TestFailureNotifier_LogsCarryComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter("info", &buf)
	n := NewFailureNotifier(&mockEmailSender{}, "ops@example.com", nil, logger)

	require.NoError(t, n.Notify(context.Background(), map[string]string{"email": "a@b.com"}, "boom"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "notify", line["component"])
	assert.Equal(t, "failure notification sent", line["msg"])
}

func TestFailureNotifier_NoSender(t *testing.T) {
	n := NewFailureNotifier(nil, "ops@example.com", nil, nil)
	err := n.Notify(context.Background(), nil, "boom")
	assert.ErrorIs(t, err, ErrNoSender)
}

func TestFailureNotifier_UnencodableFormData(t *testing.T) {
	sender := &mockEmailSender{}
	n := NewFailureNotifier(sender, "ops@example.com", nil, nil)

	err := n.Notify(context.Background(), map[string]any{"bad": make(chan int)}, "boom")

	var nerr *NotificationError
	require.ErrorAs(t, err, &nerr)
	assert.Empty(t, sender.sent)
}

func TestFormatFailureBody_NilFormData(t *testing.T) {
	body, err := FormatFailureBody(nil, "timeout")
	require.NoError(t, err)
	assert.Equal(t, "Error: timeout\n\nContact Details:\nnull", body)
}
