package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/rishimehra/portfolio-api/pkg/logging"
)

const maxBodyBytes = 64 << 10

// Notifier sends a failure notification.
type Notifier interface {
	Notify(ctx context.Context, formData any, errDetail string) error
}

// FailureRequest is the body of POST /api/send-email.
type FailureRequest struct {
	FormData json.RawMessage `json:"formData"`
	Error    json.RawMessage `json:"error"`
}

// ErrorText returns the error field as text. Clients send a string, but an
// object is passed through as compact JSON.
func (r FailureRequest) ErrorText() string {
	raw := bytes.TrimSpace(r.Error)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err == nil {
		return compact.String()
	}
	return string(raw)
}

type messageResponse struct {
	Message string `json:"message"`
}

// Handler exposes the failure notifier over HTTP.
type Handler struct {
	notifier Notifier
	logger   *logging.Logger
}

func NewHandler(notifier Notifier, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{notifier: notifier, logger: logger}
}

// SendFailureEmail handles POST /api/send-email.
func (h *Handler) SendFailureEmail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, messageResponse{Message: "Method Not Allowed"})
		return
	}

	var req FailureRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Invalid request body"})
		return
	}

	formData := req.FormData
	if len(formData) == 0 {
		formData = json.RawMessage("null")
	}

	if err := h.notifier.Notify(r.Context(), formData, req.ErrorText()); err != nil {
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "Error sending email"})
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Email sent successfully"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
