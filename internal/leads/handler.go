package leads

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rishimehra/portfolio-api/pkg/logging"
)

const maxBodyBytes = 64 << 10

// LeadForwarder sends a submission to the CRM.
type LeadForwarder interface {
	Forward(ctx context.Context, sub LeadSubmission) (*SubmissionOutcome, error)
}

// SubmissionMetrics counts handler outcomes.
type SubmissionMetrics interface {
	ObserveSubmission(outcome string)
}

// Handler handles HTTP requests for leads
type Handler struct {
	forwarder LeadForwarder
	validator *Validator
	metrics   SubmissionMetrics
	logger    *logging.Logger
}

// NewHandler creates a new leads handler
func NewHandler(forwarder LeadForwarder, validator *Validator, metrics SubmissionMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if validator == nil {
		validator = NewValidator()
	}
	return &Handler{
		forwarder: forwarder,
		validator: validator,
		metrics:   metrics,
		logger:    logger,
	}
}

// SubmitLead handles POST /api/leadform requests
func (h *Handler) SubmitLead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, SubmitResponse{Message: "Method Not Allowed"})
		return
	}

	var sub LeadSubmission
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&sub); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		h.observe("bad_request")
		writeJSON(w, http.StatusBadRequest, SubmitResponse{Message: "Invalid request body"})
		return
	}
	sub.Normalize()

	if err := h.validator.Validate(&sub, sub.Country); err != nil {
		var verr *ValidationError
		if !errors.As(err, &verr) {
			verr = &ValidationError{Message: err.Error(), Err: err}
		}
		h.logger.Warn("lead rejected", "field", verr.Field, "error", verr.Err)
		h.observe("invalid")
		writeJSON(w, http.StatusBadRequest, SubmitResponse{Message: "Invalid submission", Error: verr.Message, Field: verr.Field})
		return
	}

	outcome, err := h.forwarder.Forward(r.Context(), sub)
	if err != nil {
		h.observe("error")
		writeJSON(w, http.StatusInternalServerError, SubmitResponse{Message: "Error submitting form", Error: upstreamDetail(err)})
		return
	}

	h.observe("success")
	writeJSON(w, http.StatusOK, SubmitResponse{Message: "Form submitted successfully", Data: outcome.Data})
}

func (h *Handler) observe(outcome string) {
	if h.metrics == nil {
		return
	}
	h.metrics.ObserveSubmission(outcome)
}

// upstreamDetail returns the upstream response body when there is one, as
// JSON if it parses, so the client sees what Zoho said.
func upstreamDetail(err error) any {
	var upstream interface{ UpstreamBody() []byte }
	if errors.As(err, &upstream) {
		if body := upstream.UpstreamBody(); len(body) > 0 {
			if json.Valid(body) {
				return json.RawMessage(body)
			}
			return string(body)
		}
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
