package leads

import (
	"encoding/json"
	"strings"

	"github.com/rishimehra/portfolio-api/internal/zoho"
)

// ProjectType is one of the categories a visitor can pick on the contact form.
type ProjectType string

const (
	ProjectBusinessWebsite ProjectType = "Business Website"
	ProjectBlogWebsite     ProjectType = "Blog Website"
	ProjectOnlineStore     ProjectType = "Online Store"
	ProjectEcommerce       ProjectType = "E-commerce Platform"
	ProjectBlog            ProjectType = "Blog"
)

// ProjectTypes lists the accepted categories in display order.
var ProjectTypes = []ProjectType{
	ProjectBusinessWebsite,
	ProjectBlogWebsite,
	ProjectOnlineStore,
	ProjectEcommerce,
	ProjectBlog,
}

// Known reports whether p belongs to the closed vocabulary.
func (p ProjectType) Known() bool {
	for _, known := range ProjectTypes {
		if p == known {
			return true
		}
	}
	return false
}

// LeadSubmission is the contact form payload posted to /api/leadform.
// Country is the ISO region picked in the phone country selector; it is only
// used for validation and never sent to the CRM.
type LeadSubmission struct {
	ProjectTypes   []ProjectType `json:"projectTypes" validate:"required,min=1,unique,dive,projecttype"`
	FirstName      string        `json:"firstName" validate:"required"`
	LastName       string        `json:"lastName" validate:"required"`
	Email          string        `json:"email" validate:"required,email"`
	PhoneNumber    string        `json:"phoneNumber"`
	ProjectDetails string        `json:"projectDetails"`
	Country        string        `json:"country,omitempty"`
}

// Normalize trims the free-text identity fields and upper-cases the region.
func (s *LeadSubmission) Normalize() {
	s.FirstName = strings.TrimSpace(s.FirstName)
	s.LastName = strings.TrimSpace(s.LastName)
	s.Email = strings.TrimSpace(s.Email)
	s.PhoneNumber = strings.TrimSpace(s.PhoneNumber)
	s.Country = strings.ToUpper(strings.TrimSpace(s.Country))
}

// MapToContact converts a submission into the Bigin Contacts schema.
func MapToContact(s LeadSubmission) zoho.Contact {
	project := make([]string, 0, len(s.ProjectTypes))
	for _, p := range s.ProjectTypes {
		project = append(project, string(p))
	}
	return zoho.Contact{
		FirstName:   s.FirstName,
		LastName:    s.LastName,
		Email:       s.Email,
		Mobile:      s.PhoneNumber,
		Project:     project,
		Description: s.ProjectDetails,
	}
}

// SubmissionOutcome is the successful result of forwarding a lead. Failures
// are reported as errors from Forward.
type SubmissionOutcome struct {
	RecordID string
	Data     json.RawMessage
}

// SubmitResponse is the JSON body returned by /api/leadform.
type SubmitResponse struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   any             `json:"error,omitempty"`
	Field   string          `json:"field,omitempty"`
}
