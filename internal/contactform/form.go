package contactform

import (
	"slices"
	"strings"

	"github.com/rishimehra/portfolio-api/internal/leads"
)

// DefaultCountry is preselected in the phone country selector.
const DefaultCountry = "IN"

// Form holds what the visitor has entered so far. Country is the region
// picked in the phone selector and is passed to validation as is.
type Form struct {
	ProjectTypes   []leads.ProjectType
	FirstName      string
	LastName       string
	Email          string
	PhoneNumber    string
	ProjectDetails string
	Country        string
}

// NewForm returns an empty form with the country selector preset.
func NewForm(country string) Form {
	country = strings.ToUpper(strings.TrimSpace(country))
	if country == "" {
		country = DefaultCountry
	}
	return Form{Country: country}
}

// ToggleProjectType checks p if unchecked and unchecks it otherwise.
func (f *Form) ToggleProjectType(p leads.ProjectType) {
	if i := slices.Index(f.ProjectTypes, p); i >= 0 {
		f.ProjectTypes = slices.Delete(f.ProjectTypes, i, i+1)
		return
	}
	f.ProjectTypes = append(f.ProjectTypes, p)
}

// SetCountry records the selector value.
func (f *Form) SetCountry(country string) {
	f.Country = strings.ToUpper(strings.TrimSpace(country))
}

// Submission builds the payload posted to the API. The selected country is
// included so the server validates against the same numbering plan.
func (f Form) Submission() leads.LeadSubmission {
	sub := leads.LeadSubmission{
		ProjectTypes:   slices.Clone(f.ProjectTypes),
		FirstName:      f.FirstName,
		LastName:       f.LastName,
		Email:          f.Email,
		PhoneNumber:    f.PhoneNumber,
		ProjectDetails: f.ProjectDetails,
		Country:        f.Country,
	}
	sub.Normalize()
	return sub
}
