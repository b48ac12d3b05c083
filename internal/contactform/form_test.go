package contactform

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rishimehra/portfolio-api/internal/leads"
)

func TestNewForm_DefaultsCountry(t *testing.T) {
	assert.Equal(t, "IN", NewForm("").Country)
	assert.Equal(t, "US", NewForm(" us ").Country)
}

func TestForm_ToggleProjectType(t *testing.T) {
	f := NewForm("")
	f.ToggleProjectType(leads.ProjectBlog)
	f.ToggleProjectType(leads.ProjectOnlineStore)
	assert.Equal(t, []leads.ProjectType{leads.ProjectBlog, leads.ProjectOnlineStore}, f.ProjectTypes)

	f.ToggleProjectType(leads.ProjectBlog)
	assert.Equal(t, []leads.ProjectType{leads.ProjectOnlineStore}, f.ProjectTypes)
}

func TestForm_Submission(t *testing.T) {
	f := NewForm("")
	f.ToggleProjectType(leads.ProjectBlog)
	f.FirstName = " A "
	f.LastName = "B"
	f.Email = "a@b.com"
	f.PhoneNumber = "+91 98765 43210"
	f.ProjectDetails = "test"

	sub := f.Submission()
	assert.Equal(t, leads.LeadSubmission{
		ProjectTypes:   []leads.ProjectType{leads.ProjectBlog},
		FirstName:      "A",
		LastName:       "B",
		Email:          "a@b.com",
		PhoneNumber:    "+91 98765 43210",
		ProjectDetails: "test",
		Country:        "IN",
	}, sub)

	sub.ProjectTypes[0] = leads.ProjectOnlineStore
	assert.Equal(t, leads.ProjectBlog, f.ProjectTypes[0], "submission must not alias the form")
}
