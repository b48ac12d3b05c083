package leads

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/nyaruka/phonenumbers"
)

// Validator checks submissions structurally and against the numbering plan.
// It is shared by the form controller and the server handler.
type Validator struct {
	v *validator.Validate
}

// NewValidator registers the lead-specific rules.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterValidation("projecttype", func(fl validator.FieldLevel) bool {
		return ProjectType(fl.Field().String()).Known()
	})

	return &Validator{v: v}
}

// Validate checks s and its phone number for the given country. An empty
// country means the number must carry its own +<calling code>.
func (v *Validator) Validate(s *LeadSubmission, country string) error {
	if err := v.Struct(s); err != nil {
		return err
	}
	return ValidatePhone(s.PhoneNumber, country)
}

// Struct runs only the structural rules (required fields, email syntax,
// category vocabulary) and reports the first failure.
func (v *Validator) Struct(s *LeadSubmission) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return fmt.Errorf("leads: validate submission: %w", err)
	}
	return toValidationError(errs[0])
}

func toValidationError(fe validator.FieldError) *ValidationError {
	switch {
	case strings.HasPrefix(fe.Field(), "projectTypes["):
		return &ValidationError{Field: "projectTypes", Message: fmt.Sprintf("%q is not a project type we offer.", fe.Value()), Err: ErrUnknownProjectType}
	case fe.Field() == "projectTypes" && fe.Tag() == "unique":
		return &ValidationError{Field: "projectTypes", Message: "Each project type can only be selected once.", Err: ErrDuplicateProjectType}
	case fe.Field() == "projectTypes":
		return &ValidationError{Field: "projectTypes", Message: "Please select at least one project type.", Err: ErrNoProjectType}
	case fe.Field() == "firstName":
		return &ValidationError{Field: "firstName", Message: "Please enter your first name.", Err: ErrMissingName}
	case fe.Field() == "lastName":
		return &ValidationError{Field: "lastName", Message: "Please enter your last name.", Err: ErrMissingName}
	case fe.Field() == "email":
		return &ValidationError{Field: "email", Message: "Please enter a valid email address.", Err: ErrInvalidEmail}
	default:
		return &ValidationError{Field: fe.Field(), Message: fmt.Sprintf("%s failed %s validation.", fe.Field(), fe.Tag()), Err: fmt.Errorf("%s: %s", fe.Field(), fe.Tag())}
	}
}

// ValidatePhone resolves number against the numbering plan of country (an
// ISO 3166 region such as "IN").
func ValidatePhone(number, country string) error {
	number = strings.TrimSpace(number)
	country = strings.ToUpper(strings.TrimSpace(country))

	if number == "" {
		return &ValidationError{Field: "phoneNumber", Message: "Please enter your phone number.", Err: ErrMissingPhone}
	}
	if country == "" && !strings.HasPrefix(number, "+") {
		return missingCountryCode()
	}

	num, err := phonenumbers.Parse(number, country)
	if errors.Is(err, phonenumbers.ErrInvalidCountryCode) {
		return missingCountryCode()
	}

	region := country
	if region == "" && err == nil {
		region = phonenumbers.GetRegionCodeForNumber(num)
	}
	invalid := &ValidationError{
		Field:   "phoneNumber",
		Message: fmt.Sprintf("Please enter a valid phone number for %s.", regionLabel(region)),
		Err:     ErrInvalidPhone,
	}
	if err != nil {
		return invalid
	}

	if country != "" {
		if !phonenumbers.IsValidNumberForRegion(num, country) {
			return invalid
		}
		return nil
	}
	if !phonenumbers.IsValidNumber(num) {
		return invalid
	}
	return nil
}

func missingCountryCode() error {
	return &ValidationError{Field: "phoneNumber", Message: "Please select the country code for your phone number.", Err: ErrMissingCountryCode}
}

func regionLabel(region string) string {
	if region == "" || region == "ZZ" {
		return "the selected country"
	}
	return region
}
