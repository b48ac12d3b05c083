package leads

import "errors"

var (
	// ErrNoProjectType is returned when no category is selected
	ErrNoProjectType = errors.New("at least one project type is required")

	// ErrUnknownProjectType is returned for categories outside the vocabulary
	ErrUnknownProjectType = errors.New("unknown project type")

	// ErrDuplicateProjectType is returned when a category is listed twice
	ErrDuplicateProjectType = errors.New("duplicate project type")

	// ErrMissingName is returned when the first or last name is empty
	ErrMissingName = errors.New("name is required")

	// ErrInvalidEmail is returned when the email is empty or malformed
	ErrInvalidEmail = errors.New("a valid email is required")

	// ErrMissingPhone is returned when no phone number was entered
	ErrMissingPhone = errors.New("phone number is required")

	// ErrMissingCountryCode is returned when the number cannot be tied to a country
	ErrMissingCountryCode = errors.New("phone country code is required")

	// ErrInvalidPhone is returned when the number fails numbering-plan validation
	ErrInvalidPhone = errors.New("phone number is not valid for its country")
)

// ValidationError describes why a submission was rejected before any
// network call. Message is suitable for showing next to the form.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return "leads: invalid " + e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return e.Err }
