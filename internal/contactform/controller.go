package contactform

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rishimehra/portfolio-api/internal/leads"
	"github.com/rishimehra/portfolio-api/pkg/logging"
)

// State is the submission lifecycle of the form.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateSuccess
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

const (
	// RedirectDelay is how long the confirmation dialog stays up before
	// the visitor is sent back to the home page.
	RedirectDelay = 5 * time.Second
	// RedirectPath is where a successful submission navigates to.
	RedirectPath = "/"
	// GenericErrorMessage is all the visitor sees when forwarding fails.
	GenericErrorMessage = "Something went wrong while submitting the form. Please try again."
)

var (
	// ErrSubmitInFlight is returned by Submit while a submission is pending.
	ErrSubmitInFlight = errors.New("contactform: submission already in progress")
	// ErrAlreadySubmitted is returned by Submit once the form has succeeded.
	ErrAlreadySubmitted = errors.New("contactform: form already submitted")
)

// LeadAPI is the server side of the form.
type LeadAPI interface {
	SubmitLead(ctx context.Context, sub leads.LeadSubmission) (json.RawMessage, error)
	NotifyFailure(ctx context.Context, sub leads.LeadSubmission, errDetail string) error
}

// Navigator changes the page.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Options tune the controller; zero values use the defaults.
type Options struct {
	Validator     *leads.Validator
	RedirectDelay time.Duration
	// After schedules f after d. Defaults to time.AfterFunc.
	After  func(d time.Duration, f func()) Timer
	Logger *logging.Logger
}

// View is a snapshot of what the form should render.
type View struct {
	Form           Form
	State          State
	SubmitDisabled bool
	InlineError    string
	ErrorField     string
	DialogVisible  bool
}

// Controller drives the contact form: local validation, one POST per
// submit, the confirmation dialog with its delayed redirect, and the
// best-effort failure notification.
type Controller struct {
	api       LeadAPI
	nav       Navigator
	validator *leads.Validator
	delay     time.Duration
	after     func(time.Duration, func()) Timer
	logger    *logging.Logger

	mu             sync.Mutex
	form           Form
	state          State
	submitDisabled bool
	inlineError    string
	errorField     string
	dialogVisible  bool
	redirect       Timer

	notifications sync.WaitGroup
}

// NewController returns a controller in StateIdle for form.
func NewController(form Form, api LeadAPI, nav Navigator, opts Options) *Controller {
	if opts.Validator == nil {
		opts.Validator = leads.NewValidator()
	}
	if opts.RedirectDelay <= 0 {
		opts.RedirectDelay = RedirectDelay
	}
	if opts.After == nil {
		opts.After = func(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	return &Controller{
		api:       api,
		nav:       nav,
		validator: opts.Validator,
		delay:     opts.RedirectDelay,
		after:     opts.After,
		logger:    opts.Logger,
		form:      form,
		state:     StateIdle,
	}
}

// Edit applies a change to the form. Any edit moves an errored form back
// to StateIdle and clears the inline error. Edits are ignored while a
// submission is in flight.
func (c *Controller) Edit(change func(*Form)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateSubmitting {
		return
	}
	change(&c.form)
	if c.state == StateError {
		c.state = StateIdle
	}
	c.inlineError = ""
	c.errorField = ""
}

// ToggleProjectType is Edit for a category checkbox.
func (c *Controller) ToggleProjectType(p leads.ProjectType) {
	c.Edit(func(f *Form) { f.ToggleProjectType(p) })
}

// SetCountry is Edit for the phone country selector.
func (c *Controller) SetCountry(country string) {
	c.Edit(func(f *Form) { f.SetCountry(country) })
}

// Submit validates the form and, if it passes, posts it. Validation
// failures return a *leads.ValidationError without any network call.
func (c *Controller) Submit(ctx context.Context) (json.RawMessage, error) {
	c.mu.Lock()
	if c.state == StateSubmitting {
		c.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	if c.state == StateSuccess {
		c.mu.Unlock()
		return nil, ErrAlreadySubmitted
	}

	sub := c.form.Submission()
	if err := c.validator.Validate(&sub, sub.Country); err != nil {
		c.state = StateIdle
		c.submitDisabled = false
		c.inlineError, c.errorField = inlineMessage(err)
		c.mu.Unlock()
		return nil, err
	}

	c.state = StateSubmitting
	c.submitDisabled = true
	c.inlineError = ""
	c.errorField = ""
	c.mu.Unlock()

	data, err := c.api.SubmitLead(ctx, sub)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitDisabled = false

	if err != nil {
		c.state = StateError
		c.inlineError = GenericErrorMessage
		c.logger.Error("contact form submission failed", "error", err)
		c.notifyFailure(context.WithoutCancel(ctx), sub, err.Error())
		return nil, err
	}

	c.state = StateSuccess
	c.dialogVisible = true
	if c.redirect != nil {
		c.redirect.Stop()
	}
	c.redirect = c.after(c.delay, func() { c.nav.Navigate(RedirectPath) })
	return data, nil
}

func (c *Controller) notifyFailure(ctx context.Context, sub leads.LeadSubmission, detail string) {
	c.notifications.Add(1)
	go func() {
		defer c.notifications.Done()
		if err := c.api.NotifyFailure(ctx, sub, detail); err != nil {
			c.logger.Warn("failure notification not delivered", "error", err)
		}
	}()
}

// Wait blocks until every failure notification started so far has finished.
func (c *Controller) Wait() {
	c.notifications.Wait()
}

// Close cancels a pending redirect and waits for notifications.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.redirect != nil {
		c.redirect.Stop()
		c.redirect = nil
	}
	c.mu.Unlock()
	c.Wait()
}

// View returns the current render state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	form := c.form
	form.ProjectTypes = append([]leads.ProjectType(nil), c.form.ProjectTypes...)
	return View{
		Form:           form,
		State:          c.state,
		SubmitDisabled: c.submitDisabled,
		InlineError:    c.inlineError,
		ErrorField:     c.errorField,
		DialogVisible:  c.dialogVisible,
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func inlineMessage(err error) (message, field string) {
	var verr *leads.ValidationError
	if errors.As(err, &verr) {
		return verr.Message, verr.Field
	}
	return err.Error(), ""
}
