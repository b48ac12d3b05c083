package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rishimehra/portfolio-api/internal/config"
	"github.com/rishimehra/portfolio-api/internal/contactform"
	"github.com/rishimehra/portfolio-api/internal/leads"
	"github.com/rishimehra/portfolio-api/pkg/logging"
)

type submitOptions struct {
	apiURL    string
	projects  []string
	firstName string
	lastName  string
	email     string
	phone     string
	country   string
	details   string
	timeout   time.Duration
	logLevel  string
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "leadctl",
		Short:         "Drive the portfolio contact form from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newSubmitCmd())
	return root
}

func newSubmitCmd() *cobra.Command {
	_ = godotenv.Load()
	cfg := config.Load()

	opts := &submitOptions{}
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Validate and submit a lead through the contact form flow",
		Example: `  leadctl submit --project "Business Website" --first-name Asha --last-name Rao \
    --email asha@example.com --phone "98765 43210" --country IN --details "Five page site"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSubmit(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.apiURL, "api", cfg.PublicBaseURL, "base URL of the portfolio API")
	f.StringArrayVar(&opts.projects, "project", nil, "project type (repeatable)")
	f.StringVar(&opts.firstName, "first-name", "", "first name")
	f.StringVar(&opts.lastName, "last-name", "", "last name")
	f.StringVar(&opts.email, "email", "", "email address")
	f.StringVar(&opts.phone, "phone", "", "phone number, optionally with +<calling code>")
	f.StringVar(&opts.country, "country", cfg.DefaultCountry, "phone country (ISO 3166 region)")
	f.StringVar(&opts.details, "details", "", "project details")
	f.DurationVar(&opts.timeout, "timeout", cfg.OutboundTimeout*2, "overall request timeout")
	f.StringVar(&opts.logLevel, "log-level", "error", "log level")
	return cmd
}

// pendingRedirect holds the redirect until the confirmation is printed.
// A terminal has nothing to show during the delay.
type pendingRedirect struct {
	fire func()
}

func (r *pendingRedirect) Stop() bool {
	stopped := r.fire != nil
	r.fire = nil
	return stopped
}

func (r *pendingRedirect) run() {
	if f := r.fire; f != nil {
		r.fire = nil
		f()
	}
}

func runSubmit(ctx context.Context, out io.Writer, opts *submitOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.New(opts.logLevel)
	if opts.logLevel == "none" {
		logger = logging.NewWithWriter("error", io.Discard)
	}

	form := contactform.NewForm(opts.country)
	for _, p := range opts.projects {
		form.ToggleProjectType(leads.ProjectType(p))
	}
	form.FirstName = opts.firstName
	form.LastName = opts.lastName
	form.Email = opts.email
	form.PhoneNumber = opts.phone
	form.ProjectDetails = opts.details

	client := contactform.NewHTTPClient(opts.apiURL, &http.Client{Timeout: opts.timeout}, logger)
	nav := contactform.NavigatorFunc(func(path string) {
		fmt.Fprintf(out, "Redirecting to %s\n", path)
	})
	redirect := &pendingRedirect{}
	c := contactform.NewController(form, client, nav, contactform.Options{
		Logger: logger,
		After: func(_ time.Duration, f func()) contactform.Timer {
			redirect.fire = f
			return redirect
		},
	})
	defer c.Close()

	data, err := c.Submit(ctx)
	if err != nil {
		var verr *leads.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("%s: %s", verr.Field, verr.Message)
		}
		c.Wait()
		fmt.Fprintln(out, contactform.GenericErrorMessage)
		return err
	}

	fmt.Fprintln(out, "Thank you! Your message has been sent.")
	if len(data) > 0 {
		fmt.Fprintf(out, "CRM response: %s\n", data)
	}
	redirect.run()
	return nil
}
