package notify

import "errors"

// ErrNoSender is returned when the notifier has no email relay.
var ErrNoSender = errors.New("notify: no email sender configured")

// NotificationError reports a failed operator notification. It is terminal:
// callers log it and move on.
type NotificationError struct {
	To  string
	Err error
}

func (e *NotificationError) Error() string {
	return "notify: failure notification to " + e.To + " not sent: " + e.Err.Error()
}

func (e *NotificationError) Unwrap() error { return e.Err }
