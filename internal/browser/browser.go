package browser

import "fmt"

// Browser drives the confirmation click for one extracted URL. One call
// is one isolated browser context with no persisted cookies or session;
// retry policy lives in the pipeline, not here.
type Browser interface {
	Confirm(link, traceID string) error
	FetchCode(link, traceID string) (string, error)
}

// Reason categorizes an automation failure
type Reason string

const (
	ReasonNavigationTimeout   Reason = "navigation-timeout"
	ReasonControlNotFound     Reason = "control-not-found"
	ReasonConfirmationTimeout Reason = "confirmation-timeout"
	ReasonLinkExpired         Reason = "link-expired"
)

// AutomationError is a categorized browser-step failure
type AutomationError struct {
	Reason Reason
	Err    error
}

func (e *AutomationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("browser: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("browser: %s", e.Reason)
}

func (e *AutomationError) Unwrap() error { return e.Err }

func failure(reason Reason, err error) *AutomationError {
	return &AutomationError{Reason: reason, Err: err}
}
