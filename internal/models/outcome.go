package models

// OutcomeStatus is the terminal result of handling one email
type OutcomeStatus int

const (
	OutcomeConfirmed OutcomeStatus = iota
	OutcomeFailed
	OutcomeSkipped
)

func (s OutcomeStatus) String() string {
	switch s {
	case OutcomeConfirmed:
		return "confirmed"
	case OutcomeFailed:
		return "failed"
	default:
		return "skipped"
	}
}

// Outcome drives the mailbox-state transition and the notification
// payload for one processed email.
type Outcome struct {
	Status OutcomeStatus
	Reason string
	Code   string // verification code, when one was extracted
}

func Confirmed() Outcome {
	return Outcome{Status: OutcomeConfirmed}
}

func ConfirmedCode(code string) Outcome {
	return Outcome{Status: OutcomeConfirmed, Code: code}
}

func Failed(reason string) Outcome {
	return Outcome{Status: OutcomeFailed, Reason: reason}
}

func Skipped(reason string) Outcome {
	return Outcome{Status: OutcomeSkipped, Reason: reason}
}
