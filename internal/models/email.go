package models

import "time"

// Email represents a normalized parsed email message
type Email struct {
	UID          uint32
	From         string
	To           []string
	ToPrimary    string
	Subject      string
	BodyText     string
	BodyHTML     string
	InternalDate time.Time
	Seen         bool
	TraceID      string
}

// Body returns the HTML part when present, falling back to the plain
// text part. Netflix mails carry their links in the HTML body.
func (e *Email) Body() string {
	if e.BodyHTML != "" {
		return e.BodyHTML
	}
	return e.BodyText
}
