package models

// Classification tags a fetched email by the Netflix template it matches
type Classification int

const (
	ClassIrrelevant Classification = iota
	ClassLocationConfirmation
	ClassTravelVerification
	ClassAccessCode
)

func (c Classification) String() string {
	switch c {
	case ClassLocationConfirmation:
		return "location-confirmation"
	case ClassTravelVerification:
		return "travel-verification"
	case ClassAccessCode:
		return "access-code"
	default:
		return "irrelevant"
	}
}

// Action is what the extractor pulled out of a classified email: a
// confirmation URL for link-bearing templates, or a verification code.
type Action struct {
	URL  string
	Code string
}
