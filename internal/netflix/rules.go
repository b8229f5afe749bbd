package netflix

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	"netflix-verifybot/internal/mailparse"
	"netflix-verifybot/internal/models"

	"gopkg.in/yaml.v2"
)

var (
	// ErrNoLinkFound means a link-bearing template carried no usable URL
	ErrNoLinkFound = errors.New("netflix: no confirmation link found in message body")
	// ErrNoCodeFound means an access-code template carried no code
	ErrNoCodeFound = errors.New("netflix: no verification code found in message body")
)

// Netflix renders the access code inside a table cell, e.g. <td>1234</td>
var codeRe = regexp.MustCompile(`<td[^>]*>\s*(\d{4})\s*</td>`)

// Rules holds the sender and body markers that identify each known
// Netflix email template. The built-in defaults match the templates
// Netflix currently sends; a YAML file can override them when Netflix
// changes wording without requiring a rebuild.
type Rules struct {
	SenderDomain   string `yaml:"senderDomain"`
	LinkHost       string `yaml:"linkHost"`
	LocationMarker string `yaml:"locationMarker"`
	TravelMarker   string `yaml:"travelMarker"`
	AccessMarker   string `yaml:"accessMarker"`
}

// DefaultRules returns the built-in template markers
func DefaultRules() *Rules {
	return &Rules{
		SenderDomain:   "netflix.com",
		LinkHost:       "www.netflix.com",
		LocationMarker: "update-primary-location",
		TravelMarker:   "travel/verify",
		AccessMarker:   "accountaccess",
	}
}

// LoadRules reads rule overrides from a YAML file. Fields left empty in
// the file keep their defaults. An empty path returns the defaults.
func LoadRules(path string) (*Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file %s: %w", path, err)
	}

	var override Rules
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parsing rules file %s: %w", path, err)
	}

	if override.SenderDomain != "" {
		rules.SenderDomain = override.SenderDomain
	}
	if override.LinkHost != "" {
		rules.LinkHost = override.LinkHost
	}
	if override.LocationMarker != "" {
		rules.LocationMarker = override.LocationMarker
	}
	if override.TravelMarker != "" {
		rules.TravelMarker = override.TravelMarker
	}
	if override.AccessMarker != "" {
		rules.AccessMarker = override.AccessMarker
	}

	return rules, nil
}

// Classify tags an email by the Netflix template it matches. Pure:
// derived from sender and body only. Unknown templates classify as
// irrelevant and are never touched by the pipeline.
func (r *Rules) Classify(email *models.Email) models.Classification {
	from := strings.ToLower(email.From)
	if !strings.HasSuffix(from, strings.ToLower(r.SenderDomain)) {
		return models.ClassIrrelevant
	}

	body := strings.ToLower(email.Body())
	switch {
	case strings.Contains(body, strings.ToLower(r.LocationMarker)):
		return models.ClassLocationConfirmation
	case strings.Contains(body, strings.ToLower(r.TravelMarker)):
		return models.ClassTravelVerification
	case strings.Contains(body, strings.ToLower(r.AccessMarker)):
		return models.ClassAccessCode
	default:
		return models.ClassIrrelevant
	}
}

// Extract pulls the actionable payload out of a classified email: the
// first body URL on the Netflix host carrying the template's path
// signature, or the verification code for access-code mails. Pure, no
// network, never mutates the message.
func (r *Rules) Extract(c models.Classification, email *models.Email) (*models.Action, error) {
	switch c {
	case models.ClassLocationConfirmation:
		return r.extractLink(email, r.LocationMarker)
	case models.ClassTravelVerification:
		return r.extractLink(email, r.TravelMarker)
	case models.ClassAccessCode:
		return r.extractCode(email)
	default:
		return nil, fmt.Errorf("netflix: nothing to extract from %s email", c)
	}
}

func (r *Rules) extractLink(email *models.Email, marker string) (*models.Action, error) {
	for _, link := range mailparse.ExtractLinks(email.Body()) {
		if !strings.Contains(strings.ToLower(link), strings.ToLower(marker)) {
			continue
		}
		u, err := url.Parse(link)
		if err != nil {
			continue
		}
		if !strings.EqualFold(u.Host, r.LinkHost) {
			continue
		}
		return &models.Action{URL: link}, nil
	}
	return nil, ErrNoLinkFound
}

func (r *Rules) extractCode(email *models.Email) (*models.Action, error) {
	if m := codeRe.FindStringSubmatch(email.Body()); m != nil {
		return &models.Action{Code: m[1]}, nil
	}
	return nil, ErrNoCodeFound
}
