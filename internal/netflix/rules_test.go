package netflix

import (
	"errors"
	"os"
	"testing"

	"netflix-verifybot/internal/models"
)

const locationBody = `<html><body>
<p>Update your Netflix Household.</p>
<a href="https://www.netflix.com/account/update-primary-location?nftoken=BQABAAEBexample">Confirm</a>
</body></html>`

const travelBody = `<html><body>
<a href="https://www.netflix.com/account/travel/verify?nftoken=BQABAAEBexample">Get code</a>
</body></html>`

const accessBody = `<html><body>
<a href="https://www.netflix.com/accountaccess?nftoken=BQABAAEBexample">Access</a>
<table><tr><td class="code">1234</td></tr></table>
</body></html>`

func netflixEmail(body string) *models.Email {
	return &models.Email{
		From:     "info@account.netflix.com",
		Subject:  "Wichtig: Netflix-Haushalt",
		BodyHTML: body,
	}
}

func TestClassify(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name     string
		email    *models.Email
		expected models.Classification
	}{
		{
			name:     "Location confirmation",
			email:    netflixEmail(locationBody),
			expected: models.ClassLocationConfirmation,
		},
		{
			name:     "Travel verification",
			email:    netflixEmail(travelBody),
			expected: models.ClassTravelVerification,
		},
		{
			name:     "Access code",
			email:    netflixEmail(accessBody),
			expected: models.ClassAccessCode,
		},
		{
			name: "Netflix sender, unknown template",
			email: &models.Email{
				From:     "info@account.netflix.com",
				BodyHTML: "<html><body>New shows this week!</body></html>",
			},
			expected: models.ClassIrrelevant,
		},
		{
			name: "Wrong sender with matching body",
			email: &models.Email{
				From:     "phishing@example.com",
				BodyHTML: locationBody,
			},
			expected: models.ClassIrrelevant,
		},
		{
			name: "Marker matching is case-insensitive",
			email: &models.Email{
				From:     "info@account.NETFLIX.com",
				BodyHTML: "See https://www.netflix.com/account/UPDATE-PRIMARY-LOCATION?nftoken=x",
			},
			expected: models.ClassLocationConfirmation,
		},
		{
			name: "Plain text fallback body",
			email: &models.Email{
				From:     "info@account.netflix.com",
				BodyText: "https://www.netflix.com/account/update-primary-location?nftoken=x",
			},
			expected: models.ClassLocationConfirmation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rules.Classify(tt.email)
			if got != tt.expected {
				t.Errorf("Classify() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestExtract_LocationLink(t *testing.T) {
	rules := DefaultRules()
	email := netflixEmail(locationBody)

	action, err := rules.Extract(models.ClassLocationConfirmation, email)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if action.URL != "https://www.netflix.com/account/update-primary-location?nftoken=BQABAAEBexample" {
		t.Errorf("Unexpected URL: %s", action.URL)
	}
	if action.Code != "" {
		t.Errorf("Expected no code, got %q", action.Code)
	}
}

func TestExtract_IgnoresForeignHosts(t *testing.T) {
	rules := DefaultRules()
	email := netflixEmail(`<a href="https://evil.example.com/update-primary-location?x=1">a</a>
<a href="https://www.netflix.com/account/update-primary-location?nftoken=good">b</a>`)

	action, err := rules.Extract(models.ClassLocationConfirmation, email)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if action.URL != "https://www.netflix.com/account/update-primary-location?nftoken=good" {
		t.Errorf("Expected the netflix.com link, got %s", action.URL)
	}
}

func TestExtract_NoLinkFound(t *testing.T) {
	rules := DefaultRules()
	email := netflixEmail("<p>update-primary-location mentioned, but no link</p>")

	_, err := rules.Extract(models.ClassLocationConfirmation, email)
	if !errors.Is(err, ErrNoLinkFound) {
		t.Errorf("Expected ErrNoLinkFound, got %v", err)
	}
}

func TestExtract_AccessCode(t *testing.T) {
	rules := DefaultRules()
	email := netflixEmail(accessBody)

	action, err := rules.Extract(models.ClassAccessCode, email)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if action.Code != "1234" {
		t.Errorf("Expected code 1234, got %q", action.Code)
	}
}

func TestExtract_NoCodeFound(t *testing.T) {
	rules := DefaultRules()
	email := netflixEmail("<p>accountaccess mail without a code cell</p>")

	_, err := rules.Extract(models.ClassAccessCode, email)
	if !errors.Is(err, ErrNoCodeFound) {
		t.Errorf("Expected ErrNoCodeFound, got %v", err)
	}
}

func TestExtract_Idempotent(t *testing.T) {
	rules := DefaultRules()
	email := netflixEmail(locationBody)

	first, err := rules.Extract(models.ClassLocationConfirmation, email)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	second, err := rules.Extract(models.ClassLocationConfirmation, email)
	if err != nil {
		t.Fatalf("Extract() second call error: %v", err)
	}
	if *first != *second {
		t.Errorf("Extract() not idempotent: %v vs %v", first, second)
	}
}

func TestLoadRules_Defaults(t *testing.T) {
	rules, err := LoadRules("")
	if err != nil {
		t.Fatalf("LoadRules() error: %v", err)
	}
	if *rules != *DefaultRules() {
		t.Errorf("LoadRules(\"\") = %+v, want defaults", rules)
	}
}

func TestLoadRules_Override(t *testing.T) {
	yamlContent := `senderDomain: "streaming.example.com"
locationMarker: "confirm-household"
`

	tmpFile, err := os.CreateTemp("", "rules-*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer func(name string) {
		_ = os.Remove(name)
	}(tmpFile.Name())

	if _, err := tmpFile.Write([]byte(yamlContent)); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}
	_ = tmpFile.Close()

	rules, err := LoadRules(tmpFile.Name())
	if err != nil {
		t.Fatalf("LoadRules() error: %v", err)
	}

	if rules.SenderDomain != "streaming.example.com" {
		t.Errorf("Expected overridden sender domain, got %s", rules.SenderDomain)
	}
	if rules.LocationMarker != "confirm-household" {
		t.Errorf("Expected overridden location marker, got %s", rules.LocationMarker)
	}
	if rules.TravelMarker != DefaultRules().TravelMarker {
		t.Errorf("Expected default travel marker, got %s", rules.TravelMarker)
	}
}

func TestLoadRules_MissingFile(t *testing.T) {
	if _, err := LoadRules("/nonexistent/rules.yaml"); err == nil {
		t.Error("Expected error for missing rules file")
	}
}
