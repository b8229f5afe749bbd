package notify

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"netflix-verifybot/internal/models"
)

func telegramConfig(url string) models.TelegramConfig {
	return models.TelegramConfig{
		APIKey:        "0123456789abcdef",
		APIURL:        url,
		ChannelName:   "netflix",
		ChannelSecret: "hunter2",
		Enabled:       true,
	}
}

func TestTelegram_Notify(t *testing.T) {
	var gotKey, gotContentType string
	var gotBody broadcastPayload

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		gotContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tg := NewTelegram(telegramConfig(srv.URL))
	tg.Notify("location-confirmation email: confirmed")

	if gotKey != "0123456789abcdef" {
		t.Errorf("Expected X-API-Key header, got %q", gotKey)
	}
	if gotContentType != "application/json" {
		t.Errorf("Expected JSON content type, got %q", gotContentType)
	}
	if gotBody.Message != "location-confirmation email: confirmed" {
		t.Errorf("Unexpected message: %q", gotBody.Message)
	}
	if gotBody.ChannelName != "netflix" || gotBody.ChannelSecret != "hunter2" {
		t.Errorf("Unexpected channel fields: %+v", gotBody)
	}
}

func TestTelegram_SwallowsServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	tg := NewTelegram(telegramConfig(srv.URL))
	// Must not panic or propagate anything.
	tg.Notify("outcome")
}

func TestTelegram_SwallowsNetworkErrors(t *testing.T) {
	tg := NewTelegram(telegramConfig("http://127.0.0.1:1/unreachable"))
	tg.Notify("outcome")
}

func TestFromConfig(t *testing.T) {
	if _, ok := FromConfig(models.TelegramConfig{}).(Noop); !ok {
		t.Error("Expected Noop notifier when unconfigured")
	}
	if _, ok := FromConfig(telegramConfig("https://example.com")).(*Telegram); !ok {
		t.Error("Expected Telegram notifier when configured")
	}
}
