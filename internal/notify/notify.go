package notify

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"netflix-verifybot/internal/logging"
	"netflix-verifybot/internal/models"
)

// Notifier reports pipeline outcomes to a side channel. Strictly
// observability: implementations never return errors to the caller.
type Notifier interface {
	Notify(message string)
}

// Noop is the Notifier used when no sink is configured
type Noop struct{}

func (Noop) Notify(string) {}

// Telegram posts outcome summaries to a Telegram-compatible broadcast
// endpoint. Fire and forget: network failures and non-2xx responses are
// logged and swallowed.
type Telegram struct {
	cfg    models.TelegramConfig
	client *http.Client
}

// NewTelegram creates a Telegram notifier with a bounded request timeout
func NewTelegram(cfg models.TelegramConfig) *Telegram {
	return &Telegram{
		cfg: cfg,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// FromConfig returns a Telegram notifier when the sink is configured,
// or a Noop otherwise.
func FromConfig(cfg models.TelegramConfig) Notifier {
	if !cfg.Enabled {
		return Noop{}
	}
	return NewTelegram(cfg)
}

type broadcastPayload struct {
	Message       string `json:"message"`
	ChannelName   string `json:"channel_name"`
	ChannelSecret string `json:"channel_secret"`
}

func (t *Telegram) Notify(message string) {
	body, err := json.Marshal(broadcastPayload{
		Message:       message,
		ChannelName:   t.cfg.ChannelName,
		ChannelSecret: t.cfg.ChannelSecret,
	})
	if err != nil {
		logging.Log.WithError(err).Warn("Failed to encode Telegram payload")
		return
	}

	req, err := http.NewRequest(http.MethodPost, t.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		logging.Log.WithError(err).Warn("Failed to build Telegram request")
		return
	}
	req.Header.Set("X-API-Key", t.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		logging.Log.WithError(err).Warn("Failed to send Telegram message")
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logging.Log.Warnf("Telegram API returned status %d", resp.StatusCode)
	}
}
