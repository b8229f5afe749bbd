package models

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration, loaded once
// at startup and passed into the pipeline. Immutable after load.
type Config struct {
	Email    EmailConfig
	App      AppConfig
	Telegram TelegramConfig
}

// EmailConfig represents IMAP mailbox credentials
type EmailConfig struct {
	Address  string
	Password string
	Server   string
	Port     int
}

// Addr returns the host:port dial address for the IMAP server
func (e EmailConfig) Addr() string {
	return fmt.Sprintf("%s:%d", e.Server, e.Port)
}

// AppConfig represents pipeline tuning parameters
type AppConfig struct {
	CheckInterval    time.Duration
	Retention        time.Duration
	MaxRetryAttempts int
	LogPath          string
	GelesenFolder    string
	RulesPath        string
}

// TelegramConfig represents the optional notification sink. Enabled is
// true only when all four fields were provided.
type TelegramConfig struct {
	APIKey        string
	APIURL        string
	ChannelName   string
	ChannelSecret string
	Enabled       bool
}
