package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"netflix-verifybot/internal/models"

	"github.com/joho/godotenv"
)

// Error marks a missing or invalid configuration value. Fatal: the
// process refuses to start on one of these.
type Error struct {
	Msg string
}

func (e *Error) Error() string {
	return "config: " + e.Msg
}

func errorf(format string, args ...interface{}) *Error {
	return &Error{Msg: fmt.Sprintf(format, args...)}
}

// Load reads the configuration from the environment, optionally seeded
// from an env file (a missing file is ignored), validates it, and
// returns an immutable Config.
func Load(envFile string) (*models.Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, errorf("reading %s: %v", envFile, err)
		}
	}

	cfg := &models.Config{
		Email: models.EmailConfig{
			Address:  os.Getenv("EMAIL"),
			Password: os.Getenv("PASSWORD"),
			Server:   os.Getenv("IMAP_SERVER"),
		},
		App: models.AppConfig{
			LogPath:       getenvDefault("LOG_PATH", "netflix-verifybot.log"),
			GelesenFolder: getenvDefault("GELESEN_FOLDER", "Gelesen"),
			RulesPath:     os.Getenv("RULES_PATH"),
		},
	}

	if cfg.Email.Address == "" || cfg.Email.Password == "" || cfg.Email.Server == "" {
		return nil, errorf("missing required email configuration: EMAIL, PASSWORD, or IMAP_SERVER")
	}

	var err error
	if cfg.Email.Port, err = intEnv("IMAP_PORT", 993); err != nil {
		return nil, err
	}

	checkInterval, err := intEnv("CHECK_INTERVAL", 3)
	if err != nil {
		return nil, err
	}
	cfg.App.CheckInterval = time.Duration(checkInterval) * time.Second

	// Historical name: the value is in seconds despite "MINUTES".
	retention, err := intEnv("MINUTES_TO_WAIT", 900)
	if err != nil {
		return nil, err
	}
	cfg.App.Retention = time.Duration(retention) * time.Second

	if cfg.App.MaxRetryAttempts, err = intEnv("MAX_RETRY_ATTEMPTS", 3); err != nil {
		return nil, err
	}

	cfg.Telegram = loadTelegram()

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadTelegram reads the optional notification sink settings. The sink
// is enabled only when every field is present.
func loadTelegram() models.TelegramConfig {
	tg := models.TelegramConfig{
		APIKey:        os.Getenv("TELEGRAM_API_KEY"),
		APIURL:        os.Getenv("TELEGRAM_API_URL"),
		ChannelName:   os.Getenv("TELEGRAM_CHANNEL_NAME"),
		ChannelSecret: os.Getenv("TELEGRAM_CHANNEL_SECRET"),
	}
	tg.Enabled = tg.APIKey != "" && tg.APIURL != "" && tg.ChannelName != "" && tg.ChannelSecret != ""
	return tg
}

// Validate checks a loaded configuration for values that would only
// fail later at runtime.
func Validate(cfg *models.Config) error {
	if !strings.Contains(cfg.Email.Address, "@") {
		return errorf("invalid email address: %s", cfg.Email.Address)
	}
	if cfg.Email.Port < 1 || cfg.Email.Port > 65535 {
		return errorf("invalid IMAP port: %d", cfg.Email.Port)
	}
	if cfg.App.CheckInterval <= 0 {
		return errorf("invalid check interval: %s", cfg.App.CheckInterval)
	}
	if cfg.App.Retention <= 0 {
		return errorf("invalid retention window: %s", cfg.App.Retention)
	}
	if cfg.App.MaxRetryAttempts <= 0 {
		return errorf("invalid max retry attempts: %d", cfg.App.MaxRetryAttempts)
	}

	if cfg.Telegram.Enabled {
		if !strings.HasPrefix(cfg.Telegram.APIURL, "http://") && !strings.HasPrefix(cfg.Telegram.APIURL, "https://") {
			return errorf("invalid Telegram API URL: %s", cfg.Telegram.APIURL)
		}
		if len(cfg.Telegram.APIKey) < 10 {
			return errorf("Telegram API key appears to be invalid (too short)")
		}
	}

	return nil
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errorf("invalid %s: %q must be an integer", key, v)
	}
	return n, nil
}
