package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"netflix-verifybot/internal/browser"
	"netflix-verifybot/internal/config"
	imapclient "netflix-verifybot/internal/imap"
	"netflix-verifybot/internal/logging"
	"netflix-verifybot/internal/netflix"
	"netflix-verifybot/internal/notify"
	"netflix-verifybot/internal/pipeline"
)

const envFile = "config.env"

func main() {
	cfg, err := config.Load(envFile)
	if err != nil {
		logging.Log.Errorf("Configuration error: %v", err)
		os.Exit(1)
	}

	if err := logging.Init(cfg.App.LogPath); err != nil {
		logging.Log.Errorf("Logging setup error: %v", err)
		os.Exit(1)
	}

	rules, err := netflix.LoadRules(cfg.App.RulesPath)
	if err != nil {
		logging.Log.Errorf("Rules error: %v", err)
		os.Exit(1)
	}

	notifier := notify.FromConfig(cfg.Telegram)
	if cfg.Telegram.Enabled {
		logging.Log.Infof("Telegram notifications enabled for channel %s", cfg.Telegram.ChannelName)
	} else {
		logging.Log.Info("Telegram notifications disabled")
	}

	// Sweep temp profiles left behind by crashed runs.
	browser.StartCleanup()

	p := pipeline.New(
		imapclient.NewStandardClient(),
		rules,
		browser.NewRodBrowser(),
		notifier,
		cfg,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Log.Infof("Starting Netflix email verification process, checking every %s", cfg.App.CheckInterval)

	if err := p.Run(ctx); err != nil {
		logging.Log.Errorf("Fatal pipeline error: %v", err)
		os.Exit(1)
	}

	logging.Log.Info("Netflix VerifyBot stopped")
}
