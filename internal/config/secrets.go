package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Secrets holds credentials loaded from the environment (optionally seeded
// from a .env file). They are kept out of the YAML config on purpose.
type Secrets struct {
	TelegramBotToken   string
	GeminiAPIKey       string
	TwitterBearerToken string
	AdminPassword      string
}

// LoadSecrets reads secrets from the environment. A .env file in the working
// directory is loaded first when present; a missing .env is not an error.
// TELEGRAM_BOT_TOKEN is required for the bot subcommand and validated there,
// not here, so that offline subcommands (ingest, ask) work without it.
func LoadSecrets() (*Secrets, error) {
	_ = godotenv.Load()
	s := &Secrets{
		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		TwitterBearerToken: os.Getenv("TWITTER_BEARER_TOKEN"),
		AdminPassword:      os.Getenv("ADMIN_PASSWORD"),
	}
	return s, nil
}

// RequireBotSecrets validates the secrets the bot subcommand cannot run without.
func (s *Secrets) RequireBotSecrets() error {
	if s.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is not set")
	}
	if s.AdminPassword == "" {
		return fmt.Errorf("ADMIN_PASSWORD is not set")
	}
	return nil
}
