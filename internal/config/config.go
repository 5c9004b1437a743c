package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds the process settings, all sourced from the environment
// (optionally seeded from a .env file).
type Config struct {
	Port         string
	DataDir      string
	ChannelsFile string
	PublicURL    string

	BotUsername  string
	ClientID     string
	ClientSecret string
	RefreshToken string
	TokensFile   string

	DefaultChannel string
	DefaultPass    string
}

// Load reads .env if present, then the environment, applying defaults
// for everything optional.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	return Config{
		Port:           envOr("PORT", "3000"),
		DataDir:        envOr("DATA_DIR", "./data"),
		ChannelsFile:   envOr("CHANNELS_FILE", "./channels.json"),
		PublicURL:      os.Getenv("PUBLIC_URL"),
		BotUsername:    os.Getenv("BOT_USERNAME"),
		ClientID:       os.Getenv("TWITCH_CLIENT_ID"),
		ClientSecret:   os.Getenv("TWITCH_CLIENT_SECRET"),
		RefreshToken:   os.Getenv("TWITCH_REFRESH_TOKEN"),
		TokensFile:     envOr("TOKENS_FILE", "./tokens.json"),
		DefaultChannel: envOr("DEFAULT_CHANNEL", "admin"),
		DefaultPass:    envOr("DEFAULT_PASS", "password"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
